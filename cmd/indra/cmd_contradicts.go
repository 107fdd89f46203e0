package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sorgerlab/indra/preassembly"
)

var contradictsInput string

var contradictsCmd = &cobra.Command{
	Use:   "contradicts",
	Short: "Report pairs of statements that contradict each other",
	RunE: func(cmd *cobra.Command, args []string) error {
		stmts, err := loadStatements(contradictsInput)
		if err != nil {
			return err
		}
		if stmts, err = applyGrounding(stmts); err != nil {
			return err
		}

		ont, err := loadOntology()
		if err != nil {
			return err
		}
		pa, err := preassembly.New(ont, preassembly.WithLogger(logger))
		if err != nil {
			return err
		}
		unique, _ := pa.CombineDuplicates(stmts)

		pairs, err := pa.FindContradicts(cmd.Context(), unique)
		if err != nil {
			return err
		}
		for _, pair := range pairs {
			fmt.Fprintf(os.Stdout, "%s  <->  %s\n",
				pair[0].MatchesKey(), pair[1].MatchesKey())
		}
		fmt.Fprintf(os.Stdout, "%d contradicting pair(s)\n", len(pairs))
		return nil
	},
}

func init() {
	contradictsCmd.Flags().StringVarP(&contradictsInput, "input", "i", "", "raw statement JSON file (required)")
	contradictsCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(contradictsCmd)
}
