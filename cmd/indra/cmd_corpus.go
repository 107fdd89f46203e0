package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/sorgerlab/indra/statements"
	"github.com/sorgerlab/indra/store"
)

var corpusCmd = &cobra.Command{
	Use:   "corpus",
	Short: "Manage archived statement corpora",
}

func openStore() (*store.CorpusStore, error) {
	return store.Open(cfg.Store.DatabasePath, logger)
}

var corpusListCmd = &cobra.Command{
	Use:   "list",
	Short: "List archived corpora",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		names, err := s.Corpora(cmd.Context())
		if err != nil {
			return err
		}
		for _, name := range names {
			fmt.Fprintln(os.Stdout, name)
		}
		return nil
	},
}

var corpusStatsCmd = &cobra.Command{
	Use:   "stats <name>",
	Short: "Show statement counts per relation type",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		counts, err := s.CountByType(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		types := make([]string, 0, len(counts))
		for typ := range counts {
			types = append(types, typ)
		}
		sort.Strings(types)
		for _, typ := range types {
			fmt.Fprintf(os.Stdout, "%-24s %d\n", typ, counts[typ])
		}
		return nil
	},
}

var corpusExportOutput string

var corpusExportCmd = &cobra.Command{
	Use:   "export <name>",
	Short: "Export an archived corpus as statement JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		stmts, err := s.LoadCorpus(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		data, err := statements.MarshalStatements(stmts)
		if err != nil {
			return err
		}
		if corpusExportOutput == "" || corpusExportOutput == "-" {
			fmt.Fprintln(os.Stdout, string(data))
			return nil
		}
		return os.WriteFile(corpusExportOutput, data, 0o644)
	},
}

var corpusDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete an archived corpus",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()
		return s.DeleteCorpus(cmd.Context(), args[0])
	},
}

func init() {
	corpusExportCmd.Flags().StringVarP(&corpusExportOutput, "output", "o", "-", "output file, - for stdout")
	corpusCmd.AddCommand(corpusListCmd, corpusStatsCmd, corpusExportCmd, corpusDeleteCmd)
	rootCmd.AddCommand(corpusCmd)
}
