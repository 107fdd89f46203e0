package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sorgerlab/indra/ontology"
)

var ontologyCmd = &cobra.Command{
	Use:   "ontology",
	Short: "Query the configured ontology graph",
}

func parseLabel(label string) (ns, id string, err error) {
	parts := strings.SplitN(label, ":", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("expected NS:ID, got %q", label)
	}
	return parts[0], parts[1], nil
}

// newRelationCmd builds a two-argument query subcommand for one relation.
func newRelationCmd(use, short string, query func(ontology.Service, string, string, string, string) (bool, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <NS:ID> <NS:ID>",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ns1, id1, err := parseLabel(args[0])
			if err != nil {
				return err
			}
			ns2, id2, err := parseLabel(args[1])
			if err != nil {
				return err
			}
			ont, err := loadOntology()
			if err != nil {
				return err
			}
			ok, err := query(ont, ns1, id1, ns2, id2)
			if err != nil {
				return err
			}
			fmt.Fprintln(os.Stdout, ok)
			return nil
		},
	}
}

func init() {
	ontologyCmd.AddCommand(
		newRelationCmd("isa", "Check whether the first node is a subtype of the second",
			func(o ontology.Service, ns1, id1, ns2, id2 string) (bool, error) {
				return o.IsA(ns1, id1, ns2, id2)
			}),
		newRelationCmd("partof", "Check whether the first node is a part of the second",
			func(o ontology.Service, ns1, id1, ns2, id2 string) (bool, error) {
				return o.PartOf(ns1, id1, ns2, id2)
			}),
		newRelationCmd("xref", "Check whether the two nodes are cross-referenced",
			func(o ontology.Service, ns1, id1, ns2, id2 string) (bool, error) {
				return o.IsEquivalent(ns1, id1, ns2, id2)
			}),
		newRelationCmd("opposite", "Check whether the two nodes carry opposite polarity",
			func(o ontology.Service, ns1, id1, ns2, id2 string) (bool, error) {
				return o.IsOpposite(ns1, id1, ns2, id2)
			}),
	)
	rootCmd.AddCommand(ontologyCmd)
}
