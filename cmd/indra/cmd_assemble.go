package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sorgerlab/indra/belief"
	"github.com/sorgerlab/indra/preassembly"
	"github.com/sorgerlab/indra/statements"
	"github.com/sorgerlab/indra/store"
)

var (
	assembleInput  string
	assembleOutput string
	assembleCorpus string
)

var assembleCmd = &cobra.Command{
	Use:   "assemble",
	Short: "Run the full assembly pipeline over a raw statement file",
	Long: `Assemble reads raw extracted statements, normalizes groundings and
modification sites, merges duplicates, links refinements and scores
belief. The result is written as JSON and optionally archived as a
named corpus.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		stmts, err := loadStatements(assembleInput)
		if err != nil {
			return err
		}
		if stmts, err = applyGrounding(stmts); err != nil {
			return err
		}
		if stmts, err = applySiteMap(stmts); err != nil {
			return err
		}

		ont, err := loadOntology()
		if err != nil {
			return err
		}
		opts := []preassembly.Option{preassembly.WithLogger(logger)}
		if cfg.Assembly.Workers > 0 {
			opts = append(opts, preassembly.WithWorkers(cfg.Assembly.Workers))
		}
		pa, err := preassembly.New(ont, opts...)
		if err != nil {
			return err
		}

		// CombineRelated deduplicates internally before linking.
		assembled, relStats, err := pa.CombineRelated(ctx, stmts)
		if err != nil {
			return err
		}
		logger.Info("statements assembled",
			zap.Int("raw", relStats.Raw),
			zap.Int("unique", relStats.Unique),
			zap.Int("buckets", relStats.Buckets),
			zap.Int("comparisons", relStats.Comparisons),
			zap.Int("edges", relStats.Edges),
			zap.Int("skipped_pairs", relStats.SkippedPairs))

		if err := scoreBelief(assembled); err != nil {
			return err
		}

		out := assembled
		switch {
		case cfg.Assembly.FlattenEvidence:
			out = preassembly.FlattenEvidence(assembled)
		case cfg.Assembly.TopLevelOnly:
			out = preassembly.TopLevel(assembled)
		}

		data, err := statements.MarshalStatements(out)
		if err != nil {
			return err
		}
		if assembleOutput == "" || assembleOutput == "-" {
			fmt.Fprintln(os.Stdout, string(data))
		} else if err := os.WriteFile(assembleOutput, data, 0o644); err != nil {
			return fmt.Errorf("write output: %w", err)
		}

		if assembleCorpus != "" {
			s, err := store.Open(cfg.Store.DatabasePath, logger)
			if err != nil {
				return err
			}
			defer s.Close()
			// Archive the full refinement DAG, not the trimmed output.
			if err := s.SaveCorpus(ctx, assembleCorpus, assembled); err != nil {
				return err
			}
		}

		logger.Info("assembly complete",
			zap.Int("raw", relStats.Raw),
			zap.Int("assembled", len(assembled)),
			zap.Int("output", len(out)))
		return nil
	},
}

// scoreBelief builds the configured scorer and applies hierarchy-aware
// belief scores in place.
func scoreBelief(stmts []statements.Statement) error {
	var overrides *belief.Probs
	if cfg.Belief.ProbsPath != "" {
		data, err := os.ReadFile(cfg.Belief.ProbsPath)
		if err != nil {
			return fmt.Errorf("read belief probs: %w", err)
		}
		overrides = &belief.Probs{}
		if err := json.Unmarshal(data, overrides); err != nil {
			return fmt.Errorf("parse belief probs: %w", err)
		}
	}
	scorer := belief.NewSimpleScorer(overrides, nil)
	if cfg.Belief.FallbackSyst != nil && cfg.Belief.FallbackRand != nil {
		scorer.SetFallback(*cfg.Belief.FallbackSyst, *cfg.Belief.FallbackRand)
	}
	return belief.NewEngine(scorer, logger).SetHierarchyProbs(stmts)
}

func init() {
	assembleCmd.Flags().StringVarP(&assembleInput, "input", "i", "", "raw statement JSON file (required)")
	assembleCmd.Flags().StringVarP(&assembleOutput, "output", "o", "-", "assembled statement JSON file, - for stdout")
	assembleCmd.Flags().StringVar(&assembleCorpus, "corpus", "", "also archive the result under this corpus name")
	assembleCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(assembleCmd)
}
