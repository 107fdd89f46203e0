package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/sorgerlab/indra/grounding"
	"github.com/sorgerlab/indra/ontology"
	"github.com/sorgerlab/indra/sitemap"
	"github.com/sorgerlab/indra/statements"
)

// loadOntology builds the ontology service from configuration: the graph
// wrapped with a per-query timeout and a TTL cache.
func loadOntology() (ontology.Service, error) {
	var graph *ontology.Graph
	if cfg.Ontology.Path != "" {
		var err error
		graph, err = ontology.LoadFile(cfg.Ontology.Path)
		if err != nil {
			return nil, fmt.Errorf("load ontology: %w", err)
		}
		logger.Info("ontology loaded",
			zap.String("path", cfg.Ontology.Path),
			zap.Int("nodes", graph.NodeCount()))
	} else {
		logger.Warn("no ontology configured; only exact groundings will compare")
		graph = ontology.NewGraph()
	}

	timeout, err := cfg.Ontology.ParsedQueryTimeout()
	if err != nil {
		return nil, err
	}
	ttl, err := cfg.Ontology.ParsedCacheTTL()
	if err != nil {
		return nil, err
	}
	return ontology.NewCached(ontology.NewTimeout(graph, timeout), ttl, ttl), nil
}

// loadStatements reads and validates a raw statement JSON file.
func loadStatements(path string) ([]statements.Statement, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read statements: %w", err)
	}
	stmts, err := statements.UnmarshalStatements(data)
	if err != nil {
		return nil, fmt.Errorf("parse statements: %w", err)
	}

	accepted, rejected := statements.Ingest(stmts)
	for _, r := range rejected {
		logger.Warn("statement rejected", zap.Error(r.Err))
	}
	logger.Info("statements loaded",
		zap.String("path", path),
		zap.Int("accepted", len(accepted)),
		zap.Int("rejected", len(rejected)))
	return accepted, nil
}

// applyGrounding normalizes agent groundings when a map is configured.
func applyGrounding(stmts []statements.Statement) ([]statements.Statement, error) {
	if cfg.Grounding.MapDir == "" {
		return stmts, nil
	}
	entries, err := grounding.LoadDir(cfg.Grounding.MapDir)
	if err != nil {
		return nil, fmt.Errorf("load grounding map: %w", err)
	}
	var disamb grounding.Disambiguator
	if ratio := cfg.Grounding.DisambiguationMinRatio; ratio > 0 {
		disamb = grounding.FrequencyDisambiguator{MinRatio: ratio}
	}
	mapped, stats := grounding.NewMapper(entries, disamb).MapStatements(stmts)
	logger.Info("grounding applied",
		zap.Int("agents", stats.Agents),
		zap.Int("resolved", stats.Resolved),
		zap.Int("ambiguous", stats.Ambiguous),
		zap.Int("ungroundable", stats.Ungroundable),
		zap.Int("unmapped", stats.Unmapped),
		zap.Int("dropped", stats.Dropped))
	return mapped, nil
}

// applySiteMap corrects or drops invalid modification sites when a site
// map is configured.
func applySiteMap(stmts []statements.Statement) ([]statements.Statement, error) {
	if cfg.SiteMap.Path == "" {
		return stmts, nil
	}
	f, err := os.Open(cfg.SiteMap.Path)
	if err != nil {
		return nil, fmt.Errorf("open site map: %w", err)
	}
	defer f.Close()

	table, err := sitemap.LoadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("load site map: %w", err)
	}
	valid, _, stats := sitemap.New(table, logger).MapStatements(stmts)
	logger.Info("site map applied",
		zap.Int("statements", stats.Statements),
		zap.Int("corrected", stats.Corrected),
		zap.Int("dropped", stats.Dropped))
	return valid, nil
}
