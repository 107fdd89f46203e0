package belief

import (
	"fmt"
	"math/rand"

	"go.uber.org/zap"

	"github.com/sorgerlab/indra/statements"
)

// Engine applies a Scorer over assembled corpora, including belief
// propagation over the refinement graph.
type Engine struct {
	scorer    Scorer
	matchesFn func(statements.Statement) string
	log       *zap.Logger
}

// NewEngine builds an engine. scorer defaults to a SimpleScorer with the
// built-in rates; log may be nil.
func NewEngine(scorer Scorer, log *zap.Logger) *Engine {
	if scorer == nil {
		scorer = NewSimpleScorer(nil, nil)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		scorer:    scorer,
		matchesFn: func(s statements.Statement) string { return s.MatchesKey() },
		log:       log,
	}
}

// SetPriorProbs scores each deduplicated statement from its own evidence
// and writes the result to its Belief field.
func (e *Engine) SetPriorProbs(stmts []statements.Statement) error {
	if err := e.scorer.CheckPriors(stmts); err != nil {
		return err
	}
	for _, s := range stmts {
		belief, err := e.scorer.ScoreStatement(s, nil)
		if err != nil {
			return err
		}
		if len(s.Core().Evidence) == 0 {
			e.log.Warn("statement has no evidence, belief set to zero",
				zap.String("key", e.matchesFn(s)))
		}
		s.Core().Belief = belief
	}
	return nil
}

// SetHierarchyProbs scores statements over the refinement graph built by
// preassembly: each statement is scored from its own evidence plus the
// non-negated evidence of all transitively more specific statements,
// since evidence for a refined claim also supports the general one. The
// graph must be acyclic; a cycle means refinement linking went wrong and
// is reported as an error.
func (e *Engine) SetHierarchyProbs(stmts []statements.Statement) error {
	if err := e.scorer.CheckPriors(stmts); err != nil {
		return err
	}
	if cycle := findCycle(stmts); cycle != "" {
		return fmt.Errorf("belief: cycle in refinement graph at %s", cycle)
	}
	for _, s := range stmts {
		extra := e.collectSupportingEvidence(s)
		belief, err := e.scorer.ScoreStatement(s, extra)
		if err != nil {
			return err
		}
		if len(s.Core().Evidence)+len(extra) == 0 {
			e.log.Warn("statement has no evidence, belief set to zero",
				zap.String("key", e.matchesFn(s)))
		}
		s.Core().Belief = belief
	}
	return nil
}

// collectSupportingEvidence walks the transitive Supports closure (the
// more specific statements) and gathers their non-negated evidence,
// visiting each distinct statement once.
func (e *Engine) collectSupportingEvidence(s statements.Statement) []*statements.Evidence {
	var extra []*statements.Evidence
	visited := map[string]bool{e.matchesFn(s): true}
	var walk func(statements.Statement)
	walk = func(cur statements.Statement) {
		for _, spec := range cur.Core().Supports {
			key := e.matchesFn(spec)
			if visited[key] {
				continue
			}
			visited[key] = true
			for _, ev := range spec.Core().Evidence {
				if ev.Epistemics.Negated {
					continue
				}
				extra = append(extra, ev)
			}
			walk(spec)
		}
	}
	walk(s)
	return extra
}

// findCycle looks for a cycle over Supports edges and returns the
// matches key of a statement on the cycle, or "".
func findCycle(stmts []statements.Statement) string {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[string]int)
	var visit func(statements.Statement) string
	visit = func(s statements.Statement) string {
		id := s.Core().ID
		switch color[id] {
		case gray:
			return s.MatchesKey()
		case black:
			return ""
		}
		color[id] = gray
		for _, spec := range s.Core().Supports {
			if key := visit(spec); key != "" {
				return key
			}
		}
		color[id] = black
		return ""
	}
	for _, s := range stmts {
		if key := visit(s); key != "" {
			return key
		}
	}
	return ""
}

// SampleStatements draws each statement independently with probability
// equal to its belief. The same seed always yields the same sample.
func SampleStatements(stmts []statements.Statement, seed int64) []statements.Statement {
	rng := rand.New(rand.NewSource(seed))
	var out []statements.Statement
	for _, s := range stmts {
		if rng.Float64() < s.Core().Belief {
			out = append(out, s)
		}
	}
	return out
}
