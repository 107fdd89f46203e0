package preassembly

import (
	"fmt"
	"runtime"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/sorgerlab/indra/ontology"
	"github.com/sorgerlab/indra/statements"
)

// MatchesFunc computes the duplicate-detection key of a statement.
// Overriding it changes what counts as "the same statement", e.g. to
// ignore agent state when grouping.
type MatchesFunc func(statements.Statement) string

// RefinementFunc decides whether more is at least as specific as less.
type RefinementFunc func(more, less statements.Statement, ont ontology.Service) (bool, error)

// Option configures a Preassembler. Options are applied in order and the
// first error aborts construction.
type Option func(*Preassembler) error

// WithWorkers sets the number of goroutines comparing statement buckets.
func WithWorkers(n int) Option {
	return func(p *Preassembler) error {
		if n < 1 {
			return fmt.Errorf("preassembly: workers must be positive, got %d", n)
		}
		p.workers = n
		return nil
	}
}

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(p *Preassembler) error {
		if log == nil {
			return fmt.Errorf("preassembly: nil logger")
		}
		p.log = log
		return nil
	}
}

// WithRegisterer registers assembly metrics with the given Prometheus
// registerer.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(p *Preassembler) error {
		p.metrics = newMetrics(reg)
		return nil
	}
}

// WithMatchesFunc overrides the duplicate-detection key.
func WithMatchesFunc(fn MatchesFunc) Option {
	return func(p *Preassembler) error {
		if fn == nil {
			return fmt.Errorf("preassembly: nil matches function")
		}
		p.matchesFn = fn
		return nil
	}
}

// WithRefinementFunc overrides the refinement comparator.
func WithRefinementFunc(fn RefinementFunc) Option {
	return func(p *Preassembler) error {
		if fn == nil {
			return fmt.Errorf("preassembly: nil refinement function")
		}
		p.refinesFn = fn
		return nil
	}
}

// New builds a Preassembler over the given ontology.
func New(ont ontology.Service, opts ...Option) (*Preassembler, error) {
	if ont == nil {
		return nil, fmt.Errorf("preassembly: nil ontology")
	}
	p := &Preassembler{
		ont:     ont,
		log:     zap.NewNop(),
		workers: runtime.GOMAXPROCS(0),
		matchesFn: func(s statements.Statement) string {
			return s.MatchesKey()
		},
		refinesFn: func(more, less statements.Statement, o ontology.Service) (bool, error) {
			return more.RefinementOf(less, o)
		},
		metrics: newMetrics(nil),
	}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	return p, nil
}
