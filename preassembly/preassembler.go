// Package preassembly deduplicates and hierarchically organizes
// statement corpora: exact duplicates are merged by matches key, then
// unique statements are linked into a refinement graph by pairwise
// comparison within entity-component buckets. The pairwise pass fans out
// over worker goroutines; results are deterministic regardless of worker
// count.
package preassembly

import (
	"context"
	"sort"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sorgerlab/indra/ontology"
	"github.com/sorgerlab/indra/statements"
)

// Preassembler runs deduplication and refinement linking. A single
// instance is safe for sequential reuse across corpora; the ontology it
// queries must be safe for concurrent use.
type Preassembler struct {
	ont       ontology.Service
	log       *zap.Logger
	workers   int
	matchesFn MatchesFunc
	refinesFn RefinementFunc
	metrics   *metrics
}

// Stats summarizes one assembly run.
type Stats struct {
	Raw          int
	Unique       int
	Buckets      int
	Comparisons  int
	Edges        int
	SkippedPairs int
}

// CombineDuplicates merges statements sharing a matches key. The first
// occurrence wins; evidence from later occurrences is appended after
// deduplication by evidence key, so output order is the stable first-seen
// order of the input. Input statements are never mutated.
func (p *Preassembler) CombineDuplicates(stmts []statements.Statement) ([]statements.Statement, Stats) {
	stats := Stats{Raw: len(stmts)}
	p.metrics.statementsIn.Add(float64(len(stmts)))

	var unique []statements.Statement
	byKey := make(map[string]statements.Statement, len(stmts))
	seenEv := make(map[string]map[string]bool)

	for _, s := range stmts {
		key := p.matchesFn(s)
		merged, ok := byKey[key]
		if !ok {
			merged = s.Clone()
			merged.Core().Evidence = nil
			byKey[key] = merged
			seenEv[key] = make(map[string]bool)
			unique = append(unique, merged)
		} else {
			p.metrics.duplicatesMerged.Inc()
		}
		for _, ev := range s.Core().Evidence {
			evKey := ev.MatchesKey()
			if seenEv[key][evKey] {
				continue
			}
			seenEv[key][evKey] = true
			merged.Core().AddEvidence(ev.Clone())
		}
	}
	stats.Unique = len(unique)
	p.log.Debug("combined duplicates",
		zap.Int("raw", stats.Raw), zap.Int("unique", stats.Unique))
	return unique, stats
}

// edge records that unique[specific] refines unique[general].
type edge struct {
	specific int
	general  int
}

// CombineRelated deduplicates the corpus and links unique statements
// into the refinement graph: when A refines B, A is appended to
// B.Supports and B to A.SupportedBy. All unique statements are returned;
// use TopLevel to select the maximally specific ones. Pairs the ontology
// cannot decide are left unlinked and counted in Stats.SkippedPairs.
func (p *Preassembler) CombineRelated(ctx context.Context, stmts []statements.Statement) ([]statements.Statement, Stats, error) {
	unique, stats := p.CombineDuplicates(stmts)
	buckets := p.buildBuckets(unique)
	stats.Buckets = len(buckets)

	g, ctx := errgroup.WithContext(ctx)
	jobs := make(chan []int)
	g.Go(func() error {
		defer close(jobs)
		for _, b := range buckets {
			select {
			case jobs <- b:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})

	var mu sync.Mutex
	var edges []edge
	comparisons, skipped := 0, 0

	for w := 0; w < p.workers; w++ {
		g.Go(func() error {
			for bucket := range jobs {
				localEdges, localCmp, localSkip := p.compareBucket(unique, bucket)
				mu.Lock()
				edges = append(edges, localEdges...)
				comparisons += localCmp
				skipped += localSkip
				mu.Unlock()
				select {
				case <-ctx.Done():
					return ctx.Err()
				default:
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, stats, err
	}

	stats.Comparisons = comparisons
	stats.SkippedPairs = skipped

	// Buckets overlap for statements with unspecified participants, so
	// the same relation can be found twice. Deduplicate, then apply edges
	// in a fixed order so Supports/SupportedBy ordering does not depend
	// on worker scheduling.
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].general != edges[j].general {
			return edges[i].general < edges[j].general
		}
		return edges[i].specific < edges[j].specific
	})
	var last *edge
	for i := range edges {
		e := edges[i]
		if last != nil && *last == e {
			continue
		}
		last = &edges[i]
		spec, gen := unique[e.specific], unique[e.general]
		gen.Core().Supports = append(gen.Core().Supports, spec)
		spec.Core().SupportedBy = append(spec.Core().SupportedBy, gen)
		stats.Edges++
		p.metrics.refinementEdges.Inc()
	}

	p.log.Info("combined related statements",
		zap.Int("raw", stats.Raw),
		zap.Int("unique", stats.Unique),
		zap.Int("buckets", stats.Buckets),
		zap.Int("comparisons", stats.Comparisons),
		zap.Int("edges", stats.Edges),
		zap.Int("skipped_pairs", stats.SkippedPairs))
	return unique, stats, nil
}

// compareBucket compares all pairs within one bucket and returns the
// refinement edges found.
func (p *Preassembler) compareBucket(unique []statements.Statement, bucket []int) ([]edge, int, int) {
	p.metrics.bucketSize.Observe(float64(len(bucket)))
	var edges []edge
	comparisons, skipped := 0, 0
	for i := 0; i < len(bucket); i++ {
		for j := i + 1; j < len(bucket); j++ {
			ix1, ix2 := bucket[i], bucket[j]
			if ix1 == ix2 {
				continue
			}
			s1, s2 := unique[ix1], unique[ix2]
			comparisons++
			p.metrics.comparisons.Inc()
			ref, err := p.refinesFn(s1, s2, p.ont)
			if err != nil {
				skipped++
				p.metrics.skippedPairs.Inc()
				p.log.Debug("refinement undecidable, keeping pair separate",
					zap.String("more", s1.MatchesKey()),
					zap.String("less", s2.MatchesKey()),
					zap.Error(err))
				continue
			}
			if ref {
				edges = append(edges, edge{specific: ix1, general: ix2})
				continue
			}
			ref, err = p.refinesFn(s2, s1, p.ont)
			if err != nil {
				skipped++
				p.metrics.skippedPairs.Inc()
				continue
			}
			if ref {
				edges = append(edges, edge{specific: ix2, general: ix1})
			}
		}
	}
	return edges, comparisons, skipped
}

// TopLevel returns the statements no other statement refines: the
// maximally specific claims of the corpus.
func TopLevel(stmts []statements.Statement) []statements.Statement {
	var top []statements.Statement
	for _, s := range stmts {
		if s.Core().IsTopLevel() {
			top = append(top, s)
		}
	}
	return top
}

// FlattenEvidence returns clones of the top-level statements with
// evidence gathered transitively from the more general statements they
// refine, deduplicated by evidence key. The supports/supported-by links
// of each original are retained on its clone so refinement provenance
// survives into the output. The linked corpus is left untouched.
func FlattenEvidence(stmts []statements.Statement) []statements.Statement {
	var out []statements.Statement
	for _, s := range TopLevel(stmts) {
		c := s.Clone()
		b := c.Core()
		b.Supports = append([]statements.Statement(nil), s.Core().Supports...)
		b.SupportedBy = append([]statements.Statement(nil), s.Core().SupportedBy...)
		seen := make(map[string]bool, len(b.Evidence))
		for _, ev := range b.Evidence {
			seen[ev.MatchesKey()] = true
		}
		visited := make(map[string]bool)
		collectGeneralEvidence(s, b, seen, visited)
		out = append(out, c)
	}
	return out
}

func collectGeneralEvidence(s statements.Statement, dst *statements.Base, seen, visited map[string]bool) {
	for _, gen := range s.Core().SupportedBy {
		if visited[gen.Core().ID] {
			continue
		}
		visited[gen.Core().ID] = true
		for _, ev := range gen.Core().Evidence {
			key := ev.MatchesKey()
			if seen[key] {
				continue
			}
			seen[key] = true
			dst.Evidence = append(dst.Evidence, ev.Clone())
		}
		collectGeneralEvidence(gen, dst, seen, visited)
	}
}
