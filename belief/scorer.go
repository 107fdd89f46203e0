// Package belief assigns confidence scores to assembled statements. The
// score models two error modes per knowledge source: a systematic error
// that repeats across all evidence from the source, and a random error
// paid once per evidence. Evidence from independent sources multiplies
// the probability of the statement being wrong, so corroboration across
// sources raises belief faster than repetition within one source.
package belief

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/sorgerlab/indra/statements"
)

//go:embed default_probs.json
var defaultProbsJSON []byte

// CurationEpsilon is the belief assigned to a statement whose evidence
// has been curated incorrect. Nonzero so that downstream log-odds
// computations stay finite.
const CurationEpsilon = 1e-4

// Probs holds per-source error rates. Rand is the random error rate paid
// per evidence; Syst is the systematic error rate paid once per source.
type Probs struct {
	Rand map[string]float64 `json:"rand"`
	Syst map[string]float64 `json:"syst"`
}

var (
	defaultProbsOnce sync.Once
	defaultProbs     Probs
)

// DefaultProbs returns a copy of the built-in error rate table.
func DefaultProbs() Probs {
	defaultProbsOnce.Do(func() {
		if err := json.Unmarshal(defaultProbsJSON, &defaultProbs); err != nil {
			panic(fmt.Sprintf("belief: bad embedded probability table: %v", err))
		}
	})
	out := Probs{
		Rand: make(map[string]float64, len(defaultProbs.Rand)),
		Syst: make(map[string]float64, len(defaultProbs.Syst)),
	}
	for k, v := range defaultProbs.Rand {
		out.Rand[k] = v
	}
	for k, v := range defaultProbs.Syst {
		out.Syst[k] = v
	}
	return out
}

// Scorer computes the belief of a deduplicated statement from its
// evidence, plus optional extra evidence propagated from related
// statements.
type Scorer interface {
	ScoreStatement(s statements.Statement, extra []*statements.Evidence) (float64, error)

	// CheckPriors verifies that every evidence source appearing in the
	// corpus has error rates, so a scoring run cannot fail halfway.
	CheckPriors(stmts []statements.Statement) error
}

// SubtypeProbs maps source -> extraction rule -> random error rate. The
// rule is read from the evidence annotation "found_by".
type SubtypeProbs map[string]map[string]float64

// SimpleScorer scores statements with fixed per-source error rates.
type SimpleScorer struct {
	probs    Probs
	subtype  SubtypeProbs
	fallback *Probs // rates for sources missing from the table
}

// NewSimpleScorer returns a scorer using the built-in table, with
// overrides applied on top. Either argument may be nil.
func NewSimpleScorer(overrides *Probs, subtype SubtypeProbs) *SimpleScorer {
	s := &SimpleScorer{probs: DefaultProbs(), subtype: subtype}
	if overrides != nil {
		for src, v := range overrides.Rand {
			s.probs.Rand[src] = v
		}
		for src, v := range overrides.Syst {
			s.probs.Syst[src] = v
		}
	}
	return s
}

// SetFallback makes unknown sources score with the given error rates
// instead of failing CheckPriors.
func (s *SimpleScorer) SetFallback(syst, rand float64) {
	s.fallback = &Probs{
		Syst: map[string]float64{"": syst},
		Rand: map[string]float64{"": rand},
	}
}

// updateProbs replaces rates; used by BayesianScorer after count updates.
func (s *SimpleScorer) updateProbs(prior Probs, subtype SubtypeProbs) {
	for src, v := range prior.Rand {
		s.probs.Rand[src] = v
	}
	for src, v := range prior.Syst {
		s.probs.Syst[src] = v
	}
	if subtype != nil {
		s.subtype = subtype
	}
}

func (s *SimpleScorer) systRate(source string) (float64, bool) {
	if v, ok := s.probs.Syst[source]; ok {
		return v, true
	}
	if s.fallback != nil {
		return s.fallback.Syst[""], true
	}
	return 0, false
}

// randRate returns the random error rate of one evidence, preferring a
// curated rate for the specific extraction rule over the source-wide one.
func (s *SimpleScorer) randRate(ev *statements.Evidence) (float64, bool) {
	if rule := ev.Annotations["found_by"]; rule != "" {
		if bySource, ok := s.subtype[ev.SourceAPI]; ok {
			if v, ok := bySource[rule]; ok {
				return v, true
			}
		}
	}
	if v, ok := s.probs.Rand[ev.SourceAPI]; ok {
		return v, true
	}
	if s.fallback != nil {
		return s.fallback.Rand[""], true
	}
	return 0, false
}

// scoreEvidence computes 1 - prod_source(syst_s + prod_ev(rand_ev)).
func (s *SimpleScorer) scoreEvidence(evs []*statements.Evidence) (float64, error) {
	if len(evs) == 0 {
		return 0, nil
	}
	randBySource := make(map[string]float64)
	for _, ev := range evs {
		r, ok := s.randRate(ev)
		if !ok {
			return 0, fmt.Errorf("belief: no error rates for source %q", ev.SourceAPI)
		}
		if prev, seen := randBySource[ev.SourceAPI]; seen {
			randBySource[ev.SourceAPI] = prev * r
		} else {
			randBySource[ev.SourceAPI] = r
		}
	}
	negProb := 1.0
	for source, randFactor := range randBySource {
		syst, ok := s.systRate(source)
		if !ok {
			return 0, fmt.Errorf("belief: no error rates for source %q", source)
		}
		negProb *= syst + randFactor
	}
	return 1 - negProb, nil
}

// ScoreStatement implements Scorer. Evidence curated correct pins the
// belief to 1; evidence curated incorrect, with no correct curation
// present, pins it to CurationEpsilon. Negated evidence reduces belief:
// the score is pp*(1-np) where pp and np are the scores of the positive
// and negated evidence sets, since the statement only holds if the
// positive evidence is right and the negated evidence is wrong.
func (s *SimpleScorer) ScoreStatement(st statements.Statement, extra []*statements.Evidence) (float64, error) {
	all := make([]*statements.Evidence, 0, len(st.Core().Evidence)+len(extra))
	all = append(all, st.Core().Evidence...)
	all = append(all, extra...)

	curatedIncorrect := false
	for _, ev := range all {
		switch ev.Curation {
		case statements.CurationCorrect:
			return 1, nil
		case statements.CurationIncorrect:
			curatedIncorrect = true
		}
	}
	if curatedIncorrect {
		return CurationEpsilon, nil
	}

	var pos, neg []*statements.Evidence
	for _, ev := range all {
		if ev.Epistemics.Negated {
			neg = append(neg, ev)
		} else {
			pos = append(pos, ev)
		}
	}
	pp, err := s.scoreEvidence(pos)
	if err != nil {
		return 0, err
	}
	np, err := s.scoreEvidence(neg)
	if err != nil {
		return 0, err
	}
	return pp * (1 - np), nil
}

// CheckPriors implements Scorer.
func (s *SimpleScorer) CheckPriors(stmts []statements.Statement) error {
	if s.fallback != nil {
		return nil
	}
	for _, st := range stmts {
		for _, ev := range st.Core().Evidence {
			if _, ok := s.probs.Rand[ev.SourceAPI]; !ok {
				return fmt.Errorf("belief: no random error rate for source %q", ev.SourceAPI)
			}
			if _, ok := s.probs.Syst[ev.SourceAPI]; !ok {
				return fmt.Errorf("belief: no systematic error rate for source %q", ev.SourceAPI)
			}
		}
	}
	return nil
}

// Counts holds correct/incorrect tallies.
type Counts struct {
	Correct   int
	Incorrect int
}

// bayesSystError is the assumed systematic error rate for sources whose
// rates are estimated from counts.
const bayesSystError = 0.05

// BayesianScorer estimates per-source error rates from curation counts
// and updates them as new counts arrive.
type BayesianScorer struct {
	*SimpleScorer
	priorCounts   map[string]Counts
	subtypeCounts map[string]map[string]Counts
}

// NewBayesianScorer builds a scorer from initial counts. Either map may
// be nil.
func NewBayesianScorer(priorCounts map[string]Counts, subtypeCounts map[string]map[string]Counts) *BayesianScorer {
	b := &BayesianScorer{
		SimpleScorer:  NewSimpleScorer(nil, nil),
		priorCounts:   make(map[string]Counts),
		subtypeCounts: make(map[string]map[string]Counts),
	}
	for src, c := range priorCounts {
		b.priorCounts[src] = c
	}
	for src, rules := range subtypeCounts {
		b.subtypeCounts[src] = make(map[string]Counts, len(rules))
		for rule, c := range rules {
			b.subtypeCounts[src][rule] = c
		}
	}
	b.recompute()
	return b
}

// UpdateCounts folds new curation counts into the tallies and refreshes
// the error rates.
func (b *BayesianScorer) UpdateCounts(priorCounts map[string]Counts, subtypeCounts map[string]map[string]Counts) {
	for src, c := range priorCounts {
		cur := b.priorCounts[src]
		cur.Correct += c.Correct
		cur.Incorrect += c.Incorrect
		b.priorCounts[src] = cur
	}
	for src, rules := range subtypeCounts {
		if b.subtypeCounts[src] == nil {
			b.subtypeCounts[src] = make(map[string]Counts, len(rules))
		}
		for rule, c := range rules {
			cur := b.subtypeCounts[src][rule]
			cur.Correct += c.Correct
			cur.Incorrect += c.Incorrect
			b.subtypeCounts[src][rule] = cur
		}
	}
	b.recompute()
}

func countsToRand(c Counts) (float64, bool) {
	total := c.Correct + c.Incorrect
	if total == 0 {
		return 0, false
	}
	precision := float64(c.Correct) / float64(total)
	if precision > 1-bayesSystError {
		precision = 1 - bayesSystError
	}
	return 1 - precision - bayesSystError, true
}

func (b *BayesianScorer) recompute() {
	prior := Probs{Rand: make(map[string]float64), Syst: make(map[string]float64)}
	for src, c := range b.priorCounts {
		r, ok := countsToRand(c)
		if !ok {
			continue
		}
		prior.Syst[src] = bayesSystError
		prior.Rand[src] = r
	}
	subtype := make(SubtypeProbs)
	for src, rules := range b.subtypeCounts {
		for rule, c := range rules {
			r, ok := countsToRand(c)
			if !ok {
				continue
			}
			if subtype[src] == nil {
				subtype[src] = make(map[string]float64, len(rules))
			}
			subtype[src][rule] = r
		}
	}
	b.updateProbs(prior, subtype)
}
