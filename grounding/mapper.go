// Package grounding normalizes entity references: raw text mentions are
// mapped to canonical namespace identifiers through a curated grounding
// map, with optional disambiguation between competing senses. A Mapper is
// an immutable snapshot; the Watcher rebuilds and swaps snapshots when
// the underlying resource files change.
package grounding

import (
	"strings"

	"github.com/sorgerlab/indra/statements"
)

// Candidate is one possible grounding for a text mention. Frequency is
// the relative weight of the sense in the training corpus; candidates of
// an unambiguous entry carry frequency 1.
type Candidate struct {
	Refs      map[string]string `json:"db_refs"`
	Name      string            `json:"name,omitempty"`
	Frequency float64           `json:"frequency,omitempty"`
}

// Outcome classifies the result of resolving a mention.
type Outcome int

const (
	// Unmapped means the text is not in the grounding map; the agent is
	// left untouched.
	Unmapped Outcome = iota
	// Resolved means a single grounding was selected.
	Resolved
	// Ambiguous means several senses remained and the disambiguator
	// declined to choose; the agent is left untouched.
	Ambiguous
	// Ungroundable means the text is curated as a known false positive;
	// all non-text references are stripped.
	Ungroundable
)

func (o Outcome) String() string {
	switch o {
	case Resolved:
		return "resolved"
	case Ambiguous:
		return "ambiguous"
	case Ungroundable:
		return "ungroundable"
	default:
		return "unmapped"
	}
}

// Result is the outcome of resolving one mention.
type Result struct {
	Outcome    Outcome
	Chosen     Candidate   // valid when Outcome == Resolved
	Candidates []Candidate // the full sense list for Ambiguous results
}

// Disambiguator selects between competing senses of a mention.
type Disambiguator interface {
	// Choose returns the selected candidate, or ok=false to leave the
	// mention ambiguous.
	Choose(text string, candidates []Candidate) (Candidate, bool)
}

// FrequencyDisambiguator picks the most frequent sense when it dominates
// the runner-up by at least MinRatio. A zero value never chooses.
type FrequencyDisambiguator struct {
	// MinRatio is the required ratio between the top and second sense
	// frequencies, e.g. 2 means the winner needs twice the weight.
	MinRatio float64
}

// Choose implements Disambiguator.
func (d FrequencyDisambiguator) Choose(_ string, candidates []Candidate) (Candidate, bool) {
	if len(candidates) == 0 || d.MinRatio <= 0 {
		return Candidate{}, false
	}
	best, second := -1.0, -1.0
	var chosen Candidate
	for _, c := range candidates {
		if c.Frequency > best {
			second = best
			best = c.Frequency
			chosen = c
		} else if c.Frequency > second {
			second = c.Frequency
		}
	}
	if second <= 0 {
		return chosen, best > 0
	}
	if best/second >= d.MinRatio {
		return chosen, true
	}
	return Candidate{}, false
}

// Stats counts resolution outcomes over a mapping run. Dropped counts
// whole statements removed because a mention was curated as a false
// positive.
type Stats struct {
	Agents       int
	Resolved     int
	Ambiguous    int
	Ungroundable int
	Unmapped     int
	Dropped      int
}

func (s *Stats) record(o Outcome) {
	s.Agents++
	switch o {
	case Resolved:
		s.Resolved++
	case Ambiguous:
		s.Ambiguous++
	case Ungroundable:
		s.Ungroundable++
	default:
		s.Unmapped++
	}
}

// Mapper is an immutable snapshot of the grounding map. Lookup keys are
// normalized mentions; an entry with no candidates marks the mention as
// ungroundable.
type Mapper struct {
	entries map[string][]Candidate
	disamb  Disambiguator
}

// NewMapper builds a snapshot over the given entries. A nil or empty
// candidate list marks its mention ungroundable. disamb may be nil, in
// which case multi-sense entries always resolve as Ambiguous.
func NewMapper(entries map[string][]Candidate, disamb Disambiguator) *Mapper {
	norm := make(map[string][]Candidate, len(entries))
	for text, cands := range entries {
		norm[normalize(text)] = cands
	}
	return &Mapper{entries: norm, disamb: disamb}
}

// normalize canonicalizes a mention for lookup: case folded with
// collapsed whitespace, matching the agent matches-key normalization.
func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// Len returns the number of mapped mentions.
func (m *Mapper) Len() int { return len(m.entries) }

// Resolve maps one raw mention.
func (m *Mapper) Resolve(text string) Result {
	cands, ok := m.entries[normalize(text)]
	if !ok {
		return Result{Outcome: Unmapped}
	}
	switch len(cands) {
	case 0:
		return Result{Outcome: Ungroundable}
	case 1:
		return Result{Outcome: Resolved, Chosen: cands[0]}
	}
	if m.disamb != nil {
		if chosen, picked := m.disamb.Choose(text, cands); picked {
			return Result{Outcome: Resolved, Chosen: chosen}
		}
	}
	return Result{Outcome: Ambiguous, Candidates: cands}
}

// MapAgent applies the grounding map to a single agent in place and
// returns the outcome. The raw text mention is preserved under the TEXT
// namespace in every case.
func (m *Mapper) MapAgent(a *statements.Agent) Outcome {
	if a == nil {
		return Unmapped
	}
	res := m.Resolve(a.RawText())
	switch res.Outcome {
	case Resolved:
		text := a.DBRefs[statements.TextNamespace]
		refs := make(map[string]string, len(res.Chosen.Refs)+1)
		for ns, id := range res.Chosen.Refs {
			refs[ns] = id
		}
		if text != "" {
			refs[statements.TextNamespace] = text
		}
		a.DBRefs = refs
		if res.Chosen.Name != "" {
			a.Name = res.Chosen.Name
		}
	case Ungroundable:
		text := a.DBRefs[statements.TextNamespace]
		if text != "" {
			a.DBRefs = map[string]string{statements.TextNamespace: text}
		} else {
			a.DBRefs = nil
		}
	}
	return res.Outcome
}

// MapStatements applies the grounding map to a corpus. Statements are
// cloned so the input is never mutated; every participant is mapped,
// including agents inside bound conditions. A statement with a mention
// curated as a false positive (mapped to no grounding at all) is removed
// from the output and counted in Stats.Dropped.
func (m *Mapper) MapStatements(stmts []statements.Statement) ([]statements.Statement, Stats) {
	var stats Stats
	out := make([]statements.Statement, 0, len(stmts))
	for _, s := range stmts {
		c := s.Clone()
		drop := false
		mapOne := func(a *statements.Agent) {
			o := m.MapAgent(a)
			stats.record(o)
			if o == Ungroundable {
				drop = true
			}
		}
		for _, a := range c.AgentList() {
			if a == nil {
				continue
			}
			mapOne(a)
			for j := range a.BoundConditions {
				mapOne(a.BoundConditions[j].Agent)
			}
		}
		if drop {
			stats.Dropped++
			continue
		}
		out = append(out, c)
	}
	return out, stats
}
