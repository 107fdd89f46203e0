// Package statements defines the canonical in-memory representation of
// mechanistic assertions: typed relations over grounded Agents, each
// carrying Evidence, a deterministic matches-key for deduplication, and a
// refinement comparator that orders statements by specificity against an
// ontology. Relation behavior is reached through a flat registry of type
// tags rather than an inheritance hierarchy.
package statements

import (
	"errors"

	"github.com/google/uuid"
	"github.com/sorgerlab/indra/ontology"
)

// ErrNotComparable indicates that a refinement comparison could not be
// decided, typically because the ontology was unavailable. The pair must
// be treated as unrelated, never merged.
var ErrNotComparable = errors.New("statements: pair not comparable")

// Statement is a typed mechanistic assertion over Agents.
//
// Implementations are pointer types embedding Base. A Statement is
// immutable once scored, except for belief recomputation.
type Statement interface {
	// Type returns the registered relation type tag, e.g.
	// "phosphorylation" or "activation".
	Type() string

	// AgentList returns the participants in declaration order. Entries
	// may be nil where the relation permits an unspecified participant.
	AgentList() []*Agent

	// SetAgentList replaces the participants; the length must match the
	// relation's arity.
	SetAgentList(agents []*Agent) error

	// MatchesKey returns the canonical duplicate-detection key. Two
	// statements are exact duplicates iff their keys are equal.
	MatchesKey() string

	// RefinementOf reports whether this statement is at least as specific
	// as other, consulting the ontology for entity and state hierarchy
	// queries. Errors wrap ErrNotComparable or ontology.ErrUnavailable
	// and mean "keep the pair separate".
	RefinementOf(other Statement, ont ontology.Service) (bool, error)

	// Contradicts reports whether this statement and other assert
	// incompatible relations over matching entities.
	Contradicts(other Statement, ont ontology.Service) (bool, error)

	// Equal reports deep semantic equality ignoring evidence and links.
	Equal(other Statement) bool

	// Validate checks that the required participants for the relation
	// type are present. A failing statement is rejected at ingestion.
	Validate() error

	// Clone returns a deep copy with the same UUID and evidence but
	// empty supports/supported-by links.
	Clone() Statement

	// Core exposes the shared fields (UUID, evidence, links, belief).
	Core() *Base
}

// Base holds the fields shared by every relation type.
type Base struct {
	// ID is a stable unique identifier assigned at construction.
	ID string `json:"id"`
	// Evidence lists the supporting extractions, in stable first-seen
	// order after deduplication.
	Evidence []*Evidence `json:"evidence,omitempty"`
	// Belief is the assembled confidence in [0, 1]; zero until the belief
	// engine has run.
	Belief float64 `json:"belief,omitempty"`

	// Supports holds more specific statements that refine this one;
	// SupportedBy holds more general statements this one refines. The two
	// together form the refinement DAG. Serialized as ID references.
	Supports    []Statement `json:"-"`
	SupportedBy []Statement `json:"-"`
}

// NewBase returns a Base with a fresh UUID and the given evidence.
func NewBase(evidence ...*Evidence) Base {
	return Base{ID: uuid.NewString(), Evidence: evidence}
}

// Core implements the Statement accessor. The method is promoted through
// the embedded Base field of every concrete relation type; it must not
// share the field's name or the promotion would be shadowed.
func (b *Base) Core() *Base { return b }

// AddEvidence appends evidence records.
func (b *Base) AddEvidence(evs ...*Evidence) {
	b.Evidence = append(b.Evidence, evs...)
}

// IsTopLevel reports whether no retained statement refines this one.
func (b *Base) IsTopLevel() bool { return len(b.Supports) == 0 }

// cloneBase copies ID, belief and evidence but not links; link structure
// belongs to a particular preassembly run.
func (b *Base) cloneBase() Base {
	c := Base{ID: b.ID, Belief: b.Belief}
	for _, ev := range b.Evidence {
		c.Evidence = append(c.Evidence, ev.Clone())
	}
	return c
}

// agentRefinement compares two participant slots. A nil participant is
// maximally general: nil refines only nil in the specific position sense
// used here, while a concrete agent always refines a nil slot.
func agentRefinement(self, other *Agent, ont ontology.Service) (bool, error) {
	switch {
	case self == nil && other == nil:
		return true, nil
	case self == nil:
		return false, nil
	case other == nil:
		return true, nil
	default:
		return self.RefinementOf(other, ont)
	}
}

// entitiesComparable reports whether each pair of corresponding agents
// matches, refines, or is refined by the other; used by contradiction
// checks which require the entities to be about the same things.
func entitiesComparable(a, b Statement, ont ontology.Service) (bool, error) {
	al, bl := a.AgentList(), b.AgentList()
	if len(al) != len(bl) {
		return false, nil
	}
	for i := range al {
		if al[i] == nil || bl[i] == nil {
			return false, nil
		}
		if al[i].EntityMatches(bl[i]) {
			continue
		}
		fwd, err := al[i].RefinementOf(bl[i], ont)
		if err != nil {
			return false, err
		}
		if fwd {
			continue
		}
		rev, err := bl[i].RefinementOf(al[i], ont)
		if err != nil {
			return false, err
		}
		if !rev {
			return false, nil
		}
	}
	return true, nil
}

func agentKey(a *Agent) string {
	if a == nil {
		return "None"
	}
	return a.MatchesKey()
}
