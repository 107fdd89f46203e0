package statements

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sorgerlab/indra/ontology"
)

// ModCondition represents a post-translational modification on an Agent,
// e.g. phosphorylation at threonine 185. Residue and Position may be empty
// when the text did not specify them; an empty field is strictly more
// general than a filled one.
type ModCondition struct {
	ModType    string `json:"mod_type"`
	Residue    string `json:"residue,omitempty"`
	Position   string `json:"position,omitempty"`
	IsModified bool   `json:"is_modified"`
}

// MatchesKey returns the canonical key of the condition.
func (m ModCondition) MatchesKey() string {
	return fmt.Sprintf("mod(%s,%s,%s,%t)", m.ModType, m.Residue, m.Position, m.IsModified)
}

// Equal reports field-wise equality.
func (m ModCondition) Equal(other ModCondition) bool {
	return m == other
}

// RefinementOf reports whether m is at least as specific as other. The
// modification type must match or be a subtype in the modification
// hierarchy; residue and position must match wherever other specifies them.
func (m ModCondition) RefinementOf(other ModCondition, ont ontology.Service) (bool, error) {
	if m.IsModified != other.IsModified {
		return false, nil
	}
	if m.ModType != other.ModType {
		isa, err := ont.IsA(ontology.ModificationNamespace, m.ModType,
			ontology.ModificationNamespace, other.ModType)
		if err != nil {
			return false, err
		}
		if !isa {
			return false, nil
		}
	}
	if other.Residue != "" && m.Residue != other.Residue {
		return false, nil
	}
	if other.Position != "" && m.Position != other.Position {
		return false, nil
	}
	return true, nil
}

// MutCondition represents an amino acid substitution, e.g. V600E.
type MutCondition struct {
	Position    string `json:"position,omitempty"`
	ResidueFrom string `json:"residue_from,omitempty"`
	ResidueTo   string `json:"residue_to,omitempty"`
}

// MatchesKey returns the canonical key of the condition.
func (m MutCondition) MatchesKey() string {
	return fmt.Sprintf("mut(%s,%s,%s)", m.Position, m.ResidueFrom, m.ResidueTo)
}

// Equal reports field-wise equality.
func (m MutCondition) Equal(other MutCondition) bool {
	return m == other
}

// RefinementOf reports whether m is at least as specific as other: every
// field other specifies must match.
func (m MutCondition) RefinementOf(other MutCondition) bool {
	if other.Position != "" && m.Position != other.Position {
		return false
	}
	if other.ResidueFrom != "" && m.ResidueFrom != other.ResidueFrom {
		return false
	}
	if other.ResidueTo != "" && m.ResidueTo != other.ResidueTo {
		return false
	}
	return true
}

// BoundCondition states that another Agent is (or is not) bound to the
// carrying Agent in the asserted context.
type BoundCondition struct {
	Agent   *Agent `json:"agent"`
	IsBound bool   `json:"is_bound"`
}

// ActivityCondition qualifies an Agent as being in a particular activity
// state, e.g. "kinase activity, active".
type ActivityCondition struct {
	ActivityType string `json:"activity_type"`
	IsActive     bool   `json:"is_active"`
}

// MatchesKey returns the canonical key of the condition.
func (a ActivityCondition) MatchesKey() string {
	return fmt.Sprintf("act(%s,%t)", a.ActivityType, a.IsActive)
}

// RefinementOf reports whether a is at least as specific as other, using
// the activity-type hierarchy for subtype matches.
func (a ActivityCondition) RefinementOf(other ActivityCondition, ont ontology.Service) (bool, error) {
	if a.IsActive != other.IsActive {
		return false, nil
	}
	if a.ActivityType == other.ActivityType {
		return true, nil
	}
	return ont.IsA(ontology.ActivityNamespace, a.ActivityType,
		ontology.ActivityNamespace, other.ActivityType)
}

// Context carries coarse-grained biological context for an Agent.
type Context struct {
	CellType string `json:"cell_type,omitempty"`
	Species  string `json:"species,omitempty"`
	Disease  string `json:"disease,omitempty"`
	Organ    string `json:"organ,omitempty"`
}

// IsEmpty reports whether no context field is set.
func (c *Context) IsEmpty() bool {
	return c == nil || *c == Context{}
}

// MatchesKey returns the canonical key of the context.
func (c *Context) MatchesKey() string {
	if c.IsEmpty() {
		return "ctx()"
	}
	return fmt.Sprintf("ctx(%s,%s,%s,%s)", c.CellType, c.Species, c.Disease, c.Organ)
}

// RefinementOf reports whether c is compatible with, and at least as
// specific as, other: every field other specifies must match exactly, and
// c may specify fields other leaves open.
func (c *Context) RefinementOf(other *Context) bool {
	if other.IsEmpty() {
		return true
	}
	if c.IsEmpty() {
		return false
	}
	if other.CellType != "" && c.CellType != other.CellType {
		return false
	}
	if other.Species != "" && c.Species != other.Species {
		return false
	}
	if other.Disease != "" && c.Disease != other.Disease {
		return false
	}
	if other.Organ != "" && c.Organ != other.Organ {
		return false
	}
	return true
}

// sortedModKeys returns the matches keys of a modification list in sorted
// order, so that key computation is independent of list order.
func sortedModKeys(mods []ModCondition) string {
	keys := make([]string, len(mods))
	for i, m := range mods {
		keys[i] = m.MatchesKey()
	}
	sort.Strings(keys)
	return strings.Join(keys, ";")
}

func sortedMutKeys(muts []MutCondition) string {
	keys := make([]string, len(muts))
	for i, m := range muts {
		keys[i] = m.MatchesKey()
	}
	sort.Strings(keys)
	return strings.Join(keys, ";")
}
