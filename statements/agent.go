package statements

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sorgerlab/indra/ontology"
)

// TextNamespace holds the raw textual mention of an entity as found by a
// reader. It never participates in grounding selection; an Agent whose
// only reference is TEXT is ungrounded.
const TextNamespace = "TEXT"

// groundingPriority orders namespaces for selecting an Agent's primary
// grounding. Family-level identifiers outrank gene-level ones so that the
// family grounding drives hierarchy comparisons.
var groundingPriority = []string{"FPLX", "HGNC", "UP", "CHEBI", "GO", "MESH"}

// Agent is a participant in a Statement: a named entity with namespace
// groundings and optional state and context. At most one identifier is
// held per namespace.
type Agent struct {
	Name            string             `json:"name"`
	DBRefs          map[string]string  `json:"db_refs,omitempty"`
	Mods            []ModCondition     `json:"mods,omitempty"`
	Mutations       []MutCondition     `json:"mutations,omitempty"`
	BoundConditions []BoundCondition   `json:"bound_conditions,omitempty"`
	Activity        *ActivityCondition `json:"activity,omitempty"`
	Location        string             `json:"location,omitempty"`
	Context         *Context           `json:"context,omitempty"`
}

// NewAgent returns an Agent with the given name and groundings.
func NewAgent(name string, refs map[string]string) *Agent {
	a := &Agent{Name: name}
	if len(refs) > 0 {
		a.DBRefs = make(map[string]string, len(refs))
		for ns, id := range refs {
			a.DBRefs[ns] = id
		}
	}
	return a
}

// Grounding returns the primary namespace and identifier of the Agent.
// Priority namespaces are checked first; failing those, the
// lexicographically smallest remaining non-TEXT namespace is used so the
// choice is deterministic. ok is false for ungrounded agents.
func (a *Agent) Grounding() (ns, id string, ok bool) {
	for _, p := range groundingPriority {
		if v, found := a.DBRefs[p]; found && v != "" {
			return p, v, true
		}
	}
	var rest []string
	for k, v := range a.DBRefs {
		if k == TextNamespace || v == "" {
			continue
		}
		rest = append(rest, k)
	}
	if len(rest) == 0 {
		return "", "", false
	}
	sort.Strings(rest)
	return rest[0], a.DBRefs[rest[0]], true
}

// RawText returns the textual mention of the Agent, falling back to its
// name when no TEXT reference is present.
func (a *Agent) RawText() string {
	if t, ok := a.DBRefs[TextNamespace]; ok && t != "" {
		return t
	}
	return a.Name
}

// normalizeText canonicalizes a raw mention for use as a matches-key
// component: case folded, whitespace collapsed.
func normalizeText(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// EntityMatchesKey identifies the entity irrespective of state. Grounded
// agents key on their primary grounding; ungrounded agents key on their
// normalized raw text, so two identical unnormalized mentions still
// deduplicate while never colliding with a grounded agent.
func (a *Agent) EntityMatchesKey() string {
	if ns, id, ok := a.Grounding(); ok {
		return ontology.Label(ns, id)
	}
	return TextNamespace + ":" + normalizeText(a.RawText())
}

// StateMatchesKey identifies the state of the Agent: modifications,
// mutations, activity, location, bound partners and context.
func (a *Agent) StateMatchesKey() string {
	actKey := "None"
	if a.Activity != nil {
		actKey = a.Activity.MatchesKey()
	}
	bcs := append([]BoundCondition(nil), a.BoundConditions...)
	sort.SliceStable(bcs, func(i, j int) bool {
		return bcs[i].Agent.EntityMatchesKey() < bcs[j].Agent.EntityMatchesKey()
	})
	bcKeys := make([]string, len(bcs))
	for i, bc := range bcs {
		bcKeys[i] = fmt.Sprintf("(%s,%t)", bc.Agent.MatchesKey(), bc.IsBound)
	}
	return fmt.Sprintf("([%s],[%s],%s,%s,[%s],%s)",
		sortedModKeys(a.Mods), sortedMutKeys(a.Mutations),
		actKey, a.Location, strings.Join(bcKeys, ";"), a.Context.MatchesKey())
}

// MatchesKey identifies both entity and state.
func (a *Agent) MatchesKey() string {
	return fmt.Sprintf("(%s, %s)", a.EntityMatchesKey(), a.StateMatchesKey())
}

// EntityMatches reports whether two agents refer to the same entity.
func (a *Agent) EntityMatches(other *Agent) bool {
	return a.EntityMatchesKey() == other.EntityMatchesKey()
}

// IsA reports whether this Agent's grounding is a transitive child
// (isa/partof) of the other's. Ungrounded agents are never in an isa
// relation.
func (a *Agent) IsA(other *Agent, ont ontology.Service) (bool, error) {
	ns1, id1, ok1 := a.Grounding()
	ns2, id2, ok2 := other.Grounding()
	if !ok1 || !ok2 {
		return false, nil
	}
	return ont.IsAOrPartOf(ns1, id1, ns2, id2)
}

// RefinementOf reports whether a is at least as specific as other: the
// entity must match or be a child of other's entity, and every piece of
// state other carries must be present (possibly more specifically) on a.
// An ungrounded agent only refines an ungrounded agent with the same
// normalized text.
func (a *Agent) RefinementOf(other *Agent, ont ontology.Service) (bool, error) {
	_, _, aGrounded := a.Grounding()
	_, _, oGrounded := other.Grounding()
	if aGrounded != oGrounded {
		// Grounded and ungrounded mentions are never comparable: merging
		// on partial text overlap is exactly the false positive the
		// grounding step exists to prevent.
		return false, nil
	}
	if !a.EntityMatches(other) {
		isa, err := a.IsA(other, ont)
		if err != nil {
			return false, err
		}
		if !isa {
			return false, nil
		}
	}

	// Bound conditions: every partner on other must be matched by a
	// refining partner on a, each used at most once.
	usedBC := make(map[int]bool)
	for _, bcOther := range other.BoundConditions {
		found := false
		for i, bcSelf := range a.BoundConditions {
			if usedBC[i] || bcSelf.IsBound != bcOther.IsBound {
				continue
			}
			ref, err := bcSelf.Agent.RefinementOf(bcOther.Agent, ont)
			if err != nil {
				return false, err
			}
			if ref {
				usedBC[i] = true
				found = true
				break
			}
		}
		if !found {
			return false, nil
		}
	}

	// Modifications: each of other's mods must be matched by a distinct
	// mod on a; a may carry extra mods.
	usedMod := make(map[int]bool)
	for _, om := range other.Mods {
		found := false
		for i, sm := range a.Mods {
			if usedMod[i] {
				continue
			}
			ref, err := sm.RefinementOf(om, ont)
			if err != nil {
				return false, err
			}
			if ref {
				usedMod[i] = true
				found = true
				break
			}
		}
		if !found {
			return false, nil
		}
	}

	// Mutations, same one-to-one matching.
	usedMut := make(map[int]bool)
	for _, om := range other.Mutations {
		found := false
		for i, sm := range a.Mutations {
			if usedMut[i] {
				continue
			}
			if sm.RefinementOf(om) {
				usedMut[i] = true
				found = true
				break
			}
		}
		if !found {
			return false, nil
		}
	}

	// Location: if other specifies one, a must specify the same or a part
	// of it.
	if a.Location == "" {
		if other.Location != "" {
			return false, nil
		}
	} else if other.Location != "" && a.Location != other.Location {
		part, err := ont.PartOf(ontology.LocationNamespace, a.Location,
			ontology.LocationNamespace, other.Location)
		if err != nil {
			return false, err
		}
		if !part {
			return false, nil
		}
	}

	// Activity.
	if a.Activity == nil {
		if other.Activity != nil {
			return false, nil
		}
	} else if other.Activity != nil {
		ref, err := a.Activity.RefinementOf(*other.Activity, ont)
		if err != nil {
			return false, err
		}
		if !ref {
			return false, nil
		}
	}

	if !a.Context.RefinementOf(other.Context) {
		return false, nil
	}
	return true, nil
}

// Equal reports deep equality of identity and state.
func (a *Agent) Equal(other *Agent) bool {
	if a == nil || other == nil {
		return a == other
	}
	return a.MatchesKey() == other.MatchesKey() && a.Name == other.Name &&
		equalRefs(a.DBRefs, other.DBRefs)
}

func equalRefs(a, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if b[k] != v {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of the Agent. Normalization steps operate on
// clones so the input corpus is never mutated.
func (a *Agent) Clone() *Agent {
	if a == nil {
		return nil
	}
	c := &Agent{
		Name:     a.Name,
		Location: a.Location,
	}
	if a.DBRefs != nil {
		c.DBRefs = make(map[string]string, len(a.DBRefs))
		for k, v := range a.DBRefs {
			c.DBRefs[k] = v
		}
	}
	c.Mods = append([]ModCondition(nil), a.Mods...)
	c.Mutations = append([]MutCondition(nil), a.Mutations...)
	for _, bc := range a.BoundConditions {
		c.BoundConditions = append(c.BoundConditions,
			BoundCondition{Agent: bc.Agent.Clone(), IsBound: bc.IsBound})
	}
	if a.Activity != nil {
		act := *a.Activity
		c.Activity = &act
	}
	if a.Context != nil {
		ctx := *a.Context
		c.Context = &ctx
	}
	return c
}

func (a *Agent) String() string {
	if a == nil {
		return "None"
	}
	return a.Name
}
