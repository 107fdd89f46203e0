// Package ontology provides the partial-order queries over namespaced
// concept identifiers that drive statement refinement: is-a, part-of,
// cross-reference equivalence and polarity opposition. The graph is loaded
// once before an assembly run and never mutated afterwards; callers that
// need live updates build a new graph and swap the reference between runs.
package ontology

import "errors"

// ErrUnavailable is returned when the ontology cannot answer a query, for
// example because a networked backend timed out. Callers must treat the
// pair as non-comparable rather than assuming any particular answer.
var ErrUnavailable = errors.New("ontology: unavailable")

// Well-known namespaces for non-entity hierarchies. Modification subtypes,
// activity types and cellular locations live in the same graph as entities,
// distinguished only by namespace.
const (
	ModificationNamespace = "INDRA_MODS"
	ActivityNamespace     = "INDRA_ACTIVITIES"
	LocationNamespace     = "GO"
)

// Service answers partial-order queries over namespaced identifiers.
// Implementations must be safe for concurrent use: the preassembler issues
// queries from multiple worker goroutines against a shared instance.
type Service interface {
	// IsA reports whether (ns1, id1) is the same as or a transitive
	// subtype of (ns2, id2).
	IsA(ns1, id1, ns2, id2 string) (bool, error)

	// PartOf reports whether (ns1, id1) is transitively a part of
	// (ns2, id2).
	PartOf(ns1, id1, ns2, id2 string) (bool, error)

	// IsAOrPartOf reports reachability over the union of isa and partof
	// edges. This is the relation used for entity refinement.
	IsAOrPartOf(ns1, id1, ns2, id2 string) (bool, error)

	// IsEquivalent reports whether the two identifiers are linked by
	// cross-reference edges in either direction.
	IsEquivalent(ns1, id1, ns2, id2 string) (bool, error)

	// IsOpposite reports whether the two identifiers carry opposite
	// polarity, e.g. activation vs. inhibition concepts.
	IsOpposite(ns1, id1, ns2, id2 string) (bool, error)

	// Component returns the connected-component identifier of the node
	// over undirected isa/partof edges, used to bucket statements before
	// pairwise comparison. The second return is false when the node is
	// not part of the graph.
	Component(ns, id string) (int64, bool)
}

// Label renders the canonical node label for a namespaced identifier.
func Label(ns, id string) string {
	return ns + ":" + id
}
