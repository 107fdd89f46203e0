package ontology

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// EdgeType labels a relation edge in the ontology graph.
type EdgeType string

const (
	EdgeIsA        EdgeType = "isa"
	EdgePartOf     EdgeType = "partof"
	EdgeXref       EdgeType = "xref"
	EdgeIsOpposite EdgeType = "is_opposite"
)

type edge struct {
	to  string
	typ EdgeType
}

// Graph is an in-memory ontology backed by adjacency lists with typed
// edges. Construction (AddNode/AddEdge) is not goroutine safe; call Freeze
// once loading is done, after which all query methods are safe for
// concurrent use. Freeze also assigns connected components over the
// isa/partof edge set, mirroring the component grouping the preassembler
// buckets on.
type Graph struct {
	succ  map[string][]edge
	pred  map[string][]edge
	names map[string]string // "ns:id" -> display name
	byNam map[string]string // "ns|name" -> "ns:id"

	mu        sync.RWMutex
	frozen    bool
	component map[string]int64
}

// NewGraph returns an empty ontology graph.
func NewGraph() *Graph {
	return &Graph{
		succ:  make(map[string][]edge),
		pred:  make(map[string][]edge),
		names: make(map[string]string),
		byNam: make(map[string]string),
	}
}

// AddNode registers a node with an optional display name.
func (g *Graph) AddNode(ns, id, name string) {
	node := Label(ns, id)
	if _, ok := g.succ[node]; !ok {
		g.succ[node] = nil
	}
	if name != "" {
		g.names[node] = name
		g.byNam[ns+"|"+name] = node
	}
}

// AddEdge adds a directed edge of the given type. Nodes are created
// implicitly. Xref edges are added in one direction only; equivalence
// queries check both directions.
func (g *Graph) AddEdge(ns1, id1, ns2, id2 string, typ EdgeType) {
	from, to := Label(ns1, id1), Label(ns2, id2)
	g.AddNode(ns1, id1, "")
	g.AddNode(ns2, id2, "")
	g.succ[from] = append(g.succ[from], edge{to: to, typ: typ})
	g.pred[to] = append(g.pred[to], edge{to: from, typ: typ})
}

// Freeze computes connected components and marks the graph immutable.
// Calling any query method on an unfrozen graph freezes it implicitly.
func (g *Graph) Freeze() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.freezeLocked()
}

func (g *Graph) freezeLocked() {
	if g.frozen {
		return
	}
	g.component = make(map[string]int64, len(g.succ))
	uf := newUnionFind()
	for node := range g.succ {
		uf.add(node)
	}
	for from, edges := range g.succ {
		for _, e := range edges {
			if e.typ == EdgeIsA || e.typ == EdgePartOf {
				uf.union(from, e.to)
			}
		}
	}
	// Component IDs are assigned in sorted node order so that repeated
	// loads of the same resource produce identical IDs.
	g.component = uf.componentIDs()
	g.frozen = true
}

func (g *Graph) ensureFrozen() {
	g.mu.RLock()
	frozen := g.frozen
	g.mu.RUnlock()
	if !frozen {
		g.Freeze()
	}
}

// reachable runs a BFS from (ns1, id1) over edges whose type is in types
// and reports whether (ns2, id2) is reached. A node refines itself only
// for equivalence-style queries; reachable does not treat the source as
// reached.
func (g *Graph) reachable(adj map[string][]edge, from, to string, types map[EdgeType]bool) bool {
	if from == to {
		return false
	}
	visited := map[string]bool{from: true}
	queue := []string{from}
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		for _, e := range adj[node] {
			if !types[e.typ] {
				continue
			}
			if e.to == to {
				return true
			}
			if !visited[e.to] {
				visited[e.to] = true
				queue = append(queue, e.to)
			}
		}
	}
	return false
}

// IsA implements Service.
func (g *Graph) IsA(ns1, id1, ns2, id2 string) (bool, error) {
	g.ensureFrozen()
	return g.reachable(g.succ, Label(ns1, id1), Label(ns2, id2),
		map[EdgeType]bool{EdgeIsA: true}), nil
}

// PartOf implements Service.
func (g *Graph) PartOf(ns1, id1, ns2, id2 string) (bool, error) {
	g.ensureFrozen()
	return g.reachable(g.succ, Label(ns1, id1), Label(ns2, id2),
		map[EdgeType]bool{EdgePartOf: true}), nil
}

// IsAOrPartOf implements Service.
func (g *Graph) IsAOrPartOf(ns1, id1, ns2, id2 string) (bool, error) {
	g.ensureFrozen()
	return g.reachable(g.succ, Label(ns1, id1), Label(ns2, id2),
		map[EdgeType]bool{EdgeIsA: true, EdgePartOf: true}), nil
}

// IsEquivalent implements Service. Two identifiers are equivalent if they
// are identical or connected by xref edges in either direction.
func (g *Graph) IsEquivalent(ns1, id1, ns2, id2 string) (bool, error) {
	if ns1 == ns2 && id1 == id2 {
		return true, nil
	}
	g.ensureFrozen()
	types := map[EdgeType]bool{EdgeXref: true}
	from, to := Label(ns1, id1), Label(ns2, id2)
	if g.reachable(g.succ, from, to, types) {
		return true, nil
	}
	return g.reachable(g.pred, from, to, types), nil
}

// IsOpposite implements Service.
func (g *Graph) IsOpposite(ns1, id1, ns2, id2 string) (bool, error) {
	g.ensureFrozen()
	return g.reachable(g.succ, Label(ns1, id1), Label(ns2, id2),
		map[EdgeType]bool{EdgeIsOpposite: true}), nil
}

// Component implements Service.
func (g *Graph) Component(ns, id string) (int64, bool) {
	g.ensureFrozen()
	g.mu.RLock()
	defer g.mu.RUnlock()
	c, ok := g.component[Label(ns, id)]
	return c, ok
}

// Name returns the display name registered for a node, if any.
func (g *Graph) Name(ns, id string) (string, bool) {
	n, ok := g.names[Label(ns, id)]
	return n, ok
}

// IDFromName resolves a display name within a namespace to its identifier.
func (g *Graph) IDFromName(ns, name string) (string, bool) {
	node, ok := g.byNam[ns+"|"+name]
	if !ok {
		return "", false
	}
	parts := strings.SplitN(node, ":", 2)
	if len(parts) != 2 {
		return "", false
	}
	return parts[1], true
}

// NodeCount returns the number of nodes in the graph.
func (g *Graph) NodeCount() int {
	return len(g.succ)
}

// unionFind is a plain disjoint-set over node labels with deterministic
// component numbering.
type unionFind struct {
	parent map[string]string
	order  []string
}

func newUnionFind() *unionFind {
	return &unionFind{parent: make(map[string]string)}
}

func (u *unionFind) add(x string) {
	if _, ok := u.parent[x]; !ok {
		u.parent[x] = x
		u.order = append(u.order, x)
	}
}

func (u *unionFind) find(x string) string {
	root := x
	for u.parent[root] != root {
		root = u.parent[root]
	}
	for u.parent[x] != root {
		u.parent[x], x = root, u.parent[x]
	}
	return root
}

func (u *unionFind) union(a, b string) {
	u.add(a)
	u.add(b)
	ra, rb := u.find(a), u.find(b)
	if ra != rb {
		// Smaller label wins so numbering is insertion-order independent.
		if ra < rb {
			u.parent[rb] = ra
		} else {
			u.parent[ra] = rb
		}
	}
}

func (u *unionFind) componentIDs() map[string]int64 {
	ids := make(map[string]int64, len(u.parent))
	next := int64(0)
	assigned := make(map[string]int64)
	sorted := append([]string(nil), u.order...)
	sort.Strings(sorted)
	for _, node := range sorted {
		root := u.find(node)
		id, ok := assigned[root]
		if !ok {
			id = next
			next++
			assigned[root] = id
		}
		ids[node] = id
	}
	return ids
}

// String summarizes the graph for logs.
func (g *Graph) String() string {
	edges := 0
	for _, es := range g.succ {
		edges += len(es)
	}
	return fmt.Sprintf("ontology.Graph(nodes=%d, edges=%d)", len(g.succ), edges)
}
