package preassembly

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/sorgerlab/indra/ontology"
	"github.com/sorgerlab/indra/statements"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func testOntology(t *testing.T) *ontology.Graph {
	t.Helper()
	g := ontology.NewGraph()
	g.AddNode("HGNC", "6840", "MAP2K1")
	g.AddNode("HGNC", "6842", "MAP2K2")
	g.AddEdge("HGNC", "6840", "FPLX", "MEK", ontology.EdgeIsA)
	g.AddEdge("HGNC", "6842", "FPLX", "MEK", ontology.EdgeIsA)
	g.AddEdge("HGNC", "1097", "FPLX", "RAF", ontology.EdgeIsA)
	g.AddEdge("INDRA_MODS", "phosphorylation", "INDRA_MODS", "modification", ontology.EdgeIsA)
	g.Freeze()
	return g
}

func newTestPreassembler(t *testing.T, opts ...Option) *Preassembler {
	t.Helper()
	p, err := New(testOntology(t), opts...)
	require.NoError(t, err)
	return p
}

func braf() *statements.Agent {
	return statements.NewAgent("BRAF", map[string]string{"HGNC": "1097"})
}
func mek() *statements.Agent {
	return statements.NewAgent("MEK", map[string]string{"FPLX": "MEK"})
}
func map2k1() *statements.Agent {
	return statements.NewAgent("MAP2K1", map[string]string{"HGNC": "6840"})
}

func reachEv(text string) *statements.Evidence {
	return &statements.Evidence{SourceAPI: "reach", PMID: "111", Text: text}
}
func sparserEv(text string) *statements.Evidence {
	return &statements.Evidence{SourceAPI: "sparser", PMID: "222", Text: text}
}

func TestCombineDuplicates(t *testing.T) {
	p := newTestPreassembler(t)

	s1 := statements.NewModification("phosphorylation", false, braf(), map2k1(), "", "", reachEv("a"))
	s2 := statements.NewModification("phosphorylation", false, braf(), map2k1(), "", "", sparserEv("b"))
	s3 := statements.NewModification("phosphorylation", false, braf(), map2k1(), "", "", reachEv("a"))
	other := statements.NewModification("phosphorylation", false, braf(), mek(), "", "", reachEv("c"))

	unique, stats := p.CombineDuplicates([]statements.Statement{s1, s2, s3, other})
	require.Len(t, unique, 2)
	assert.Equal(t, 4, stats.Raw)
	assert.Equal(t, 2, stats.Unique)

	merged := unique[0]
	assert.Equal(t, s1.MatchesKey(), merged.MatchesKey(), "first-seen order is kept")
	require.Len(t, merged.Core().Evidence, 2, "identical evidence is deduplicated")
	assert.Equal(t, "reach", merged.Core().Evidence[0].SourceAPI)
	assert.Equal(t, "sparser", merged.Core().Evidence[1].SourceAPI)

	assert.Len(t, s1.Core().Evidence, 1, "input statements untouched")
}

func TestCombineRelatedLinksRefinements(t *testing.T) {
	p := newTestPreassembler(t)

	general := statements.NewModification("phosphorylation", false, braf(), mek(), "", "", reachEv("general"))
	specific := statements.NewModification("phosphorylation", false, braf(), map2k1(), "S", "218", sparserEv("specific"))

	unique, stats, err := p.CombineRelated(context.Background(), []statements.Statement{general, specific})
	require.NoError(t, err)
	require.Len(t, unique, 2)
	assert.Equal(t, 1, stats.Edges)

	gotGeneral, gotSpecific := unique[0], unique[1]
	require.Len(t, gotGeneral.Core().Supports, 1)
	assert.Same(t, gotSpecific, gotGeneral.Core().Supports[0])
	require.Len(t, gotSpecific.Core().SupportedBy, 1)
	assert.Same(t, gotGeneral, gotSpecific.Core().SupportedBy[0])

	top := TopLevel(unique)
	require.Len(t, top, 1)
	assert.Same(t, gotSpecific, top[0])
}

func TestCombineRelatedNilParticipantRegrouping(t *testing.T) {
	p := newTestPreassembler(t)

	unknownEnz := statements.NewModification("phosphorylation", false, nil, map2k1(), "", "", reachEv("x"))
	withEnz := statements.NewModification("phosphorylation", false, braf(), map2k1(), "", "", sparserEv("y"))

	unique, stats, err := p.CombineRelated(context.Background(), []statements.Statement{unknownEnz, withEnz})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Edges, "known enzyme refines unknown enzyme across buckets")

	top := TopLevel(unique)
	require.Len(t, top, 1)
	assert.Equal(t, withEnz.MatchesKey(), top[0].MatchesKey())
}

func TestCombineRelatedSubtypeHierarchy(t *testing.T) {
	p := newTestPreassembler(t)

	generic := statements.NewModification("", false, braf(), map2k1(), "", "", reachEv("generic"))
	phos := statements.NewModification("phosphorylation", false, braf(), map2k1(), "", "", sparserEv("phos"))

	unique, stats, err := p.CombineRelated(context.Background(), []statements.Statement{generic, phos})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Edges, "subtype shares a bucket with its generic type")

	top := TopLevel(unique)
	require.Len(t, top, 1)
	assert.Equal(t, "phosphorylation", top[0].Type())
}

func TestUngroundedNeverMergesWithGrounded(t *testing.T) {
	p := newTestPreassembler(t)

	grounded := statements.NewModification("phosphorylation", false, braf(), mek(), "", "", reachEv("a"))
	textual := statements.NewModification("phosphorylation", false, braf(),
		statements.NewAgent("MEK", map[string]string{"TEXT": "MEK"}), "", "", sparserEv("b"))

	unique, stats, err := p.CombineRelated(context.Background(), []statements.Statement{grounded, textual})
	require.NoError(t, err)
	require.Len(t, unique, 2)
	assert.Zero(t, stats.Edges)
	assert.Len(t, TopLevel(unique), 2, "both claims stay independent")
}

func TestFlattenEvidence(t *testing.T) {
	p := newTestPreassembler(t)

	general := statements.NewModification("phosphorylation", false, braf(), mek(), "", "", reachEv("general"))
	mid := statements.NewModification("phosphorylation", false, braf(), map2k1(), "", "", sparserEv("mid"))
	specific := statements.NewModification("phosphorylation", false, braf(), map2k1(), "S", "218", reachEv("specific"))

	unique, _, err := p.CombineRelated(context.Background(),
		[]statements.Statement{general, mid, specific})
	require.NoError(t, err)

	flat := FlattenEvidence(unique)
	require.Len(t, flat, 1)
	assert.Len(t, flat[0].Core().Evidence, 3, "evidence gathered transitively from more general claims")

	require.Len(t, flat[0].Core().SupportedBy, 2, "refinement provenance retained on the flattened output")
	assert.Equal(t, general.MatchesKey(), flat[0].Core().SupportedBy[0].MatchesKey())
	assert.Equal(t, mid.MatchesKey(), flat[0].Core().SupportedBy[1].MatchesKey())
	assert.Empty(t, flat[0].Core().Supports, "top-level statements refine, they are not refined")

	for _, s := range unique {
		if s.MatchesKey() == specific.MatchesKey() {
			assert.Len(t, s.Core().Evidence, 1, "linked corpus untouched")
		}
	}
}

func TestCombineRelatedIsDeterministic(t *testing.T) {
	input := func() []statements.Statement {
		return []statements.Statement{
			statements.NewModification("phosphorylation", false, braf(), mek(), "", "", reachEv("1")),
			statements.NewModification("phosphorylation", false, braf(), map2k1(), "", "", reachEv("2")),
			statements.NewModification("phosphorylation", false, braf(), map2k1(), "S", "218", reachEv("3")),
			statements.NewModification("phosphorylation", false, nil, map2k1(), "", "", reachEv("4")),
			statements.NewActivation(braf(), mek(), "activity", reachEv("5")),
		}
	}
	shape := func(workers int) [][]string {
		p := newTestPreassembler(t, WithWorkers(workers))
		unique, _, err := p.CombineRelated(context.Background(), input())
		require.NoError(t, err)
		var out [][]string
		for _, s := range unique {
			row := []string{s.MatchesKey()}
			for _, sup := range s.Core().Supports {
				row = append(row, sup.MatchesKey())
			}
			out = append(out, row)
		}
		return out
	}

	first := shape(1)
	for _, workers := range []int{2, 8} {
		assert.Equal(t, first, shape(workers), "workers=%d", workers)
	}
}

func TestCombineRelatedIdempotent(t *testing.T) {
	p := newTestPreassembler(t)
	in := []statements.Statement{
		statements.NewModification("phosphorylation", false, braf(), mek(), "", "", reachEv("1")),
		statements.NewModification("phosphorylation", false, braf(), map2k1(), "", "", sparserEv("2")),
	}
	once, stats1, err := p.CombineRelated(context.Background(), in)
	require.NoError(t, err)

	// Clear links before re-running; the second pass must rebuild the
	// same graph.
	for _, s := range once {
		s.Core().Supports = nil
		s.Core().SupportedBy = nil
	}
	twice, stats2, err := p.CombineRelated(context.Background(), once)
	require.NoError(t, err)

	assert.Equal(t, stats1.Unique, stats2.Unique)
	assert.Equal(t, stats1.Edges, stats2.Edges)
	require.Len(t, twice, len(once))
	for i := range twice {
		assert.Equal(t, once[i].MatchesKey(), twice[i].MatchesKey())
		assert.Len(t, twice[i].Core().Evidence, len(once[i].Core().Evidence),
			"evidence must not double up on reassembly")
	}
}

func TestCombineRelatedCancellation(t *testing.T) {
	p := newTestPreassembler(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := p.CombineRelated(ctx, []statements.Statement{
		statements.NewModification("phosphorylation", false, braf(), mek(), "", "", reachEv("1")),
		statements.NewModification("phosphorylation", false, braf(), map2k1(), "", "", reachEv("2")),
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFindContradicts(t *testing.T) {
	p := newTestPreassembler(t)

	act := statements.NewActivation(braf(), mek(), "activity", reachEv("1"))
	inh := statements.NewInhibition(braf(), map2k1(), "activity", reachEv("2"))
	agree := statements.NewActivation(braf(), map2k1(), "activity", reachEv("3"))
	unrelated := statements.NewInhibition(map2k1(), braf(), "activity", reachEv("4"))

	pairs, err := p.FindContradicts(context.Background(),
		[]statements.Statement{act, inh, agree, unrelated})
	require.NoError(t, err)
	require.Len(t, pairs, 2, "both activations contradict the inhibition across the hierarchy")
	for _, pair := range pairs {
		tags := []string{pair[0].Type(), pair[1].Type()}
		assert.Contains(t, tags, "activation")
		assert.Contains(t, tags, "inhibition")
	}
}

func TestOptionValidation(t *testing.T) {
	ont := testOntology(t)
	_, err := New(ont, WithWorkers(0))
	assert.Error(t, err)
	_, err = New(ont, WithLogger(nil))
	assert.Error(t, err)
	_, err = New(nil)
	assert.Error(t, err)
}
