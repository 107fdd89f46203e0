package statements

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sorgerlab/indra/ontology"
)

// testOntology builds the fixture hierarchy used throughout the package
// tests: MAP2K1 and MAP2K2 are members of the MEK family, MEK is a
// kinase, BRAF is in the RAF family, and the nucleolus is part of the
// nucleus. Modification and activity subtypes live in their own
// namespaces.
func testOntology(t *testing.T) *ontology.Graph {
	t.Helper()
	g := ontology.NewGraph()
	g.AddNode("HGNC", "6840", "MAP2K1")
	g.AddNode("HGNC", "6842", "MAP2K2")
	g.AddNode("FPLX", "MEK", "MEK")
	g.AddNode("FPLX", "RAF", "RAF")
	g.AddNode("HGNC", "1097", "BRAF")
	g.AddEdge("HGNC", "6840", "FPLX", "MEK", ontology.EdgeIsA)
	g.AddEdge("HGNC", "6842", "FPLX", "MEK", ontology.EdgeIsA)
	g.AddEdge("HGNC", "1097", "FPLX", "RAF", ontology.EdgeIsA)
	g.AddEdge("INDRA_MODS", "phosphorylation", "INDRA_MODS", "modification", ontology.EdgeIsA)
	g.AddEdge("INDRA_ACTIVITIES", "kinase", "INDRA_ACTIVITIES", "activity", ontology.EdgeIsA)
	g.AddEdge("GO", "0005730", "GO", "0005634", ontology.EdgePartOf)
	g.AddEdge("WM", "rainfall", "WM", "drought", ontology.EdgeIsOpposite)
	g.Freeze()
	return g
}

func map2k1() *Agent { return NewAgent("MAP2K1", map[string]string{"HGNC": "6840"}) }
func map2k2() *Agent { return NewAgent("MAP2K2", map[string]string{"HGNC": "6842"}) }
func mek() *Agent    { return NewAgent("MEK", map[string]string{"FPLX": "MEK"}) }
func braf() *Agent   { return NewAgent("BRAF", map[string]string{"HGNC": "1097"}) }

func TestAgentGrounding(t *testing.T) {
	tests := []struct {
		name   string
		agent  *Agent
		wantNS string
		wantID string
		wantOK bool
	}{
		{
			name:   "family outranks gene",
			agent:  NewAgent("MEK", map[string]string{"FPLX": "MEK", "HGNC": "6840"}),
			wantNS: "FPLX", wantID: "MEK", wantOK: true,
		},
		{
			name:   "gene outranks uniprot",
			agent:  NewAgent("MAP2K1", map[string]string{"UP": "Q02750", "HGNC": "6840"}),
			wantNS: "HGNC", wantID: "6840", wantOK: true,
		},
		{
			name:   "text only is ungrounded",
			agent:  NewAgent("MEK", map[string]string{"TEXT": "MEK"}),
			wantOK: false,
		},
		{
			name:   "off-priority namespaces resolve deterministically",
			agent:  NewAgent("x", map[string]string{"ZFIN": "1", "AAA": "2"}),
			wantNS: "AAA", wantID: "2", wantOK: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ns, id, ok := tt.agent.Grounding()
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantNS, ns)
				assert.Equal(t, tt.wantID, id)
			}
		})
	}
}

func TestEntityMatchesKeyUngroundedNormalization(t *testing.T) {
	a := NewAgent("erk", map[string]string{"TEXT": "  ERK   1/2 "})
	b := NewAgent("ERK", map[string]string{"TEXT": "erk 1/2"})
	assert.Equal(t, a.EntityMatchesKey(), b.EntityMatchesKey())

	grounded := NewAgent("MAP2K1", map[string]string{"HGNC": "6840", "TEXT": "erk 1/2"})
	assert.NotEqual(t, a.EntityMatchesKey(), grounded.EntityMatchesKey())
}

func TestMatchesKeyDuplicates(t *testing.T) {
	s1 := NewModification("phosphorylation", false, braf(), map2k1(), "S", "218")
	s2 := NewModification("phosphorylation", false, braf(), map2k1(), "S", "218")
	s3 := NewModification("phosphorylation", false, braf(), map2k1(), "S", "222")
	s4 := NewModification("phosphorylation", true, braf(), map2k1(), "S", "218")

	assert.Equal(t, s1.MatchesKey(), s2.MatchesKey())
	assert.NotEqual(t, s1.MatchesKey(), s3.MatchesKey())
	assert.NotEqual(t, s1.MatchesKey(), s4.MatchesKey(), "removal flips the key")
	assert.NotEqual(t, s1.Core().ID, s2.Core().ID, "identity stays distinct")
}

func TestComplexMatchesKeyIsOrderInvariant(t *testing.T) {
	c1 := NewComplex([]*Agent{braf(), map2k1()})
	c2 := NewComplex([]*Agent{map2k1(), braf()})
	assert.Equal(t, c1.MatchesKey(), c2.MatchesKey())
}

func TestModificationRefinement(t *testing.T) {
	ont := testOntology(t)
	tests := []struct {
		name     string
		specific Statement
		general  Statement
		want     bool
	}{
		{
			name:     "gene refines family",
			specific: NewModification("phosphorylation", false, braf(), map2k1(), "", ""),
			general:  NewModification("phosphorylation", false, braf(), mek(), "", ""),
			want:     true,
		},
		{
			name:     "family does not refine gene",
			specific: NewModification("phosphorylation", false, braf(), mek(), "", ""),
			general:  NewModification("phosphorylation", false, braf(), map2k1(), "", ""),
			want:     false,
		},
		{
			name:     "site detail refines no site",
			specific: NewModification("phosphorylation", false, braf(), map2k1(), "S", "218"),
			general:  NewModification("phosphorylation", false, braf(), map2k1(), "", ""),
			want:     true,
		},
		{
			name:     "conflicting sites are unrelated",
			specific: NewModification("phosphorylation", false, braf(), map2k1(), "S", "218"),
			general:  NewModification("phosphorylation", false, braf(), map2k1(), "S", "222"),
			want:     false,
		},
		{
			name:     "known enzyme refines unknown enzyme",
			specific: NewModification("phosphorylation", false, braf(), map2k1(), "", ""),
			general:  NewModification("phosphorylation", false, nil, map2k1(), "", ""),
			want:     true,
		},
		{
			name:     "subtype tag refines generic modification",
			specific: NewModification("phosphorylation", false, braf(), map2k1(), "", ""),
			general:  NewModification("", false, braf(), map2k1(), "", ""),
			want:     true,
		},
		{
			name:     "sibling genes are unrelated",
			specific: NewModification("phosphorylation", false, braf(), map2k1(), "", ""),
			general:  NewModification("phosphorylation", false, braf(), map2k2(), "", ""),
			want:     false,
		},
		{
			name:     "removal never refines addition",
			specific: NewModification("phosphorylation", true, braf(), map2k1(), "", ""),
			general:  NewModification("phosphorylation", false, braf(), map2k1(), "", ""),
			want:     false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.specific.RefinementOf(tt.general, ont)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGroundedNeverRefinesUngrounded(t *testing.T) {
	ont := testOntology(t)
	grounded := NewModification("phosphorylation", false, nil, map2k1(), "", "")
	textual := NewModification("phosphorylation", false, nil,
		NewAgent("MAP2K1", map[string]string{"TEXT": "MAP2K1"}), "", "")

	for name, pair := range map[string][2]Statement{
		"grounded vs text": {grounded, textual},
		"text vs grounded": {textual, grounded},
	} {
		t.Run(name, func(t *testing.T) {
			got, err := pair[0].RefinementOf(pair[1], ont)
			require.NoError(t, err)
			assert.False(t, got)
		})
	}
}

func TestAgentStateRefinement(t *testing.T) {
	ont := testOntology(t)
	phosphorylated := map2k1()
	phosphorylated.Mods = []ModCondition{{ModType: "phosphorylation", Residue: "S", Position: "218", IsModified: true}}
	modified := map2k1()
	modified.Mods = []ModCondition{{ModType: "modification", IsModified: true}}
	plain := map2k1()

	t.Run("specific mod refines generic mod", func(t *testing.T) {
		got, err := phosphorylated.RefinementOf(modified, ont)
		require.NoError(t, err)
		assert.True(t, got)
	})
	t.Run("modified refines unmodified slot", func(t *testing.T) {
		got, err := phosphorylated.RefinementOf(plain, ont)
		require.NoError(t, err)
		assert.True(t, got)
	})
	t.Run("unmodified does not refine modified", func(t *testing.T) {
		got, err := plain.RefinementOf(phosphorylated, ont)
		require.NoError(t, err)
		assert.False(t, got)
	})
	t.Run("nucleolus location refines nucleus", func(t *testing.T) {
		inNucleolus := map2k1()
		inNucleolus.Location = "0005730"
		inNucleus := map2k1()
		inNucleus.Location = "0005634"
		got, err := inNucleolus.RefinementOf(inNucleus, ont)
		require.NoError(t, err)
		assert.True(t, got)
	})
}

func TestRegulationRefinementActivity(t *testing.T) {
	ont := testOntology(t)
	kinaseAct := NewActivation(braf(), mek(), "kinase")
	genericAct := NewActivation(braf(), mek(), "activity")

	got, err := kinaseAct.RefinementOf(genericAct, ont)
	require.NoError(t, err)
	assert.True(t, got)

	got, err = genericAct.RefinementOf(kinaseAct, ont)
	require.NoError(t, err)
	assert.False(t, got)
}

func TestComplexRefinement(t *testing.T) {
	ont := testOntology(t)
	specific := NewComplex([]*Agent{map2k1(), braf()})
	general := NewComplex([]*Agent{braf(), mek()})
	bigger := NewComplex([]*Agent{braf(), mek(), map2k2()})

	got, err := specific.RefinementOf(general, ont)
	require.NoError(t, err)
	assert.True(t, got, "members match regardless of order")

	got, err = specific.RefinementOf(bigger, ont)
	require.NoError(t, err)
	assert.False(t, got, "different sizes are different assertions")
}

func TestContradicts(t *testing.T) {
	ont := testOntology(t)
	tests := []struct {
		name string
		a, b Statement
		want bool
	}{
		{
			name: "activation vs inhibition",
			a:    NewActivation(braf(), mek(), "activity"),
			b:    NewInhibition(braf(), mek(), "activity"),
			want: true,
		},
		{
			name: "activation vs inhibition across hierarchy",
			a:    NewActivation(braf(), map2k1(), "activity"),
			b:    NewInhibition(braf(), mek(), "activity"),
			want: true,
		},
		{
			name: "two activations agree",
			a:    NewActivation(braf(), mek(), "activity"),
			b:    NewActivation(braf(), mek(), "activity"),
			want: false,
		},
		{
			name: "phosphorylation vs dephosphorylation",
			a:    NewModification("phosphorylation", false, braf(), map2k1(), "S", "218"),
			b:    NewModification("phosphorylation", true, braf(), map2k1(), "", ""),
			want: true,
		},
		{
			name: "different sites do not contradict",
			a:    NewModification("phosphorylation", false, braf(), map2k1(), "S", "218"),
			b:    NewModification("phosphorylation", true, braf(), map2k1(), "S", "222"),
			want: false,
		},
		{
			name: "increase vs decrease amount",
			a:    NewIncreaseAmount(braf(), map2k1()),
			b:    NewDecreaseAmount(braf(), map2k1()),
			want: true,
		},
		{
			name: "active form polarity",
			a:    NewActiveForm(map2k1(), "kinase", true),
			b:    NewActiveForm(map2k1(), "kinase", false),
			want: true,
		},
		{
			name: "unrelated entities",
			a:    NewActivation(braf(), map2k1(), "activity"),
			b:    NewInhibition(map2k1(), braf(), "activity"),
			want: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.a.Contradicts(tt.b, ont)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestInfluenceContradicts(t *testing.T) {
	ont := testOntology(t)
	rain := NewAgent("rainfall", map[string]string{"WM": "rainfall"})
	drought := NewAgent("drought", map[string]string{"WM": "drought"})
	crops := NewAgent("crops", map[string]string{"WM": "crops"})

	t.Run("opposite overall polarity", func(t *testing.T) {
		a := NewInfluence(rain, crops, 1, 1)
		b := NewInfluence(rain, crops, 1, -1)
		got, err := a.Contradicts(b, ont)
		require.NoError(t, err)
		assert.True(t, got)
	})
	t.Run("opposite concepts with same polarity", func(t *testing.T) {
		a := NewInfluence(rain, crops, 1, 1)
		b := NewInfluence(drought, crops, 1, 1)
		got, err := a.Contradicts(b, ont)
		require.NoError(t, err)
		assert.True(t, got)
	})
	t.Run("unknown polarity never contradicts", func(t *testing.T) {
		a := NewInfluence(rain, crops, 0, 1)
		b := NewInfluence(rain, crops, 1, -1)
		got, err := a.Contradicts(b, ont)
		require.NoError(t, err)
		assert.False(t, got)
	})
}

func TestInfluenceRefinementPolarity(t *testing.T) {
	ont := testOntology(t)
	rain := NewAgent("rainfall", map[string]string{"WM": "rainfall"})
	crops := NewAgent("crops", map[string]string{"WM": "crops"})

	polarized := NewInfluence(rain, crops, 1, 1)
	unpolarized := NewInfluence(rain, crops, 0, 0)

	got, err := polarized.RefinementOf(unpolarized, ont)
	require.NoError(t, err)
	assert.True(t, got)

	got, err = unpolarized.RefinementOf(polarized, ont)
	require.NoError(t, err)
	assert.False(t, got)
}

func TestIngest(t *testing.T) {
	good := NewModification("phosphorylation", false, braf(), map2k1(), "", "")
	noSub := NewModification("phosphorylation", false, braf(), nil, "", "")
	noObj := NewActivation(braf(), nil, "activity")
	tiny := NewComplex([]*Agent{braf()})

	accepted, rejected := Ingest([]Statement{good, noSub, noObj, tiny})
	require.Len(t, accepted, 1)
	assert.Same(t, good, accepted[0].(*Modification))
	require.Len(t, rejected, 3)
	for _, r := range rejected {
		var malformed *MalformedStatementError
		assert.ErrorAs(t, r.Err, &malformed)
	}
}

func TestTypeRegistry(t *testing.T) {
	t.Run("tag compatibility follows parent chain", func(t *testing.T) {
		assert.True(t, TypeCompatible("phosphorylation", "modification"))
		assert.True(t, TypeCompatible("dephosphorylation", "demodification"))
		assert.True(t, TypeCompatible("activation", "activation"))
		assert.False(t, TypeCompatible("phosphorylation", "demodification"))
		assert.False(t, TypeCompatible("modification", "phosphorylation"))
	})
	t.Run("factories round-trip the tag", func(t *testing.T) {
		for _, tag := range RegisteredTags() {
			info, ok := Lookup(tag)
			require.True(t, ok)
			assert.Equal(t, tag, info.New().Type(), "factory for %s", tag)
		}
	})
	t.Run("complex is the only symmetric tag", func(t *testing.T) {
		for _, tag := range RegisteredTags() {
			info, _ := Lookup(tag)
			assert.Equal(t, tag == "complex", info.Symmetric, "tag %s", tag)
		}
	})
}

func TestJSONRoundTrip(t *testing.T) {
	ev := &Evidence{
		SourceAPI: "reach", PMID: "12345",
		Text:  "BRAF phosphorylates MAP2K1 at S218.",
		Score: 0.85,
	}
	specific := NewModification("phosphorylation", false, braf(), map2k1(), "S", "218", ev)
	general := NewModification("phosphorylation", false, braf(), mek(), "", "")
	general.Core().Supports = []Statement{specific}
	specific.Core().SupportedBy = []Statement{general}

	data, err := MarshalStatements([]Statement{specific, general})
	require.NoError(t, err)

	decoded, err := UnmarshalStatements(data)
	require.NoError(t, err)
	require.Len(t, decoded, 2)

	gotSpecific, gotGeneral := decoded[0], decoded[1]
	assert.Equal(t, specific.MatchesKey(), gotSpecific.MatchesKey())
	assert.Equal(t, general.MatchesKey(), gotGeneral.MatchesKey())
	assert.Equal(t, "phosphorylation", gotSpecific.Type())
	assert.Empty(t, cmp.Diff(specific.Enz, gotSpecific.(*Modification).Enz))
	assert.Empty(t, cmp.Diff(specific.Sub, gotSpecific.(*Modification).Sub))
	require.Len(t, gotSpecific.Core().Evidence, 1)
	assert.Equal(t, "reach", gotSpecific.Core().Evidence[0].SourceAPI)

	require.Len(t, gotGeneral.Core().Supports, 1)
	assert.Same(t, gotSpecific, gotGeneral.Core().Supports[0])
	require.Len(t, gotSpecific.Core().SupportedBy, 1)
	assert.Same(t, gotGeneral, gotSpecific.Core().SupportedBy[0])
}

func TestUnmarshalUnknownType(t *testing.T) {
	_, err := UnmarshalStatements([]byte(`[{"type": "levitation", "id": "x"}]`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "levitation")
}

func TestCloneIsolation(t *testing.T) {
	s := NewModification("phosphorylation", false, braf(), map2k1(), "S", "218",
		&Evidence{SourceAPI: "reach", Annotations: map[string]string{"k": "v"}})
	c := s.Clone().(*Modification)

	c.Sub.DBRefs["HGNC"] = "9999"
	c.Core().Evidence[0].Annotations["k"] = "changed"

	assert.Equal(t, "6840", s.Sub.DBRefs["HGNC"])
	assert.Equal(t, "v", s.Core().Evidence[0].Annotations["k"])
	assert.Equal(t, s.Core().ID, c.Core().ID, "clone keeps identity")
	assert.Empty(t, c.Core().Supports)
}
