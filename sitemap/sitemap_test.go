package sitemap

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sorgerlab/indra/statements"
)

func testTable() map[SiteKey]Correction {
	return map[SiteKey]Correction{
		// MAPK1 T183 is ERK2 rat numbering; human is T185.
		{Gene: "MAPK1", Residue: "T", Position: "183"}: {
			MappedResidue: "T", MappedPosition: "185",
			Description: "off-by-isoform numbering",
		},
		{Gene: "MAPK1", Residue: "Y", Position: "999"}: {
			Description: "no such site",
		},
	}
}

func mapk1() *statements.Agent {
	return statements.NewAgent("MAPK1", map[string]string{"HGNC": "6871"})
}

func TestMapStatements(t *testing.T) {
	m := New(testTable(), nil)

	t.Run("known error is corrected", func(t *testing.T) {
		raw := statements.NewModification("phosphorylation", false, nil, mapk1(), "T", "183")
		valid, mapped, stats := m.MapStatements([]statements.Statement{raw})

		require.Len(t, valid, 1)
		got := valid[0].(*statements.Modification)
		assert.Equal(t, "185", got.Position)
		assert.Equal(t, "183", raw.Position, "input untouched")

		require.Len(t, mapped, 1)
		assert.Same(t, raw, mapped[0].Original)
		require.Len(t, mapped[0].Applied, 1)
		assert.Equal(t, "183", mapped[0].Applied[0].Key.Position)
		assert.Equal(t, 1, stats.Corrected)
	})

	t.Run("invalid site without correction drops the statement", func(t *testing.T) {
		raw := statements.NewModification("phosphorylation", false, nil, mapk1(), "Y", "999")
		valid, mapped, stats := m.MapStatements([]statements.Statement{raw})

		assert.Empty(t, valid)
		require.Len(t, mapped, 1)
		assert.Nil(t, mapped[0].Mapped)
		assert.Equal(t, 1, stats.Dropped)
	})

	t.Run("unknown sites pass through unchanged", func(t *testing.T) {
		raw := statements.NewModification("phosphorylation", false, nil, mapk1(), "T", "185")
		valid, mapped, stats := m.MapStatements([]statements.Statement{raw})

		require.Len(t, valid, 1)
		assert.Same(t, raw, valid[0].(*statements.Modification))
		assert.Empty(t, mapped)
		assert.Zero(t, stats.Corrected)
	})

	t.Run("unrecognized residue drops the statement", func(t *testing.T) {
		raw := statements.NewModification("phosphorylation", false, nil, mapk1(), "X", "12")
		valid, mapped, stats := m.MapStatements([]statements.Statement{raw})

		assert.Empty(t, valid)
		require.Len(t, mapped, 1)
		assert.Equal(t, 1, stats.Dropped)
	})

	t.Run("agent state sites are corrected", func(t *testing.T) {
		agent := mapk1()
		agent.Mods = []statements.ModCondition{
			{ModType: "phosphorylation", Residue: "T", Position: "183", IsModified: true},
		}
		raw := statements.NewActiveForm(agent, "kinase", true)
		valid, mapped, _ := m.MapStatements([]statements.Statement{raw})

		require.Len(t, valid, 1)
		got := valid[0].(*statements.ActiveForm)
		assert.Equal(t, "185", got.Agent.Mods[0].Position)
		require.Len(t, mapped, 1)
	})
}

func TestLoadCSV(t *testing.T) {
	input := "MAPK1,T,183,T,185,off-by-isoform numbering\n" +
		"MAPK1,Y,999,,,no such site\n"
	table, err := LoadCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, table, 2)

	corr := table[SiteKey{Gene: "MAPK1", Residue: "T", Position: "183"}]
	assert.True(t, corr.Valid())
	assert.Equal(t, "185", corr.MappedPosition)

	corr = table[SiteKey{Gene: "MAPK1", Residue: "Y", Position: "999"}]
	assert.False(t, corr.Valid())

	t.Run("short row rejected", func(t *testing.T) {
		_, err := LoadCSV(strings.NewReader("MAPK1,T,183\n"))
		assert.Error(t, err)
	})
}

func TestValidResidue(t *testing.T) {
	assert.True(t, ValidResidue("S"))
	assert.True(t, ValidResidue("t"))
	assert.True(t, ValidResidue(""))
	assert.False(t, ValidResidue("X"))
	assert.False(t, ValidResidue("Sep"))
}
