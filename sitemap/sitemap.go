// Package sitemap corrects erroneous modification site positions using a
// curated table of known machine-reading errors, e.g. sites reported on
// MAPK1 using the numbering of a different isoform. Statements whose
// sites are curated as invalid with no known correction are dropped from
// the valid set.
package sitemap

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/sorgerlab/indra/statements"
)

// aminoAcids is the set of valid one-letter residue codes.
var aminoAcids = map[string]bool{
	"A": true, "R": true, "N": true, "D": true, "C": true,
	"Q": true, "E": true, "G": true, "H": true, "I": true,
	"L": true, "K": true, "M": true, "F": true, "P": true,
	"S": true, "T": true, "W": true, "Y": true, "V": true,
}

// ValidResidue reports whether residue is a recognized one-letter amino
// acid code. The empty residue is valid: it means unspecified.
func ValidResidue(residue string) bool {
	return residue == "" || aminoAcids[strings.ToUpper(residue)]
}

// SiteKey identifies a reported site on a gene.
type SiteKey struct {
	Gene     string
	Residue  string
	Position string
}

// Correction is a curated verdict on a reported site. A correction with
// empty MappedResidue and MappedPosition marks the site as invalid with
// no known fix.
type Correction struct {
	MappedResidue  string
	MappedPosition string
	Description    string
}

// Valid reports whether the correction carries a usable replacement site.
func (c Correction) Valid() bool {
	return c.MappedResidue != "" || c.MappedPosition != ""
}

// Applied records one correction applied to a statement.
type Applied struct {
	Key        SiteKey
	Correction Correction
}

// MappedStatement pairs a corrected statement with its original and the
// corrections that produced it.
type MappedStatement struct {
	Original statements.Statement
	Mapped   statements.Statement
	Applied  []Applied
}

// Stats counts outcomes over a mapping run.
type Stats struct {
	Statements int
	Corrected  int
	Dropped    int
}

// Mapper applies curated site corrections.
type Mapper struct {
	table map[SiteKey]Correction
	log   *zap.Logger
}

// New builds a Mapper over a curated correction table. log may be nil.
func New(table map[SiteKey]Correction, log *zap.Logger) *Mapper {
	if log == nil {
		log = zap.NewNop()
	}
	return &Mapper{table: table, log: log}
}

// LoadCSV reads a correction table from rows of the form
// gene,residue,position,mapped_residue,mapped_position[,description].
// Empty mapped fields mark the site invalid with no correction.
func LoadCSV(r io.Reader) (map[SiteKey]Correction, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	table := make(map[SiteKey]Correction)
	line := 0
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read site map csv: %w", err)
		}
		line++
		if len(rec) < 5 {
			return nil, fmt.Errorf("site map csv line %d: want at least 5 fields, got %d", line, len(rec))
		}
		key := SiteKey{Gene: rec[0], Residue: rec[1], Position: rec[2]}
		corr := Correction{MappedResidue: rec[3], MappedPosition: rec[4]}
		if len(rec) > 5 {
			corr.Description = rec[5]
		}
		table[key] = corr
	}
	return table, nil
}

// lookup returns the curated correction for a site on a gene, if any.
func (m *Mapper) lookup(gene, residue, position string) (Correction, bool) {
	c, ok := m.table[SiteKey{Gene: gene, Residue: residue, Position: position}]
	return c, ok
}

// mapSite corrects one (residue, position) pair in place. It returns the
// applied correction and whether the site ruled the statement out.
func (m *Mapper) mapSite(gene string, residue, position *string, applied *[]Applied) (dropped bool) {
	if *residue == "" && *position == "" {
		return false
	}
	key := SiteKey{Gene: gene, Residue: *residue, Position: *position}
	if !ValidResidue(*residue) {
		*applied = append(*applied, Applied{Key: key,
			Correction: Correction{Description: "unrecognized residue " + *residue}})
		return true
	}
	corr, ok := m.table[key]
	if !ok {
		return false
	}
	if !corr.Valid() {
		*applied = append(*applied, Applied{Key: key, Correction: corr})
		return true
	}
	if corr.MappedResidue != "" {
		*residue = corr.MappedResidue
	}
	if corr.MappedPosition != "" {
		*position = corr.MappedPosition
	}
	*applied = append(*applied, Applied{Key: key, Correction: corr})
	return false
}

// mapAgentMods corrects sites inside an agent's modification conditions.
func (m *Mapper) mapAgentMods(a *statements.Agent, applied *[]Applied) (dropped bool) {
	if a == nil {
		return false
	}
	for i := range a.Mods {
		mod := &a.Mods[i]
		if m.mapSite(a.Name, &mod.Residue, &mod.Position, applied) {
			return true
		}
	}
	return false
}

// MapStatement corrects the sites of a single statement. The input is
// never mutated; when corrections apply, Mapped holds a corrected clone.
// ok is false when a site is curated invalid with no correction and the
// statement should be excluded.
func (m *Mapper) MapStatement(s statements.Statement) (MappedStatement, bool) {
	c := s.Clone()
	var applied []Applied
	dropped := false

	switch stmt := c.(type) {
	case *statements.Modification:
		gene := ""
		if stmt.Sub != nil {
			gene = stmt.Sub.Name
		}
		dropped = m.mapSite(gene, &stmt.Residue, &stmt.Position, &applied)
	case *statements.SelfModification:
		gene := ""
		if stmt.Enz != nil {
			gene = stmt.Enz.Name
		}
		dropped = m.mapSite(gene, &stmt.Residue, &stmt.Position, &applied)
	}
	if !dropped {
		for _, a := range c.AgentList() {
			if m.mapAgentMods(a, &applied) {
				dropped = true
				break
			}
		}
	}

	ms := MappedStatement{Original: s, Applied: applied}
	if dropped {
		return ms, false
	}
	if len(applied) > 0 {
		ms.Mapped = c
	}
	return ms, true
}

// MapStatements corrects a corpus. valid holds statements that survive,
// with corrections applied; mapped records every statement that was
// corrected or dropped.
func (m *Mapper) MapStatements(stmts []statements.Statement) (valid []statements.Statement, mapped []MappedStatement, stats Stats) {
	for _, s := range stmts {
		stats.Statements++
		ms, ok := m.MapStatement(s)
		if !ok {
			stats.Dropped++
			mapped = append(mapped, ms)
			m.log.Debug("statement dropped by site map",
				zap.String("key", s.MatchesKey()))
			continue
		}
		if ms.Mapped != nil {
			stats.Corrected++
			mapped = append(mapped, ms)
			valid = append(valid, ms.Mapped)
			continue
		}
		valid = append(valid, s)
	}
	return valid, mapped, stats
}
