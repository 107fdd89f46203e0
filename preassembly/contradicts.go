package preassembly

import (
	"context"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/sorgerlab/indra/statements"
)

// contradictionFamily maps a polar relation tag to the family shared
// with its opposite-polarity counterpart, so that e.g. phosphorylation
// and dephosphorylation statements land in the same comparison group.
// ok is false for tags without a polar opposite.
func contradictionFamily(tag string) (string, bool) {
	switch root := rootTag(tag); root {
	case "modification":
		return "modification", true
	case "demodification":
		return "modification", true
	case "activation", "inhibition":
		return "regulation", true
	case "increaseamount", "decreaseamount":
		return "amount", true
	default:
		return "", false
	}
}

// FindContradicts returns all pairs of statements asserting incompatible
// relations over matching entities. Polar types are grouped by entity
// key before comparison; polarity-neutral types (influence, active form)
// are compared pairwise within their type, since opposite concepts do
// not share entity keys.
func (p *Preassembler) FindContradicts(ctx context.Context, stmts []statements.Statement) ([][2]statements.Statement, error) {
	polar := make(map[string][]statements.Statement)
	neutral := make(map[string][]statements.Statement)

	for _, s := range stmts {
		if family, ok := contradictionFamily(s.Type()); ok {
			key := family
			skip := false
			for _, a := range s.AgentList() {
				if a == nil {
					// Contradiction requires all participants; nothing to
					// compare against.
					skip = true
					break
				}
				key += "|" + p.entityKey(a)
			}
			if !skip {
				polar[key] = append(polar[key], s)
			}
			continue
		}
		switch s.Type() {
		case "influence", "activeform":
			neutral[s.Type()] = append(neutral[s.Type()], s)
		}
	}

	var pairs [][2]statements.Statement
	compare := func(group []statements.Statement) error {
		for i := 0; i < len(group); i++ {
			for j := i + 1; j < len(group); j++ {
				contra, err := group[i].Contradicts(group[j], p.ont)
				if err != nil {
					p.log.Debug("contradiction undecidable",
						zap.String("a", group[i].MatchesKey()),
						zap.String("b", group[j].MatchesKey()),
						zap.Error(err))
					continue
				}
				if contra {
					pairs = append(pairs, [2]statements.Statement{group[i], group[j]})
				}
			}
		}
		return nil
	}

	keys := make([]string, 0, len(polar)+len(neutral))
	for k := range polar {
		keys = append(keys, "p|"+k)
	}
	for k := range neutral {
		keys = append(keys, "n|"+k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		var group []statements.Statement
		if strings.HasPrefix(k, "p|") {
			group = polar[k[2:]]
		} else {
			group = neutral[k[2:]]
		}
		if err := compare(group); err != nil {
			return nil, err
		}
	}
	return pairs, nil
}
