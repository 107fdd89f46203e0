package preassembly

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sorgerlab/indra/statements"
)

// entityKey renders the bucketing key for one participant: the ontology
// component when the grounding is part of the hierarchy graph (so that
// family and member land in the same bucket), otherwise the entity
// matches key. Nil participants yield the empty key and are regrouped
// against every compatible bucket.
func (p *Preassembler) entityKey(a *statements.Agent) string {
	if a == nil {
		return ""
	}
	if ns, id, ok := a.Grounding(); ok {
		if comp, in := p.ont.Component(ns, id); in {
			return fmt.Sprintf("#%d", comp)
		}
	}
	return a.EntityMatchesKey()
}

// rootTag walks the registry parent chain to the family root, so that a
// subtype statement shares a bucket with statements of its generic type.
func rootTag(tag string) string {
	for {
		info, ok := statements.Lookup(tag)
		if !ok || info.Parent == "" {
			return tag
		}
		tag = info.Parent
	}
}

// buildBuckets groups unique statements into comparison buckets. Two
// statements that can possibly stand in a refinement relation always
// share at least one bucket; statements in disjoint buckets are never
// compared. Statements with a nil participant are added to every bucket
// whose remaining participants match, following the regrouping the
// pairwise pass needs to relate e.g. Phos(None, MEK) with Phos(RAF, MEK).
func (p *Preassembler) buildBuckets(stmts []statements.Statement) [][]int {
	type binaryGroups struct {
		byKey      map[[2]string][]int
		bySecond   map[string][][2]string
		byFirst    map[string][][2]string
		noneFirst  map[string][]int
		noneSecond map[string][]int
	}

	buckets := make(map[string][]int)
	binary := make(map[string]*binaryGroups)

	addOnce := func(key string, ix int) {
		ids := buckets[key]
		if n := len(ids); n > 0 && ids[n-1] == ix {
			return
		}
		buckets[key] = append(ids, ix)
	}

	for ix, s := range stmts {
		root := rootTag(s.Type())
		agents := s.AgentList()
		keys := make([]string, len(agents))
		for i, a := range agents {
			keys[i] = p.entityKey(a)
		}
		info, _ := statements.Lookup(s.Type())
		switch {
		case info.Symmetric:
			sort.Strings(keys)
			addOnce(root+"|"+strings.Join(keys, "|"), ix)
		case len(agents) == 2:
			bg, ok := binary[root]
			if !ok {
				bg = &binaryGroups{
					byKey:      make(map[[2]string][]int),
					bySecond:   make(map[string][][2]string),
					byFirst:    make(map[string][][2]string),
					noneFirst:  make(map[string][]int),
					noneSecond: make(map[string][]int),
				}
				binary[root] = bg
			}
			switch {
			case keys[0] == "" && keys[1] == "":
				// Validation rejects fully unspecified relations; if one
				// slips through it forms a singleton bucket.
				addOnce(root+"||", ix)
			case keys[0] == "":
				bg.noneFirst[keys[1]] = append(bg.noneFirst[keys[1]], ix)
			case keys[1] == "":
				bg.noneSecond[keys[0]] = append(bg.noneSecond[keys[0]], ix)
			default:
				key := [2]string{keys[0], keys[1]}
				if len(bg.byKey[key]) == 0 {
					bg.byFirst[keys[0]] = append(bg.byFirst[keys[0]], key)
					bg.bySecond[keys[1]] = append(bg.bySecond[keys[1]], key)
				}
				bg.byKey[key] = append(bg.byKey[key], ix)
			}
		default:
			addOnce(root+"|"+strings.Join(keys, "|"), ix)
		}
	}

	for root, bg := range binary {
		for key, ids := range bg.byKey {
			buckets[root+"|"+key[0]+"|"+key[1]] = ids
		}
		// A statement with an unspecified first participant joins every
		// group sharing its second participant, or gets its own group when
		// no such group exists.
		for second, ids := range bg.noneFirst {
			matched := bg.bySecond[second]
			if len(matched) == 0 {
				buckets[root+"||"+second] = append(buckets[root+"||"+second], ids...)
				continue
			}
			for _, key := range matched {
				name := root + "|" + key[0] + "|" + key[1]
				buckets[name] = append(buckets[name], ids...)
			}
		}
		for first, ids := range bg.noneSecond {
			matched := bg.byFirst[first]
			if len(matched) == 0 {
				buckets[root+"|"+first+"|"] = append(buckets[root+"|"+first+"|"], ids...)
				continue
			}
			for _, key := range matched {
				name := root + "|" + key[0] + "|" + key[1]
				buckets[name] = append(buckets[name], ids...)
			}
		}
	}

	names := make([]string, 0, len(buckets))
	for name, ids := range buckets {
		if len(ids) > 1 {
			names = append(names, name)
		}
	}
	// Deterministic bucket order keeps runs reproducible.
	sort.Strings(names)
	out := make([][]int, len(names))
	for i, name := range names {
		out[i] = buckets[name]
	}
	return out
}
