package statements

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// statementEnvelope carries the fields of the serialized form that are
// not part of the concrete statement structs: the type tag that selects
// the factory, and the refinement links flattened to ID references.
type statementEnvelope struct {
	Type        string   `json:"type"`
	Supports    []string `json:"supports,omitempty"`
	SupportedBy []string `json:"supported_by,omitempty"`
}

// MarshalStatement serializes a statement as a JSON object tagged with
// its type. Refinement links are serialized as lists of statement IDs.
func MarshalStatement(s Statement) ([]byte, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal %s statement: %w", s.Type(), err)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	fields["type"], _ = json.Marshal(s.Type())
	b := s.Core()
	if ids := statementIDs(b.Supports); ids != nil {
		fields["supports"], _ = json.Marshal(ids)
	}
	if ids := statementIDs(b.SupportedBy); ids != nil {
		fields["supported_by"], _ = json.Marshal(ids)
	}
	return json.Marshal(fields)
}

func statementIDs(stmts []Statement) []string {
	if len(stmts) == 0 {
		return nil
	}
	ids := make([]string, len(stmts))
	for i, s := range stmts {
		ids[i] = s.Core().ID
	}
	return ids
}

// MarshalStatements serializes a slice of statements as a JSON array.
func MarshalStatements(stmts []Statement) ([]byte, error) {
	raws := make([]json.RawMessage, len(stmts))
	for i, s := range stmts {
		raw, err := MarshalStatement(s)
		if err != nil {
			return nil, err
		}
		raws[i] = raw
	}
	return json.Marshal(raws)
}

func decodeStatement(data []byte) (Statement, *statementEnvelope, error) {
	var env statementEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, nil, fmt.Errorf("decode statement envelope: %w", err)
	}
	info, ok := Lookup(env.Type)
	if !ok {
		return nil, nil, fmt.Errorf("unknown statement type %q", env.Type)
	}
	s := info.New()
	if err := json.Unmarshal(data, s); err != nil {
		return nil, nil, fmt.Errorf("decode %s statement: %w", env.Type, err)
	}
	if s.Core().ID == "" {
		s.Core().ID = uuid.NewString()
	}
	return s, &env, nil
}

// UnmarshalStatement deserializes a single statement. Refinement links
// cannot be resolved without the rest of the corpus and are dropped; use
// UnmarshalStatements for a linked corpus.
func UnmarshalStatement(data []byte) (Statement, error) {
	s, _, err := decodeStatement(data)
	return s, err
}

// UnmarshalStatements deserializes a JSON array of statements and
// resolves refinement links in a second pass. A link naming an ID that is
// not present in the array refers to a statement outside this slice of
// the corpus and is dropped.
func UnmarshalStatements(data []byte) ([]Statement, error) {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, fmt.Errorf("decode statement array: %w", err)
	}
	stmts := make([]Statement, 0, len(raws))
	envs := make([]*statementEnvelope, 0, len(raws))
	byID := make(map[string]Statement, len(raws))
	for i, raw := range raws {
		s, env, err := decodeStatement(raw)
		if err != nil {
			return nil, fmt.Errorf("statement %d: %w", i, err)
		}
		stmts = append(stmts, s)
		envs = append(envs, env)
		byID[s.Core().ID] = s
	}
	for i, env := range envs {
		b := stmts[i].Core()
		for _, id := range env.Supports {
			if ref, ok := byID[id]; ok {
				b.Supports = append(b.Supports, ref)
			}
		}
		for _, id := range env.SupportedBy {
			if ref, ok := byID[id]; ok {
				b.SupportedBy = append(b.SupportedBy, ref)
			}
		}
	}
	return stmts, nil
}
