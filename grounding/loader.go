package grounding

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// LoadJSON reads grounding map entries from JSON. Each key is a raw
// mention; the value is null for an ungroundable mention, a single
// candidate object, or an array of candidates for ambiguous mentions.
func LoadJSON(r io.Reader) (map[string][]Candidate, error) {
	var raw map[string]json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode grounding map: %w", err)
	}
	entries := make(map[string][]Candidate, len(raw))
	for text, val := range raw {
		trimmed := strings.TrimSpace(string(val))
		switch {
		case trimmed == "null":
			entries[text] = nil
		case strings.HasPrefix(trimmed, "["):
			var cands []Candidate
			if err := json.Unmarshal(val, &cands); err != nil {
				return nil, fmt.Errorf("entry %q: %w", text, err)
			}
			entries[text] = cands
		default:
			var cand Candidate
			if err := json.Unmarshal(val, &cand); err != nil {
				return nil, fmt.Errorf("entry %q: %w", text, err)
			}
			entries[text] = []Candidate{cand}
		}
	}
	return entries, nil
}

// LoadCSV reads grounding map entries from CSV rows of the form
// text,namespace,id[,name[,frequency]]. A row with an empty namespace
// marks its mention ungroundable. Repeated mentions accumulate
// candidates.
func LoadCSV(r io.Reader) (map[string][]Candidate, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	entries := make(map[string][]Candidate)
	line := 0
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read grounding csv: %w", err)
		}
		line++
		if len(rec) < 3 {
			return nil, fmt.Errorf("grounding csv line %d: want at least 3 fields, got %d", line, len(rec))
		}
		text := rec[0]
		ns, id := strings.TrimSpace(rec[1]), strings.TrimSpace(rec[2])
		if ns == "" {
			if _, exists := entries[text]; !exists {
				entries[text] = nil
			}
			continue
		}
		cand := Candidate{Refs: map[string]string{ns: id}, Frequency: 1}
		if len(rec) > 3 {
			cand.Name = strings.TrimSpace(rec[3])
		}
		if len(rec) > 4 && strings.TrimSpace(rec[4]) != "" {
			f, err := strconv.ParseFloat(strings.TrimSpace(rec[4]), 64)
			if err != nil {
				return nil, fmt.Errorf("grounding csv line %d: bad frequency: %w", line, err)
			}
			cand.Frequency = f
		}
		entries[text] = append(entries[text], cand)
	}
	return entries, nil
}

// LoadFile loads a grounding map file, dispatching on extension (.json or
// .csv).
func LoadFile(path string) (map[string][]Candidate, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open grounding map: %w", err)
	}
	defer f.Close()
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		return LoadJSON(f)
	case ".csv":
		return LoadCSV(f)
	default:
		return nil, fmt.Errorf("unsupported grounding map format %q", ext)
	}
}

// LoadDir loads and merges every grounding map file in a directory.
// Later files (in lexical order) extend earlier ones; candidate lists for
// the same mention are concatenated.
func LoadDir(dir string) (map[string][]Candidate, error) {
	names, err := filepath.Glob(filepath.Join(dir, "*"))
	if err != nil {
		return nil, err
	}
	merged := make(map[string][]Candidate)
	for _, path := range names {
		ext := strings.ToLower(filepath.Ext(path))
		if ext != ".json" && ext != ".csv" {
			continue
		}
		entries, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		for text, cands := range entries {
			if cands == nil {
				if _, exists := merged[text]; !exists {
					merged[text] = nil
				}
				continue
			}
			merged[text] = append(merged[text], cands...)
		}
	}
	return merged, nil
}
