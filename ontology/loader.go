package ontology

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// resourceFile is the on-disk shape of an ontology resource.
type resourceFile struct {
	Nodes []struct {
		NS   string `yaml:"ns"`
		ID   string `yaml:"id"`
		Name string `yaml:"name,omitempty"`
	} `yaml:"nodes"`
	Relations []struct {
		Type string `yaml:"type"`
		Subj string `yaml:"subj"` // "NS:ID"
		Obj  string `yaml:"obj"`  // "NS:ID"
	} `yaml:"relations"`
}

// LoadFile reads a YAML ontology resource and returns a frozen Graph.
func LoadFile(path string) (*Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read ontology resource: %w", err)
	}
	return Load(data)
}

// Load parses a YAML ontology resource.
func Load(data []byte) (*Graph, error) {
	var res resourceFile
	if err := yaml.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("parse ontology resource: %w", err)
	}
	g := NewGraph()
	for _, n := range res.Nodes {
		if n.NS == "" || n.ID == "" {
			return nil, fmt.Errorf("ontology node missing ns or id: %+v", n)
		}
		g.AddNode(n.NS, n.ID, n.Name)
	}
	for _, r := range res.Relations {
		typ := EdgeType(r.Type)
		switch typ {
		case EdgeIsA, EdgePartOf, EdgeXref, EdgeIsOpposite:
		default:
			return nil, fmt.Errorf("unknown ontology relation type %q", r.Type)
		}
		sns, sid, err := splitLabel(r.Subj)
		if err != nil {
			return nil, err
		}
		ons, oid, err := splitLabel(r.Obj)
		if err != nil {
			return nil, err
		}
		g.AddEdge(sns, sid, ons, oid, typ)
	}
	g.Freeze()
	return g, nil
}

func splitLabel(label string) (ns, id string, err error) {
	parts := strings.SplitN(label, ":", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid ontology label %q, want NS:ID", label)
	}
	return parts[0], parts[1], nil
}
