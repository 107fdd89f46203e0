package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubcommandsRegistered(t *testing.T) {
	want := []string{"assemble", "contradicts", "corpus", "ontology"}
	for _, name := range want {
		found := false
		for _, c := range rootCmd.Commands() {
			if c.Name() == name {
				found = true
				break
			}
		}
		assert.True(t, found, "subcommand %s not registered", name)
	}
}

func TestParseLabel(t *testing.T) {
	tests := []struct {
		in      string
		ns, id  string
		wantErr bool
	}{
		{in: "HGNC:6840", ns: "HGNC", id: "6840"},
		{in: "GO:0005634", ns: "GO", id: "0005634"},
		{in: "CHEBI:CHEBI:15996", ns: "CHEBI", id: "CHEBI:15996"},
		{in: "nocolon", wantErr: true},
		{in: ":6840", wantErr: true},
		{in: "HGNC:", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			ns, id, err := parseLabel(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.ns, ns)
			assert.Equal(t, tt.id, id)
		})
	}
}
