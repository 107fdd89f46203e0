package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.True(t, cfg.Assembly.TopLevelOnly)
	assert.True(t, cfg.Assembly.FlattenEvidence)
	assert.Equal(t, 2.0, cfg.Grounding.DisambiguationMinRatio)
}

func TestLoadParsesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
ontology:
  path: /data/bio_ontology.yaml
  query_timeout: 2s
assembly:
  workers: 8
  flatten_evidence: true
logging:
  level: debug
  development: true
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/data/bio_ontology.yaml", cfg.Ontology.Path)
	assert.Equal(t, 8, cfg.Assembly.Workers)
	assert.True(t, cfg.Assembly.FlattenEvidence)
	assert.Equal(t, "debug", cfg.Logging.Level)

	timeout, err := cfg.Ontology.ParsedQueryTimeout()
	require.NoError(t, err)
	assert.Equal(t, "2s", timeout.String())
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("INDRA_DB", "/tmp/override.db")
	t.Setenv("INDRA_LOG_LEVEL", "warn")
	t.Setenv("INDRA_WORKERS", "3")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "/tmp/override.db", cfg.Store.DatabasePath)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, 3, cfg.Assembly.Workers)
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	cfg.Ontology.QueryTimeout = "not-a-duration"
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	half := 0.05
	cfg.Belief.FallbackSyst = &half
	assert.Error(t, cfg.Validate(), "fallback rates must come in pairs")
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")
	cfg := DefaultConfig()
	cfg.Assembly.Workers = 4
	require.NoError(t, cfg.Save(path))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 4, got.Assembly.Workers)
}
