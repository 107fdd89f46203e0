// Package config holds the assembly pipeline configuration, loaded from
// YAML with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all assembly pipeline configuration.
type Config struct {
	Ontology  OntologyConfig  `yaml:"ontology"`
	Grounding GroundingConfig `yaml:"grounding"`
	SiteMap   SiteMapConfig   `yaml:"site_map"`
	Assembly  AssemblyConfig  `yaml:"assembly"`
	Belief    BeliefConfig    `yaml:"belief"`
	Store     StoreConfig     `yaml:"store"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// OntologyConfig configures the ontology graph and its decorators.
type OntologyConfig struct {
	Path         string `yaml:"path"`
	CacheTTL     string `yaml:"cache_ttl"`
	QueryTimeout string `yaml:"query_timeout"`
}

// GroundingConfig configures the grounding map.
type GroundingConfig struct {
	MapDir string `yaml:"map_dir"`
	// Watch reloads the grounding map when its files change.
	Watch bool `yaml:"watch"`
	// DisambiguationMinRatio is the dominance ratio required for
	// automatic sense selection; zero disables disambiguation.
	DisambiguationMinRatio float64 `yaml:"disambiguation_min_ratio"`
}

// SiteMapConfig configures curated site corrections.
type SiteMapConfig struct {
	Path string `yaml:"path"`
}

// AssemblyConfig configures the preassembler.
type AssemblyConfig struct {
	Workers int `yaml:"workers"`
	// TopLevelOnly restricts output to maximally specific statements.
	TopLevelOnly bool `yaml:"top_level_only"`
	// FlattenEvidence gathers evidence from more general statements onto
	// the top-level output. Implies TopLevelOnly.
	FlattenEvidence bool `yaml:"flatten_evidence"`
}

// BeliefConfig configures the belief engine.
type BeliefConfig struct {
	// ProbsPath optionally overrides the built-in error rate table.
	ProbsPath string `yaml:"probs_path"`
	// FallbackSyst/FallbackRand, when set, score unknown sources instead
	// of failing.
	FallbackSyst *float64 `yaml:"fallback_syst"`
	FallbackRand *float64 `yaml:"fallback_rand"`
}

// StoreConfig configures corpus persistence.
type StoreConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// LoggingConfig configures the logger.
type LoggingConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Ontology: OntologyConfig{
			CacheTTL:     "10m",
			QueryTimeout: "5s",
		},
		Grounding: GroundingConfig{
			DisambiguationMinRatio: 2,
		},
		Assembly: AssemblyConfig{
			TopLevelOnly:    true,
			FlattenEvidence: true,
		},
		Store: StoreConfig{
			DatabasePath: filepath.Join(".indra", "corpus.db"),
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from a YAML file, falling back to defaults
// when the file does not exist, and applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes the configuration to a YAML file.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if path := os.Getenv("INDRA_DB"); path != "" {
		c.Store.DatabasePath = path
	}
	if path := os.Getenv("INDRA_ONTOLOGY"); path != "" {
		c.Ontology.Path = path
	}
	if dir := os.Getenv("INDRA_GROUNDING_DIR"); dir != "" {
		c.Grounding.MapDir = dir
	}
	if level := os.Getenv("INDRA_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if workers := os.Getenv("INDRA_WORKERS"); workers != "" {
		if n, err := strconv.Atoi(workers); err == nil && n > 0 {
			c.Assembly.Workers = n
		}
	}
}

// ParsedCacheTTL parses the ontology cache TTL.
func (o OntologyConfig) ParsedCacheTTL() (time.Duration, error) {
	if o.CacheTTL == "" {
		return 10 * time.Minute, nil
	}
	return time.ParseDuration(o.CacheTTL)
}

// ParsedQueryTimeout parses the ontology query timeout.
func (o OntologyConfig) ParsedQueryTimeout() (time.Duration, error) {
	if o.QueryTimeout == "" {
		return 5 * time.Second, nil
	}
	return time.ParseDuration(o.QueryTimeout)
}

// Validate checks cross-field consistency.
func (c *Config) Validate() error {
	if _, err := c.Ontology.ParsedCacheTTL(); err != nil {
		return fmt.Errorf("ontology.cache_ttl: %w", err)
	}
	if _, err := c.Ontology.ParsedQueryTimeout(); err != nil {
		return fmt.Errorf("ontology.query_timeout: %w", err)
	}
	if c.Assembly.Workers < 0 {
		return fmt.Errorf("assembly.workers must not be negative")
	}
	if (c.Belief.FallbackSyst == nil) != (c.Belief.FallbackRand == nil) {
		return fmt.Errorf("belief.fallback_syst and belief.fallback_rand must be set together")
	}
	return nil
}
