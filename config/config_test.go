package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nodeadmin/alcomo/conflict"
	"github.com/nodeadmin/alcomo/errors"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "alcomo.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	e := cfg.Extraction
	assert.Equal(t, "optimal", e.Strategy)
	assert.Equal(t, EntitiesConceptsAndProperties, e.Entities)
	assert.Equal(t, "pattern-then-complete", e.Reasoning)
	assert.True(t, e.RemoveIndividuals)
	assert.True(t, e.OneToOneOnlyEquiv)
	assert.False(t, e.RangeExtension)
	assert.False(t, e.OneToOne)
	assert.Equal(t, "saturation", e.Reasoner)
	assert.Zero(t, e.Timeout)
	require.NotNil(t, e.Seed)
	assert.Equal(t, int64(conflict.DefaultSeed), *e.Seed)
	assert.False(t, e.Normalize)
	assert.Zero(t, e.Threshold)
	assert.False(t, e.Sensitivity)
	assert.Equal(t, conflict.DefaultCacheSize, cfg.Cache.Size)
	assert.NoError(t, cfg.Validate())
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
extraction:
  strategy: greedy
  reasoning: pattern-only
  entities: concepts-only
  one_to_one: true
  remove_individuals: false
  timeout: 90s
  seed: 0
  normalize: true
  threshold: 0.3
  sensitivity: true
log:
  level: debug
  format: json
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	e := cfg.Extraction
	assert.Equal(t, "greedy", e.Strategy)
	assert.Equal(t, "pattern-only", e.Reasoning)
	assert.False(t, e.Properties())
	assert.False(t, e.RemoveIndividuals, "explicit false survives defaults")
	assert.True(t, e.OneToOneOnlyEquiv, "unset booleans keep their default")
	assert.Equal(t, 90*time.Second, e.Timeout)
	require.NotNil(t, e.Seed)
	assert.Equal(t, int64(0), *e.Seed, "seed 0 is kept")
	assert.True(t, e.Normalize)
	assert.InDelta(t, 0.3, e.Threshold, 1e-12)
	assert.True(t, e.Sensitivity)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)

	p := e.Policy()
	assert.True(t, p.OneToOne)
	assert.True(t, p.OneToOneOnlyEquiv)
	assert.False(t, p.DisableReasoning)
}

func TestLoad_EnvOverride(t *testing.T) {
	path := writeConfig(t, "extraction:\n  strategy: greedy\n")
	t.Setenv("ALCOMO_EXTRACTION_STRATEGY", "optimal-one-to-one")
	t.Setenv("ALCOMO_EXTRACTION_RANGE_EXTENSION", "true")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "optimal-one-to-one", cfg.Extraction.Strategy)
	assert.True(t, cfg.Extraction.RangeExtension)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("ALCOMO_EXTRACTION_TIMEOUT", "5s")
	t.Setenv("ALCOMO_CACHE_SIZE", "16")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, cfg.Extraction.Timeout)
	assert.Equal(t, 16, cfg.Cache.Size)
	assert.Equal(t, "optimal", cfg.Extraction.Strategy)
	require.NotNil(t, cfg.Extraction.Seed)
	assert.Equal(t, int64(conflict.DefaultSeed), *cfg.Extraction.Seed)
}

func TestLoadFromEnv_Seed(t *testing.T) {
	t.Setenv("ALCOMO_EXTRACTION_SEED", "0")
	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	require.NotNil(t, cfg.Extraction.Seed)
	assert.Equal(t, int64(0), *cfg.Extraction.Seed)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeIO))
}

func TestValidate_NamesOption(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		option string
	}{
		{"strategy", func(c *Config) { c.Extraction.Strategy = "annealing" }, "extraction.strategy"},
		{"reasoning", func(c *Config) { c.Extraction.Reasoning = "oracle" }, "extraction.reasoning"},
		{"entities", func(c *Config) { c.Extraction.Entities = "individuals" }, "extraction.entities"},
		{"reasoner", func(c *Config) { c.Extraction.Reasoner = "hermit" }, "extraction.reasoner"},
		{"timeout", func(c *Config) { c.Extraction.Timeout = -time.Second }, "extraction.timeout"},
		{"threshold", func(c *Config) { c.Extraction.Threshold = 1.5 }, "extraction.threshold"},
		{"log level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"metrics addr", func(c *Config) { c.Metrics.Enabled = true; c.Metrics.Addr = "" }, "metrics.addr"},
		{"minimize needs pattern-only", func(c *Config) {
			c.Extraction.Strategy = "greedy-minimize"
		}, "extraction.reasoning"},
		{"one-to-one rejects brute force", func(c *Config) {
			c.Extraction.Strategy = "optimal-one-to-one"
			c.Extraction.Reasoning = "brute-force-complete"
		}, "extraction.reasoning"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidConfig))
			assert.Contains(t, err.Error(), tt.option)
		})
	}
}

func TestLoad_InvalidCombination(t *testing.T) {
	path := writeConfig(t, "extraction:\n  strategy: greedy-minimize\n")
	_, err := Load(path)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidConfig))
}
