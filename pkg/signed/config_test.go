package signed

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigDefaults(t *testing.T) {
	cfg := NewConfig()
	assert.Equal(t, 1.0, cfg.Resolution())
	assert.False(t, cfg.Randomize())
	assert.Equal(t, int64(42), cfg.RandomSeed())
	assert.Equal(t, -1, cfg.MaxPasses())
	assert.Equal(t, -1, cfg.MaxLevels())
	assert.Equal(t, "info", cfg.LogLevel())

	cfg.Set("algorithm.resolution", 0.5)
	assert.Equal(t, 0.5, cfg.Resolution())
}

func TestConfigLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "louvain.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
algorithm:
  resolution: 0.8
  randomize: true
  random_seed: 7
  max_levels: 2
logging:
  level: debug
  enable_progress: true
`), 0644))

	cfg := NewConfig()
	require.NoError(t, cfg.LoadFromFile(path))

	assert.Equal(t, 0.8, cfg.Resolution())
	assert.True(t, cfg.Randomize())
	assert.Equal(t, int64(7), cfg.RandomSeed())
	assert.Equal(t, 2, cfg.MaxLevels())
	assert.Equal(t, -1, cfg.MaxPasses())
	assert.Equal(t, "debug", cfg.LogLevel())
	assert.True(t, cfg.EnableProgress())
	assert.Contains(t, cfg.AllSettings(), "algorithm")
}

func TestConfigLoadMissingFile(t *testing.T) {
	assert.Error(t, NewConfig().LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml")))
}

func TestCreateLoggerLevel(t *testing.T) {
	cfg := NewConfig()
	cfg.Set("logging.level", "warn")

	var buf bytes.Buffer
	logger := cfg.createLogger(&buf)
	logger.Info().Msg("hidden")
	logger.Warn().Msg("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
	assert.Contains(t, buf.String(), "signed-louvain")
}

func TestCreateLoggerBadLevelFallsBackToInfo(t *testing.T) {
	cfg := NewConfig()
	cfg.Set("logging.level", "loud")

	var buf bytes.Buffer
	logger := cfg.createLogger(&buf)
	logger.Debug().Msg("hidden")
	logger.Info().Msg("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}
