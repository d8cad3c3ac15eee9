package signed

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// Config manages algorithm configuration using Viper
type Config struct {
	v *viper.Viper
}

// NewConfig creates a new configuration with defaults
func NewConfig() *Config {
	v := viper.New()

	// Algorithm parameters
	v.SetDefault("algorithm.resolution", 1.0)
	v.SetDefault("algorithm.randomize", false)
	v.SetDefault("algorithm.random_seed", 42)
	v.SetDefault("algorithm.max_passes", -1)
	v.SetDefault("algorithm.max_levels", -1)

	// Logging parameters
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.enable_progress", false)

	return &Config{v: v}
}

// LoadFromFile loads configuration from file
func (c *Config) LoadFromFile(path string) error {
	c.v.SetConfigFile(path)
	return c.v.ReadInConfig()
}

func (c *Config) Resolution() float64 { return c.v.GetFloat64("algorithm.resolution") }
func (c *Config) Randomize() bool     { return c.v.GetBool("algorithm.randomize") }
func (c *Config) RandomSeed() int64   { return c.v.GetInt64("algorithm.random_seed") }

// MaxPasses bounds the local-move passes per level; -1 means unbounded.
func (c *Config) MaxPasses() int { return c.v.GetInt("algorithm.max_passes") }

// MaxLevels bounds the number of retained dendrogram levels; -1 means unbounded.
func (c *Config) MaxLevels() int { return c.v.GetInt("algorithm.max_levels") }

func (c *Config) LogLevel() string     { return c.v.GetString("logging.level") }
func (c *Config) EnableProgress() bool { return c.v.GetBool("logging.enable_progress") }

// Set allows dynamic configuration changes
func (c *Config) Set(key string, value interface{}) {
	c.v.Set(key, value)
}

// AllSettings returns the merged settings, mainly for logging a run's parameters
func (c *Config) AllSettings() map[string]interface{} {
	return c.v.AllSettings()
}

// CreateLogger creates a zerolog logger based on config. Logs go to stderr so
// that stdout stays free for results.
func (c *Config) CreateLogger() zerolog.Logger {
	return c.createLogger(os.Stderr)
}

func (c *Config) createLogger(out io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(c.LogLevel())
	if err != nil {
		level = zerolog.InfoLevel
	}

	return zerolog.New(zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: "15:04:05",
	}).Level(level).With().Timestamp().Str("service", "signed-louvain").Logger()
}
