package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server  ServerConfig
	Jobs    JobConfig
	Storage StorageConfig
	Logging LoggingConfig
}

type ServerConfig struct {
	Address        string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	AllowedOrigins []string
}

type JobConfig struct {
	MaxWorkers      int
	JobTimeout      time.Duration
	CleanupInterval time.Duration
	ResultTTL       time.Duration
}

type StorageConfig struct {
	UploadDir   string
	MaxFileSize int64
}

type LoggingConfig struct {
	Level string
}

func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Address:        getEnv("SERVER_ADDRESS", ":8080"),
			ReadTimeout:    getDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:   getDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			AllowedOrigins: getList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		},
		Jobs: JobConfig{
			MaxWorkers:      getInt("JOB_MAX_WORKERS", 4),
			JobTimeout:      getDuration("JOB_TIMEOUT", 10*time.Minute),
			CleanupInterval: getDuration("JOB_CLEANUP_INTERVAL", 5*time.Minute),
			ResultTTL:       getDuration("JOB_RESULT_TTL", 1*time.Hour),
		},
		Storage: StorageConfig{
			UploadDir:   getEnv("UPLOAD_DIR", "./uploads"),
			MaxFileSize: getInt64("MAX_FILE_SIZE", 100*1024*1024), // 100MB
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the services cannot run with
func (c *Config) Validate() error {
	if c.Jobs.MaxWorkers < 1 {
		return fmt.Errorf("JOB_MAX_WORKERS must be at least 1, got %d", c.Jobs.MaxWorkers)
	}
	if c.Jobs.CleanupInterval <= 0 || c.Jobs.ResultTTL <= 0 || c.Jobs.JobTimeout <= 0 {
		return fmt.Errorf("job durations must be positive")
	}
	if c.Storage.MaxFileSize <= 0 {
		return fmt.Errorf("MAX_FILE_SIZE must be positive, got %d", c.Storage.MaxFileSize)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.ParseInt(value, 10, 64); err == nil {
			return i
		}
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getList reads a comma separated value
func getList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
