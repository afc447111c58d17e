// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Nested sections map to nested koanf keys, e.g. storage.bucket.
// - Validation uses struct tags checked by Validate.
package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level" validate:"oneof=debug info warn error"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format" validate:"oneof=text json"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr" validate:"required"`

	Leaderboard LeaderboardConfig `koanf:"leaderboard"`
	Storage     StorageConfig     `koanf:"storage"`
	Cache       CacheConfig       `koanf:"cache"`
	Tracing     TracingConfig     `koanf:"tracing"`
}

// LeaderboardConfig controls query defaults.
type LeaderboardConfig struct {
	// DefaultLimit applies when a request carries no limit.
	DefaultLimit int `koanf:"default_limit" validate:"min=1"`
	// MaxLimit caps GET /leaderboard?limit.
	MaxLimit int `koanf:"max_limit" validate:"min=1,gtefield=DefaultLimit"`
	// View is the default view: all or latest.
	View string `koanf:"view" validate:"oneof=all latest"`
	// RecentWindow is the trailing window for recentEvaluations.
	RecentWindow time.Duration `koanf:"recent_window" validate:"gt=0"`
}

// StorageConfig selects and configures the record store backend.
type StorageConfig struct {
	Backend          string        `koanf:"backend" validate:"oneof=s3 memory"`
	Bucket           string        `koanf:"bucket" validate:"required_if=Backend s3"`
	Prefix           string        `koanf:"prefix"`
	Region           string        `koanf:"region"`
	Endpoint         string        `koanf:"endpoint" validate:"omitempty,url"`
	AccessKeyID      string        `koanf:"access_key_id"`
	SecretAccessKey  string        `koanf:"secret_access_key"`
	PathStyle        bool          `koanf:"path_style"`
	FetchTimeout     time.Duration `koanf:"fetch_timeout" validate:"gt=0"`
	FetchConcurrency int           `koanf:"fetch_concurrency" validate:"min=1,max=256"`
}

// CacheConfig enables the optional Redis snapshot cache.
type CacheConfig struct {
	Enabled  bool          `koanf:"enabled"`
	Addr     string        `koanf:"addr" validate:"required_if=Enabled true"`
	Password string        `koanf:"password"`
	DB       int           `koanf:"db" validate:"min=0"`
	TTL      time.Duration `koanf:"ttl" validate:"gt=0"`
}

// TracingConfig configures OpenTelemetry export.
type TracingConfig struct {
	Enabled      bool    `koanf:"enabled"`
	Exporter     string  `koanf:"exporter" validate:"oneof=otlp-http otlp-grpc"`
	Endpoint     string  `koanf:"endpoint"`
	SamplingRate float64 `koanf:"sampling_rate" validate:"min=0,max=1"`
	Insecure     bool    `koanf:"insecure"`
	Environment  string  `koanf:"environment"`
}

// Storage backends.
const (
	BackendS3     = "s3"
	BackendMemory = "memory"
)

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:  "info",
		LogFormat: "text",
		Addr:      ":9080",
		Leaderboard: LeaderboardConfig{
			DefaultLimit: 50,
			MaxLimit:     1000,
			View:         "all",
			RecentWindow: 24 * time.Hour,
		},
		Storage: StorageConfig{
			Backend:          BackendMemory,
			Prefix:           "evaluation-results/",
			FetchTimeout:     5 * time.Second,
			FetchConcurrency: 16,
		},
		Cache: CacheConfig{
			Addr: "localhost:6379",
			TTL:  30 * time.Second,
		},
		Tracing: TracingConfig{
			Exporter:     "otlp-http",
			SamplingRate: 1.0,
		},
	}
}

var validate = validator.New()

// Validate checks every field against its constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}
