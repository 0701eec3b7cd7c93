// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Loading functions accept context.Context as the first parameter.
// - Validation failures wrap ErrInvalidConfig.
package config

import (
	"fmt"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// PlayerDBPath points at the football SQLite database.
	PlayerDBPath string `koanf:"player_db_path"`

	// ForestTrees and ForestSeed fix the ensemble size and its random seed.
	ForestTrees int   `koanf:"forest_trees"`
	ForestSeed  int64 `koanf:"forest_seed"`

	// ForestWorkers sets how many trees are grown concurrently.
	ForestWorkers int `koanf:"forest_workers"`

	// SessionCacheSize bounds how many sessions are kept alive.
	SessionCacheSize int `koanf:"session_cache_size"`

	// MemoCacheSize bounds the memoized loads and runs per session.
	MemoCacheSize int `koanf:"memo_cache_size"`

	// MaxUploadBytes caps multipart uploads.
	MaxUploadBytes int64 `koanf:"max_upload_bytes"`

	// MaxRecommendations caps GET /players/{id}/similar?k.
	MaxRecommendations int `koanf:"max_recommendations"`

	// DefaultRecommendations is used when k is not given.
	DefaultRecommendations int `koanf:"default_recommendations"`

	// BreakerTimeoutMS is how long the data source breaker stays open.
	BreakerTimeoutMS int `koanf:"breaker_timeout_ms"`

	// Metrics naming and sampling. Empty buckets keep the built-in ones.
	MetricsNamespace      string    `koanf:"metrics_namespace"`
	MetricsSubsystem      string    `koanf:"metrics_subsystem"`
	MetricsRefreshMS      int       `koanf:"metrics_refresh_ms"`
	MetricsLatencyBuckets []float64 `koanf:"metrics_latency_buckets"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:               "info",
		Addr:                   ":9080",
		PlayerDBPath:           "Data/database.sqlite",
		ForestTrees:            100,
		ForestSeed:             42,
		ForestWorkers:          4,
		SessionCacheSize:       256,
		MemoCacheSize:          16,
		MaxUploadBytes:         32 << 20,
		MaxRecommendations:     20,
		DefaultRecommendations: 5,
		BreakerTimeoutMS:       30_000,
		MetricsNamespace:       "scoutlab",
		MetricsSubsystem:       "analytics",
		MetricsRefreshMS:       10_000,
	}
}

// BreakerTimeout returns BreakerTimeoutMS as a duration.
func (c *Config) BreakerTimeout() time.Duration {
	return time.Duration(c.BreakerTimeoutMS) * time.Millisecond
}

// MetricsRefresh returns MetricsRefreshMS as a duration.
func (c *Config) MetricsRefresh() time.Duration {
	return time.Duration(c.MetricsRefreshMS) * time.Millisecond
}

// Validate reports the first setting that cannot work.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.ForestTrees < 1:
		return fmt.Errorf("%w: forest_trees must be positive", ErrInvalidConfig)
	case c.SessionCacheSize < 1:
		return fmt.Errorf("%w: session_cache_size must be positive", ErrInvalidConfig)
	case c.MemoCacheSize < 1:
		return fmt.Errorf("%w: memo_cache_size must be positive", ErrInvalidConfig)
	case c.MaxUploadBytes < 1:
		return fmt.Errorf("%w: max_upload_bytes must be positive", ErrInvalidConfig)
	case c.MaxRecommendations < 1:
		return fmt.Errorf("%w: max_recommendations must be positive", ErrInvalidConfig)
	case c.DefaultRecommendations < 1 || c.DefaultRecommendations > c.MaxRecommendations:
		return fmt.Errorf("%w: default_recommendations must be within [1, max_recommendations]", ErrInvalidConfig)
	case c.MetricsNamespace == "":
		return fmt.Errorf("%w: metrics_namespace must not be empty", ErrInvalidConfig)
	case c.MetricsRefreshMS < 1:
		return fmt.Errorf("%w: metrics_refresh_ms must be positive", ErrInvalidConfig)
	}
	return nil
}
