package config

import (
	"time"

	redisclient "github.com/teampulse/calsync/internal/infra/redis"
	"github.com/teampulse/calsync/internal/infra/storage/postgres"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Server   ServerConfig       `yaml:"server"`
	Sync     SyncConfig         `yaml:"sync"`
	Redis    redisclient.Config `yaml:"redis"`
	Logging  LoggingConfig      `yaml:"logging"`
	Database postgres.Config    `yaml:"database"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// SyncConfig holds reconciliation settings.
type SyncConfig struct {
	// Interval between background reconciliation passes.
	Interval time.Duration `yaml:"interval"`
	// BirthdayLookaheadYears is how many years past the current one
	// birthday events are materialized for.
	BirthdayLookaheadYears int         `yaml:"birthday_lookahead_years"`
	Retry                  RetryConfig `yaml:"retry"`
}

// RetryConfig holds retry policy settings for store operations.
type RetryConfig struct {
	MaxRetries        int           `yaml:"max_retries"`
	BaseDelay         time.Duration `yaml:"base_delay"`
	MaxDelay          time.Duration `yaml:"max_delay"`
	BackoffMultiplier float64       `yaml:"backoff_multiplier"`
}
