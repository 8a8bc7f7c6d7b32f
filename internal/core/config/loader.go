package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/teampulse/calsync/internal/recon/generate"
	"github.com/teampulse/calsync/internal/recon/retry"
)

// DefaultSyncInterval is used when the config omits sync.interval.
const DefaultSyncInterval = 15 * time.Minute

// Load reads configuration from a YAML file.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg AppConfig
	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Set defaults if necessary
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Sync.Interval == 0 {
		cfg.Sync.Interval = DefaultSyncInterval
	}
	if cfg.Sync.BirthdayLookaheadYears == 0 {
		cfg.Sync.BirthdayLookaheadYears = generate.DefaultBirthdayLookaheadYears
	}
	if cfg.Sync.Retry.MaxRetries == 0 {
		cfg.Sync.Retry.MaxRetries = retry.DefaultMaxRetries
	}
	if cfg.Sync.Retry.BaseDelay == 0 {
		cfg.Sync.Retry.BaseDelay = retry.DefaultBaseDelay
	}
	if cfg.Sync.Retry.MaxDelay == 0 {
		cfg.Sync.Retry.MaxDelay = retry.DefaultMaxDelay
	}
	if cfg.Sync.Retry.BackoffMultiplier == 0 {
		cfg.Sync.Retry.BackoffMultiplier = retry.DefaultBackoffMultiplier
	}

	return &cfg, nil
}
