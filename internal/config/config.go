// Package config loads lodestar configuration from a YAML file and
// LODESTAR_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/lodestar-hq/lodestar/internal/status"
)

// Config is the full lodestar configuration
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	GitHub   GitHubConfig   `mapstructure:"github"`
	Sync     SyncConfig     `mapstructure:"sync"`
}

// DatabaseConfig holds persistence settings
type DatabaseConfig struct {
	// Path is the SQLite database file path
	Path string `mapstructure:"path"`
}

// GitHubConfig holds external tracker settings
type GitHubConfig struct {
	// Token is the API token (LODESTAR_GITHUB_TOKEN)
	Token string `mapstructure:"token"`
	// Owner and Repo scope canonical-id resolution and issue creation
	Owner string `mapstructure:"owner"`
	Repo  string `mapstructure:"repo"`
	// BaseURL overrides the API endpoint (GitHub Enterprise)
	BaseURL string `mapstructure:"base_url"`
	// RequestsPerSecond caps the client-side request rate
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	// Burst is the rate limiter burst size
	Burst int `mapstructure:"burst"`
	// MaxTries bounds retries per API call, including the first attempt
	MaxTries uint `mapstructure:"max_tries"`
}

// SyncConfig holds reconciliation pass settings
type SyncConfig struct {
	// SearchQuery is the bulk-discovery search query
	SearchQuery string `mapstructure:"search_query"`
	// SnapshotMaxBytes is the byte budget for status snapshots
	SnapshotMaxBytes int `mapstructure:"snapshot_max_bytes"`
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path: ".lodestar/lodestar.db",
		},
		GitHub: GitHubConfig{
			RequestsPerSecond: 2,
			Burst:             4,
			MaxTries:          4,
		},
		Sync: SyncConfig{
			SnapshotMaxBytes: status.DefaultSnapshotMaxBytes,
		},
	}
}

// Load reads configuration from the given file (optional) and the
// environment. Environment variables use the LODESTAR_ prefix with
// underscores, e.g. LODESTAR_GITHUB_TOKEN, LODESTAR_SYNC_SEARCH_QUERY.
func Load(path string) (*Config, error) {
	v := viper.New()

	// Every key needs a default so AutomaticEnv overrides reach
	// Unmarshal; viper only considers keys it already knows about.
	defaults := DefaultConfig()
	v.SetDefault("database.path", defaults.Database.Path)
	v.SetDefault("github.token", "")
	v.SetDefault("github.owner", "")
	v.SetDefault("github.repo", "")
	v.SetDefault("github.base_url", "")
	v.SetDefault("github.requests_per_second", defaults.GitHub.RequestsPerSecond)
	v.SetDefault("github.burst", defaults.GitHub.Burst)
	v.SetDefault("github.max_tries", defaults.GitHub.MaxTries)
	v.SetDefault("sync.search_query", "")
	v.SetDefault("sync.snapshot_max_bytes", defaults.Sync.SnapshotMaxBytes)

	v.SetEnvPrefix("LODESTAR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	} else {
		v.SetConfigName("lodestar")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(".lodestar")
		if err := v.ReadInConfig(); err != nil {
			// A config file is optional; defaults plus env are enough.
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that loaded values are usable
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path must not be empty")
	}
	if c.GitHub.RequestsPerSecond < 0 {
		return fmt.Errorf("github.requests_per_second must not be negative")
	}
	if c.Sync.SnapshotMaxBytes < 0 {
		return fmt.Errorf("sync.snapshot_max_bytes must not be negative")
	}
	return nil
}
