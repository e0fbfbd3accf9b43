package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Digital-Shane/title-fetch/internal/provider"
	"github.com/goccy/go-json"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. TITLE_FETCH_TVDB_API_KEY.
const EnvPrefix = "TITLE_FETCH"

// Config holds the persisted settings of title-fetch.
type Config struct {
	DefaultProvider        string `json:"default_provider" mapstructure:"default_provider"`
	TVDBAPIKey             string `json:"tvdb_api_key,omitempty" mapstructure:"tvdb_api_key"`
	RequestTimeoutSeconds  int    `json:"request_timeout_seconds" mapstructure:"request_timeout_seconds"`
	JikanRequestsPerSecond int    `json:"jikan_requests_per_second" mapstructure:"jikan_requests_per_second"`
	EnableCache            bool   `json:"enable_cache" mapstructure:"enable_cache"`
	CacheTTLMinutes        int    `json:"cache_ttl_minutes" mapstructure:"cache_ttl_minutes"`
	EnableHistory          bool   `json:"enable_history" mapstructure:"enable_history"`
	HistoryRetentionDays   int    `json:"history_retention_days" mapstructure:"history_retention_days"`
	LogLevel               string `json:"log_level" mapstructure:"log_level"`
	LogJSON                bool   `json:"log_json" mapstructure:"log_json"`
	LogFile                string `json:"log_file,omitempty" mapstructure:"log_file"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		DefaultProvider:        provider.KindTVMaze.String(),
		RequestTimeoutSeconds:  10,
		JikanRequestsPerSecond: 3,
		EnableCache:            false,
		CacheTTLMinutes:        60,
		EnableHistory:          true,
		HistoryRetentionDays:   30,
		LogLevel:               "info",
	}
}

// ConfigPath returns the path to the config file
func ConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".title-fetch", "config.json"), nil
}

// Load reads the configuration from disk, applying environment overrides.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(afero.NewOsFs(), path)
}

// LoadFrom reads the configuration at path on fs. A missing file yields the
// defaults plus any environment overrides.
func LoadFrom(fs afero.Fs, path string) (*Config, error) {
	v := viper.New()
	v.SetFs(fs)
	v.SetConfigFile(path)
	v.SetConfigType("json")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultConfig()
	v.SetDefault("default_provider", defaults.DefaultProvider)
	v.SetDefault("tvdb_api_key", defaults.TVDBAPIKey)
	v.SetDefault("request_timeout_seconds", defaults.RequestTimeoutSeconds)
	v.SetDefault("jikan_requests_per_second", defaults.JikanRequestsPerSecond)
	v.SetDefault("enable_cache", defaults.EnableCache)
	v.SetDefault("cache_ttl_minutes", defaults.CacheTTLMinutes)
	v.SetDefault("enable_history", defaults.EnableHistory)
	v.SetDefault("history_retention_days", defaults.HistoryRetentionDays)
	v.SetDefault("log_level", defaults.LogLevel)
	v.SetDefault("log_json", defaults.LogJSON)
	v.SetDefault("log_file", defaults.LogFile)

	exists, err := afero.Exists(fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if exists {
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Save writes the configuration to disk
func (cfg *Config) Save() error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return cfg.SaveTo(afero.NewOsFs(), path)
}

// SaveTo writes the configuration to path on fs.
func (cfg *Config) SaveTo(fs afero.Fs, path string) error {
	if err := fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := afero.WriteFile(fs, path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate rejects settings the providers cannot run with.
func (cfg *Config) Validate() error {
	var errs []error
	if _, err := provider.ParseKind(cfg.DefaultProvider); err != nil {
		errs = append(errs, fmt.Errorf("default_provider: %w", err))
	}
	if cfg.RequestTimeoutSeconds <= 0 {
		errs = append(errs, fmt.Errorf("request_timeout_seconds must be positive, got %d", cfg.RequestTimeoutSeconds))
	}
	if cfg.JikanRequestsPerSecond <= 0 {
		errs = append(errs, fmt.Errorf("jikan_requests_per_second must be positive, got %d", cfg.JikanRequestsPerSecond))
	}
	if cfg.EnableCache && cfg.CacheTTLMinutes <= 0 {
		errs = append(errs, fmt.Errorf("cache_ttl_minutes must be positive when the cache is enabled, got %d", cfg.CacheTTLMinutes))
	}
	if cfg.HistoryRetentionDays < 0 {
		errs = append(errs, fmt.Errorf("history_retention_days cannot be negative, got %d", cfg.HistoryRetentionDays))
	}
	return errors.Join(errs...)
}

// Provider returns the parsed default provider, falling back to TVMaze.
func (cfg *Config) Provider() provider.Kind {
	kind, err := provider.ParseKind(cfg.DefaultProvider)
	if err != nil {
		return provider.KindTVMaze
	}
	return kind
}

// RequestTimeout returns the per request timeout.
func (cfg *Config) RequestTimeout() time.Duration {
	return time.Duration(cfg.RequestTimeoutSeconds) * time.Second
}

// CacheTTL returns the fetch cache lifetime, or zero when caching is disabled.
func (cfg *Config) CacheTTL() time.Duration {
	if !cfg.EnableCache {
		return 0
	}
	return time.Duration(cfg.CacheTTLMinutes) * time.Minute
}
