// Package config provides CLI configuration management for the recap command-line tool.
// It supports loading configuration from YAML files and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// OutputFormat defines the supported output formats for CLI results.
type OutputFormat string

const (
	// OutputFormatText is human-readable plain text output.
	OutputFormatText OutputFormat = "text"
	// OutputFormatJSON is JSON-formatted output for machine processing.
	OutputFormatJSON OutputFormat = "json"
	// OutputFormatYAML is YAML-formatted output.
	OutputFormatYAML OutputFormat = "yaml"
)

// Default configuration values.
const (
	DefaultGraphBaseURL  = "https://graph.microsoft.com/v1.0"
	DefaultWindowDays    = 365
	DefaultMaxEvents     = 2000
	DefaultConcurrency   = 4
	DefaultSyncTimeout   = 10 * time.Minute
	DefaultOutputFormat  = OutputFormatText
	DefaultConfigDir     = ".recap"
	DefaultConfigFile    = "config.yaml"
	DefaultMigrationsDir = "migrations"
)

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
}

// GraphConfig holds settings for the remote calendar/conferencing service.
type GraphConfig struct {
	// BaseURL is the API root, e.g. https://graph.microsoft.com/v1.0.
	BaseURL string `yaml:"base_url"`

	// TenantID is the directory tenant for token acquisition.
	TenantID string `yaml:"tenant_id"`

	// ClientID is the registered application's client ID.
	ClientID string `yaml:"client_id"`

	// Principal is the default user (UPN or object ID) whose calendar is synced.
	Principal string `yaml:"principal"`
}

// RedisConfig holds settings for the downstream event channel.
type RedisConfig struct {
	// Addr is host:port of the Redis server. Empty disables event publishing.
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// SyncConfig holds tunables for the reconciliation pass.
type SyncConfig struct {
	// WindowDays is the trailing window of calendar events to fetch.
	WindowDays int `yaml:"window_days"`

	// MaxEvents caps the total number of events fetched in one pass.
	MaxEvents int `yaml:"max_events"`

	// OrganizerConcurrency is the number of organizer groups processed in parallel.
	OrganizerConcurrency int `yaml:"organizer_concurrency"`

	// MeetingConcurrency is the number of meetings resolved in parallel per organizer.
	MeetingConcurrency int `yaml:"meeting_concurrency"`

	// Timeout bounds the whole pass.
	Timeout time.Duration `yaml:"timeout"`
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// CLIConfig is the top-level configuration for the recap CLI.
type CLIConfig struct {
	Database DatabaseConfig `yaml:"database"`
	Graph    GraphConfig    `yaml:"graph"`
	Redis    RedisConfig    `yaml:"redis"`
	Sync     SyncConfig     `yaml:"sync"`
	Logging  LoggingConfig  `yaml:"logging"`

	// OutputFormat controls how command results are rendered.
	OutputFormat OutputFormat `yaml:"output_format"`
}

// DefaultConfig returns a CLIConfig with default values.
func DefaultConfig() *CLIConfig {
	return &CLIConfig{
		Database: DatabaseConfig{
			Host:    "localhost",
			Port:    5432,
			Name:    "recap",
			User:    "recap",
			SSLMode: "disable",
		},
		Graph: GraphConfig{
			BaseURL: DefaultGraphBaseURL,
		},
		Sync: SyncConfig{
			WindowDays:           DefaultWindowDays,
			MaxEvents:            DefaultMaxEvents,
			OrganizerConcurrency: DefaultConcurrency,
			MeetingConcurrency:   DefaultConcurrency,
			Timeout:              DefaultSyncTimeout,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		OutputFormat: DefaultOutputFormat,
	}
}

// ConfigDir returns the recap configuration directory (~/.recap).
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("finding home directory: %w", err)
	}
	return filepath.Join(home, DefaultConfigDir), nil
}

// ConfigPath returns the default configuration file path.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, DefaultConfigFile), nil
}

// LoadConfig loads configuration with the following precedence (lowest first):
// defaults, config file, environment variables.
func LoadConfig(path string) (*CLIConfig, error) {
	cfg := DefaultConfig()

	if path == "" {
		path = os.Getenv("RECAP_CONFIG")
	}
	if path == "" {
		defaultPath, err := ConfigPath()
		if err == nil {
			path = defaultPath
		}
	}

	if path != "" {
		if err := loadFromFile(cfg, path); err != nil {
			return nil, err
		}
	}

	loadFromEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFromFile merges settings from a YAML file. A missing file is not an error.
func loadFromFile(cfg *CLIConfig, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}

	return nil
}

// loadFromEnv applies environment variable overrides.
func loadFromEnv(cfg *CLIConfig) {
	if v := os.Getenv("DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("DB_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Database.Port = p
		}
	}
	if v := os.Getenv("DB_NAME"); v != "" {
		cfg.Database.Name = v
	}
	if v := os.Getenv("DB_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("DB_SSLMODE"); v != "" {
		cfg.Database.SSLMode = v
	}

	if v := os.Getenv("GRAPH_BASE_URL"); v != "" {
		cfg.Graph.BaseURL = v
	}
	if v := os.Getenv("GRAPH_TENANT_ID"); v != "" {
		cfg.Graph.TenantID = v
	}
	if v := os.Getenv("GRAPH_CLIENT_ID"); v != "" {
		cfg.Graph.ClientID = v
	}
	if v := os.Getenv("GRAPH_PRINCIPAL"); v != "" {
		cfg.Graph.Principal = v
	}

	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Redis.DB = n
		}
	}

	if v := os.Getenv("RECAP_OUTPUT"); v != "" {
		cfg.OutputFormat = OutputFormat(v)
	}
	if v := os.Getenv("RECAP_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("RECAP_LOG_JSON"); v != "" {
		cfg.Logging.JSON = v == "true" || v == "1"
	}
	if v := os.Getenv("RECAP_SYNC_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Sync.Timeout = d
		}
	}
}

// Validate checks the configuration for invalid values.
func (c *CLIConfig) Validate() error {
	if !c.OutputFormat.IsValid() {
		return fmt.Errorf("invalid output format %q (must be text, json or yaml)", c.OutputFormat)
	}
	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		return fmt.Errorf("invalid database port: %d", c.Database.Port)
	}
	if c.Sync.WindowDays <= 0 {
		return fmt.Errorf("sync window must be positive, got %d days", c.Sync.WindowDays)
	}
	if c.Sync.MaxEvents <= 0 {
		return fmt.Errorf("sync event cap must be positive, got %d", c.Sync.MaxEvents)
	}
	if c.Sync.OrganizerConcurrency <= 0 || c.Sync.MeetingConcurrency <= 0 {
		return fmt.Errorf("sync concurrency must be positive")
	}
	if !strings.HasPrefix(c.Graph.BaseURL, "http://") && !strings.HasPrefix(c.Graph.BaseURL, "https://") {
		return fmt.Errorf("invalid graph base URL: %q", c.Graph.BaseURL)
	}
	return nil
}

// IsValid reports whether the output format is supported.
func (f OutputFormat) IsValid() bool {
	switch f {
	case OutputFormatText, OutputFormatJSON, OutputFormatYAML:
		return true
	}
	return false
}

// String returns the string representation of the output format.
func (f OutputFormat) String() string {
	return string(f)
}

// SaveConfig writes the configuration to the default config path.
func SaveConfig(cfg *CLIConfig) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}
