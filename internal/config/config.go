package config

import (
	"fmt"
	"strings"
	"time"
)

// Config represents the complete application configuration
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Data    DataConfig    `mapstructure:"data"`
	View    ViewConfig    `mapstructure:"view"`
	Ranking RankingConfig `mapstructure:"ranking"`
	Events  EventsConfig  `mapstructure:"events"`
	Auth    AuthConfig    `mapstructure:"auth"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ServerConfig represents server configuration
type ServerConfig struct {
	Host     string `mapstructure:"host"`      // Bind address (e.g., 0.0.0.0 for all interfaces)
	HTTPPort int    `mapstructure:"http_port"` // HTTP server port
}

// DataConfig names the input tables and how often they are reloaded
type DataConfig struct {
	ConfirmedURL   string        `mapstructure:"confirmed_url"`   // Path or http(s) URL
	DeathsURL      string        `mapstructure:"deaths_url"`      // Path or http(s) URL
	RecoveredURL   string        `mapstructure:"recovered_url"`   // Path or http(s) URL
	PopulationPath string        `mapstructure:"population_path"` // Optional; per-capita views need it
	FetchTimeout   time.Duration `mapstructure:"fetch_timeout"`
	// RefreshInterval reloads all tables periodically; 0 means manual refresh only
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
}

// ViewConfig holds the initial dashboard parameters and session lifetime
type ViewConfig struct {
	DefaultCountries  []string      `mapstructure:"default_countries"`
	DefaultCategory   string        `mapstructure:"default_category"`
	DefaultAveraging  string        `mapstructure:"default_averaging"`
	DefaultWindowSize int           `mapstructure:"default_window_size"`
	SessionTTL        time.Duration `mapstructure:"session_ttl"`
	CleanupInterval   time.Duration `mapstructure:"cleanup_interval"`
}

// RankingConfig controls which rows are removed from both rankings
type RankingConfig struct {
	ExcludeTop       int      `mapstructure:"exclude_top"`       // Highest rows dropped after named exclusions
	ExcludeCountries []string `mapstructure:"exclude_countries"` // Identifiers always dropped
}

// EventsConfig selects the broker used to broadcast table refreshes between
// instances
type EventsConfig struct {
	Type       string `mapstructure:"type"`        // memory (default), nats, redis, kafka
	URL        string `mapstructure:"url"`         // Broker URL or address
	Password   string `mapstructure:"password"`    // Optional authentication
	Subject    string `mapstructure:"subject"`     // Subject, channel or topic name
	InstanceID string `mapstructure:"instance_id"` // Defaults to the hostname

	// Redis-specific options
	RedisDB int `mapstructure:"redis_db"`

	// Kafka-specific options
	KafkaBrokers []string `mapstructure:"kafka_brokers"`
}

// AuthConfig represents authentication configuration for admin endpoints
type AuthConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	APIKeys []string `mapstructure:"api_keys"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`       // debug, info, warn, error
	Format     string `mapstructure:"format"`      // json, console
	OutputPath string `mapstructure:"output_path"` // stdout, stderr, file path
	TimeFormat string `mapstructure:"time_format"` // RFC3339, Unix, Kitchen
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server config: %w", err)
	}

	if err := c.Data.Validate(); err != nil {
		return fmt.Errorf("data config: %w", err)
	}

	if err := c.View.Validate(); err != nil {
		return fmt.Errorf("view config: %w", err)
	}

	if err := c.Ranking.Validate(); err != nil {
		return fmt.Errorf("ranking config: %w", err)
	}

	if err := c.Events.Validate(); err != nil {
		return fmt.Errorf("events config: %w", err)
	}

	if err := c.Auth.Validate(); err != nil {
		return fmt.Errorf("auth config: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	return nil
}

// Validate validates server configuration
func (c *ServerConfig) Validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid http_port: %d", c.HTTPPort)
	}
	return nil
}

// Validate validates data source configuration
func (c *DataConfig) Validate() error {
	if c.ConfirmedURL == "" || c.DeathsURL == "" || c.RecoveredURL == "" {
		return fmt.Errorf("confirmed_url, deaths_url and recovered_url are required")
	}

	if c.FetchTimeout <= 0 {
		return fmt.Errorf("fetch_timeout must be positive")
	}

	if c.RefreshInterval < 0 {
		return fmt.Errorf("refresh_interval cannot be negative")
	}

	return nil
}

// Validate validates view defaults
func (c *ViewConfig) Validate() error {
	switch strings.ToLower(c.DefaultCategory) {
	case "confirmed", "deaths", "recovered":
	default:
		return fmt.Errorf("default_category must be one of: confirmed, deaths, recovered")
	}

	switch strings.ToLower(c.DefaultAveraging) {
	case "mean", "median":
	default:
		return fmt.Errorf("default_averaging must be 'mean' or 'median'")
	}

	if c.DefaultWindowSize < 1 {
		return fmt.Errorf("default_window_size must be at least 1")
	}

	if c.SessionTTL <= 0 {
		return fmt.Errorf("session_ttl must be positive")
	}

	if c.CleanupInterval <= 0 {
		return fmt.Errorf("cleanup_interval must be positive")
	}

	return nil
}

// Validate validates ranking configuration
func (c *RankingConfig) Validate() error {
	if c.ExcludeTop < 0 {
		return fmt.Errorf("exclude_top cannot be negative")
	}
	return nil
}

// Validate validates events configuration
func (c *EventsConfig) Validate() error {
	switch strings.ToLower(c.Type) {
	case "", "memory":
	case "nats", "redis":
		if c.URL == "" {
			return fmt.Errorf("url is required for %s", c.Type)
		}
	case "kafka":
		if len(c.KafkaBrokers) == 0 {
			return fmt.Errorf("kafka_brokers is required for kafka")
		}
	default:
		return fmt.Errorf("type must be one of: memory, nats, redis, kafka")
	}

	if c.Subject == "" {
		return fmt.Errorf("subject is required")
	}

	return nil
}

// Validate validates auth configuration
func (c *AuthConfig) Validate() error {
	if c.Enabled && len(c.APIKeys) == 0 {
		return fmt.Errorf("api_keys is required when auth is enabled")
	}
	return nil
}

// Validate validates logging configuration
func (c *LoggingConfig) Validate() error {
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLevels[c.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}

	validFormats := map[string]bool{
		"json":    true,
		"console": true,
		"pretty":  true,
	}

	if !validFormats[c.Format] {
		return fmt.Errorf("logging.format must be one of: json, console, pretty")
	}

	return nil
}
