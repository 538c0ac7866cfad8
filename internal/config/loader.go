package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. CASETREND_SERVER_HTTP_PORT
const EnvPrefix = "CASETREND"

// Data sources published by the JHU CSSE COVID-19 repository
const (
	jhuBaseURL          = "https://raw.githubusercontent.com/CSSEGISandData/COVID-19/master/csse_covid_19_data/csse_covid_19_time_series/"
	defaultConfirmedURL = jhuBaseURL + "time_series_covid19_confirmed_global.csv"
	defaultDeathsURL    = jhuBaseURL + "time_series_covid19_deaths_global.csv"
	defaultRecoveredURL = jhuBaseURL + "time_series_covid19_recovered_global.csv"
)

// Load loads configuration from file, .env and environment. A missing config
// file is not an error; defaults apply.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/casetrend")
	}

	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	return parseConfig(v)
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	d := DefaultConfig()

	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.http_port", d.Server.HTTPPort)

	v.SetDefault("data.confirmed_url", d.Data.ConfirmedURL)
	v.SetDefault("data.deaths_url", d.Data.DeathsURL)
	v.SetDefault("data.recovered_url", d.Data.RecoveredURL)
	v.SetDefault("data.population_path", d.Data.PopulationPath)
	v.SetDefault("data.fetch_timeout", d.Data.FetchTimeout)
	v.SetDefault("data.refresh_interval", d.Data.RefreshInterval)

	v.SetDefault("view.default_countries", d.View.DefaultCountries)
	v.SetDefault("view.default_category", d.View.DefaultCategory)
	v.SetDefault("view.default_averaging", d.View.DefaultAveraging)
	v.SetDefault("view.default_window_size", d.View.DefaultWindowSize)
	v.SetDefault("view.session_ttl", d.View.SessionTTL)
	v.SetDefault("view.cleanup_interval", d.View.CleanupInterval)

	v.SetDefault("ranking.exclude_top", d.Ranking.ExcludeTop)
	v.SetDefault("ranking.exclude_countries", d.Ranking.ExcludeCountries)

	v.SetDefault("events.type", d.Events.Type)
	v.SetDefault("events.url", d.Events.URL)
	v.SetDefault("events.password", d.Events.Password)
	v.SetDefault("events.subject", d.Events.Subject)
	v.SetDefault("events.instance_id", d.Events.InstanceID)
	v.SetDefault("events.redis_db", d.Events.RedisDB)
	v.SetDefault("events.kafka_brokers", d.Events.KafkaBrokers)

	v.SetDefault("auth.enabled", d.Auth.Enabled)
	v.SetDefault("auth.api_keys", d.Auth.APIKeys)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.output_path", d.Logging.OutputPath)
	v.SetDefault("logging.time_format", d.Logging.TimeFormat)
}

// parseConfig parses viper config into Config struct
func parseConfig(v *viper.Viper) (*Config, error) {
	var cfg Config

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:     "0.0.0.0",
			HTTPPort: 8050,
		},
		Data: DataConfig{
			ConfirmedURL:   defaultConfirmedURL,
			DeathsURL:      defaultDeathsURL,
			RecoveredURL:   defaultRecoveredURL,
			PopulationPath: "./data/population.csv",
			FetchTimeout:   60 * time.Second,
		},
		View: ViewConfig{
			DefaultCountries:  []string{"Germany"},
			DefaultCategory:   "confirmed",
			DefaultAveraging:  "mean",
			DefaultWindowSize: 7,
			SessionTTL:        30 * time.Minute,
			CleanupInterval:   time.Minute,
		},
		Ranking: RankingConfig{
			ExcludeTop:       1,
			ExcludeCountries: []string{},
		},
		Events: EventsConfig{
			Type:         "memory",
			Subject:      "casetrend.table.refreshed",
			KafkaBrokers: []string{},
		},
		Auth: AuthConfig{
			APIKeys: []string{},
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "json",
			OutputPath: "stdout",
			TimeFormat: "RFC3339",
		},
	}
}
