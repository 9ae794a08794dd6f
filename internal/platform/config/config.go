// Package config loads process configuration from an optional file and the environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"stock_sync/internal/platform/db"
	"stock_sync/internal/platform/externalapi/fmp"
	"stock_sync/internal/platform/redis"
	"stock_sync/internal/platform/storage"
)

// Config holds all configuration for the sync service.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Trigger  TriggerConfig  `mapstructure:"trigger"`
	Provider fmp.Config     `mapstructure:"provider"`
	Database db.Config      `mapstructure:"database"`
	Redis    redis.Config   `mapstructure:"redis"`
	Storage  storage.Config `mapstructure:"storage"`
	Market   MarketConfig   `mapstructure:"market"`
	Jobs     JobsConfig     `mapstructure:"jobs"`
	Log      LogConfig      `mapstructure:"log"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// TriggerConfig holds the shared secret that authorizes job triggers.
type TriggerConfig struct {
	Secret   string        `mapstructure:"secret"`
	TokenTTL time.Duration `mapstructure:"token_ttl"` // lifetime of tokens minted by `sync token`
}

// MarketConfig describes the exchange.
type MarketConfig struct {
	Timezone string   `mapstructure:"timezone"`
	Currency string   `mapstructure:"currency"`
	Sessions []string `mapstructure:"sessions"` // "HH:MM-HH:MM", local time, inclusive
}

// JobsConfig holds pacing and execution limits for the sync jobs.
type JobsConfig struct {
	ProfileDelay    time.Duration  `mapstructure:"profile_delay"`
	FinancialsDelay time.Duration  `mapstructure:"financials_delay"`
	LogoDelay       time.Duration  `mapstructure:"logo_delay"`
	StatementLimit  int            `mapstructure:"statement_limit"`
	StaleAfter      time.Duration  `mapstructure:"stale_after"`
	LeasePrefix     string         `mapstructure:"lease_prefix"`
	Ceilings        CeilingsConfig `mapstructure:"ceilings"`
}

// CeilingsConfig is the wall-clock execution ceiling per job. It also bounds the job lease TTL.
type CeilingsConfig struct {
	Prices     time.Duration `mapstructure:"prices"`
	EOD        time.Duration `mapstructure:"eod"`
	Profiles   time.Duration `mapstructure:"profiles"`
	Financials time.Duration `mapstructure:"financials"`
	Logos      time.Duration `mapstructure:"logos"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// envAliases binds legacy environment variable names in addition to the derived ones
// (e.g. provider.api_key -> PROVIDER_API_KEY).
var envAliases = map[string][]string{
	"provider.api_key":                  {"FMP_API_KEY"},
	"trigger.secret":                    {"CRON_SECRET"},
	"server.port":                       {"PORT"},
	"database.user":                     {"DB_USER"},
	"database.password":                 {"DB_PASSWORD"},
	"database.name":                     {"DB_NAME"},
	"database.host":                     {"DB_HOST"},
	"database.port":                     {"DB_PORT"},
	"database.instance_connection_name": {"INSTANCE_CONNECTION_NAME"},
	"redis.host":                        {"REDIS_HOST"},
	"redis.port":                        {"REDIS_PORT"},
	"redis.password":                    {"REDIS_PASSWORD"},
	"log.level":                         {"LOG_LEVEL"},
}

// Load reads configuration. path may be empty, in which case only defaults and the
// environment are used.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, aliases := range envAliases {
		names := append([]string{strings.ToUpper(strings.ReplaceAll(key, ".", "_"))}, aliases...)
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// Validate checks the settings every job needs.
func (c *Config) Validate() error {
	var errs []error
	if c.Provider.APIKey == "" {
		errs = append(errs, errors.New("provider.api_key (FMP_API_KEY) is required"))
	}
	if c.Trigger.Secret == "" {
		errs = append(errs, errors.New("trigger.secret (CRON_SECRET) is required"))
	}
	if _, err := time.LoadLocation(c.Market.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("market.timezone: %w", err))
	}
	return errors.Join(errs...)
}

// setDefaults sets default values for configuration. Every key that may come from the
// environment needs a default so AutomaticEnv picks it up during Unmarshal.
func setDefaults(v *viper.Viper) {
	// Server
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.read_timeout", "10s")
	v.SetDefault("server.write_timeout", "11m")

	// Trigger
	v.SetDefault("trigger.secret", "")
	v.SetDefault("trigger.token_ttl", "1h")

	// Provider
	v.SetDefault("provider.api_key", "")
	v.SetDefault("provider.base_url", fmp.DefaultBaseURL)
	v.SetDefault("provider.timeout", fmp.DefaultTimeout)
	v.SetDefault("provider.exchange_suffix", ".KL")
	v.SetDefault("provider.quote_batch_size", fmp.DefaultQuoteBatchSize)
	v.SetDefault("provider.max_attempts", fmp.DefaultMaxAttempts)
	v.SetDefault("provider.initial_backoff", fmp.DefaultInitialBackoff)
	v.SetDefault("provider.calls_per_minute", 0)

	// Database
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "klse")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.instance_connection_name", "")
	v.SetDefault("database.connect_timeout", "60s")
	v.SetDefault("database.run_migrations", false)

	// Redis (empty host disables the job lease)
	v.SetDefault("redis.host", "")
	v.SetDefault("redis.port", "6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	// Storage
	v.SetDefault("storage.type", "local")
	v.SetDefault("storage.local.base_path", "./data/logos")
	v.SetDefault("storage.local.base_url", "http://localhost:8080/logos")
	v.SetDefault("storage.s3.bucket", "logos")
	v.SetDefault("storage.s3.region", "ap-southeast-1")
	v.SetDefault("storage.s3.endpoint", "")
	v.SetDefault("storage.s3.access_key", "")
	v.SetDefault("storage.s3.secret_key", "")
	v.SetDefault("storage.s3.base_url", "")
	v.SetDefault("storage.s3.force_path_style", false)

	// Market
	v.SetDefault("market.timezone", "Asia/Kuala_Lumpur")
	v.SetDefault("market.currency", "MYR")
	v.SetDefault("market.sessions", []string{"09:00-12:30", "14:30-17:00"})

	// Jobs
	v.SetDefault("jobs.profile_delay", "100ms")
	v.SetDefault("jobs.financials_delay", "250ms")
	v.SetDefault("jobs.logo_delay", "100ms")
	v.SetDefault("jobs.statement_limit", 5)
	v.SetDefault("jobs.stale_after", "15m")
	v.SetDefault("jobs.lease_prefix", "lease")
	v.SetDefault("jobs.ceilings.prices", "2m")
	v.SetDefault("jobs.ceilings.eod", "5m")
	v.SetDefault("jobs.ceilings.profiles", "5m")
	v.SetDefault("jobs.ceilings.financials", "10m")
	v.SetDefault("jobs.ceilings.logos", "5m")

	// Log
	v.SetDefault("log.level", "info")
}
