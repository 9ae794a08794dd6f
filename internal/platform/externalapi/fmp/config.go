// Package fmp provides the gateway to the Financial Modeling Prep data provider.
package fmp

import "time"

// Config holds configuration for the provider gateway.
type Config struct {
	APIKey         string        `mapstructure:"api_key"`         // API key for authentication
	BaseURL        string        `mapstructure:"base_url"`        // e.g. "https://financialmodelingprep.com/api"
	Timeout        time.Duration `mapstructure:"timeout"`         // per-request timeout
	ExchangeSuffix string        `mapstructure:"exchange_suffix"` // listings are filtered to symbols ending with this, e.g. ".KL"
	QuoteBatchSize int           `mapstructure:"quote_batch_size"`
	MaxAttempts    int           `mapstructure:"max_attempts"`
	InitialBackoff time.Duration `mapstructure:"initial_backoff"` // doubled after each failed attempt
	CallsPerMinute int           `mapstructure:"calls_per_minute"` // 0 disables the quota limiter
}

// Defaults used when a Config field is zero.
const (
	DefaultBaseURL        = "https://financialmodelingprep.com/api"
	DefaultQuoteBatchSize = 50
	DefaultMaxAttempts    = 3
	DefaultInitialBackoff = time.Second
	DefaultTimeout        = 10 * time.Second
)

func (c Config) withDefaults() Config {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.QuoteBatchSize <= 0 {
		c.QuoteBatchSize = DefaultQuoteBatchSize
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	if c.InitialBackoff <= 0 {
		c.InitialBackoff = DefaultInitialBackoff
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	return c
}
