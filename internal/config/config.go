// Package config defines the top-level configuration for the arbitrage
// tracker and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a
// TOML file and then optionally overridden by ARBTRACKER_* environment
// variables. All values are fixed at startup and read-only afterwards.
type Config struct {
	Server    ServerConfig    `toml:"server"`
	Postgres  PostgresConfig  `toml:"postgres"`
	Redis     RedisConfig     `toml:"redis"`
	S3        S3Config        `toml:"s3"`
	Fetch     FetchConfig     `toml:"fetch"`
	Arbitrage ArbitrageConfig `toml:"arbitrage"`
	Archive   ArchiveConfig   `toml:"archive"`
	Notify    NotifyConfig    `toml:"notify"`
	LogLevel  string          `toml:"log_level"`
}

// ServerConfig holds the HTTP/WebSocket server parameters.
type ServerConfig struct {
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
	APIKey      string   `toml:"api_key"` // empty disables authentication

	// RateLimit caps requests per client IP per RateLimitWindow. Zero
	// disables rate limiting.
	RateLimit       int      `toml:"rate_limit"`
	RateLimitWindow duration `toml:"rate_limit_window"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// S3Config holds S3-compatible object storage parameters for cold-storage
// archival. Archival is disabled when Bucket is empty.
type S3Config struct {
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// FetchConfig holds the price acquisition parameters.
type FetchConfig struct {
	// Symbols is the canonical symbol set polled each cycle.
	Symbols []string `toml:"symbols"`
	// Interval is the wall-clock period between cycle starts.
	Interval duration `toml:"interval"`
	// CycleTimeout bounds the wall-clock budget of one acquisition cycle.
	CycleTimeout duration `toml:"cycle_timeout"`
}

// ArbitrageConfig holds the opportunity detection parameters.
type ArbitrageConfig struct {
	// ThresholdPercent is the minimum cross-exchange spread, in percent,
	// for an opportunity to be emitted.
	ThresholdPercent float64 `toml:"threshold_percent"`
	// ProfitFraction scales the absolute price delta into the reported
	// potential profit. Placeholder for a real position-sizing model.
	ProfitFraction float64 `toml:"profit_fraction"`
	// MaxConcurrentCycles caps overlapping acquisition cycles; ticks that
	// arrive while the cap is reached are skipped.
	MaxConcurrentCycles int `toml:"max_concurrent_cycles"`
}

// ArchiveConfig holds the cold-storage archival schedule.
type ArchiveConfig struct {
	Enabled   bool     `toml:"enabled"`
	Interval  duration `toml:"interval"`
	Retention duration `toml:"retention"`
	Prefix    string   `toml:"prefix"`
}

// NotifyConfig holds notification channel credentials and event filters.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

// duration wraps time.Duration so TOML values like "5s" parse directly.
type duration time.Duration

func (d *duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = duration(v)
	return nil
}

func (d duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Duration converts the TOML wrapper back to a time.Duration.
func (d duration) Duration() time.Duration {
	return time.Duration(d)
}

// FetchInterval returns the configured cycle interval.
func (c *Config) FetchInterval() time.Duration {
	return c.Fetch.Interval.Duration()
}

// CycleTimeout returns the configured per-cycle fetch budget.
func (c *Config) CycleTimeout() time.Duration {
	return c.Fetch.CycleTimeout.Duration()
}

// Defaults returns a Config with all default values applied.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:            8000,
			RateLimit:       100,
			RateLimitWindow: duration(1 * time.Second),
		},
		Postgres: PostgresConfig{
			Host:          "localhost",
			Port:          5432,
			Database:      "crypto_arb",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
		Fetch: FetchConfig{
			Symbols:      []string{"BTCUSDT", "ETHUSDT"},
			Interval:     duration(1 * time.Second),
			CycleTimeout: duration(5 * time.Second),
		},
		Arbitrage: ArbitrageConfig{
			ThresholdPercent:    0.5,
			ProfitFraction:      0.1,
			MaxConcurrentCycles: 3,
		},
		Archive: ArchiveConfig{
			Interval:  duration(24 * time.Hour),
			Retention: duration(7 * 24 * time.Hour),
			Prefix:    "archive",
		},
		LogLevel: "info",
	}
}

// Validate checks the configuration for internally inconsistent or out-of-range
// values. It should be called after Load.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d out of range", c.Server.Port)
	}
	if c.Server.RateLimit < 0 {
		return fmt.Errorf("config: server.rate_limit must not be negative")
	}
	if c.Server.RateLimit > 0 && c.Server.RateLimitWindow.Duration() <= 0 {
		return fmt.Errorf("config: server.rate_limit_window must be positive")
	}
	if len(c.Fetch.Symbols) == 0 {
		return fmt.Errorf("config: fetch.symbols must not be empty")
	}
	for _, s := range c.Fetch.Symbols {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("config: fetch.symbols contains an empty symbol")
		}
	}
	if c.Fetch.Interval.Duration() <= 0 {
		return fmt.Errorf("config: fetch.interval must be positive")
	}
	if c.Fetch.CycleTimeout.Duration() <= 0 {
		return fmt.Errorf("config: fetch.cycle_timeout must be positive")
	}
	if c.Arbitrage.ThresholdPercent < 0 {
		return fmt.Errorf("config: arbitrage.threshold_percent must not be negative")
	}
	if c.Arbitrage.ProfitFraction < 0 || c.Arbitrage.ProfitFraction > 1 {
		return fmt.Errorf("config: arbitrage.profit_fraction %g out of range [0,1]", c.Arbitrage.ProfitFraction)
	}
	if c.Arbitrage.MaxConcurrentCycles <= 0 {
		return fmt.Errorf("config: arbitrage.max_concurrent_cycles must be positive")
	}
	if c.Archive.Enabled {
		if strings.TrimSpace(c.S3.Bucket) == "" {
			return fmt.Errorf("config: archive enabled but s3.bucket is empty")
		}
		if c.Archive.Interval.Duration() <= 0 {
			return fmt.Errorf("config: archive.interval must be positive")
		}
		if c.Archive.Retention.Duration() <= 0 {
			return fmt.Errorf("config: archive.retention must be positive")
		}
	}
	switch c.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: unknown log_level %q", c.LogLevel)
	}
	return nil
}
