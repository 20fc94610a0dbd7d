package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultsValidate(t *testing.T) {
	cfg := Defaults()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}
	if cfg.Server.Port != 8000 {
		t.Errorf("default port = %d, want 8000", cfg.Server.Port)
	}
	if cfg.FetchInterval() != time.Second {
		t.Errorf("default fetch interval = %v, want 1s", cfg.FetchInterval())
	}
	if cfg.CycleTimeout() != 5*time.Second {
		t.Errorf("default cycle timeout = %v, want 5s", cfg.CycleTimeout())
	}
	if cfg.Arbitrage.ThresholdPercent != 0.5 {
		t.Errorf("default threshold = %g, want 0.5", cfg.Arbitrage.ThresholdPercent)
	}
	if cfg.Arbitrage.MaxConcurrentCycles != 3 {
		t.Errorf("default max concurrent cycles = %d, want 3", cfg.Arbitrage.MaxConcurrentCycles)
	}
	if len(cfg.Fetch.Symbols) != 2 {
		t.Errorf("default symbols = %v, want BTCUSDT and ETHUSDT", cfg.Fetch.Symbols)
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.toml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != 8000 {
		t.Errorf("port = %d, want default 8000", cfg.Server.Port)
	}
}

func TestLoad_TOMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
log_level = "debug"

[server]
port = 9090

[fetch]
symbols = ["BTCUSDT"]
interval = "2s"
cycle_timeout = "8s"

[arbitrage]
threshold_percent = 1.5
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.FetchInterval() != 2*time.Second {
		t.Errorf("interval = %v, want 2s", cfg.FetchInterval())
	}
	if cfg.CycleTimeout() != 8*time.Second {
		t.Errorf("cycle timeout = %v, want 8s", cfg.CycleTimeout())
	}
	if cfg.Arbitrage.ThresholdPercent != 1.5 {
		t.Errorf("threshold = %g, want 1.5", cfg.Arbitrage.ThresholdPercent)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("log level = %q, want debug", cfg.LogLevel)
	}
	// Unset sections keep their defaults.
	if cfg.Postgres.Port != 5432 {
		t.Errorf("postgres port = %d, want default 5432", cfg.Postgres.Port)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("ARBTRACKER_SERVER_PORT", "7777")
	t.Setenv("ARBTRACKER_FETCH_SYMBOLS", "BTCUSDT, SOLUSDT")
	t.Setenv("ARBTRACKER_FETCH_INTERVAL", "3s")
	t.Setenv("ARBTRACKER_ARBITRAGE_THRESHOLD", "2.0")
	t.Setenv("ARBTRACKER_LOG_LEVEL", "warn")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != 7777 {
		t.Errorf("port = %d, want 7777", cfg.Server.Port)
	}
	want := []string{"BTCUSDT", "SOLUSDT"}
	if len(cfg.Fetch.Symbols) != 2 || cfg.Fetch.Symbols[0] != want[0] || cfg.Fetch.Symbols[1] != want[1] {
		t.Errorf("symbols = %v, want %v", cfg.Fetch.Symbols, want)
	}
	if cfg.FetchInterval() != 3*time.Second {
		t.Errorf("interval = %v, want 3s", cfg.FetchInterval())
	}
	if cfg.Arbitrage.ThresholdPercent != 2.0 {
		t.Errorf("threshold = %g, want 2.0", cfg.Arbitrage.ThresholdPercent)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("log level = %q, want warn", cfg.LogLevel)
	}
}

func TestLoad_DatabaseURLAlias(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/arb")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Postgres.DSN != "postgres://u:p@db:5432/arb" {
		t.Errorf("dsn = %q, want the DATABASE_URL value", cfg.Postgres.DSN)
	}
}

func TestValidate_Rejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero port", func(c *Config) { c.Server.Port = 0 }},
		{"negative rate limit", func(c *Config) { c.Server.RateLimit = -1 }},
		{"rate limit without window", func(c *Config) { c.Server.RateLimit = 10; c.Server.RateLimitWindow = 0 }},
		{"no symbols", func(c *Config) { c.Fetch.Symbols = nil }},
		{"blank symbol", func(c *Config) { c.Fetch.Symbols = []string{" "} }},
		{"zero interval", func(c *Config) { c.Fetch.Interval = 0 }},
		{"zero cycle timeout", func(c *Config) { c.Fetch.CycleTimeout = 0 }},
		{"negative threshold", func(c *Config) { c.Arbitrage.ThresholdPercent = -0.1 }},
		{"profit fraction above one", func(c *Config) { c.Arbitrage.ProfitFraction = 1.5 }},
		{"zero cycle ceiling", func(c *Config) { c.Arbitrage.MaxConcurrentCycles = 0 }},
		{"archive without bucket", func(c *Config) { c.Archive.Enabled = true; c.S3.Bucket = "" }},
		{"unknown log level", func(c *Config) { c.LogLevel = "verbose" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Defaults()
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
