package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies ARBTRACKER_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load. A missing file is not an
// error: defaults plus environment overrides apply.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known ARBTRACKER_* environment variables and
// overwrites the corresponding Config fields when a variable is set. This lets
// operators inject secrets at deploy time without touching the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── Server ──
	setInt(&cfg.Server.Port, "ARBTRACKER_SERVER_PORT")
	setStr(&cfg.Server.APIKey, "ARBTRACKER_SERVER_API_KEY")
	setStrSlice(&cfg.Server.CORSOrigins, "ARBTRACKER_SERVER_CORS_ORIGINS")
	setInt(&cfg.Server.RateLimit, "ARBTRACKER_SERVER_RATE_LIMIT")
	setDuration(&cfg.Server.RateLimitWindow, "ARBTRACKER_SERVER_RATE_LIMIT_WINDOW")

	// ── Postgres ──
	setStr(&cfg.Postgres.DSN, "ARBTRACKER_POSTGRES_DSN")
	setStr(&cfg.Postgres.DSN, "DATABASE_URL") // compatibility alias
	setStr(&cfg.Postgres.Host, "ARBTRACKER_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "ARBTRACKER_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "ARBTRACKER_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "ARBTRACKER_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "ARBTRACKER_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "ARBTRACKER_POSTGRES_SSLMODE")
	setBool(&cfg.Postgres.RunMigrations, "ARBTRACKER_POSTGRES_RUN_MIGRATIONS")

	// ── Redis ──
	setStr(&cfg.Redis.Addr, "ARBTRACKER_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "ARBTRACKER_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "ARBTRACKER_REDIS_DB")
	setBool(&cfg.Redis.TLSEnabled, "ARBTRACKER_REDIS_TLS_ENABLED")

	// ── S3 ──
	setStr(&cfg.S3.Endpoint, "ARBTRACKER_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "ARBTRACKER_S3_REGION")
	setStr(&cfg.S3.Bucket, "ARBTRACKER_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "ARBTRACKER_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "ARBTRACKER_S3_SECRET_KEY")

	// ── Fetch ──
	setStrSlice(&cfg.Fetch.Symbols, "ARBTRACKER_FETCH_SYMBOLS")
	setDuration(&cfg.Fetch.Interval, "ARBTRACKER_FETCH_INTERVAL")
	setDuration(&cfg.Fetch.CycleTimeout, "ARBTRACKER_FETCH_CYCLE_TIMEOUT")

	// ── Arbitrage ──
	setFloat(&cfg.Arbitrage.ThresholdPercent, "ARBTRACKER_ARBITRAGE_THRESHOLD")
	setFloat(&cfg.Arbitrage.ProfitFraction, "ARBTRACKER_ARBITRAGE_PROFIT_FRACTION")
	setInt(&cfg.Arbitrage.MaxConcurrentCycles, "ARBTRACKER_ARBITRAGE_MAX_CONCURRENT_CYCLES")

	// ── Archive ──
	setBool(&cfg.Archive.Enabled, "ARBTRACKER_ARCHIVE_ENABLED")
	setDuration(&cfg.Archive.Interval, "ARBTRACKER_ARCHIVE_INTERVAL")
	setDuration(&cfg.Archive.Retention, "ARBTRACKER_ARCHIVE_RETENTION")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "ARBTRACKER_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "ARBTRACKER_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "ARBTRACKER_NOTIFY_DISCORD_WEBHOOK_URL")

	// ── Misc ──
	setStr(&cfg.LogLevel, "ARBTRACKER_LOG_LEVEL")
}

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = duration(d)
		}
	}
}

func setStrSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if t := strings.TrimSpace(p); t != "" {
				out = append(out, t)
			}
		}
		if len(out) > 0 {
			*dst = out
		}
	}
}
