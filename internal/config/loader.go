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
// built-in defaults, applies ANATTA_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known ANATTA_* environment variables and
// overwrites the corresponding Config fields when a variable is set. This
// lets operators inject secrets at deploy time without touching the TOML
// file.
func applyEnvOverrides(cfg *Config) {
	// ── Instruments ──
	setStr(&cfg.Instruments.Path, "ANATTA_INSTRUMENTS_PATH")

	// ── Detector ──
	setFloat64(&cfg.Detector.Fees, "ANATTA_DETECTOR_FEES")
	setFloat64(&cfg.Detector.Buffer, "ANATTA_DETECTOR_BUFFER")

	// ── Risk ──
	setInt(&cfg.Risk.MaxTrips, "ANATTA_RISK_MAX_TRIPS")

	// ── Executor ──
	setInt(&cfg.Executor.MaxSubmitsPerWindow, "ANATTA_EXECUTOR_MAX_SUBMITS_PER_WINDOW")
	setDuration(&cfg.Executor.SubmitWindow, "ANATTA_EXECUTOR_SUBMIT_WINDOW")
	setDuration(&cfg.Executor.ConfirmTimeout, "ANATTA_EXECUTOR_CONFIRM_TIMEOUT")

	// ── Session ──
	setStr(&cfg.Session.OpenTime, "ANATTA_SESSION_OPEN_TIME")
	setStr(&cfg.Session.Timezone, "ANATTA_SESSION_TIMEZONE")

	// ── Feed / Broker ──
	setStr(&cfg.Feed.WsURL, "ANATTA_FEED_WS_URL")
	setStr(&cfg.Broker.WsURL, "ANATTA_BROKER_WS_URL")

	// ── Redis ──
	setBool(&cfg.Redis.Enabled, "ANATTA_REDIS_ENABLED")
	setStr(&cfg.Redis.Addr, "ANATTA_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "ANATTA_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "ANATTA_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "ANATTA_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "ANATTA_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "ANATTA_REDIS_TLS_ENABLED")

	// ── Postgres ──
	setBool(&cfg.Postgres.Enabled, "ANATTA_POSTGRES_ENABLED")
	setStr(&cfg.Postgres.DSN, "ANATTA_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "ANATTA_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "ANATTA_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "ANATTA_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "ANATTA_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "ANATTA_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "ANATTA_POSTGRES_SSLMODE")
	setInt(&cfg.Postgres.PoolMaxConns, "ANATTA_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "ANATTA_POSTGRES_POOL_MIN_CONNS")

	// ── Notify ──
	setStr(&cfg.Notify.SlackWebhookURL, "ANATTA_NOTIFY_SLACK_WEBHOOK_URL")
	setStr(&cfg.Notify.SlackWebhookURL, "SLACK_WEBHOOK_URL") // compatibility alias
	setStr(&cfg.Notify.TelegramToken, "ANATTA_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "ANATTA_NOTIFY_TELEGRAM_CHAT_ID")
	setStringSlice(&cfg.Notify.Events, "ANATTA_NOTIFY_EVENTS")

	// ── Top-level ──
	setStr(&cfg.Mode, "ANATTA_MODE")
	setStr(&cfg.LogLevel, "ANATTA_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

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

func setFloat64(dst *float64, key string) {
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
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
