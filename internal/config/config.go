// Package config defines the top-level configuration for the arbitrage
// engine and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a
// TOML file and then optionally overridden by ANATTA_* environment
// variables.
type Config struct {
	Instruments InstrumentsConfig `toml:"instruments"`
	Detector    DetectorConfig    `toml:"detector"`
	Risk        RiskConfig        `toml:"risk"`
	Executor    ExecutorConfig    `toml:"executor"`
	Session     SessionConfig     `toml:"session"`
	Feed        FeedConfig        `toml:"feed"`
	Broker      BrokerConfig      `toml:"broker"`
	Redis       RedisConfig       `toml:"redis"`
	Postgres    PostgresConfig    `toml:"postgres"`
	Notify      NotifyConfig      `toml:"notify"`
	Mode        string            `toml:"mode"`
	LogLevel    string            `toml:"log_level"`
}

// InstrumentsConfig locates the dual-listing reference table.
type InstrumentsConfig struct {
	// Path to the CSV file with columns KRX_code, NXT_code, Name.
	Path string `toml:"path"`
}

// DetectorConfig holds spread threshold parameters as price fractions.
type DetectorConfig struct {
	Fees   float64 `toml:"fees"`
	Buffer float64 `toml:"buffer"`
}

// RiskConfig holds per-session risk limits.
type RiskConfig struct {
	MaxTrips int `toml:"max_trips"`
}

// ExecutorConfig holds the two-leg protocol parameters.
type ExecutorConfig struct {
	MaxSubmitsPerWindow int      `toml:"max_submits_per_window"`
	SubmitWindow        duration `toml:"submit_window"`
	ConfirmTimeout      duration `toml:"confirm_timeout"`
}

// SessionConfig holds the trading-day boundary parameters.
type SessionConfig struct {
	OpenTime string `toml:"open_time"` // "15:04" wall clock
	Timezone string `toml:"timezone"`  // IANA zone name
}

// FeedConfig holds the market-data bridge endpoint.
type FeedConfig struct {
	WsURL string `toml:"ws_url"`
}

// BrokerConfig holds the order-submission bridge endpoint.
type BrokerConfig struct {
	WsURL string `toml:"ws_url"`
}

// RedisConfig holds the optional event bus connection parameters.
type RedisConfig struct {
	Enabled    bool   `toml:"enabled"`
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// PostgresConfig holds the optional execution journal connection parameters.
type PostgresConfig struct {
	Enabled      bool   `toml:"enabled"`
	DSN          string `toml:"dsn"`
	Host         string `toml:"host"`
	Port         int    `toml:"port"`
	Database     string `toml:"database"`
	User         string `toml:"user"`
	Password     string `toml:"password"`
	SSLMode      string `toml:"ssl_mode"`
	PoolMaxConns int    `toml:"pool_max_conns"`
	PoolMinConns int    `toml:"pool_min_conns"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	SlackWebhookURL string   `toml:"slack_webhook_url"`
	TelegramToken   string   `toml:"telegram_token"`
	TelegramChatID  string   `toml:"telegram_chat_id"`
	Events          []string `toml:"events"`
}

// duration is a wrapper around time.Duration that supports TOML string
// decoding (e.g. "5s", "500ms").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler for the TOML decoder.
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with the production default values.
// These match the values in config.example.toml.
func Defaults() Config {
	return Config{
		Instruments: InstrumentsConfig{
			Path: "config/symbol_map.csv",
		},
		Detector: DetectorConfig{
			Fees:   0.00035,
			Buffer: 0.0001,
		},
		Risk: RiskConfig{
			MaxTrips: 20,
		},
		Executor: ExecutorConfig{
			MaxSubmitsPerWindow: 5,
			SubmitWindow:        duration{time.Second},
			ConfirmTimeout:      duration{5 * time.Second},
		},
		Session: SessionConfig{
			OpenTime: "08:30",
			Timezone: "Asia/Seoul",
		},
		Feed: FeedConfig{
			WsURL: "ws://localhost:8765/quotes",
		},
		Broker: BrokerConfig{
			WsURL: "ws://localhost:8765/orders",
		},
		Redis: RedisConfig{
			Enabled:    false,
			Addr:       "localhost:6379",
			PoolSize:   10,
			MaxRetries: 3,
		},
		Postgres: PostgresConfig{
			Enabled:      false,
			Host:         "localhost",
			Port:         5432,
			Database:     "anatta",
			User:         "postgres",
			SSLMode:      "disable",
			PoolMaxConns: 5,
			PoolMinConns: 1,
		},
		Notify: NotifyConfig{
			Events: []string{"proposal_rejected", "execution_filled", "execution_failed"},
		},
		Mode:     "paper",
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"trade": true,
	"paper": true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for obviously invalid or missing values and returns
// a combined error describing every problem found.
func (c *Config) Validate() error {
	var problems []string

	if !validModes[c.Mode] {
		problems = append(problems, fmt.Sprintf("mode %q is not one of trade, paper", c.Mode))
	}
	if !validLogLevels[c.LogLevel] {
		problems = append(problems, fmt.Sprintf("log_level %q is not one of debug, info, warn, error", c.LogLevel))
	}
	if strings.TrimSpace(c.Instruments.Path) == "" {
		problems = append(problems, "instruments.path is required")
	}
	if c.Detector.Fees < 0 {
		problems = append(problems, "detector.fees must be non-negative")
	}
	if c.Detector.Buffer < 0 {
		problems = append(problems, "detector.buffer must be non-negative")
	}
	if c.Risk.MaxTrips <= 0 {
		problems = append(problems, "risk.max_trips must be positive")
	}
	if c.Executor.MaxSubmitsPerWindow <= 0 {
		problems = append(problems, "executor.max_submits_per_window must be positive")
	}
	if c.Executor.SubmitWindow.Duration <= 0 {
		problems = append(problems, "executor.submit_window must be positive")
	}
	if c.Executor.ConfirmTimeout.Duration <= 0 {
		problems = append(problems, "executor.confirm_timeout must be positive")
	}
	if _, err := time.Parse("15:04", c.Session.OpenTime); err != nil {
		problems = append(problems, fmt.Sprintf("session.open_time %q is not HH:MM", c.Session.OpenTime))
	}
	if _, err := time.LoadLocation(c.Session.Timezone); err != nil {
		problems = append(problems, fmt.Sprintf("session.timezone %q is not a valid IANA zone", c.Session.Timezone))
	}
	if strings.TrimSpace(c.Feed.WsURL) == "" {
		problems = append(problems, "feed.ws_url is required")
	}
	if c.Mode == "trade" && strings.TrimSpace(c.Broker.WsURL) == "" {
		problems = append(problems, "broker.ws_url is required in trade mode")
	}
	if c.Redis.Enabled && strings.TrimSpace(c.Redis.Addr) == "" {
		problems = append(problems, "redis.addr is required when redis is enabled")
	}
	if c.Postgres.Enabled && strings.TrimSpace(c.Postgres.DSN) == "" && strings.TrimSpace(c.Postgres.Host) == "" {
		problems = append(problems, "postgres.dsn or postgres.host is required when postgres is enabled")
	}

	if len(problems) > 0 {
		return fmt.Errorf("config: %s", strings.Join(problems, "; "))
	}
	return nil
}
