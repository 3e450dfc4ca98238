package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadMergesDefaults(t *testing.T) {
	path := writeConfig(t, `
mode = "trade"

[detector]
fees = 0.0005

[broker]
ws_url = "ws://bridge:9000/orders"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "trade", cfg.Mode)
	assert.Equal(t, 0.0005, cfg.Detector.Fees)
	// Untouched fields keep their defaults.
	assert.Equal(t, 0.0001, cfg.Detector.Buffer)
	assert.Equal(t, 20, cfg.Risk.MaxTrips)
	assert.Equal(t, 5, cfg.Executor.MaxSubmitsPerWindow)
	assert.Equal(t, time.Second, cfg.Executor.SubmitWindow.Duration)
	assert.Equal(t, 5*time.Second, cfg.Executor.ConfirmTimeout.Duration)
	assert.Equal(t, "Asia/Seoul", cfg.Session.Timezone)
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeConfig(t, `mode = "paper"`)

	t.Setenv("ANATTA_RISK_MAX_TRIPS", "7")
	t.Setenv("ANATTA_EXECUTOR_CONFIRM_TIMEOUT", "2s")
	t.Setenv("ANATTA_NOTIFY_SLACK_WEBHOOK_URL", "https://hooks.slack.example/T1")
	t.Setenv("ANATTA_NOTIFY_EVENTS", "execution_failed, execution_filled")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.Risk.MaxTrips)
	assert.Equal(t, 2*time.Second, cfg.Executor.ConfirmTimeout.Duration)
	assert.Equal(t, "https://hooks.slack.example/T1", cfg.Notify.SlackWebhookURL)
	assert.Equal(t, []string{"execution_failed", "execution_filled"}, cfg.Notify.Events)
}

func TestValidateDefaults(t *testing.T) {
	cfg := Defaults()
	require.NoError(t, cfg.Validate())
}

func TestValidateCollectsProblems(t *testing.T) {
	cfg := Defaults()
	cfg.Mode = "backtest"
	cfg.Risk.MaxTrips = 0
	cfg.Session.OpenTime = "8am"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mode")
	assert.Contains(t, err.Error(), "max_trips")
	assert.Contains(t, err.Error(), "open_time")
}

func TestValidateTradeModeNeedsBroker(t *testing.T) {
	cfg := Defaults()
	cfg.Mode = "trade"
	cfg.Broker.WsURL = ""
	require.Error(t, cfg.Validate())
}
