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
	path := filepath.Join(t.TempDir(), "values.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadKeepsDefaults(t *testing.T) {
	path := writeConfig(t, "telegram:\n  chat_id: 42\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, int64(42), cfg.Telegram.ChatID)
	assert.Equal(t, 0.01, cfg.Trading.RiskFraction)
	assert.Equal(t, 10, cfg.Trading.MaxOpenPositions)
	assert.Equal(t, 15*time.Minute, cfg.Trading.CooldownAfterClose)
	assert.Equal(t, 3.0, cfg.Strategy.BollingerDeviation)
	assert.Equal(t, 48, cfg.Strategy.KlinesLimit)
	assert.Equal(t, CeilingTerminate, cfg.Trading.CeilingPolicy)
	assert.Contains(t, cfg.Excluded(), "BTCUSDT")
}

func TestLoadOverridesFromFileAndEnv(t *testing.T) {
	path := writeConfig(t, `
trading:
  risk_fraction: 0.02
  scan_interval: 30s
  ceiling_policy: pause
strategy:
  funding_filter: long_only
`)
	t.Setenv("MAX_OPEN_POSITIONS", "3")
	t.Setenv("BINANCE_API_KEY", "key")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 0.02, cfg.Trading.RiskFraction)
	assert.Equal(t, 30*time.Second, cfg.Trading.ScanInterval)
	assert.Equal(t, CeilingPause, cfg.Trading.CeilingPolicy)
	assert.Equal(t, FundingFilterLongOnly, cfg.Strategy.FundingFilter)
	assert.Equal(t, 3, cfg.Trading.MaxOpenPositions)
	assert.Equal(t, "key", cfg.Binance.APIKey)
}

func TestValidateRejectsUnknownPolicies(t *testing.T) {
	path := writeConfig(t, "trading:\n  partial_bracket_policy: ignore\n")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "partial_bracket_policy")
}

func TestValidateRejectsShortWindow(t *testing.T) {
	cfg := Default()
	cfg.Strategy.KlinesLimit = 10
	assert.Error(t, cfg.Validate())
}

func TestLoadRejectsMalformedEnvOverride(t *testing.T) {
	path := writeConfig(t, "telegram:\n  chat_id: 42\n")
	t.Setenv("RISK_FRACTION", "1%")
	t.Setenv("SCAN_INTERVAL", "soon")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RISK_FRACTION")
	assert.Contains(t, err.Error(), "SCAN_INTERVAL")
}
