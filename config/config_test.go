package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("ALPACA_API_KEY", "test-key")
	t.Setenv("ALPACA_SECRET_KEY", "test-secret")
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "test-key", cfg.AlpacaAPIKey)
	assert.Equal(t, "test-secret", cfg.AlpacaSecretKey)
	assert.Equal(t, "./data/spread_trader.db", cfg.DatabasePath)
	assert.Equal(t, "8080", cfg.ServerPort)
	assert.InDelta(t, 100000.0, cfg.PortfolioValue, 1e-9)
	assert.InDelta(t, 500.0, cfg.DailyStopLimit, 1e-9)
	assert.InDelta(t, 1000.0, cfg.WeeklyStopLimit, 1e-9)
}

func TestLoadOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("PORTFOLIO_VALUE", "250000")
	t.Setenv("DAILY_STOP_LIMIT", "750")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.ServerPort)
	assert.InDelta(t, 250000.0, cfg.PortfolioValue, 1e-9)
	assert.InDelta(t, 750.0, cfg.DailyStopLimit, 1e-9)
}

func TestLoadMissingRequired(t *testing.T) {
	t.Setenv("ALPACA_API_KEY", "")
	t.Setenv("ALPACA_SECRET_KEY", "")

	_, err := Load()
	assert.Error(t, err)
}
