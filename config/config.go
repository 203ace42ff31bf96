package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Decision thresholds. These are configuration in the sense that the
// numbers carry no statistical calibration, but they are fixed for a
// deployment and so live here as constants.
const (
	ProfitTargetPct       = 0.50
	StopLossMultiple      = 2.0
	DTEWarningDays        = 14
	NearBreachPct         = 0.01
	MinIVRank             = 30.0
	EventLogRetentionDays = 7
)

// Config holds runtime settings loaded from the environment.
type Config struct {
	AlpacaAPIKey    string  `envconfig:"ALPACA_API_KEY" required:"true"`
	AlpacaSecretKey string  `envconfig:"ALPACA_SECRET_KEY" required:"true"`
	DatabasePath    string  `envconfig:"DATABASE_PATH" default:"./data/spread_trader.db"`
	ServerPort      string  `envconfig:"SERVER_PORT" default:"8080"`
	PortfolioValue  float64 `envconfig:"PORTFOLIO_VALUE" default:"100000"`
	DailyStopLimit  float64 `envconfig:"DAILY_STOP_LIMIT" default:"500"`
	WeeklyStopLimit float64 `envconfig:"WEEKLY_STOP_LIMIT" default:"1000"`
}

// Load reads .env (if present) and builds the Config from the
// environment. Missing required variables fail fast.
func Load() (*Config, error) {
	// A missing .env file is fine; variables may come from the real
	// environment.
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	return &cfg, nil
}
