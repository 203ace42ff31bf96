package services

import (
	"context"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"spread-trader/interfaces"
	"spread-trader/models"
)

// EnrichedPosition is an open position joined with live pricing, P/L,
// and the resolved exit action.
type EnrichedPosition struct {
	Position        *models.Position  `json:"position"`
	ShortLegPrice   *float64          `json:"short_leg_price"`
	LongLegPrice    *float64          `json:"long_leg_price"`
	SpreadValue     *float64          `json:"spread_value"`
	CurrentPL       *float64          `json:"current_pl"`
	UnderlyingPrice *float64          `json:"underlying_price"`
	PricingMethods  map[string]string `json:"pricing_methods"`
	ExitAction      Action            `json:"exit_action"`
	ExitDetails     ExitDetails       `json:"exit_details"`
}

// PortfolioSummary aggregates P/L, deployment, and stop status across
// all positions.
type PortfolioSummary struct {
	TotalPL             float64            `json:"total_pl"`
	Deployment          float64            `json:"deployment"`
	DailyStop           StopResult         `json:"daily_stop"`
	WeeklyStop          StopResult         `json:"weekly_stop"`
	RiskRankedPositions []*models.Position `json:"risk_ranked_positions"`
}

// DataService joins stored positions with market data and runs the
// decision engine over them.
type DataService struct {
	store  interfaces.PositionStore
	market interfaces.MarketDataSource
	logger *logrus.Logger
}

// NewDataService creates a new data service.
func NewDataService(store interfaces.PositionStore, market interfaces.MarketDataSource) *DataService {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	return &DataService{
		store:  store,
		market: market,
		logger: logger,
	}
}

// GetEnrichedPositions loads every stored position, prices both legs,
// and evaluates the exit rules. Rows that fail validation are logged
// and skipped rather than failing the whole view.
func (ds *DataService) GetEnrichedPositions(ctx context.Context) ([]*EnrichedPosition, error) {
	rows, err := ds.store.AllPositions(ctx)
	if err != nil {
		return nil, err
	}

	enriched := make([]*EnrichedPosition, 0, len(rows))
	today := time.Now().UTC()

	for _, row := range rows {
		position, err := models.PositionFromRow(row)
		if err != nil {
			ds.logger.WithError(err).WithField("position_id", row["position_id"]).Warn("Skipping invalid position row")
			continue
		}

		expiration := position.Expiration.Format("2006-01-02")
		shortQuote := ds.market.GetOptionQuote(ctx, position.Symbol, expiration, position.ShortStrike, "put")
		longQuote := ds.market.GetOptionQuote(ctx, position.Symbol, expiration, position.LongStrike, "put")

		shortPrice := GetOptionPrice(shortQuote)
		longPrice := GetOptionPrice(longQuote)
		spreadValue := GetSpreadValue(shortPrice.Price, longPrice.Price)

		var currentPL *float64
		if spreadValue != nil {
			pl := CalculatePL(position.EntryCredit, *spreadValue, position.Contracts)
			currentPL = &pl
		}

		underlyingPrice := ds.market.GetUnderlyingPrice(ctx, position.Symbol)

		action, details := EvaluatePosition(position, spreadValue, underlyingPrice, today)

		enriched = append(enriched, &EnrichedPosition{
			Position:        position,
			ShortLegPrice:   shortPrice.Price,
			LongLegPrice:    longPrice.Price,
			SpreadValue:     spreadValue,
			CurrentPL:       currentPL,
			UnderlyingPrice: underlyingPrice,
			PricingMethods: map[string]string{
				"short": shortPrice.Method,
				"long":  longPrice.Method,
			},
			ExitAction:  action,
			ExitDetails: details,
		})
	}

	return enriched, nil
}

// GetPortfolioSummary aggregates stored positions into the portfolio
// risk view. Current spread values ride along in the raw rows when the
// persistence layer has them.
func (ds *DataService) GetPortfolioSummary(ctx context.Context, portfolioValue, dailyLimit, weeklyLimit float64) (*PortfolioSummary, error) {
	rows, err := ds.store.AllPositions(ctx)
	if err != nil {
		return nil, err
	}

	positions := make([]*models.Position, 0, len(rows))
	currentValues := make(map[string]float64)

	for _, row := range rows {
		position, err := models.PositionFromRow(row)
		if err != nil {
			ds.logger.WithError(err).WithField("position_id", row["position_id"]).Warn("Skipping invalid position row")
			continue
		}
		positions = append(positions, position)

		if raw, ok := row["current_spread_value"]; ok && raw != "" {
			value, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				continue
			}
			currentValues[position.PositionID] = value
		}
	}

	totalPL := CalculateTotalPL(positions, currentValues)

	return &PortfolioSummary{
		TotalPL:             totalPL,
		Deployment:          CalculateDeployment(positions, portfolioValue),
		DailyStop:           CheckDailyStop(totalPL, dailyLimit),
		WeeklyStop:          CheckWeeklyStop(totalPL, weeklyLimit),
		RiskRankedPositions: RankPositionsByRisk(positions, currentValues, map[string]float64{}),
	}, nil
}
