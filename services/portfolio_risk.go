package services

import (
	"fmt"
	"math"
	"sort"

	"spread-trader/models"
)

// StopResult reports whether a portfolio stop (daily or weekly) has
// been breached.
type StopResult struct {
	Breached bool   `json:"breached"`
	Message  string `json:"message"`
}

// CalculateTotalPL sums dollar P/L across positions with a known
// current spread value. Positions without a value are skipped, not
// treated as flat.
func CalculateTotalPL(positions []*models.Position, currentValues map[string]float64) float64 {
	total := 0.0
	for _, position := range positions {
		currentValue, ok := currentValues[position.PositionID]
		if !ok {
			continue
		}
		total += CalculatePL(position.EntryCredit, currentValue, position.Contracts)
	}
	return total
}

// CalculateDeployment returns deployed credit as a fraction of
// portfolio value. Non-positive portfolio value yields 0.
func CalculateDeployment(positions []*models.Position, portfolioValue float64) float64 {
	if portfolioValue <= 0 {
		return 0
	}
	deployed := 0.0
	for _, position := range positions {
		deployed += position.EntryCredit * 100 * float64(position.Contracts)
	}
	return deployed / portfolioValue
}

// CheckDailyStop breaches when total P/L is at or below the negative
// daily limit.
func CheckDailyStop(totalPL, dailyLimit float64) StopResult {
	limit := math.Abs(dailyLimit)
	if totalPL <= -limit {
		return StopResult{
			Breached: true,
			Message:  fmt.Sprintf("Daily stop breached: %.2f <= -%.2f", totalPL, limit),
		}
	}
	return StopResult{Breached: false, Message: "Daily stop OK"}
}

// CheckWeeklyStop breaches when total P/L is at or below the negative
// weekly limit.
func CheckWeeklyStop(totalPL, weeklyLimit float64) StopResult {
	limit := math.Abs(weeklyLimit)
	if totalPL <= -limit {
		return StopResult{
			Breached: true,
			Message:  fmt.Sprintf("Weekly stop breached: %.2f <= -%.2f", totalPL, limit),
		}
	}
	return StopResult{Breached: false, Message: "Weekly stop OK"}
}

// RankPositionsByRisk orders positions by risk contribution, highest
// first. The score is realized loss as a fraction of max loss, plus one
// full point when the underlying has breached the short strike.
// Positions without a known current value are excluded entirely.
func RankPositionsByRisk(
	positions []*models.Position,
	currentValues map[string]float64,
	underlyingPrices map[string]float64,
) []*models.Position {
	type scoredPosition struct {
		score    float64
		position *models.Position
	}

	scored := make([]scoredPosition, 0, len(positions))
	for _, position := range positions {
		currentValue, ok := currentValues[position.PositionID]
		if !ok {
			continue
		}

		maxLoss := math.Max((position.ShortStrike-position.LongStrike)-position.EntryCredit, 0)
		lossPct := 0.0
		if maxLoss > 0 {
			lossPct = math.Max((currentValue-position.EntryCredit)/maxLoss, 0)
		}

		score := lossPct
		if underlying, ok := underlyingPrices[position.PositionID]; ok {
			if EvaluateBreach(underlying, position.ShortStrike).Triggered {
				score += 1.0
			}
		}

		scored = append(scored, scoredPosition{score: score, position: position})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})

	ranked := make([]*models.Position, len(scored))
	for i, item := range scored {
		ranked[i] = item.position
	}
	return ranked
}
