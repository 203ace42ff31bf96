package services

import (
	"math"

	"spread-trader/interfaces"
)

// Minimum closing prices required before any trend or support estimate
// is attempted.
const minTrendBars = 50

// TrendSignals holds three independent boolean trend checks.
type TrendSignals struct {
	Above50AndRising bool `json:"above_50_and_rising"`
	Above20And50     bool `json:"above_20_and_50"`
	HigherLows       bool `json:"higher_lows"`
}

// Score counts the signals that fired (0-3).
func (t TrendSignals) Score() int {
	score := 0
	if t.Above50AndRising {
		score++
	}
	if t.Above20And50 {
		score++
	}
	if t.HigherLows {
		score++
	}
	return score
}

// Any reports whether at least one signal fired.
func (t TrendSignals) Any() bool {
	return t.Above50AndRising || t.Above20And50 || t.HigherLows
}

// CalculateSMA calculates the arithmetic mean of the last period closes.
func CalculateSMA(closes []float64, period int) float64 {
	if len(closes) < period || period <= 0 {
		return 0
	}

	sum := 0.0
	for _, close := range closes[len(closes)-period:] {
		sum += close
	}
	return sum / float64(period)
}

// ComputeTrend derives the three trend signals from a closing-price
// series, oldest first. With fewer than 50 closes every signal is
// false.
func ComputeTrend(history []*interfaces.PriceBar) TrendSignals {
	closes := extractCloses(history)
	if len(closes) < minTrendBars {
		return TrendSignals{}
	}

	last := closes[len(closes)-1]
	ma20 := CalculateSMA(closes, 20)
	ma50 := CalculateSMA(closes, 50)

	above20And50 := last > ma20 && last > ma50

	// The 50-bar mean five bars back; with too little history it
	// degrades to "not rising".
	ma50Prev := ma50
	if len(closes) >= 55 {
		ma50Prev = CalculateSMA(closes[:len(closes)-5], 50)
	}
	above50AndRising := last > ma50 && ma50 > ma50Prev

	// A non-decreasing run of the last four closes. A crude proxy for
	// an uptrend structure, not a swing-low detector.
	higherLows := true
	recent := closes[len(closes)-4:]
	for i := 1; i < len(recent); i++ {
		if recent[i] < recent[i-1] {
			higherLows = false
			break
		}
	}

	return TrendSignals{
		Above50AndRising: above50AndRising,
		Above20And50:     above20And50,
		HigherLows:       higherLows,
	}
}

// FindSupport estimates a support level as the moving average closest
// to the recent 20-bar low, and refuses to report one unless the most
// recent bar shows a confirming volume spike.
func FindSupport(history []*interfaces.PriceBar) *float64 {
	closes := extractCloses(history)
	if len(closes) < minTrendBars {
		return nil
	}

	candidates := []float64{CalculateSMA(closes, 50)}
	if len(closes) >= 100 {
		candidates = append(candidates, CalculateSMA(closes, 100))
	}
	if len(closes) >= 200 {
		candidates = append(candidates, CalculateSMA(closes, 200))
	}

	recentLow := closes[len(closes)-20]
	for _, close := range closes[len(closes)-20:] {
		if close < recentLow {
			recentLow = close
		}
	}

	support := candidates[0]
	for _, candidate := range candidates[1:] {
		if math.Abs(candidate-recentLow) < math.Abs(support-recentLow) {
			support = candidate
		}
	}

	if !volumeConfirms(history) {
		return nil
	}

	return &support
}

// volumeConfirms requires the latest bar's volume to run at least 1.2x
// the 20-bar average.
func volumeConfirms(history []*interfaces.PriceBar) bool {
	if len(history) < 20 {
		return false
	}

	latest := history[len(history)-1].Volume
	sum := 0.0
	for _, bar := range history[len(history)-20:] {
		sum += bar.Volume
	}
	average := sum / 20

	return latest >= average*1.2
}

func extractCloses(history []*interfaces.PriceBar) []float64 {
	closes := make([]float64, 0, len(history))
	for _, bar := range history {
		if bar == nil {
			continue
		}
		closes = append(closes, bar.Close)
	}
	return closes
}
