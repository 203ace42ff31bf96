package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"spread-trader/config"
	"spread-trader/interfaces"
)

// DefaultETFUniverse is the broad-market ETF universe scanned when the
// caller does not supply one.
var DefaultETFUniverse = []string{
	"SPY", "QQQ", "IWM", "DIA", "XLF",
	"XLK", "XLV", "XLE", "XLI", "XLP",
	"XLU", "XLY", "XLB", "XLC", "GLD",
	"SLV", "TLT", "IEF", "HYG", "LQD",
}

const (
	historyDays       = 260
	minAvgShareVolume = 1_000_000
	maxSuggestions    = 5
)

// TradeSuggestion is one accepted candidate spread, immutable once
// created.
type TradeSuggestion struct {
	Symbol       string  `json:"symbol"`
	Expiration   string  `json:"expiration"`
	ShortStrike  float64 `json:"short_strike"`
	LongStrike   float64 `json:"long_strike"`
	Credit       float64 `json:"credit"`
	SupportLevel float64 `json:"support_level"`
	TrendScore   int     `json:"trend_score"`
	RiskLabel    string  `json:"risk_label"`
	Reasoning    string  `json:"reasoning"`
}

// SuggestionEngine scans a symbol universe for put credit spread
// candidates, gating each symbol on liquidity, IV rank, trend, and
// support before selecting a spread.
type SuggestionEngine struct {
	market    interfaces.MarketDataSource
	ivService *IvRankService
	logger    *logrus.Logger
}

// NewSuggestionEngine creates a new suggestion engine.
func NewSuggestionEngine(market interfaces.MarketDataSource, ivService *IvRankService) *SuggestionEngine {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	return &SuggestionEngine{
		market:    market,
		ivService: ivService,
		logger:    logger,
	}
}

// GenerateSuggestions scans the universe and returns up to five
// candidates ordered from most conservative to most aggressive. The
// truncation applies across the whole universe, not per symbol.
func (e *SuggestionEngine) GenerateSuggestions(ctx context.Context, universe []string) []TradeSuggestion {
	symbols := universe
	if len(symbols) == 0 {
		symbols = DefaultETFUniverse
	}

	suggestions := make([]TradeSuggestion, 0)

	for _, symbol := range symbols {
		candidates := e.scanSymbol(ctx, symbol)
		suggestions = append(suggestions, candidates...)
	}

	sort.SliceStable(suggestions, func(i, j int) bool {
		return riskScore(suggestions[i].RiskLabel) < riskScore(suggestions[j].RiskLabel)
	})

	if len(suggestions) > maxSuggestions {
		suggestions = suggestions[:maxSuggestions]
	}
	return suggestions
}

func (e *SuggestionEngine) scanSymbol(ctx context.Context, symbol string) []TradeSuggestion {
	log := e.logger.WithField("symbol", symbol)

	history := e.market.GetPriceHistory(ctx, symbol, historyDays)
	if len(history) == 0 {
		log.Debug("No price history; skipping")
		return nil
	}

	if !liquidUnderlying(history) {
		log.Debug("Underlying below volume floor; skipping")
		return nil
	}

	ivResult := e.ivService.GetIVRankDefault(ctx, symbol)
	if ivResult.IVRank == nil || *ivResult.IVRank < config.MinIVRank {
		log.WithField("reason", ivResult.Reason).Debug("IV rank gate failed; skipping")
		return nil
	}

	trend := ComputeTrend(history)
	if !trend.Any() {
		log.Debug("No trend signal; skipping")
		return nil
	}

	support := FindSupport(history)
	if support == nil {
		log.Debug("No confirmed support; skipping")
		return nil
	}

	suggestions := make([]TradeSuggestion, 0, 1)
	for _, expiration := range selectExpirations(history) {
		chain := e.market.GetOptionChain(ctx, symbol, expiration, "put")
		if len(chain) == 0 {
			continue
		}

		candidate := SelectSpread(chain, *support)
		if candidate == nil {
			continue
		}

		width := candidate.ShortStrike - candidate.LongStrike
		label := riskLabel(*support, candidate.ShortStrike, trend.Score(), *ivResult.IVRank, width, candidate.Credit)

		suggestions = append(suggestions, TradeSuggestion{
			Symbol:       symbol,
			Expiration:   expiration,
			ShortStrike:  candidate.ShortStrike,
			LongStrike:   candidate.LongStrike,
			Credit:       candidate.Credit,
			SupportLevel: *support,
			TrendScore:   trend.Score(),
			RiskLabel:    label,
			Reasoning:    buildReasoning(trend, *support, *ivResult.IVRank, candidate.Credit, candidate.ShortStrike),
		})

		log.WithFields(logrus.Fields{
			"short_strike": candidate.ShortStrike,
			"long_strike":  candidate.LongStrike,
			"credit":       candidate.Credit,
			"risk_label":   label,
		}).Info("Candidate spread found")
	}

	return suggestions
}

// liquidUnderlying requires an average of at least one million shares
// over the last 20 bars.
func liquidUnderlying(history []*interfaces.PriceBar) bool {
	if len(history) < 20 {
		return false
	}

	sum := 0.0
	for _, bar := range history[len(history)-20:] {
		sum += bar.Volume
	}
	return sum/20 >= minAvgShareVolume
}

// selectExpirations targets roughly 30-45 DTE with a fixed offset from
// the most recent bar's date. A placeholder policy, not a
// calendar-aware expiration search; kept deliberately.
func selectExpirations(history []*interfaces.PriceBar) []string {
	today := history[len(history)-1].Date
	if today.IsZero() {
		today = time.Now().UTC()
	}

	firstOfMonth := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
	target := firstOfMonth.AddDate(0, 0, 35)
	return []string{target.Format("2006-01-02")}
}

// riskLabel scores a candidate into a qualitative bucket from five
// weighted factors. Heuristic thresholds, not a calibrated model.
func riskLabel(support, shortStrike float64, trendScore int, ivRank, spreadWidth, credit float64) string {
	distance := 0.0
	if support != 0 {
		distance = (support - shortStrike) / support
	}

	score := 0
	if distance > 0.03 {
		score += 2
	} else {
		score++
	}
	if trendScore == 3 {
		score += 2
	} else {
		score++
	}
	if ivRank >= 50 {
		score++
	}
	if spreadWidth == 10 {
		score++
	}
	if credit > spreadWidth/2 {
		score++
	}

	switch {
	case score >= 6:
		return "Conservative"
	case score >= 4:
		return "Moderate"
	default:
		return "Aggressive"
	}
}

// riskScore orders labels for final ranking: lower is listed first.
func riskScore(label string) float64 {
	switch label {
	case "Conservative":
		return 0
	case "Moderate":
		return 1
	default:
		return 2
	}
}

func buildReasoning(trend TrendSignals, support, ivRank, credit, shortStrike float64) string {
	bits := make([]string, 0, 3)
	if trend.Above50AndRising {
		bits = append(bits, "50MA rising")
	}
	if trend.Above20And50 {
		bits = append(bits, "price above 20/50MA")
	}
	if trend.HigherLows {
		bits = append(bits, "higher lows")
	}

	trendText := strings.Join(bits, ", ")
	if trendText == "" {
		trendText = "trend mixed"
	}

	return fmt.Sprintf(
		"Support near %.2f; %s; IV Rank %.1f; credit %.2f for short strike %.2f",
		support, trendText, ivRank, credit, shortStrike,
	)
}
