package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spread-trader/interfaces"
)

func suggestionMarket() *fakeMarketData {
	return &fakeMarketData{
		history:   risingHistory(260),
		ivHistory: []float64{20, 30, 40},
		chain: []*interfaces.OptionContract{
			putContract(90, 0.30, 0.35, 600),
			putContract(95, 2.00, 2.10, 600),
		},
	}
}

func newTestEngine(market *fakeMarketData) *SuggestionEngine {
	return NewSuggestionEngine(market, NewIvRankService(market, nil))
}

func TestGenerateSuggestionsEndToEnd(t *testing.T) {
	market := suggestionMarket()
	engine := newTestEngine(market)

	suggestions := engine.GenerateSuggestions(context.Background(), []string{"SPY"})

	require.Len(t, suggestions, 1)
	suggestion := suggestions[0]

	assert.Equal(t, "SPY", suggestion.Symbol)
	assert.Equal(t, "2026-10-06", suggestion.Expiration)
	assert.InDelta(t, 95.0, suggestion.ShortStrike, 1e-9)
	assert.InDelta(t, 90.0, suggestion.LongStrike, 1e-9)
	assert.InDelta(t, 1.725, suggestion.Credit, 1e-9)
	assert.InDelta(t, 217.25, suggestion.SupportLevel, 1e-9)
	assert.Equal(t, 3, suggestion.TrendScore)
	assert.Equal(t, "Moderate", suggestion.RiskLabel)
	assert.Contains(t, suggestion.Reasoning, "Support near 217.25")
	assert.Contains(t, suggestion.Reasoning, "50MA rising")
	assert.Contains(t, suggestion.Reasoning, "IV Rank 100.0")
}

func TestGenerateSuggestionsSkipsLowIVRank(t *testing.T) {
	market := suggestionMarket()
	market.ivHistory = []float64{40, 30, 20}
	engine := newTestEngine(market)

	suggestions := engine.GenerateSuggestions(context.Background(), []string{"SPY"})

	assert.Empty(t, suggestions)
	// The chain is never fetched for a blocked symbol.
	assert.Zero(t, market.chainCalled)
}

func TestGenerateSuggestionsSkipsIlliquidUnderlying(t *testing.T) {
	market := suggestionMarket()
	for _, bar := range market.history {
		bar.Volume = 500_000
	}
	engine := newTestEngine(market)

	suggestions := engine.GenerateSuggestions(context.Background(), []string{"SPY"})

	assert.Empty(t, suggestions)
	// The volume floor fails before IV history is ever consulted.
	assert.Zero(t, market.ivFetches)
}

func TestGenerateSuggestionsSkipsMissingHistory(t *testing.T) {
	market := suggestionMarket()
	market.history = nil
	engine := newTestEngine(market)

	assert.Empty(t, engine.GenerateSuggestions(context.Background(), []string{"SPY"}))
}

func TestGenerateSuggestionsSkipsWithoutTrend(t *testing.T) {
	market := suggestionMarket()
	closes := make([]float64, 260)
	for i := range closes {
		closes[i] = 300 - float64(i)*0.5
	}
	market.history = barsFromCloses(closes, 3_000_000)
	engine := newTestEngine(market)

	assert.Empty(t, engine.GenerateSuggestions(context.Background(), []string{"SPY"}))
}

func TestGenerateSuggestionsSkipsWhenNoSpreadClears(t *testing.T) {
	market := suggestionMarket()
	market.chain = []*interfaces.OptionContract{
		putContract(90, 1.00, 1.10, 600),
		putContract(95, 2.00, 2.10, 600),
	}
	engine := newTestEngine(market)

	assert.Empty(t, engine.GenerateSuggestions(context.Background(), []string{"SPY"}))
}

func TestGenerateSuggestionsTruncatesToFive(t *testing.T) {
	market := suggestionMarket()
	engine := newTestEngine(market)

	universe := []string{"SPY", "QQQ", "IWM", "DIA", "XLF", "XLK"}
	suggestions := engine.GenerateSuggestions(context.Background(), universe)

	require.Len(t, suggestions, 5)
	// Equal risk labels preserve universe order.
	for i, symbol := range universe[:5] {
		assert.Equal(t, symbol, suggestions[i].Symbol)
	}
}

func TestGenerateSuggestionsDefaultsUniverse(t *testing.T) {
	market := suggestionMarket()
	market.ivHistory = []float64{40, 30, 20}
	engine := newTestEngine(market)

	// Every symbol is blocked, but the whole default universe is scanned.
	engine.GenerateSuggestions(context.Background(), nil)

	assert.Equal(t, len(DefaultETFUniverse), market.ivFetches)
}

func TestRiskLabel(t *testing.T) {
	tests := []struct {
		name        string
		support     float64
		shortStrike float64
		trendScore  int
		ivRank      float64
		width       float64
		credit      float64
		want        string
	}{
		{
			name:    "all factors favorable",
			support: 200, shortStrike: 180, trendScore: 3, ivRank: 60, width: 10, credit: 6,
			want: "Conservative",
		},
		{
			name:    "strong trend with thin cushion",
			support: 217.25, shortStrike: 95, trendScore: 3, ivRank: 100, width: 5, credit: 1.725,
			want: "Moderate",
		},
		{
			name:    "weak everything",
			support: 100, shortStrike: 99, trendScore: 1, ivRank: 20, width: 5, credit: 1,
			want: "Aggressive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			label := riskLabel(tt.support, tt.shortStrike, tt.trendScore, tt.ivRank, tt.width, tt.credit)
			assert.Equal(t, tt.want, label)
		})
	}
}

func TestBuildReasoningMixedTrend(t *testing.T) {
	reasoning := buildReasoning(TrendSignals{}, 100, 35, 1.5, 95)
	assert.Contains(t, reasoning, "trend mixed")
}
