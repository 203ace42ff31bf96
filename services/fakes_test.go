package services

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"spread-trader/interfaces"
)

// fakeMarketData is a canned MarketDataSource for engine tests.
type fakeMarketData struct {
	history     []*interfaces.PriceBar
	ivHistory   []float64
	chain       []*interfaces.OptionContract
	quotes      map[string]*interfaces.Quote
	underlying  *float64
	ivFetches   int
	chainCalled int
}

func (f *fakeMarketData) GetOptionQuote(_ context.Context, symbol, expiration string, strike float64, optionType string) *interfaces.Quote {
	return f.quotes[fmt.Sprintf("%s:%s:%.2f:%s", symbol, expiration, strike, optionType)]
}

func (f *fakeMarketData) GetUnderlyingPrice(_ context.Context, _ string) *float64 {
	return f.underlying
}

func (f *fakeMarketData) GetPriceHistory(_ context.Context, _ string, days int) []*interfaces.PriceBar {
	if len(f.history) > days {
		return f.history[len(f.history)-days:]
	}
	return f.history
}

func (f *fakeMarketData) GetOptionChain(_ context.Context, _, _, _ string) []*interfaces.OptionContract {
	f.chainCalled++
	return f.chain
}

func (f *fakeMarketData) GetIVHistory(_ context.Context, _ string) []float64 {
	f.ivFetches++
	return f.ivHistory
}

// fakeEventSink records events in memory.
type fakeEventSink struct {
	events []string
	err    error
}

func (f *fakeEventSink) Record(_ context.Context, eventType, symbol, positionID, message string) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, eventType+":"+symbol)
	return nil
}

func floatPtr(v float64) *float64 { return &v }

func int64Ptr(v int64) *int64 { return &v }

func formatTestFloat(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

func formatTestInt(v int) string { return strconv.Itoa(v) }

// risingHistory builds a steadily rising daily series with constant
// volume, ending with a volume spike.
func risingHistory(bars int) []*interfaces.PriceBar {
	history := make([]*interfaces.PriceBar, 0, bars)
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < bars-1; i++ {
		history = append(history, &interfaces.PriceBar{
			Date:   start.AddDate(0, 0, i),
			Close:  100 + float64(i)*0.5,
			Volume: 2_000_000,
		})
	}
	history = append(history, &interfaces.PriceBar{
		Date:   start.AddDate(0, 0, bars-1),
		Close:  100 + float64(bars-1)*0.5,
		Volume: 3_000_000,
	})
	return history
}
