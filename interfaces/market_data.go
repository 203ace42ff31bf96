package interfaces

import (
	"context"
	"time"
)

// MarketDataSource defines the interface for market data operations.
// Any method may come back empty/nil on transient failure; callers must
// treat absence as missing data, never as an error to propagate.
type MarketDataSource interface {
	GetOptionQuote(ctx context.Context, symbol, expiration string, strike float64, optionType string) *Quote
	GetUnderlyingPrice(ctx context.Context, symbol string) *float64
	GetPriceHistory(ctx context.Context, symbol string, days int) []*PriceBar
	GetOptionChain(ctx context.Context, symbol, expiration, optionType string) []*OptionContract
	GetIVHistory(ctx context.Context, symbol string) []float64
}

// PositionStore defines the interface for reading raw position rows.
// Rows are validated into Position entities before reaching the engine.
type PositionStore interface {
	AllPositions(ctx context.Context) ([]map[string]string, error)
}

// EventSink records decision-engine events for auditing. Recording is
// fire-and-forget: a failed write must never fail the decision itself.
type EventSink interface {
	Record(ctx context.Context, eventType, symbol, positionID, message string) error
}

// Quote is a point-in-time option quote. Any leg of it may be missing.
type Quote struct {
	Bid       *float64
	Ask       *float64
	Last      *float64
	Timestamp *time.Time
}

// PriceBar is a single daily observation in a price history.
type PriceBar struct {
	Date   time.Time
	Close  float64
	Volume float64
}
