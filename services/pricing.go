package services

import (
	"spread-trader/interfaces"
)

// Pricing methods, in order of confidence. LAST is a degraded fallback
// and callers should treat it as lower confidence than MID.
const (
	PriceMethodMid  = "MID"
	PriceMethodLast = "LAST"
	PriceMethodNone = "NONE"
)

// PriceResult is the outcome of resolving a quote into a usable price.
type PriceResult struct {
	Price  *float64
	Method string
}

// FallbackUsed reports whether the price came from the last-trade
// fallback rather than the bid/ask midpoint.
func (r PriceResult) FallbackUsed() bool {
	return r.Method == PriceMethodLast
}

// GetMidPrice returns (bid+ask)/2, or nil when either side is missing.
func GetMidPrice(bid, ask *float64) *float64 {
	if bid == nil || ask == nil {
		return nil
	}
	mid := (*bid + *ask) / 2
	return &mid
}

// GetOptionPrice resolves a quote into a single usable price: midpoint
// when both sides are quoted, last trade as a fallback, nothing
// otherwise.
func GetOptionPrice(quote *interfaces.Quote) PriceResult {
	if quote == nil {
		return PriceResult{Price: nil, Method: PriceMethodNone}
	}

	if mid := GetMidPrice(quote.Bid, quote.Ask); mid != nil {
		return PriceResult{Price: mid, Method: PriceMethodMid}
	}

	if quote.Last != nil {
		return PriceResult{Price: quote.Last, Method: PriceMethodLast}
	}

	return PriceResult{Price: nil, Method: PriceMethodNone}
}

// GetSpreadValue returns short leg price minus long leg price, or nil
// when either leg is unknown. Callers must not substitute a default.
func GetSpreadValue(shortLegPrice, longLegPrice *float64) *float64 {
	if shortLegPrice == nil || longLegPrice == nil {
		return nil
	}
	value := *shortLegPrice - *longLegPrice
	return &value
}

// CalculatePL returns the dollar P/L of a spread position. The x100
// factor is the per-contract share multiplier for equity options.
func CalculatePL(entryCredit, currentSpreadValue float64, contracts int) float64 {
	return (entryCredit - currentSpreadValue) * 100 * float64(contracts)
}
