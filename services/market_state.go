package services

import (
	"time"
)

const nyTimezone = "America/New_York"

// Regular NYSE session bounds, minutes from midnight New York time.
const (
	marketOpenMinutes  = 9*60 + 30
	marketCloseMinutes = 16 * 60
)

// DefaultQuoteMaxAge is how old a quote may be before it is considered
// stale.
const DefaultQuoteMaxAge = 300 * time.Second

// MarketStatus summarizes the current trading session for the
// dashboard.
type MarketStatus struct {
	IsOpen       bool   `json:"is_open"`
	IsAfterHours bool   `json:"is_after_hours"`
	Message      string `json:"message"`
}

// IsMarketOpen reports whether the regular NYSE session is in progress.
func IsMarketOpen(now time.Time) bool {
	local := toNewYork(now)
	if !isTradingDay(local) {
		return false
	}

	minutes := local.Hour()*60 + local.Minute()
	return minutes >= marketOpenMinutes && minutes <= marketCloseMinutes
}

// IsAfterHours reports whether the session has closed on a trading day.
func IsAfterHours(now time.Time) bool {
	local := toNewYork(now)
	if !isTradingDay(local) {
		return false
	}

	minutes := local.Hour()*60 + local.Minute()
	return minutes > marketCloseMinutes
}

// IsQuoteStale reports whether a quote timestamp is missing or older
// than maxAge.
func IsQuoteStale(quoteTimestamp *time.Time, maxAge time.Duration) bool {
	if quoteTimestamp == nil {
		return true
	}
	return time.Since(*quoteTimestamp) > maxAge
}

// GetMarketStatus builds the dashboard-facing session summary.
func GetMarketStatus(now time.Time) MarketStatus {
	local := toNewYork(now)
	tradingDay := isTradingDay(local)
	open := tradingDay && IsMarketOpen(now)
	afterHours := tradingDay && IsAfterHours(now)

	message := "Market closed - holiday or weekend"
	switch {
	case open:
		message = "Market open"
	case afterHours:
		message = "Market closed - after hours"
	case tradingDay:
		message = "Market closed"
	}

	return MarketStatus{
		IsOpen:       open,
		IsAfterHours: afterHours,
		Message:      message,
	}
}

// isTradingDay treats weekdays as trading days. Exchange holidays are
// not modeled; a holiday reads as a closed regular session at worst.
func isTradingDay(local time.Time) bool {
	weekday := local.Weekday()
	return weekday != time.Saturday && weekday != time.Sunday
}

func toNewYork(now time.Time) time.Time {
	loc, err := time.LoadLocation(nyTimezone)
	if err != nil {
		// Deterministic fallback; times will be interpreted as UTC.
		return now.UTC()
	}
	return now.In(loc)
}
