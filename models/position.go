package models

import (
	"fmt"
	"strconv"
	"time"
)

// Position statuses form a closed set; anything else is rejected at
// construction time.
const (
	StatusOpen    = "OPEN"
	StatusClosing = "CLOSING"
	StatusClosed  = "CLOSED"
)

const dateLayout = "2006-01-02"

// Position is an immutable credit spread position. It is built from a
// raw store row and never mutated by the decision engine; exit fields
// are written only by the persistence layer.
type Position struct {
	PositionID    string
	Symbol        string
	ShortStrike   float64
	LongStrike    float64
	Expiration    time.Time
	EntryCredit   float64
	Contracts     int
	Status        string
	ExitPrice     *float64
	ExitDate      *time.Time
	ExitReason    string
	IVRankAtEntry *float64
}

// PositionFromRow validates a raw store row into a Position. Malformed
// rows indicate a precondition violation by the caller and fail fast.
func PositionFromRow(row map[string]string) (*Position, error) {
	positionID := row["position_id"]
	if positionID == "" {
		return nil, fmt.Errorf("position_id is required")
	}

	symbol := row["symbol"]
	if symbol == "" {
		return nil, fmt.Errorf("symbol is required")
	}

	shortStrike, err := parseRequiredFloat(row, "short_strike")
	if err != nil {
		return nil, err
	}
	longStrike, err := parseRequiredFloat(row, "long_strike")
	if err != nil {
		return nil, err
	}
	if shortStrike <= longStrike {
		return nil, fmt.Errorf("short_strike %.2f must exceed long_strike %.2f for a put credit spread", shortStrike, longStrike)
	}

	expiration, err := time.Parse(dateLayout, row["expiration"])
	if err != nil {
		return nil, fmt.Errorf("invalid expiration %q: %w", row["expiration"], err)
	}

	entryCredit, err := parseRequiredFloat(row, "entry_credit")
	if err != nil {
		return nil, err
	}

	contracts, err := strconv.Atoi(row["contracts"])
	if err != nil {
		return nil, fmt.Errorf("invalid contracts %q: %w", row["contracts"], err)
	}
	if contracts <= 0 {
		return nil, fmt.Errorf("contracts must be positive, got %d", contracts)
	}

	status := row["status"]
	if status != StatusOpen && status != StatusClosing && status != StatusClosed {
		return nil, fmt.Errorf("status must be one of OPEN, CLOSING, CLOSED; got %q", status)
	}

	exitPrice, err := parseOptionalFloat(row["exit_price"])
	if err != nil {
		return nil, fmt.Errorf("invalid exit_price: %w", err)
	}
	if exitPrice != nil && *exitPrice <= 0 {
		return nil, fmt.Errorf("exit_price must be positive, got %v", *exitPrice)
	}

	exitDate, err := parseOptionalDate(row["exit_date"])
	if err != nil {
		return nil, fmt.Errorf("invalid exit_date: %w", err)
	}

	ivRank, err := parseOptionalFloat(row["iv_rank_at_entry"])
	if err != nil {
		return nil, fmt.Errorf("invalid iv_rank_at_entry: %w", err)
	}

	return &Position{
		PositionID:    positionID,
		Symbol:        symbol,
		ShortStrike:   shortStrike,
		LongStrike:    longStrike,
		Expiration:    expiration,
		EntryCredit:   entryCredit,
		Contracts:     contracts,
		Status:        status,
		ExitPrice:     exitPrice,
		ExitDate:      exitDate,
		ExitReason:    row["exit_reason"],
		IVRankAtEntry: ivRank,
	}, nil
}

// ToRow serializes the position back to its row form. Absent optional
// fields encode as empty strings, not null markers, so the transform is
// idempotent.
func (p *Position) ToRow() map[string]string {
	row := map[string]string{
		"position_id":      p.PositionID,
		"symbol":           p.Symbol,
		"short_strike":     formatFloat(p.ShortStrike),
		"long_strike":      formatFloat(p.LongStrike),
		"expiration":       p.Expiration.Format(dateLayout),
		"entry_credit":     formatFloat(p.EntryCredit),
		"contracts":        strconv.Itoa(p.Contracts),
		"status":           p.Status,
		"exit_price":       "",
		"exit_date":        "",
		"exit_reason":      p.ExitReason,
		"iv_rank_at_entry": "",
	}

	if p.ExitPrice != nil {
		row["exit_price"] = formatFloat(*p.ExitPrice)
	}
	if p.ExitDate != nil {
		row["exit_date"] = p.ExitDate.Format(dateLayout)
	}
	if p.IVRankAtEntry != nil {
		row["iv_rank_at_entry"] = formatFloat(*p.IVRankAtEntry)
	}

	return row
}

// DaysToExpiration returns whole days between today and expiration.
func (p *Position) DaysToExpiration(today time.Time) int {
	return DaysUntil(p.Expiration, today)
}

// DaysUntil counts whole days from today to target, ignoring time of
// day on both sides.
func DaysUntil(target, today time.Time) int {
	end := time.Date(target.Year(), target.Month(), target.Day(), 0, 0, 0, 0, time.UTC)
	day := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	return int(end.Sub(day).Hours() / 24)
}

func parseRequiredFloat(row map[string]string, key string) (float64, error) {
	value, err := strconv.ParseFloat(row[key], 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, row[key], err)
	}
	if value <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %v", key, value)
	}
	return value, nil
}

func parseOptionalFloat(raw string) (*float64, error) {
	if raw == "" {
		return nil, nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, err
	}
	return &value, nil
}

func parseOptionalDate(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	value, err := time.Parse(dateLayout, raw)
	if err != nil {
		return nil, err
	}
	return &value, nil
}

func formatFloat(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}
