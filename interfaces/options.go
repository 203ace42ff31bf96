package interfaces

// OptionContract is an immutable snapshot of one contract from an
// option chain.
type OptionContract struct {
	Symbol       string // underlying symbol
	Expiration   string // ISO date (2006-01-02)
	Strike       float64
	OptionType   string // "call" or "put"
	Bid          *float64
	Ask          *float64
	Last         *float64
	OpenInterest *int64
}
