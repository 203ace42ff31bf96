package models

import (
	"time"

	"gorm.io/gorm"
)

// DBPosition represents a credit spread position row in the database.
// Optional fields are stored as empty strings so a row survives a
// read-validate-write cycle unchanged.
type DBPosition struct {
	gorm.Model
	PositionID    string `gorm:"uniqueIndex"`
	Symbol        string `gorm:"index"`
	ShortStrike   float64
	LongStrike    float64
	Expiration    string // ISO date (2006-01-02)
	EntryCredit   float64
	Contracts     int
	Status        string `gorm:"index"` // OPEN, CLOSING, CLOSED
	ExitPrice     string
	ExitDate      string
	ExitReason    string
	IVRankAtEntry string
}

// DBEventLog represents a decision-engine audit event.
type DBEventLog struct {
	gorm.Model
	EventID    string    `gorm:"uniqueIndex"`
	Timestamp  time.Time `gorm:"index"`
	EventType  string    `gorm:"index"`
	Symbol     string    `gorm:"index"`
	PositionID string
	Message    string
}

// DBSuggestion represents a generated trade suggestion kept for review.
type DBSuggestion struct {
	gorm.Model
	Symbol       string `gorm:"index"`
	Expiration   string
	ShortStrike  float64
	LongStrike   float64
	Credit       float64
	SupportLevel float64
	TrendScore   int
	RiskLabel    string
	Reasoning    string
	GeneratedAt  time.Time `gorm:"index"`
}

// TableName overrides for cleaner table names
func (DBPosition) TableName() string {
	return "positions"
}

func (DBEventLog) TableName() string {
	return "event_log"
}

func (DBSuggestion) TableName() string {
	return "suggestions"
}
