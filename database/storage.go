package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"spread-trader/models"
)

// LocalStorage backs the PositionStore and EventSink contracts with
// SQLite.
type LocalStorage struct {
	db     *gorm.DB
	logger *logrus.Logger
}

// NewLocalStorage creates a new local storage service
func NewLocalStorage(dbPath string) (*LocalStorage, error) {
	// Ensure the directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Auto-migrate schemas
	if err := db.AutoMigrate(
		&models.DBPosition{},
		&models.DBEventLog{},
		&models.DBSuggestion{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	return &LocalStorage{
		db:     db,
		logger: log,
	}, nil
}

// AllPositions returns every stored position as a raw row, the shape
// the engine validates into Position entities.
func (s *LocalStorage) AllPositions(ctx context.Context) ([]map[string]string, error) {
	var dbPositions []*models.DBPosition

	result := s.db.WithContext(ctx).Order("position_id ASC").Find(&dbPositions)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to load positions: %w", result.Error)
	}

	rows := make([]map[string]string, 0, len(dbPositions))
	for _, dbPos := range dbPositions {
		rows = append(rows, map[string]string{
			"position_id":      dbPos.PositionID,
			"symbol":           dbPos.Symbol,
			"short_strike":     strconv.FormatFloat(dbPos.ShortStrike, 'f', -1, 64),
			"long_strike":      strconv.FormatFloat(dbPos.LongStrike, 'f', -1, 64),
			"expiration":       dbPos.Expiration,
			"entry_credit":     strconv.FormatFloat(dbPos.EntryCredit, 'f', -1, 64),
			"contracts":        strconv.Itoa(dbPos.Contracts),
			"status":           dbPos.Status,
			"exit_price":       dbPos.ExitPrice,
			"exit_date":        dbPos.ExitDate,
			"exit_reason":      dbPos.ExitReason,
			"iv_rank_at_entry": dbPos.IVRankAtEntry,
		})
	}
	return rows, nil
}

// SavePosition upserts a position row by position_id.
func (s *LocalStorage) SavePosition(ctx context.Context, position *models.Position) error {
	row := position.ToRow()

	dbPos := &models.DBPosition{
		PositionID:    row["position_id"],
		Symbol:        row["symbol"],
		ShortStrike:   position.ShortStrike,
		LongStrike:    position.LongStrike,
		Expiration:    row["expiration"],
		EntryCredit:   position.EntryCredit,
		Contracts:     position.Contracts,
		Status:        position.Status,
		ExitPrice:     row["exit_price"],
		ExitDate:      row["exit_date"],
		ExitReason:    row["exit_reason"],
		IVRankAtEntry: row["iv_rank_at_entry"],
	}

	var existing models.DBPosition
	result := s.db.WithContext(ctx).Where("position_id = ?", dbPos.PositionID).First(&existing)
	if result.Error == nil {
		dbPos.ID = existing.ID
		if err := s.db.WithContext(ctx).Save(dbPos).Error; err != nil {
			return fmt.Errorf("failed to update position: %w", err)
		}
		return nil
	}

	if err := s.db.WithContext(ctx).Create(dbPos).Error; err != nil {
		return fmt.Errorf("failed to save position: %w", err)
	}
	return nil
}

// Record appends an audit event. Implements the EventSink contract.
func (s *LocalStorage) Record(ctx context.Context, eventType, symbol, positionID, message string) error {
	entry := &models.DBEventLog{
		EventID:    uuid.NewString(),
		Timestamp:  time.Now().UTC(),
		EventType:  eventType,
		Symbol:     symbol,
		PositionID: positionID,
		Message:    message,
	}

	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("failed to record event: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"event_type": eventType,
		"symbol":     symbol,
	}).Debug("Event recorded")
	return nil
}

// RecentEvents returns the newest events first, up to limit.
func (s *LocalStorage) RecentEvents(ctx context.Context, limit int) ([]*models.DBEventLog, error) {
	var events []*models.DBEventLog

	result := s.db.WithContext(ctx).Order("timestamp DESC").Limit(limit).Find(&events)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to load events: %w", result.Error)
	}
	return events, nil
}

// PruneOldEvents deletes events older than the retention window and
// returns how many were removed.
func (s *LocalStorage) PruneOldEvents(ctx context.Context, retentionDays int) (int64, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -retentionDays)

	result := s.db.WithContext(ctx).Where("timestamp < ?", cutoff).Delete(&models.DBEventLog{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to prune events: %w", result.Error)
	}

	if result.RowsAffected > 0 {
		s.logger.WithField("deleted", result.RowsAffected).Info("Pruned old events")
	}
	return result.RowsAffected, nil
}

// SaveSuggestions stores a generated suggestion batch for later review.
func (s *LocalStorage) SaveSuggestions(ctx context.Context, suggestions []*models.DBSuggestion) error {
	if len(suggestions) == 0 {
		return nil
	}

	if err := s.db.WithContext(ctx).Create(&suggestions).Error; err != nil {
		return fmt.Errorf("failed to save suggestions: %w", err)
	}

	s.logger.WithField("count", len(suggestions)).Info("Suggestions saved")
	return nil
}

// RecentSuggestions returns the newest suggestions first, up to limit.
func (s *LocalStorage) RecentSuggestions(ctx context.Context, limit int) ([]*models.DBSuggestion, error) {
	var suggestions []*models.DBSuggestion

	result := s.db.WithContext(ctx).Order("generated_at DESC").Limit(limit).Find(&suggestions)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to load suggestions: %w", result.Error)
	}
	return suggestions, nil
}
