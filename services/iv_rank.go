package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"spread-trader/config"
	"spread-trader/interfaces"
)

// ErrEmptyIVHistory indicates a rank computation over an empty sample,
// which is a caller precondition violation.
var ErrEmptyIVHistory = errors.New("IV history is empty")

// EventIVRankBlock is recorded whenever a symbol is blocked from new
// trade recommendations.
const EventIVRankBlock = "IV_RANK_BLOCK"

// IvRankResult is one symbol's IV rank verdict. A nil rank means the
// history was unavailable.
type IvRankResult struct {
	Symbol  string   `json:"symbol"`
	IVRank  *float64 `json:"iv_rank"`
	Blocked bool     `json:"blocked"`
	Reason  string   `json:"reason"`
}

type ivRankCacheEntry struct {
	insertedAt time.Time
	result     IvRankResult
}

// IvRankService computes IV rank per symbol and caches results with a
// time-to-live. Entries expire strictly by age; there is no explicit
// invalidation signal.
type IvRankService struct {
	market interfaces.MarketDataSource
	events interfaces.EventSink

	cacheTTL time.Duration
	cache    map[string]ivRankCacheEntry
	mu       sync.Mutex
	now      func() time.Time

	logger *logrus.Logger
}

// NewIvRankService creates a new IV rank service with a one hour cache.
func NewIvRankService(market interfaces.MarketDataSource, events interfaces.EventSink) *IvRankService {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	return &IvRankService{
		market:   market,
		events:   events,
		cacheTTL: time.Hour,
		cache:    make(map[string]ivRankCacheEntry),
		now:      time.Now,
		logger:   logger,
	}
}

// WithCacheTTL overrides the cache time-to-live.
func (s *IvRankService) WithCacheTTL(ttl time.Duration) *IvRankService {
	s.cacheTTL = ttl
	return s
}

// WithClock overrides the time source so tests can control expiry.
func (s *IvRankService) WithClock(now func() time.Time) *IvRankService {
	s.now = now
	return s
}

// ComputeIVRank returns the percentile position of the latest sample
// within the sample range, 0 for a flat series.
func ComputeIVRank(history []float64) (float64, error) {
	if len(history) == 0 {
		return 0, ErrEmptyIVHistory
	}

	low, high := history[0], history[0]
	for _, value := range history {
		if value < low {
			low = value
		}
		if value > high {
			high = value
		}
	}

	if high == low {
		return 0, nil
	}

	current := history[len(history)-1]
	return (current - low) / (high - low) * 100, nil
}

// GetIVRank returns the cached or freshly computed IV rank for a
// symbol. An unavailable history blocks the symbol and records an
// event; a rank below minIVRank blocks it too.
func (s *IvRankService) GetIVRank(ctx context.Context, symbol string, minIVRank float64) IvRankResult {
	if cached, ok := s.getCache(symbol); ok {
		return cached
	}

	history := s.market.GetIVHistory(ctx, symbol)
	if len(history) == 0 {
		result := IvRankResult{
			Symbol:  symbol,
			IVRank:  nil,
			Blocked: true,
			Reason:  "IV history unavailable",
		}
		s.recordBlock(ctx, symbol, "IV Rank unavailable; blocking new trade recommendations")
		s.setCache(symbol, result)
		return result
	}

	rank, err := ComputeIVRank(history)
	if err != nil {
		// Unreachable with a non-empty history; degrade the same way
		// as an unavailable one.
		result := IvRankResult{Symbol: symbol, IVRank: nil, Blocked: true, Reason: err.Error()}
		s.setCache(symbol, result)
		return result
	}

	blocked := rank < minIVRank
	reason := "IV Rank OK"
	if blocked {
		reason = "IV Rank below minimum"
		s.recordBlock(ctx, symbol, fmt.Sprintf("IV Rank %.2f below minimum %.0f", rank, minIVRank))
	}

	result := IvRankResult{Symbol: symbol, IVRank: &rank, Blocked: blocked, Reason: reason}
	s.setCache(symbol, result)
	return result
}

// GetIVRankDefault applies the configured minimum rank.
func (s *IvRankService) GetIVRankDefault(ctx context.Context, symbol string) IvRankResult {
	return s.GetIVRank(ctx, symbol, config.MinIVRank)
}

func (s *IvRankService) recordBlock(ctx context.Context, symbol, message string) {
	if s.events == nil {
		return
	}
	if err := s.events.Record(ctx, EventIVRankBlock, symbol, "", message); err != nil {
		s.logger.WithError(err).WithField("symbol", symbol).Warn("Failed to record IV rank block event")
	}
}

func (s *IvRankService) getCache(symbol string) (IvRankResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.cache[symbol]
	if !ok {
		return IvRankResult{}, false
	}
	if s.now().Sub(entry.insertedAt) > s.cacheTTL {
		delete(s.cache, symbol)
		return IvRankResult{}, false
	}
	return entry.result, true
}

func (s *IvRankService) setCache(symbol string, result IvRankResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache[symbol] = ivRankCacheEntry{insertedAt: s.now(), result: result}
}
