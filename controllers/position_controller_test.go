package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spread-trader/config"
	"spread-trader/interfaces"
	"spread-trader/services"
)

type stubStore struct {
	rows []map[string]string
	err  error
}

func (s *stubStore) AllPositions(_ context.Context) ([]map[string]string, error) {
	return s.rows, s.err
}

type stubMarket struct {
	underlying *float64
	ivHistory  []float64
}

func (s *stubMarket) GetOptionQuote(_ context.Context, symbol, expiration string, strike float64, optionType string) *interfaces.Quote {
	return nil
}

func (s *stubMarket) GetUnderlyingPrice(_ context.Context, _ string) *float64 {
	return s.underlying
}

func (s *stubMarket) GetPriceHistory(_ context.Context, _ string, _ int) []*interfaces.PriceBar {
	return nil
}

func (s *stubMarket) GetOptionChain(_ context.Context, _, _, _ string) []*interfaces.OptionContract {
	return nil
}

func (s *stubMarket) GetIVHistory(_ context.Context, _ string) []float64 {
	return s.ivHistory
}

func testConfig() *config.Config {
	return &config.Config{
		PortfolioValue:  100000,
		DailyStopLimit:  500,
		WeeklyStopLimit: 1000,
	}
}

func positionsRouter(store *stubStore) *gin.Engine {
	gin.SetMode(gin.TestMode)

	dataService := services.NewDataService(store, &stubMarket{})
	controller := NewPositionController(dataService, testConfig())

	router := gin.New()
	router.GET("/api/v1/positions", controller.HandleListPositions)
	router.GET("/api/v1/portfolio/summary", controller.HandlePortfolioSummary)
	return router
}

func TestHandleListPositions(t *testing.T) {
	store := &stubStore{rows: []map[string]string{{
		"position_id":  "pos-1",
		"symbol":       "SPY",
		"short_strike": "100",
		"long_strike":  "95",
		"expiration":   "2099-01-15",
		"entry_credit": "1",
		"contracts":    "1",
		"status":       "OPEN",
	}}}

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodGet, "/api/v1/positions", nil)
	positionsRouter(store).ServeHTTP(recorder, request)

	require.Equal(t, http.StatusOK, recorder.Code)

	var body struct {
		Count     int               `json:"count"`
		Positions []json.RawMessage `json:"positions"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Count)
	assert.Len(t, body.Positions, 1)
}

func TestHandleListPositionsStoreError(t *testing.T) {
	store := &stubStore{err: assert.AnError}

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodGet, "/api/v1/positions", nil)
	positionsRouter(store).ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusInternalServerError, recorder.Code)
}

func TestHandlePortfolioSummary(t *testing.T) {
	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodGet, "/api/v1/portfolio/summary", nil)
	positionsRouter(&stubStore{}).ServeHTTP(recorder, request)

	require.Equal(t, http.StatusOK, recorder.Code)

	var summary services.PortfolioSummary
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &summary))
	assert.False(t, summary.DailyStop.Breached)
	assert.Equal(t, "Daily stop OK", summary.DailyStop.Message)
}

func TestHandlePortfolioSummaryRejectsBadValue(t *testing.T) {
	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodGet, "/api/v1/portfolio/summary?portfolio_value=lots", nil)
	positionsRouter(&stubStore{}).ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}
