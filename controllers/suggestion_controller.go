package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"spread-trader/database"
	"spread-trader/models"
	"spread-trader/services"
)

// SuggestionController runs the suggestion engine and serves its
// output.
type SuggestionController struct {
	engine  *services.SuggestionEngine
	storage *database.LocalStorage
}

// NewSuggestionController creates a new suggestion controller
func NewSuggestionController(engine *services.SuggestionEngine, storage *database.LocalStorage) *SuggestionController {
	return &SuggestionController{
		engine:  engine,
		storage: storage,
	}
}

// GenerateSuggestionsRequest optionally narrows the scanned universe.
type GenerateSuggestionsRequest struct {
	Universe []string `json:"universe"`
}

// HandleGenerateSuggestions scans the universe and returns the ranked
// candidates, persisting the batch for later review.
// POST /api/v1/suggestions/generate
func (sc *SuggestionController) HandleGenerateSuggestions(c *gin.Context) {
	var req GenerateSuggestionsRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "Invalid request",
				"details": err.Error(),
			})
			return
		}
	}

	suggestions := sc.engine.GenerateSuggestions(c.Request.Context(), req.Universe)

	generatedAt := time.Now().UTC()
	rows := make([]*models.DBSuggestion, 0, len(suggestions))
	for _, suggestion := range suggestions {
		rows = append(rows, &models.DBSuggestion{
			Symbol:       suggestion.Symbol,
			Expiration:   suggestion.Expiration,
			ShortStrike:  suggestion.ShortStrike,
			LongStrike:   suggestion.LongStrike,
			Credit:       suggestion.Credit,
			SupportLevel: suggestion.SupportLevel,
			TrendScore:   suggestion.TrendScore,
			RiskLabel:    suggestion.RiskLabel,
			Reasoning:    suggestion.Reasoning,
			GeneratedAt:  generatedAt,
		})
	}

	// A failed save never hides the fresh suggestions.
	if err := sc.storage.SaveSuggestions(c.Request.Context(), rows); err != nil {
		c.JSON(http.StatusOK, gin.H{
			"count":       len(suggestions),
			"suggestions": suggestions,
			"warning":     "suggestions were not persisted: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"count":       len(suggestions),
		"suggestions": suggestions,
	})
}

// HandleRecentSuggestions returns the latest persisted suggestions.
// GET /api/v1/suggestions?limit=20
func (sc *SuggestionController) HandleRecentSuggestions(c *gin.Context) {
	limit := parseLimit(c.Query("limit"), 20)

	suggestions, err := sc.storage.RecentSuggestions(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to load suggestions",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"count":       len(suggestions),
		"suggestions": suggestions,
	})
}
