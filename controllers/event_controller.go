package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"spread-trader/config"
	"spread-trader/database"
)

// EventController serves the decision-engine audit trail.
type EventController struct {
	storage *database.LocalStorage
}

// NewEventController creates a new event controller
func NewEventController(storage *database.LocalStorage) *EventController {
	return &EventController{
		storage: storage,
	}
}

// HandleRecentEvents returns the newest audit events.
// GET /api/v1/events?limit=50
func (ec *EventController) HandleRecentEvents(c *gin.Context) {
	limit := parseLimit(c.Query("limit"), 50)

	events, err := ec.storage.RecentEvents(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to load events",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"count":  len(events),
		"events": events,
	})
}

// HandlePruneEvents deletes events past the retention window.
// POST /api/v1/events/prune
func (ec *EventController) HandlePruneEvents(c *gin.Context) {
	deleted, err := ec.storage.PruneOldEvents(c.Request.Context(), config.EventLogRetentionDays)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to prune events",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"deleted": deleted,
	})
}

// parseLimit bounds list endpoints to sane page sizes.
func parseLimit(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 || limit > 500 {
		return fallback
	}
	return limit
}
