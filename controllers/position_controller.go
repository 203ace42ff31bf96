package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"spread-trader/config"
	"spread-trader/services"
)

// PositionController serves the enriched position and portfolio views.
type PositionController struct {
	dataService *services.DataService
	cfg         *config.Config
}

// NewPositionController creates a new position controller
func NewPositionController(dataService *services.DataService, cfg *config.Config) *PositionController {
	return &PositionController{
		dataService: dataService,
		cfg:         cfg,
	}
}

// HandleListPositions returns every stored position enriched with
// pricing, P/L, and the resolved exit action.
// GET /api/v1/positions
func (pc *PositionController) HandleListPositions(c *gin.Context) {
	positions, err := pc.dataService.GetEnrichedPositions(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to load positions",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"count":     len(positions),
		"positions": positions,
	})
}

// HandlePortfolioSummary returns aggregate P/L, deployment, and stop
// status.
// GET /api/v1/portfolio/summary?portfolio_value=100000
func (pc *PositionController) HandlePortfolioSummary(c *gin.Context) {
	portfolioValue := pc.cfg.PortfolioValue
	if raw := c.Query("portfolio_value"); raw != "" {
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "portfolio_value must be a number",
			})
			return
		}
		portfolioValue = value
	}

	summary, err := pc.dataService.GetPortfolioSummary(
		c.Request.Context(),
		portfolioValue,
		pc.cfg.DailyStopLimit,
		pc.cfg.WeeklyStopLimit,
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to build portfolio summary",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, summary)
}
