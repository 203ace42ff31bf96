package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"spread-trader/services"
)

// MarketController serves IV rank and market session status.
type MarketController struct {
	ivService *services.IvRankService
}

// NewMarketController creates a new market controller
func NewMarketController(ivService *services.IvRankService) *MarketController {
	return &MarketController{
		ivService: ivService,
	}
}

// HandleIVRank returns the IV rank verdict for one symbol.
// GET /api/v1/market/ivrank/:symbol
func (mc *MarketController) HandleIVRank(c *gin.Context) {
	symbol := strings.ToUpper(c.Param("symbol"))
	if symbol == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "symbol required",
		})
		return
	}

	result := mc.ivService.GetIVRankDefault(c.Request.Context(), symbol)
	c.JSON(http.StatusOK, result)
}

// HandleMarketStatus returns the current NYSE session status.
// GET /api/v1/market/status
func (mc *MarketController) HandleMarketStatus(c *gin.Context) {
	c.JSON(http.StatusOK, services.GetMarketStatus(time.Now()))
}
