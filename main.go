package main

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"spread-trader/config"
	"spread-trader/controllers"
	"spread-trader/database"
	"spread-trader/services"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}

	storage, err := database.NewLocalStorage(cfg.DatabasePath)
	if err != nil {
		logger.WithError(err).Fatal("Failed to open local storage")
	}

	if deleted, err := storage.PruneOldEvents(context.Background(), config.EventLogRetentionDays); err != nil {
		logger.WithError(err).Warn("Failed to prune old events")
	} else if deleted > 0 {
		logger.WithField("deleted", deleted).Info("Pruned expired audit events")
	}

	market := services.NewAlpacaMarketData(cfg.AlpacaAPIKey, cfg.AlpacaSecretKey)
	ivService := services.NewIvRankService(market, storage)
	dataService := services.NewDataService(storage, market)
	suggestionEngine := services.NewSuggestionEngine(market, ivService)

	positionController := controllers.NewPositionController(dataService, cfg)
	suggestionController := controllers.NewSuggestionController(suggestionEngine, storage)
	marketController := controllers.NewMarketController(ivService)
	eventController := controllers.NewEventController(storage)

	router := gin.Default()

	api := router.Group("/api/v1")
	{
		api.GET("/positions", positionController.HandleListPositions)
		api.GET("/portfolio/summary", positionController.HandlePortfolioSummary)
		api.POST("/suggestions/generate", suggestionController.HandleGenerateSuggestions)
		api.GET("/suggestions", suggestionController.HandleRecentSuggestions)
		api.GET("/market/ivrank/:symbol", marketController.HandleIVRank)
		api.GET("/market/status", marketController.HandleMarketStatus)
		api.GET("/events", eventController.HandleRecentEvents)
		api.POST("/events/prune", eventController.HandlePruneEvents)
	}

	logger.WithField("port", cfg.ServerPort).Info("Starting spread trader API")
	if err := router.Run(":" + cfg.ServerPort); err != nil {
		logger.WithError(err).Fatal("Server stopped")
	}
}
