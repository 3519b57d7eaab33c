package api

import (
	"github.com/gin-gonic/gin"

	"github.com/jstittsworth/fpl-recommender/internal/api/handlers"
	"github.com/jstittsworth/fpl-recommender/internal/api/middleware"
	"github.com/jstittsworth/fpl-recommender/internal/providers"
	"github.com/jstittsworth/fpl-recommender/internal/services"
	"github.com/jstittsworth/fpl-recommender/pkg/config"
)

// SetupRoutes wires every API endpoint onto the given router group.
func SetupRoutes(group *gin.RouterGroup, cfg *config.Config, fplClient *providers.FPLClient, recommender *services.RecommenderService, refresher *services.RefresherService) {
	recommendationHandler := handlers.NewRecommendationHandler(recommender, cfg.FPLTeamID)
	playerHandler := handlers.NewPlayerHandler(recommender)
	squadHandler := handlers.NewSquadHandler(fplClient, recommender)
	adminHandler := handlers.NewAdminHandler(refresher)

	// Recommendation endpoints
	group.GET("/recommendations/transfers", recommendationHandler.GetTransfers)
	group.GET("/recommendations/captain", recommendationHandler.GetCaptains)
	group.GET("/recommendations/runs", recommendationHandler.ListRuns)
	group.GET("/recommendations/runs/:id", recommendationHandler.GetRun)

	// Player pool endpoints
	group.GET("/players", playerHandler.GetPlayers)
	group.GET("/players/:id", playerHandler.GetPlayer)
	group.GET("/fixtures/rankings", playerHandler.GetFixtureRankings)

	// Squad lookup
	group.GET("/squad/:teamID", squadHandler.GetSquad)

	// Admin endpoints
	admin := group.Group("/admin")
	admin.Use(middleware.AuthRequired(cfg.JWTSecret))
	{
		admin.POST("/refresh", adminHandler.TriggerRefresh)
	}
}
