package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/jstittsworth/fpl-recommender/internal/api"
	"github.com/jstittsworth/fpl-recommender/internal/api/handlers"
	"github.com/jstittsworth/fpl-recommender/internal/api/middleware"
	"github.com/jstittsworth/fpl-recommender/internal/engine"
	"github.com/jstittsworth/fpl-recommender/internal/fpl"
	"github.com/jstittsworth/fpl-recommender/internal/models"
	"github.com/jstittsworth/fpl-recommender/internal/providers"
	"github.com/jstittsworth/fpl-recommender/internal/services"
	"github.com/jstittsworth/fpl-recommender/pkg/config"
	"github.com/jstittsworth/fpl-recommender/pkg/database"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	// Setup logging
	if cfg.IsDevelopment() {
		logrus.SetLevel(logrus.DebugLevel)
		gin.SetMode(gin.DebugMode)
	} else {
		logrus.SetLevel(logrus.InfoLevel)
		gin.SetMode(gin.ReleaseMode)
	}

	// Connect to database
	db, err := database.NewConnection(cfg.DatabaseURL, cfg.IsDevelopment())
	if err != nil {
		logrus.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.AutoMigrate(&models.RecommendationRun{}); err != nil {
		logrus.Fatalf("Failed to migrate database: %v", err)
	}

	// Connect to Redis
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logrus.Fatalf("Failed to parse Redis URL: %v", err)
	}
	redisClient := redis.NewClient(opt)
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		logrus.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()

	// Initialize services
	cacheService := services.NewCacheService(redisClient, cfg.CacheTTL())
	hub := services.NewHub()

	fplClient := providers.NewFPLClient(cfg.FPLAPIBaseURL, cacheService, cfg.CacheTTL(), cfg.SourceRateLimit)

	scrapers := buildScrapers(cfg, cacheService)
	resolver := engine.NewResolver(cfg.FuzzyThreshold)
	aggregator := services.NewAggregatorService(fplClient, scrapers, resolver, cfg.BreakerThreshold)

	scorer, err := engine.NewScoringEngine(
		engine.CompositeWeights{
			Form:       cfg.WeightForm,
			Fixtures:   cfg.WeightFixtures,
			Consensus:  cfg.WeightConsensus,
			Historical: cfg.WeightHistorical,
			Points:     cfg.WeightPoints,
			ICT:        cfg.WeightICT,
		},
		engine.CaptainWeights{
			Fixture:      cfg.CaptainWeightFixture,
			Form:         cfg.CaptainWeightForm,
			Historical:   cfg.CaptainWeightHistorical,
			CaptainPicks: cfg.CaptainWeightPicks,
		},
		engine.NewFixtureDifficultyModel(cfg.FixtureHorizon),
		cfg.TreatMissingAsZero,
	)
	if err != nil {
		logrus.Fatalf("Invalid scoring weights: %v", err)
	}

	searchCfg := engine.SearchConfig{
		NumTransfers:   cfg.NumTransfers,
		PositionFilter: fpl.Position(cfg.PositionFilter),
		TopN:           cfg.CaptainTopN,
		MinImprovement: cfg.TransferMinImprovement,
	}
	recommender := services.NewRecommenderService(aggregator, scorer, searchCfg, db, hub)

	refresher := services.NewRefresherService(recommender, buildNotifier(cfg), cfg.FPLTeamID, cfg.RefreshSchedule, cfg.SkipInitialRefresh)
	if cfg.EnableBackgroundJobs {
		if err := refresher.Start(); err != nil {
			logrus.Errorf("Failed to start refresher: %v", err)
		}
		defer refresher.Stop()
	}

	// Setup Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger())
	router.Use(middleware.CORS(cfg.CorsOrigins))

	healthHandler := handlers.NewHealthHandler(refresher, hub)
	router.GET("/health", healthHandler.GetHealth)

	apiV1 := router.Group("/api/v1")
	api.SetupRoutes(apiV1, cfg, fplClient, recommender, refresher)

	wsHandler := handlers.NewWebSocketHandler(hub, cfg.CorsOrigins)
	router.GET("/ws", wsHandler.HandleWebSocket)

	// Setup server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logrus.Infof("Starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logrus.Errorf("Server forced to shutdown: %v", err)
	}

	logrus.Info("Server exited")
}

func buildScrapers(cfg *config.Config, cache *services.CacheService) []providers.SourceScraper {
	scrapers := make([]providers.SourceScraper, 0, len(cfg.ExpertSources)+1)
	if cfg.ScoutURL != "" {
		scrapers = append(scrapers, providers.NewScoutScraper(cfg.ScoutURL, cache, cfg.CacheTTL(), cfg.SourceRateLimit))
	}
	for _, url := range cfg.ExpertSources {
		scrapers = append(scrapers, providers.NewExpertScraper(url, cache, cfg.CacheTTL(), cfg.SourceRateLimit))
	}
	return scrapers
}

func buildNotifier(cfg *config.Config) services.NotificationService {
	if cfg.SMSProvider == "twilio" && cfg.TwilioAccountSID != "" {
		return services.NewTwilioNotificationService(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFromNumber, cfg.NotifyPhoneNumber)
	}
	return services.NewMockNotificationService()
}
