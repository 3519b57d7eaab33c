package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/jstittsworth/fpl-recommender/internal/engine"
	"github.com/jstittsworth/fpl-recommender/internal/fpl"
	"github.com/jstittsworth/fpl-recommender/internal/providers"
	"github.com/jstittsworth/fpl-recommender/internal/services"
	"github.com/jstittsworth/fpl-recommender/pkg/config"
)

// One-shot CLI: run the full pipeline once and print the suggestions.
func main() {
	teamFlag := flag.Int("team", 0, "FPL team id (defaults to FPL_TEAM_ID)")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	if *verbose {
		logrus.SetLevel(logrus.DebugLevel)
	} else {
		logrus.SetLevel(logrus.WarnLevel)
	}

	teamID := cfg.FPLTeamID
	if *teamFlag > 0 {
		teamID = *teamFlag
	}
	if teamID <= 0 {
		fmt.Fprintln(os.Stderr, "no team id: pass -team or set FPL_TEAM_ID")
		os.Exit(1)
	}

	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logrus.Fatalf("Failed to parse Redis URL: %v", err)
	}
	redisClient := redis.NewClient(opt)
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		logrus.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()

	cache := services.NewCacheService(redisClient, cfg.CacheTTL())
	fplClient := providers.NewFPLClient(cfg.FPLAPIBaseURL, cache, cfg.CacheTTL(), cfg.SourceRateLimit)

	scrapers := make([]providers.SourceScraper, 0, len(cfg.ExpertSources)+1)
	if cfg.ScoutURL != "" {
		scrapers = append(scrapers, providers.NewScoutScraper(cfg.ScoutURL, cache, cfg.CacheTTL(), cfg.SourceRateLimit))
	}
	for _, url := range cfg.ExpertSources {
		scrapers = append(scrapers, providers.NewExpertScraper(url, cache, cfg.CacheTTL(), cfg.SourceRateLimit))
	}

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
	recommender := services.NewRecommenderService(aggregator, scorer, searchCfg, nil, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	result, err := recommender.Run(ctx, teamID)
	if err != nil {
		logrus.Fatalf("Run failed: %v", err)
	}

	printResult(result)
}

func printResult(result *services.RecommendationResult) {
	fmt.Printf("Gameweek %d recommendations (sources: %s)\n\n", result.Gameweek, strings.Join(result.Sources, ", "))

	fmt.Println("Transfers:")
	if len(result.Transfers) == 0 {
		fmt.Println("  none worth making")
	}
	for _, t := range result.Transfers {
		fmt.Printf("  %-4s OUT %-25s IN %-25s +%.2f (%+.1fm)\n",
			t.Position, t.OutName, t.InName, t.Improvement, t.CostDelta)
	}

	fmt.Println("\nCaptaincy:")
	for i, c := range result.Captains {
		tags := ""
		if len(c.RationaleTags) > 0 {
			tags = " [" + strings.Join(c.RationaleTags, ", ") + "]"
		}
		fmt.Printf("  %d. %-25s score %.2f, xPts %.1f%s\n", i+1, c.Name, c.CaptainScore, c.ExpectedPoints, tags)
	}
	if result.Vice != nil {
		fmt.Printf("  Vice: %s\n", result.Vice.Name)
	}
}
