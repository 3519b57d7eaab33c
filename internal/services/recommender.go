package services

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/jstittsworth/fpl-recommender/internal/engine"
	"github.com/jstittsworth/fpl-recommender/internal/fpl"
	"github.com/jstittsworth/fpl-recommender/internal/models"
	"github.com/jstittsworth/fpl-recommender/pkg/database"
)

// RecommendationResult is the full output of one engine run.
type RecommendationResult struct {
	RunID          string                   `json:"run_id"`
	TeamID         int                      `json:"team_id"`
	Gameweek       int                      `json:"gameweek"`
	Transfers      []fpl.TransferSuggestion `json:"transfers"`
	Captains       []fpl.CaptainSuggestion  `json:"captains"`
	Vice           *fpl.CaptainSuggestion   `json:"vice,omitempty"`
	Sources        []string                 `json:"sources"`
	ScoutFormation string                   `json:"scout_formation,omitempty"`
	GeneratedAt    time.Time                `json:"generated_at"`
}

// RecommenderService ties ingestion, scoring and search together and keeps
// the most recent snapshot around for the read-side endpoints.
type RecommenderService struct {
	aggregator *AggregatorService
	scorer     *engine.ScoringEngine
	search     *engine.RecommendationSearch
	db         *database.DB
	hub        *Hub

	mu           sync.RWMutex
	lastSnapshot *fpl.Snapshot
	lastScores   *engine.ScoreResult
	lastResult   *RecommendationResult
}

func NewRecommenderService(aggregator *AggregatorService, scorer *engine.ScoringEngine, searchCfg engine.SearchConfig, db *database.DB, hub *Hub) *RecommenderService {
	return &RecommenderService{
		aggregator: aggregator,
		scorer:     scorer,
		search:     engine.NewRecommendationSearch(scorer, searchCfg),
		db:         db,
		hub:        hub,
	}
}

// Run executes one full recommendation cycle for the given team: fresh
// snapshot, scores, transfer and captaincy suggestions, persisted run.
func (s *RecommenderService) Run(ctx context.Context, teamID int) (*RecommendationResult, error) {
	started := time.Now()

	snapshot, err := s.aggregator.BuildSnapshot(ctx, teamID)
	if err != nil {
		return nil, err
	}

	scores := s.scorer.ScoreAll(snapshot)

	transfers, err := s.search.SuggestTransfers(snapshot, scores)
	if err != nil {
		return nil, err
	}
	captains, err := s.search.SuggestCaptains(snapshot, scores)
	if err != nil {
		return nil, err
	}

	var vice *fpl.CaptainSuggestion
	if len(captains) > 0 {
		if v, err := s.search.SuggestViceCaptain(snapshot, scores, captains[0].PlayerID); err == nil {
			vice = v
		}
	}

	result := &RecommendationResult{
		RunID:          uuid.NewString(),
		TeamID:         teamID,
		Gameweek:       snapshot.Gameweek,
		Transfers:      transfers,
		Captains:       captains,
		Vice:           vice,
		Sources:        snapshot.Sources,
		ScoutFormation: snapshot.ScoutFormation,
		GeneratedAt:    time.Now().UTC(),
	}

	s.mu.Lock()
	s.lastSnapshot = snapshot
	s.lastScores = scores
	s.lastResult = result
	s.mu.Unlock()

	if err := s.persistRun(result); err != nil {
		logrus.Warnf("Failed to persist recommendation run: %v", err)
	}
	if s.hub != nil {
		s.hub.BroadcastJSON("recommendations", result)
	}

	logrus.WithFields(logrus.Fields{
		"team_id":   teamID,
		"gameweek":  result.Gameweek,
		"transfers": len(transfers),
		"captains":  len(captains),
		"sources":   len(result.Sources),
		"duration":  time.Since(started).Round(time.Millisecond),
	}).Info("Recommendation run complete")

	return result, nil
}

// LatestSnapshot returns the snapshot and scores from the most recent run,
// or nil if no run has completed yet.
func (s *RecommenderService) LatestSnapshot() (*fpl.Snapshot, *engine.ScoreResult) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastSnapshot, s.lastScores
}

// LatestResult returns the most recent run output, or nil before the
// first run completes.
func (s *RecommenderService) LatestResult() *RecommendationResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastResult
}

// FixtureRankings ranks the latest snapshot's teams by fixture ease for one
// position. The second return is false before the first run completes.
func (s *RecommenderService) FixtureRankings(pos fpl.Position) ([]engine.RankedFixture, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.lastSnapshot == nil {
		return nil, false
	}
	return s.scorer.RankFixtures(s.lastSnapshot, pos), true
}

// History returns persisted runs for a team, newest first.
func (s *RecommenderService) History(teamID, limit int) ([]models.RecommendationRun, error) {
	if s.db == nil {
		return nil, nil
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	var runs []models.RecommendationRun
	err := s.db.Where("team_id = ?", teamID).
		Order("created_at DESC").
		Limit(limit).
		Find(&runs).Error
	return runs, err
}

// GetRun loads a single persisted run by id.
func (s *RecommenderService) GetRun(id string) (*models.RecommendationRun, error) {
	if s.db == nil {
		return nil, nil
	}

	var run models.RecommendationRun
	if err := s.db.Where("id = ?", id).First(&run).Error; err != nil {
		return nil, err
	}
	return &run, nil
}

func (s *RecommenderService) persistRun(result *RecommendationResult) error {
	if s.db == nil {
		return nil
	}

	transfers, err := json.Marshal(result.Transfers)
	if err != nil {
		return err
	}
	captains, err := json.Marshal(result.Captains)
	if err != nil {
		return err
	}

	run := models.RecommendationRun{
		ID:        result.RunID,
		TeamID:    result.TeamID,
		Gameweek:  result.Gameweek,
		Transfers: transfers,
		Captains:  captains,
		Sources:   strings.Join(result.Sources, ","),
	}
	if result.Vice != nil {
		vice, err := json.Marshal(result.Vice)
		if err != nil {
			return err
		}
		run.Vice = vice
	}

	return s.db.Create(&run).Error
}
