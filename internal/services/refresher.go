package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// RefresherService reruns the recommendation pipeline on a schedule so the
// cached snapshot and run history stay current without manual triggers.
type RefresherService struct {
	recommender *RecommenderService
	notifier    NotificationService
	teamID      int
	schedule    string
	skipInitial bool

	cron      *cron.Cron
	mu        sync.Mutex
	isRunning bool
	lastRun   time.Time
	lastErr   error
}

func NewRefresherService(recommender *RecommenderService, notifier NotificationService, teamID int, schedule string, skipInitial bool) *RefresherService {
	return &RefresherService{
		recommender: recommender,
		notifier:    notifier,
		teamID:      teamID,
		schedule:    schedule,
		skipInitial: skipInitial,
		cron:        cron.New(),
	}
}

// Start schedules the periodic refresh and kicks off an initial run unless
// configured to skip it.
func (s *RefresherService) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("refresher is already running")
	}

	if _, err := s.cron.AddFunc(s.schedule, s.refresh); err != nil {
		return fmt.Errorf("failed to schedule refresh: %w", err)
	}

	s.cron.Start()
	s.isRunning = true

	if !s.skipInitial {
		go s.refresh()
	}

	logrus.WithField("schedule", s.schedule).Info("Refresher service started")
	return nil
}

// Stop halts the schedule and waits for any in-flight run to finish.
func (s *RefresherService) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()

	s.isRunning = false
	logrus.Info("Refresher service stopped")
}

// RunNow triggers a refresh outside the schedule and returns its result.
func (s *RefresherService) RunNow(ctx context.Context) (*RecommendationResult, error) {
	result, err := s.recommender.Run(ctx, s.teamID)
	s.recordRun(err)
	if err != nil {
		return nil, err
	}
	s.notify(result)
	return result, nil
}

// Status reports the scheduler state for the health endpoint.
func (s *RefresherService) Status() map[string]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.cron.Entries()
	nextRuns := make([]time.Time, 0, len(entries))
	for _, entry := range entries {
		nextRuns = append(nextRuns, entry.Next)
	}

	status := map[string]interface{}{
		"is_running": s.isRunning,
		"schedule":   s.schedule,
		"next_runs":  nextRuns,
	}
	if !s.lastRun.IsZero() {
		status["last_run"] = s.lastRun
	}
	if s.lastErr != nil {
		status["last_error"] = s.lastErr.Error()
	}
	return status
}

func (s *RefresherService) refresh() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	logrus.Info("Starting scheduled recommendation refresh")
	result, err := s.recommender.Run(ctx, s.teamID)
	s.recordRun(err)
	if err != nil {
		logrus.Errorf("Scheduled refresh failed: %v", err)
		return
	}
	s.notify(result)
}

func (s *RefresherService) recordRun(err error) {
	s.mu.Lock()
	s.lastRun = time.Now().UTC()
	s.lastErr = err
	s.mu.Unlock()
}

func (s *RefresherService) notify(result *RecommendationResult) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.SendGameweekSummary(result); err != nil {
		logrus.Warnf("Failed to send gameweek summary: %v", err)
	}
}
