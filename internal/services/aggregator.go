package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/jstittsworth/fpl-recommender/internal/engine"
	"github.com/jstittsworth/fpl-recommender/internal/fpl"
	"github.com/jstittsworth/fpl-recommender/internal/providers"
)

// historyFetchLimit bounds the element-summary calls per refresh: squad
// members always, then the strongest candidates by season points.
const historyFetchLimit = 50

// AggregatorService materializes one immutable snapshot per run: official
// pool and squad first, then the scraped sources fanned out in parallel and
// reconciled into the pool. Scraped sources degrade; the official API does
// not.
type AggregatorService struct {
	fplClient *providers.FPLClient
	scrapers  []providers.SourceScraper
	resolver  *engine.Resolver
	breakers  map[string]*gobreaker.CircuitBreaker
}

type fetchResult struct {
	source    string
	records   []fpl.SourceRecord
	formation string
	err       error
}

// formationSource is implemented by scrapers that extract a team shape
// alongside their records.
type formationSource interface {
	Formation() string
}

func NewAggregatorService(fplClient *providers.FPLClient, scrapers []providers.SourceScraper, resolver *engine.Resolver, breakerThreshold int) *AggregatorService {
	if breakerThreshold <= 0 {
		breakerThreshold = 5
	}

	breakers := make(map[string]*gobreaker.CircuitBreaker, len(scrapers))
	for _, s := range scrapers {
		breakers[s.Name()] = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    s.Name(),
			Timeout: 10 * time.Minute,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= uint32(breakerThreshold)
			},
		})
	}

	return &AggregatorService{
		fplClient: fplClient,
		scrapers:  scrapers,
		resolver:  resolver,
		breakers:  breakers,
	}
}

// BuildSnapshot runs one full ingestion cycle for the given team.
func (s *AggregatorService) BuildSnapshot(ctx context.Context, teamID int) (*fpl.Snapshot, error) {
	bootstrap, err := s.fplClient.GetBootstrap(ctx)
	if err != nil {
		return nil, err
	}

	fixtures, err := s.fplClient.GetFixtures(ctx)
	if err != nil {
		logrus.Warnf("Fixture fetch failed, proceeding without forward fixtures: %v", err)
	}

	pool, teams := s.fplClient.BuildPool(bootstrap, fixtures)
	if len(pool) == 0 {
		return nil, fpl.ErrNoPlayerPool
	}

	current, next := bootstrap.CurrentGameweek()

	entry, err := s.fplClient.GetEntry(ctx, teamID)
	if err != nil {
		return nil, err
	}
	picks, err := s.fplClient.GetPicks(ctx, teamID, current)
	if err != nil {
		return nil, err
	}
	squad, err := s.fplClient.BuildSquad(entry, picks)
	if err != nil {
		return nil, err
	}
	if err := squad.ValidateComposition(pool); err != nil {
		return nil, err
	}

	sources, formation := s.resolveWebSources(ctx, pool)
	s.loadHistory(ctx, pool, squad)

	return &fpl.Snapshot{
		Squad:          squad,
		Players:        pool,
		Teams:          teams,
		Gameweek:       next,
		Sources:        sources,
		ScoutFormation: formation,
		FetchedAt:      time.Now().UTC(),
	}, nil
}

// resolveWebSources fans out across every scraper, then folds the records
// into the pool in source-name order so resolution is reproducible. The
// second return is the scout's team shape, when a source supplied one.
func (s *AggregatorService) resolveWebSources(ctx context.Context, pool map[int]*fpl.Player) ([]string, string) {
	results := make(chan fetchResult, len(s.scrapers))
	var wg sync.WaitGroup

	for _, scraper := range s.scrapers {
		wg.Add(1)
		go func(sc providers.SourceScraper) {
			defer wg.Done()

			payload, err := s.breakers[sc.Name()].Execute(func() (interface{}, error) {
				return sc.FetchRecords(ctx)
			})
			if err != nil {
				results <- fetchResult{source: sc.Name(), err: err}
				return
			}

			res := fetchResult{source: sc.Name(), records: payload.([]fpl.SourceRecord)}
			if fs, ok := sc.(formationSource); ok {
				res.formation = fs.Formation()
			}
			results <- res
		}(scraper)
	}

	wg.Wait()
	close(results)

	formation := ""
	bySource := make(map[string][]fpl.SourceRecord)
	for r := range results {
		if r.err != nil {
			if errors.Is(r.err, fpl.ErrSourceUnavailable) {
				logrus.WithField("source", r.source).Warn("Source returned no records this run")
			} else {
				logrus.WithField("source", r.source).Warnf("Source fetch failed: %v", r.err)
			}
			continue
		}
		bySource[r.source] = r.records
		if formation == "" {
			formation = r.formation
		}
	}

	sources := make([]string, 0, len(bySource))
	for name := range bySource {
		sources = append(sources, name)
	}
	sort.Strings(sources)

	for _, name := range sources {
		stats := s.resolver.Resolve(pool, bySource[name])
		logrus.WithFields(logrus.Fields{
			"source":     name,
			"matched":    stats.Matched,
			"unresolved": stats.Unresolved,
		}).Info("Source reconciled")
		if err := stats.Err(); err != nil {
			logrus.WithField("source", name).Warnf("Partial resolution: %v", err)
		}
	}

	return sources, formation
}

// loadHistory fetches per-opponent records for the squad plus the strongest
// pool candidates. Failures leave the history map empty for that player.
func (s *AggregatorService) loadHistory(ctx context.Context, pool map[int]*fpl.Player, squad *fpl.Squad) {
	wanted := make([]int, 0, historyFetchLimit+len(squad.PlayerIDs))
	seen := make(map[int]bool, len(squad.PlayerIDs))

	for _, id := range squad.PlayerIDs {
		if _, ok := pool[id]; ok && !seen[id] {
			seen[id] = true
			wanted = append(wanted, id)
		}
	}

	candidates := make([]*fpl.Player, 0, len(pool))
	for _, p := range pool {
		if !seen[p.ID] {
			candidates = append(candidates, p)
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].TotalPoints != candidates[j].TotalPoints {
			return candidates[i].TotalPoints > candidates[j].TotalPoints
		}
		return candidates[i].ID < candidates[j].ID
	})
	for i := 0; i < len(candidates) && i < historyFetchLimit; i++ {
		wanted = append(wanted, candidates[i].ID)
	}

	for _, id := range wanted {
		history, err := s.fplClient.GetPlayerHistory(ctx, id)
		if err != nil {
			logrus.WithField("player_id", id).Debugf("History fetch failed: %v", err)
			continue
		}
		pool[id].HistoryVsOpponent = history
	}
}
