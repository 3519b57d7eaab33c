package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/jstittsworth/fpl-recommender/internal/fpl"
)

// OfficialSourceName keys the authoritative API in logs and status maps.
const OfficialSourceName = "fpl-api"

// Bootstrap mirrors the parts of bootstrap-static/ the engine needs.
type Bootstrap struct {
	Events   []APIEvent   `json:"events"`
	Teams    []APITeam    `json:"teams"`
	Elements []APIElement `json:"elements"`
}

type APIEvent struct {
	ID        int  `json:"id"`
	IsCurrent bool `json:"is_current"`
	IsNext    bool `json:"is_next"`
	Finished  bool `json:"finished"`
}

type APITeam struct {
	ID                 int    `json:"id"`
	Name               string `json:"name"`
	ShortName          string `json:"short_name"`
	StrengthHome       int    `json:"strength_overall_home"`
	StrengthAway       int    `json:"strength_overall_away"`
	StrengthAttackHome int    `json:"strength_attack_home"`
	StrengthAttackAway int    `json:"strength_attack_away"`
	StrengthDefHome    int    `json:"strength_defence_home"`
	StrengthDefAway    int    `json:"strength_defence_away"`
}

// APIElement is one player row. The API ships several numerics as strings.
type APIElement struct {
	ID           int    `json:"id"`
	FirstName    string `json:"first_name"`
	SecondName   string `json:"second_name"`
	WebName      string `json:"web_name"`
	Team         int    `json:"team"`
	ElementType  int    `json:"element_type"`
	NowCost      int    `json:"now_cost"`
	TotalPoints  int    `json:"total_points"`
	Form         string `json:"form"`
	ICTIndex     string `json:"ict_index"`
	SelectedBy   string `json:"selected_by_percent"`
	Status       string `json:"status"`
	News         string `json:"news"`
}

type APIFixture struct {
	ID              int    `json:"id"`
	Event           int    `json:"event"`
	TeamH           int    `json:"team_h"`
	TeamA           int    `json:"team_a"`
	TeamHDifficulty int    `json:"team_h_difficulty"`
	TeamADifficulty int    `json:"team_a_difficulty"`
	Finished        bool   `json:"finished"`
	KickoffTime     string `json:"kickoff_time"`
}

type APIEntry struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type APIPicks struct {
	Picks []struct {
		Element  int `json:"element"`
		Position int `json:"position"`
	} `json:"picks"`
	EntryHistory struct {
		Event int `json:"event"`
		Bank  int `json:"bank"`
	} `json:"entry_history"`
}

type apiElementSummary struct {
	History []struct {
		OpponentTeam int `json:"opponent_team"`
		TotalPoints  int `json:"total_points"`
	} `json:"history"`
}

// FPLClient talks to the official API. Reads go through the cache gateway
// first; the 6h TTL matches how often the upstream data meaningfully moves.
type FPLClient struct {
	baseURL string
	client  *http.Client
	cache   fpl.Cache
	ttl     time.Duration
	limiter *rate.Limiter
}

func NewFPLClient(baseURL string, cache fpl.Cache, ttl time.Duration, rps float64) *FPLClient {
	if rps <= 0 {
		rps = 0.5
	}
	return &FPLClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 15 * time.Second},
		cache:   cache,
		ttl:     ttl,
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
	}
}

func (c *FPLClient) GetBootstrap(ctx context.Context) (*Bootstrap, error) {
	var bootstrap Bootstrap
	if c.cached("fpl:bootstrap", &bootstrap) {
		return &bootstrap, nil
	}

	if err := c.getJSON(ctx, "/bootstrap-static/", &bootstrap); err != nil {
		return nil, fmt.Errorf("%w: bootstrap fetch failed: %v", fpl.ErrNoPlayerPool, err)
	}
	if len(bootstrap.Elements) == 0 {
		return nil, fpl.ErrNoPlayerPool
	}

	c.store("fpl:bootstrap", &bootstrap)
	return &bootstrap, nil
}

func (c *FPLClient) GetFixtures(ctx context.Context) ([]APIFixture, error) {
	var fixtures []APIFixture
	if c.cached("fpl:fixtures", &fixtures) {
		return fixtures, nil
	}

	if err := c.getJSON(ctx, "/fixtures/", &fixtures); err != nil {
		return nil, err
	}

	c.store("fpl:fixtures", &fixtures)
	return fixtures, nil
}

// GetEntry validates the manager's team id. A 404 here is the fatal
// malformed-team case: nothing downstream can run without a squad.
func (c *FPLClient) GetEntry(ctx context.Context, teamID int) (*APIEntry, error) {
	if teamID <= 0 {
		return nil, fpl.ErrMalformedTeamReference
	}

	var entry APIEntry
	if err := c.getJSON(ctx, fmt.Sprintf("/entry/%d/", teamID), &entry); err != nil {
		return nil, fmt.Errorf("%w: entry %d: %v", fpl.ErrMalformedTeamReference, teamID, err)
	}
	return &entry, nil
}

func (c *FPLClient) GetPicks(ctx context.Context, teamID, gameweek int) (*APIPicks, error) {
	key := fmt.Sprintf("fpl:picks:%d:%d", teamID, gameweek)

	var picks APIPicks
	if c.cached(key, &picks) {
		return &picks, nil
	}

	if err := c.getJSON(ctx, fmt.Sprintf("/entry/%d/event/%d/picks/", teamID, gameweek), &picks); err != nil {
		return nil, fmt.Errorf("%w: picks for entry %d gw %d: %v", fpl.ErrMalformedTeamReference, teamID, gameweek, err)
	}

	c.store(key, &picks)
	return &picks, nil
}

// GetPlayerHistory aggregates a player's average points per past opponent.
func (c *FPLClient) GetPlayerHistory(ctx context.Context, playerID int) (map[int]float64, error) {
	key := fmt.Sprintf("fpl:history:%d", playerID)

	var history map[int]float64
	if c.cached(key, &history) {
		return history, nil
	}

	var summary apiElementSummary
	if err := c.getJSON(ctx, fmt.Sprintf("/element-summary/%d/", playerID), &summary); err != nil {
		return nil, err
	}

	points := make(map[int][]int)
	for _, h := range summary.History {
		points[h.OpponentTeam] = append(points[h.OpponentTeam], h.TotalPoints)
	}

	history = make(map[int]float64, len(points))
	for opponent, pts := range points {
		sum := 0
		for _, p := range pts {
			sum += p
		}
		history[opponent] = float64(sum) / float64(len(pts))
	}

	c.store(key, history)
	return history, nil
}

// CurrentGameweek returns the running event, and the next one to rank for.
func (b *Bootstrap) CurrentGameweek() (current, next int) {
	for _, e := range b.Events {
		if e.IsCurrent {
			current = e.ID
		}
		if e.IsNext {
			next = e.ID
		}
	}
	if next == 0 {
		next = current + 1
	}
	if current == 0 {
		current = 1
	}
	return current, next
}

// BuildPool normalizes the bootstrap payload into the canonical player set
// and team table. This is the only normalizer that carries authoritative
// ids, so it bypasses fuzzy matching entirely.
func (c *FPLClient) BuildPool(bootstrap *Bootstrap, fixtures []APIFixture) (map[int]*fpl.Player, map[int]fpl.Team) {
	teams := make(map[int]fpl.Team, len(bootstrap.Teams))
	for _, t := range bootstrap.Teams {
		teams[t.ID] = fpl.Team{
			ID:                 t.ID,
			Name:               t.Name,
			ShortName:          t.ShortName,
			StrengthHome:       t.StrengthHome,
			StrengthAway:       t.StrengthAway,
			StrengthAttackHome: t.StrengthAttackHome,
			StrengthAttackAway: t.StrengthAttackAway,
			StrengthDefHome:    t.StrengthDefHome,
			StrengthDefAway:    t.StrengthDefAway,
		}
	}

	_, next := bootstrap.CurrentGameweek()
	upcoming := upcomingByTeam(fixtures, teams, next)

	pool := make(map[int]*fpl.Player, len(bootstrap.Elements))
	for _, e := range bootstrap.Elements {
		fullName := e.FirstName + " " + e.SecondName
		pool[e.ID] = &fpl.Player{
			ID:           e.ID,
			Name:         fullName,
			WebName:      e.WebName,
			NameVariants: []string{fullName, e.WebName, e.SecondName},
			TeamID:       e.Team,
			Team:         teams[e.Team].ShortName,
			Position:     fpl.PositionFromElementType(e.ElementType),
			Price:        float64(e.NowCost) / 10.0,
			TotalPoints:  e.TotalPoints,
			Form:         parseFloat(e.Form),
			ICTIndex:     parseFloat(e.ICTIndex),
			SelectedBy:   parseFloat(e.SelectedBy),
			Available:    e.Status == "a",
			News:         e.News,
			Fixtures:     upcoming[e.Team],
		}
	}

	return pool, teams
}

// BuildSquad assembles the squad value object from entry + picks.
func (c *FPLClient) BuildSquad(entry *APIEntry, picks *APIPicks) (*fpl.Squad, error) {
	if entry == nil || picks == nil || len(picks.Picks) == 0 {
		return nil, fpl.ErrMalformedTeamReference
	}

	ids := make([]int, 0, len(picks.Picks))
	for _, p := range picks.Picks {
		ids = append(ids, p.Element)
	}
	sort.Ints(ids)

	return &fpl.Squad{
		TeamID:    entry.ID,
		Name:      entry.Name,
		Gameweek:  picks.EntryHistory.Event,
		PlayerIDs: ids,
		Bank:      float64(picks.EntryHistory.Bank) / 10.0,
	}, nil
}

// upcomingByTeam builds each club's ordered forward fixture list, with the
// official FDR carried over when present.
func upcomingByTeam(fixtures []APIFixture, teams map[int]fpl.Team, fromEvent int) map[int][]fpl.Fixture {
	sort.Slice(fixtures, func(i, j int) bool {
		if fixtures[i].Event != fixtures[j].Event {
			return fixtures[i].Event < fixtures[j].Event
		}
		return fixtures[i].ID < fixtures[j].ID
	})

	out := make(map[int][]fpl.Fixture)
	for _, f := range fixtures {
		if f.Finished || f.Event == 0 || f.Event < fromEvent {
			continue
		}
		out[f.TeamH] = append(out[f.TeamH], fpl.Fixture{
			Event:         f.Event,
			OpponentID:    f.TeamA,
			OpponentShort: teams[f.TeamA].ShortName,
			Home:          true,
			Difficulty:    f.TeamHDifficulty,
		})
		out[f.TeamA] = append(out[f.TeamA], fpl.Fixture{
			Event:         f.Event,
			OpponentID:    f.TeamH,
			OpponentShort: teams[f.TeamH].ShortName,
			Home:          false,
			Difficulty:    f.TeamADifficulty,
		})
	}
	return out
}

func (c *FPLClient) cached(key string, dest interface{}) bool {
	if c.cache == nil {
		return false
	}
	if err := c.cache.GetSimple(key, dest); err == nil {
		logrus.WithField("key", key).Debug("FPL API cache hit")
		return true
	}
	return false
}

func (c *FPLClient) store(key string, value interface{}) {
	if c.cache == nil {
		return
	}
	if err := c.cache.SetSimple(key, value, c.ttl); err != nil {
		logrus.WithField("key", key).Warnf("Failed to cache FPL API payload: %v", err)
	}
}

func (c *FPLClient) getJSON(ctx context.Context, path string, dest interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", scraperUserAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d for %s", resp.StatusCode, path)
	}

	return json.NewDecoder(resp.Body).Decode(dest)
}

func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
