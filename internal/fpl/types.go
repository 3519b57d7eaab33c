package fpl

import (
	"fmt"
	"sort"
	"time"
)

// Position is the FPL element type.
type Position string

const (
	PositionGK  Position = "GK"
	PositionDEF Position = "DEF"
	PositionMID Position = "MID"
	PositionFWD Position = "FWD"
)

// PositionFromElementType maps the official API's element_type to a Position.
func PositionFromElementType(t int) Position {
	switch t {
	case 1:
		return PositionGK
	case 2:
		return PositionDEF
	case 3:
		return PositionMID
	case 4:
		return PositionFWD
	default:
		return ""
	}
}

// SquadPositionCounts is the legal 15-man composition.
var SquadPositionCounts = map[Position]int{
	PositionGK:  2,
	PositionDEF: 5,
	PositionMID: 5,
	PositionFWD: 3,
}

// MaxPerClub is the FPL limit on players from one real-world club.
const MaxPerClub = 3

// Recommendation types carried by expert-source mentions.
const (
	RecTypeCaptain      = "captain"
	RecTypeEssential    = "essential"
	RecTypeTransferIn   = "transfer_in"
	RecTypeDifferential = "differential"
	RecTypeBudget       = "budget"
	RecTypeAvoid        = "avoid"
	RecTypeGeneral      = "general"
)

// Injury statuses extracted from web sources.
const (
	InjuryOut       = "out"
	InjuryDoubtful  = "doubtful"
	InjurySuspended = "suspended"
)

// WebMention is one source's signal about a player.
type WebMention struct {
	Source          string  `json:"source"`
	RecType         string  `json:"rec_type"`
	Sentiment       float64 `json:"sentiment"` // -1..1
	InjuryStatus    string  `json:"injury_status,omitempty"`
	CaptainPick     bool    `json:"captain_pick"`
	ExpectedStarter bool    `json:"expected_starter"`
	Rank            int     `json:"rank,omitempty"`
}

// Fixture is one upcoming match from a player's perspective.
type Fixture struct {
	Event         int    `json:"event"`
	OpponentID    int    `json:"opponent_id"`
	OpponentShort string `json:"opponent_short"`
	Home          bool   `json:"home"`
	Difficulty    int    `json:"difficulty"` // 1-5, higher = harder
}

// Team carries the strength indicators used to derive fixture difficulty.
type Team struct {
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

// Player is the canonical reconciled identity, one per real footballer,
// keyed by the official API's element id. Identity is immutable once
// assigned; every other field is overwritten on each refresh cycle.
type Player struct {
	ID           int      `json:"id"`
	Name         string   `json:"name"`
	WebName      string   `json:"web_name"`
	NameVariants []string `json:"name_variants"`
	TeamID       int      `json:"team_id"`
	Team         string   `json:"team"`
	Position     Position `json:"position"`
	Price        float64  `json:"price"`

	TotalPoints int     `json:"total_points"`
	Form        float64 `json:"form"`
	ICTIndex    float64 `json:"ict_index"`
	SelectedBy  float64 `json:"selected_by_percent"`
	Available   bool    `json:"available"`
	News        string  `json:"news,omitempty"`

	HistoryVsOpponent map[int]float64       `json:"history_vs_opponent,omitempty"`
	Fixtures          []Fixture             `json:"fixtures"`
	WebConsensus      map[string]WebMention `json:"web_consensus,omitempty"`

	// Derived, recomputed every run, never persisted.
	CompositeScore float64 `json:"composite_score"`
	CaptainScore   float64 `json:"captain_score"`
}

// SourceRecord is an ephemeral per-source player mention awaiting identity
// resolution. Created during ingestion, consumed by the resolver, discarded.
type SourceRecord struct {
	Source   string
	RawName  string
	TeamHint string
	PosHint  Position
	Mention  WebMention
}

// Squad is the user's current 15-man team. Never mutated by the engine;
// suggestions are proposals, not applied state.
type Squad struct {
	TeamID    int     `json:"team_id"`
	Name      string  `json:"name"`
	Gameweek  int     `json:"gameweek"`
	PlayerIDs []int   `json:"player_ids"`
	Bank      float64 `json:"bank"`
}

// ClubCounts returns players-per-club for the squad given the pool.
func (s *Squad) ClubCounts(pool map[int]*Player) map[int]int {
	counts := make(map[int]int)
	for _, id := range s.PlayerIDs {
		if p, ok := pool[id]; ok {
			counts[p.TeamID]++
		}
	}
	return counts
}

// Contains reports whether the squad holds the given player.
func (s *Squad) Contains(playerID int) bool {
	for _, id := range s.PlayerIDs {
		if id == playerID {
			return true
		}
	}
	return false
}

// ValidateComposition checks the squad against the 2-5-5-3 formation and the
// per-club limit, given the pool its ids refer to.
func (s *Squad) ValidateComposition(pool map[int]*Player) error {
	counts := make(map[Position]int, len(SquadPositionCounts))
	for _, id := range s.PlayerIDs {
		p, ok := pool[id]
		if !ok {
			return fmt.Errorf("squad player %d missing from pool: %w", id, ErrConstraintViolation)
		}
		counts[p.Position]++
	}

	for _, pos := range []Position{PositionGK, PositionDEF, PositionMID, PositionFWD} {
		if counts[pos] != SquadPositionCounts[pos] {
			return fmt.Errorf("%s count %d, want %d: %w", pos, counts[pos], SquadPositionCounts[pos], ErrConstraintViolation)
		}
	}

	for teamID, n := range s.ClubCounts(pool) {
		if n > MaxPerClub {
			return fmt.Errorf("club %d holds %d players, limit %d: %w", teamID, n, MaxPerClub, ErrConstraintViolation)
		}
	}
	return nil
}

// Snapshot is one immutable view of fully normalized data. The engine only
// reads snapshots; the two recommendation searches may run over the same
// snapshot concurrently.
type Snapshot struct {
	Squad          *Squad          `json:"squad"`
	Players        map[int]*Player `json:"players"`
	Teams          map[int]Team    `json:"teams"`
	Gameweek       int             `json:"gameweek"`
	Sources        []string        `json:"sources"` // sources that reported this run
	ScoutFormation string          `json:"scout_formation,omitempty"`
	FetchedAt      time.Time       `json:"fetched_at"`
}

// SortedPlayerIDs returns pool ids in ascending order. Ranking code iterates
// through this, never through the map, so output order is reproducible.
func (s *Snapshot) SortedPlayerIDs() []int {
	ids := make([]int, 0, len(s.Players))
	for id := range s.Players {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// TransferSuggestion is one proposed swap.
type TransferSuggestion struct {
	OutPlayerID int      `json:"out_player_id"`
	InPlayerID  int      `json:"in_player_id"`
	OutName     string   `json:"out_name"`
	InName      string   `json:"in_name"`
	Improvement float64  `json:"improvement"`
	CostDelta   float64  `json:"cost_delta"`
	Position    Position `json:"position"`
}

// CaptainSuggestion is one ranked armband candidate with the provenance a
// human needs to second-guess it.
type CaptainSuggestion struct {
	PlayerID          int      `json:"player_id"`
	Name              string   `json:"name"`
	CaptainScore      float64  `json:"captain_score"`
	ExpectedPoints    float64  `json:"expected_points"`
	Form              float64  `json:"form"`
	FixtureDifficulty int      `json:"fixture_difficulty"`
	HistoricalPoints  float64  `json:"historical_points"`
	ScoutPick         bool     `json:"scout_pick"`
	RationaleTags     []string `json:"rationale_tags"`
}

// Cache is the TTL-keyed store ingestion reads and writes through. The
// engine never touches it.
type Cache interface {
	SetSimple(key string, value interface{}, expiration time.Duration) error
	GetSimple(key string, dest interface{}) error
	Flush() error
}
