package engine

import (
	"math"
	"sort"

	"github.com/jstittsworth/fpl-recommender/internal/fpl"
)

// DefaultFixtureHorizon is how many upcoming fixtures feed the forward score.
const DefaultFixtureHorizon = 5

// FixtureDifficultyModel derives per-fixture 1-5 difficulty ratings from
// opponent strength and condenses them into a 0-10 forward-fixture score.
// Nearer fixtures weigh more.
type FixtureDifficultyModel struct {
	horizon int
}

func NewFixtureDifficultyModel(horizon int) *FixtureDifficultyModel {
	if horizon <= 0 {
		horizon = DefaultFixtureHorizon
	}
	return &FixtureDifficultyModel{horizon: horizon}
}

// Rate maps an opponent's venue-appropriate strength to a 1-5 difficulty for
// a player of the given position. Attacking positions care about the
// opponent's defence, defensive positions about its attack. Away trips rate
// half a band harder before clipping.
func (m *FixtureDifficultyModel) Rate(opponent fpl.Team, pos fpl.Position, home bool) int {
	attacking := pos == fpl.PositionMID || pos == fpl.PositionFWD

	var strength int
	if home {
		// Opponent travels; their away strengths apply.
		if attacking {
			strength = opponent.StrengthDefAway
		} else {
			strength = opponent.StrengthAttackAway
		}
	} else {
		if attacking {
			strength = opponent.StrengthDefHome
		} else {
			strength = opponent.StrengthAttackHome
		}
	}
	if strength == 0 {
		if home {
			strength = opponent.StrengthAway
		} else {
			strength = opponent.StrengthHome
		}
	}

	// Official strength values sit roughly in the 1000-1400 band.
	d := float64(strength-950) / 100.0
	if !home {
		d += 0.5
	}

	rating := int(math.Round(d))
	if rating < 1 {
		rating = 1
	}
	if rating > 5 {
		rating = 5
	}
	return rating
}

// Annotate fills in the difficulty of every fixture that arrived without one
// (scraped and derived fixtures; the official API supplies its own FDR).
func (m *FixtureDifficultyModel) Annotate(snap *fpl.Snapshot) {
	for _, id := range snap.SortedPlayerIDs() {
		p := snap.Players[id]
		for i := range p.Fixtures {
			if p.Fixtures[i].Difficulty != 0 {
				continue
			}
			opp, ok := snap.Teams[p.Fixtures[i].OpponentID]
			if !ok {
				p.Fixtures[i].Difficulty = 3
				continue
			}
			p.Fixtures[i].Difficulty = m.Rate(opp, p.Position, p.Fixtures[i].Home)
		}
	}
}

// fixtureEase maps a 1-5 difficulty onto 0-10, easier runs scoring higher.
func fixtureEase(difficulty int) float64 {
	return float64(6-difficulty) / 5.0 * 10.0
}

// ForwardScore condenses the player's next fixtures into one 0-10 score
// using inverse-index weights, so the next match dominates. A player with no
// fixtures loaded cannot be scored.
func (m *FixtureDifficultyModel) ForwardScore(p *fpl.Player) (float64, error) {
	if len(p.Fixtures) == 0 {
		return 0, fpl.ErrInsufficientData
	}

	n := len(p.Fixtures)
	if n > m.horizon {
		n = m.horizon
	}

	var weighted, total float64
	for i := 0; i < n; i++ {
		w := 1.0 / float64(i+1)
		weighted += w * fixtureEase(p.Fixtures[i].Difficulty)
		total += w
	}

	return weighted / total, nil
}

// RankedFixture is one side of an upcoming match scored for a position.
type RankedFixture struct {
	Rank          int     `json:"rank"`
	TeamID        int     `json:"team_id"`
	TeamShort     string  `json:"team_short"`
	OpponentID    int     `json:"opponent_id"`
	OpponentShort string  `json:"opponent_short"`
	Home          bool    `json:"home"`
	Ease          float64 `json:"ease"`
}

// RankFixtures orders every team's next fixture by ease for one position,
// best first. Ties break by team short name, then opponent short name.
func (m *FixtureDifficultyModel) RankFixtures(snap *fpl.Snapshot, pos fpl.Position) []RankedFixture {
	seen := make(map[int]bool)
	rows := make([]RankedFixture, 0, len(snap.Teams))

	for _, id := range snap.SortedPlayerIDs() {
		p := snap.Players[id]
		if p.Position != pos || len(p.Fixtures) == 0 || seen[p.TeamID] {
			continue
		}
		seen[p.TeamID] = true

		f := p.Fixtures[0]
		rows = append(rows, RankedFixture{
			TeamID:        p.TeamID,
			TeamShort:     p.Team,
			OpponentID:    f.OpponentID,
			OpponentShort: f.OpponentShort,
			Home:          f.Home,
			Ease:          fixtureEase(f.Difficulty),
		})
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Ease != rows[j].Ease {
			return rows[i].Ease > rows[j].Ease
		}
		if rows[i].TeamShort != rows[j].TeamShort {
			return rows[i].TeamShort < rows[j].TeamShort
		}
		return rows[i].OpponentShort < rows[j].OpponentShort
	})

	for i := range rows {
		rows[i].Rank = i + 1
	}
	return rows
}
