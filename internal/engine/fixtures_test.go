package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jstittsworth/fpl-recommender/internal/fpl"
)

func TestRate(t *testing.T) {
	opponent := fpl.Team{
		ID:                 90,
		ShortName:          "MCI",
		StrengthAttackHome: 1100,
		StrengthAttackAway: 1000,
		StrengthDefHome:    1390,
		StrengthDefAway:    1350,
	}

	model := NewFixtureDifficultyModel(DefaultFixtureHorizon)

	tests := []struct {
		name     string
		pos      fpl.Position
		home     bool
		expected int
	}{
		{
			name:     "midfielder at home faces away defence",
			pos:      fpl.PositionMID,
			home:     true,
			expected: 4,
		},
		{
			name:     "midfielder away faces home defence plus travel",
			pos:      fpl.PositionMID,
			home:     false,
			expected: 5,
		},
		{
			name:     "defender at home faces weak away attack",
			pos:      fpl.PositionDEF,
			home:     true,
			expected: 1,
		},
		{
			name:     "keeper away",
			pos:      fpl.PositionGK,
			home:     false,
			expected: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, model.Rate(opponent, tt.pos, tt.home))
		})
	}
}

func TestRateFallsBackToOverallStrength(t *testing.T) {
	opponent := fpl.Team{ID: 91, StrengthAway: 1200}
	model := NewFixtureDifficultyModel(DefaultFixtureHorizon)

	assert.Equal(t, 3, model.Rate(opponent, fpl.PositionMID, true))
}

func TestForwardScore(t *testing.T) {
	model := NewFixtureDifficultyModel(DefaultFixtureHorizon)

	t.Run("nearer fixtures dominate", func(t *testing.T) {
		p := &fpl.Player{Fixtures: []fpl.Fixture{{Difficulty: 2}, {Difficulty: 5}}}
		score, err := model.ForwardScore(p)
		require.NoError(t, err)
		// ease 8 at weight 1, ease 2 at weight 1/2.
		assert.InDelta(t, 6.0, score, 1e-9)
	})

	t.Run("horizon caps the window", func(t *testing.T) {
		fixtures := []fpl.Fixture{
			{Difficulty: 1}, {Difficulty: 1}, {Difficulty: 1},
			{Difficulty: 1}, {Difficulty: 1}, {Difficulty: 5},
		}
		score, err := model.ForwardScore(&fpl.Player{Fixtures: fixtures})
		require.NoError(t, err)
		assert.InDelta(t, 10.0, score, 1e-9)
	})

	t.Run("no fixtures is insufficient data", func(t *testing.T) {
		_, err := model.ForwardScore(&fpl.Player{})
		assert.ErrorIs(t, err, fpl.ErrInsufficientData)
	})
}

func TestAnnotateFillsMissingDifficulty(t *testing.T) {
	snap := &fpl.Snapshot{
		Players: map[int]*fpl.Player{
			1: {
				ID: 1, Position: fpl.PositionMID,
				Fixtures: []fpl.Fixture{
					{OpponentID: 90, Home: true},
					{OpponentID: 90, Home: false, Difficulty: 2},
				},
			},
		},
		Teams: map[int]fpl.Team{
			90: {ID: 90, StrengthDefAway: 1350, StrengthDefHome: 1390},
		},
	}

	NewFixtureDifficultyModel(DefaultFixtureHorizon).Annotate(snap)

	assert.Equal(t, 4, snap.Players[1].Fixtures[0].Difficulty, "missing rating should be derived")
	assert.Equal(t, 2, snap.Players[1].Fixtures[1].Difficulty, "supplied rating should be kept")
}

func TestRankFixturesIsOrderedAndDeterministic(t *testing.T) {
	snap := &fpl.Snapshot{
		Players: map[int]*fpl.Player{
			1: {ID: 1, TeamID: 10, Team: "ARS", Position: fpl.PositionMID,
				Fixtures: []fpl.Fixture{{OpponentID: 20, OpponentShort: "BOU", Home: true, Difficulty: 2}}},
			2: {ID: 2, TeamID: 11, Team: "LIV", Position: fpl.PositionMID,
				Fixtures: []fpl.Fixture{{OpponentID: 21, OpponentShort: "MCI", Home: false, Difficulty: 5}}},
			3: {ID: 3, TeamID: 12, Team: "CHE", Position: fpl.PositionMID,
				Fixtures: []fpl.Fixture{{OpponentID: 22, OpponentShort: "LUT", Home: true, Difficulty: 2}}},
		},
		Teams: map[int]fpl.Team{},
	}

	model := NewFixtureDifficultyModel(DefaultFixtureHorizon)

	first := model.RankFixtures(snap, fpl.PositionMID)
	second := model.RankFixtures(snap, fpl.PositionMID)

	require.Len(t, first, 3)
	assert.Equal(t, first, second)

	// Equal ease resolves alphabetically by team short name.
	assert.Equal(t, "ARS", first[0].TeamShort)
	assert.Equal(t, "CHE", first[1].TeamShort)
	assert.Equal(t, "LIV", first[2].TeamShort)
	assert.Equal(t, 1, first[0].Rank)
}
