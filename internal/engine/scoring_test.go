package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jstittsworth/fpl-recommender/internal/fpl"
)

func scoringSnapshot() *fpl.Snapshot {
	return &fpl.Snapshot{
		Squad: &fpl.Squad{TeamID: 1, PlayerIDs: []int{1, 2, 3}, Bank: 1.0},
		Players: map[int]*fpl.Player{
			1: {
				ID: 1, Name: "Alpha One", Team: "ARS", TeamID: 10, Position: fpl.PositionMID,
				Price: 8.0, TotalPoints: 120, Form: 6.5, ICTIndex: 180, SelectedBy: 25, Available: true,
				HistoryVsOpponent: map[int]float64{90: 8},
				Fixtures:          []fpl.Fixture{{OpponentID: 90, Home: true, Difficulty: 2}},
			},
			2: {
				ID: 2, Name: "Beta Two", Team: "LIV", TeamID: 11, Position: fpl.PositionFWD,
				Price: 11.5, TotalPoints: 150, Form: 8.0, ICTIndex: 220, SelectedBy: 45, Available: true,
				HistoryVsOpponent: map[int]float64{91: 12},
				Fixtures:          []fpl.Fixture{{OpponentID: 91, Home: false, Difficulty: 3}},
			},
			3: {
				ID: 3, Name: "Gamma Three", Team: "CHE", TeamID: 12, Position: fpl.PositionDEF,
				Price: 4.5, TotalPoints: 60, Form: 2.0, ICTIndex: 55, SelectedBy: 8, Available: true,
				Fixtures: []fpl.Fixture{{OpponentID: 92, Home: true, Difficulty: 4}},
			},
			4: {
				ID: 4, Name: "Delta Four", Team: "NEW", TeamID: 13, Position: fpl.PositionMID,
				Price: 6.0, TotalPoints: 90, Form: 5.0, ICTIndex: 130, SelectedBy: 15, Available: true,
				Fixtures: []fpl.Fixture{{OpponentID: 93, Home: true, Difficulty: 2}},
			},
		},
		Teams:    map[int]fpl.Team{},
		Gameweek: 10,
	}
}

func newTestScorer(t *testing.T) *ScoringEngine {
	t.Helper()
	scorer, err := NewScoringEngine(DefaultCompositeWeights(), DefaultCaptainWeights(), nil, false)
	require.NoError(t, err)
	return scorer
}

func TestWeightValidation(t *testing.T) {
	assert.NoError(t, DefaultCompositeWeights().Validate())
	assert.NoError(t, DefaultCaptainWeights().Validate())

	bad := DefaultCompositeWeights()
	bad.Form = 0.5
	assert.Error(t, bad.Validate())

	badCaptain := DefaultCaptainWeights()
	badCaptain.Fixture = 0.1
	assert.Error(t, badCaptain.Validate())

	_, err := NewScoringEngine(bad, DefaultCaptainWeights(), nil, false)
	assert.Error(t, err, "constructor must reject invalid weights")
}

func TestScoreAllBounds(t *testing.T) {
	snap := scoringSnapshot()
	newTestScorer(t).ScoreAll(snap)

	for id, p := range snap.Players {
		assert.GreaterOrEqual(t, p.CompositeScore, 0.0, "player %d composite", id)
		assert.LessOrEqual(t, p.CompositeScore, 10.0, "player %d composite", id)
		assert.GreaterOrEqual(t, p.CaptainScore, 0.0, "player %d captain", id)
		assert.LessOrEqual(t, p.CaptainScore, 10.0, "player %d captain", id)
	}
}

func TestFormMonotonicity(t *testing.T) {
	scorer := newTestScorer(t)

	snap := scoringSnapshot()
	scorer.ScoreAll(snap)
	before := snap.Players[4].CompositeScore

	snap.Players[4].Form = 9.5
	scorer.ScoreAll(snap)
	after := snap.Players[4].CompositeScore

	assert.GreaterOrEqual(t, after, before,
		"raising form with everything else fixed must never lower the composite score")
}

func TestInjuredClampIsDeterministic(t *testing.T) {
	snap := scoringSnapshot()
	// Best raw metrics in the pool, but flagged unavailable.
	snap.Players[2].Available = false

	scorer := newTestScorer(t)
	scorer.ScoreAll(snap)

	assert.LessOrEqual(t, snap.Players[2].CompositeScore, InjuredScoreCeiling)
	assert.LessOrEqual(t, snap.Players[2].CaptainScore, InjuredScoreCeiling)
	assert.Greater(t, snap.Players[2].CompositeScore, 0.0, "clamped, not zeroed")

	// Same result on a rerun.
	again := scoringSnapshot()
	again.Players[2].Available = false
	scorer.ScoreAll(again)
	assert.Equal(t, snap.Players[2].CompositeScore, again.Players[2].CompositeScore)
}

func TestMissingFixturesExcluded(t *testing.T) {
	snap := scoringSnapshot()
	snap.Players[3].Fixtures = nil

	result := newTestScorer(t).ScoreAll(snap)

	assert.Equal(t, []int{3}, result.Excluded)
	assert.True(t, result.IsExcluded(3))
	assert.Zero(t, snap.Players[3].CompositeScore)

	// With the treat-missing-as-zero policy, the player stays rankable.
	lenient, err := NewScoringEngine(DefaultCompositeWeights(), DefaultCaptainWeights(), nil, true)
	require.NoError(t, err)

	snap = scoringSnapshot()
	snap.Players[3].Fixtures = nil
	result = lenient.ScoreAll(snap)
	assert.Empty(t, result.Excluded)
}

func TestWebScore(t *testing.T) {
	tests := []struct {
		name      string
		consensus map[string]fpl.WebMention
		check     func(t *testing.T, score float64)
	}{
		{
			name:      "no mentions contribute nothing",
			consensus: nil,
			check: func(t *testing.T, score float64) {
				assert.Zero(t, score)
			},
		},
		{
			name: "ruled-out player scores zero regardless of hype",
			consensus: map[string]fpl.WebMention{
				"expert-a": {RecType: fpl.RecTypeCaptain, Sentiment: 1, InjuryStatus: fpl.InjuryOut},
				"expert-b": {RecType: fpl.RecTypeEssential, Sentiment: 1},
			},
			check: func(t *testing.T, score float64) {
				assert.Zero(t, score)
			},
		},
		{
			name: "doubtful halves the score",
			consensus: map[string]fpl.WebMention{
				"expert-a": {RecType: fpl.RecTypeEssential, Sentiment: 0.5, InjuryStatus: fpl.InjuryDoubtful},
			},
			check: func(t *testing.T, score float64) {
				full := webScore(&fpl.Player{WebConsensus: map[string]fpl.WebMention{
					"expert-a": {RecType: fpl.RecTypeEssential, Sentiment: 0.5},
				}})
				assert.InDelta(t, full/2, score, 1e-9)
			},
		},
		{
			name: "broad coverage earns a bonus but stays in range",
			consensus: map[string]fpl.WebMention{
				"expert-a": {RecType: fpl.RecTypeCaptain, Sentiment: 1, ExpectedStarter: true},
				"expert-b": {RecType: fpl.RecTypeCaptain, Sentiment: 1},
				"expert-c": {RecType: fpl.RecTypeCaptain, Sentiment: 1},
			},
			check: func(t *testing.T, score float64) {
				assert.Equal(t, 10.0, score)
			},
		},
		{
			name: "avoid mentions drag below neutral",
			consensus: map[string]fpl.WebMention{
				"expert-a": {RecType: fpl.RecTypeAvoid, Sentiment: 0},
			},
			check: func(t *testing.T, score float64) {
				assert.Zero(t, score)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, webScore(&fpl.Player{WebConsensus: tt.consensus}))
		})
	}
}

func TestCaptainPickScore(t *testing.T) {
	one := &fpl.Player{WebConsensus: map[string]fpl.WebMention{
		"scout": {CaptainPick: true},
	}}
	assert.Equal(t, 5.0, captainPickScore(one))

	three := &fpl.Player{WebConsensus: map[string]fpl.WebMention{
		"scout":    {CaptainPick: true},
		"expert-a": {CaptainPick: true},
		"expert-b": {CaptainPick: true},
	}}
	assert.Equal(t, 10.0, captainPickScore(three))
}
