package engine

import (
	"fmt"
	"math"
	"sort"

	"github.com/jstittsworth/fpl-recommender/internal/fpl"
)

const weightTolerance = 1e-6

// InjuredScoreCeiling is the clamp applied to flagged players: low enough to
// never top a ranking, nonzero so the player stays visible.
const InjuredScoreCeiling = 2.0

const premiumPriceFloor = 10.0

// CompositeWeights is the validated weight table behind the overall player
// score. Overridable from config; the season meta shifts, the code does not.
type CompositeWeights struct {
	Form       float64 `json:"form" mapstructure:"form"`
	Fixtures   float64 `json:"fixtures" mapstructure:"fixtures"`
	Consensus  float64 `json:"consensus" mapstructure:"consensus"`
	Historical float64 `json:"historical" mapstructure:"historical"`
	Points     float64 `json:"points" mapstructure:"points"`
	ICT        float64 `json:"ict" mapstructure:"ict"`
}

func DefaultCompositeWeights() CompositeWeights {
	return CompositeWeights{
		Form:       0.25,
		Fixtures:   0.20,
		Consensus:  0.20,
		Historical: 0.15,
		Points:     0.12,
		ICT:        0.08,
	}
}

func (w CompositeWeights) Validate() error {
	sum := w.Form + w.Fixtures + w.Consensus + w.Historical + w.Points + w.ICT
	if math.Abs(sum-1.0) > weightTolerance {
		return fmt.Errorf("composite weights must sum to 1.0, got %.6f", sum)
	}
	return nil
}

// CaptainWeights is the validated weight table behind the captaincy score.
type CaptainWeights struct {
	Fixture      float64 `json:"fixture" mapstructure:"fixture"`
	Form         float64 `json:"form" mapstructure:"form"`
	Historical   float64 `json:"historical" mapstructure:"historical"`
	CaptainPicks float64 `json:"captain_picks" mapstructure:"captain_picks"`
}

func DefaultCaptainWeights() CaptainWeights {
	return CaptainWeights{
		Fixture:      0.40,
		Form:         0.25,
		Historical:   0.20,
		CaptainPicks: 0.15,
	}
}

func (w CaptainWeights) Validate() error {
	sum := w.Fixture + w.Form + w.Historical + w.CaptainPicks
	if math.Abs(sum-1.0) > weightTolerance {
		return fmt.Errorf("captain weights must sum to 1.0, got %.6f", sum)
	}
	return nil
}

var recTypeWeights = map[string]float64{
	fpl.RecTypeCaptain:      3.0,
	fpl.RecTypeEssential:    2.5,
	fpl.RecTypeTransferIn:   2.0,
	fpl.RecTypeDifferential: 1.5,
	fpl.RecTypeBudget:       1.0,
	fpl.RecTypeGeneral:      1.0,
	fpl.RecTypeAvoid:        -2.0,
}

// ScoringEngine annotates every player in a snapshot with its composite and
// captain scores. Pure computation over one immutable snapshot.
type ScoringEngine struct {
	composite     CompositeWeights
	captain       CaptainWeights
	fixtures      *FixtureDifficultyModel
	missingAsZero bool
}

func NewScoringEngine(composite CompositeWeights, captain CaptainWeights, fixtures *FixtureDifficultyModel, missingAsZero bool) (*ScoringEngine, error) {
	if err := composite.Validate(); err != nil {
		return nil, err
	}
	if err := captain.Validate(); err != nil {
		return nil, err
	}
	if fixtures == nil {
		fixtures = NewFixtureDifficultyModel(DefaultFixtureHorizon)
	}
	return &ScoringEngine{
		composite:     composite,
		captain:       captain,
		fixtures:      fixtures,
		missingAsZero: missingAsZero,
	}, nil
}

// RankFixtures orders the snapshot's teams by fixture ease for one position,
// easiest first.
func (e *ScoringEngine) RankFixtures(snap *fpl.Snapshot, pos fpl.Position) []RankedFixture {
	return e.fixtures.RankFixtures(snap, pos)
}

// ScoreResult reports which players could not be ranked.
type ScoreResult struct {
	Excluded []int
	excluded map[int]bool
}

func (r *ScoreResult) IsExcluded(id int) bool {
	return r.excluded[id]
}

// ScoreAll computes both scores for every rankable player in the pool.
// Players missing required metrics are excluded rather than scored with
// fabricated defaults, unless the treat-missing-as-zero policy is on.
func (e *ScoringEngine) ScoreAll(snap *fpl.Snapshot) *ScoreResult {
	e.fixtures.Annotate(snap)

	result := &ScoreResult{excluded: make(map[int]bool)}
	ids := snap.SortedPlayerIDs()

	// Raw metrics first, so normalization sees the whole pool's range.
	forward := make(map[int]float64, len(ids))
	rankable := make([]int, 0, len(ids))
	for _, id := range ids {
		p := snap.Players[id]
		fs, err := e.fixtures.ForwardScore(p)
		if err != nil {
			if !e.missingAsZero {
				result.excluded[id] = true
				result.Excluded = append(result.Excluded, id)
				p.CompositeScore = 0
				p.CaptainScore = 0
				continue
			}
			fs = 0
		}
		forward[id] = fs
		rankable = append(rankable, id)
	}
	sort.Ints(result.Excluded)

	formScale := buildScale(snap, rankable, func(p *fpl.Player) float64 { return p.Form })
	pointsScale := buildScale(snap, rankable, func(p *fpl.Player) float64 { return float64(p.TotalPoints) })
	ictScale := buildScale(snap, rankable, func(p *fpl.Player) float64 { return p.ICTIndex })
	histScale := buildScale(snap, rankable, func(p *fpl.Player) float64 { return historicalVsNext(p) })

	for _, id := range rankable {
		p := snap.Players[id]

		composite := e.composite.Form*formScale.norm(p.Form) +
			e.composite.Fixtures*forward[id] +
			e.composite.Consensus*webScore(p) +
			e.composite.Historical*histScale.norm(historicalVsNext(p)) +
			e.composite.Points*pointsScale.norm(float64(p.TotalPoints)) +
			e.composite.ICT*ictScale.norm(p.ICTIndex)

		p.CompositeScore = clampScore(composite)
		p.CaptainScore = clampScore(e.captainScore(p, formScale, histScale))

		if !isAvailable(p) {
			if p.CompositeScore > InjuredScoreCeiling {
				p.CompositeScore = InjuredScoreCeiling
			}
			if p.CaptainScore > InjuredScoreCeiling {
				p.CaptainScore = InjuredScoreCeiling
			}
		}
	}

	return result
}

func (e *ScoringEngine) captainScore(p *fpl.Player, formScale, histScale scale) float64 {
	if len(p.Fixtures) == 0 {
		return 0
	}
	next := p.Fixtures[0]

	score := e.captain.Fixture*fixtureEase(next.Difficulty) +
		e.captain.Form*formScale.norm(p.Form) +
		e.captain.Historical*histScale.norm(historicalVsNext(p)) +
		e.captain.CaptainPicks*captainPickScore(p)

	if next.Home {
		score += 0.5
	}
	if p.Price >= premiumPriceFloor {
		score += 0.5
	}

	return score * positionMultiplier(p.Position)
}

// ExpectedPoints estimates the single-gameweek return used alongside captain
// suggestions: form scaled by fixture ease and position, doubled for the arm
// band.
func (e *ScoringEngine) ExpectedPoints(p *fpl.Player) float64 {
	if len(p.Fixtures) == 0 {
		return 0
	}
	ease := float64(6-p.Fixtures[0].Difficulty) / 5.0
	return p.Form * ease * positionMultiplier(p.Position) * 2.0
}

func positionMultiplier(pos fpl.Position) float64 {
	switch pos {
	case fpl.PositionFWD:
		return 1.2
	case fpl.PositionMID:
		return 1.1
	case fpl.PositionDEF:
		return 0.9
	case fpl.PositionGK:
		return 0.5
	default:
		return 1.0
	}
}

// historicalVsNext is the player's aggregate points record against the next
// opponent, zero when either the fixture or the record is absent.
func historicalVsNext(p *fpl.Player) float64 {
	if len(p.Fixtures) == 0 || p.HistoryVsOpponent == nil {
		return 0
	}
	return p.HistoryVsOpponent[p.Fixtures[0].OpponentID]
}

// webScore condenses a player's web-consensus mentions into 0-10. Sources
// that never reported simply contribute nothing.
func webScore(p *fpl.Player) float64 {
	if len(p.WebConsensus) == 0 {
		return 0
	}

	sources := make([]string, 0, len(p.WebConsensus))
	for s := range p.WebConsensus {
		sources = append(sources, s)
	}
	sort.Strings(sources)

	var sum float64
	var starter, doubtful, out bool
	for _, s := range sources {
		m := p.WebConsensus[s]
		w, ok := recTypeWeights[m.RecType]
		if !ok {
			w = recTypeWeights[fpl.RecTypeGeneral]
		}
		sum += w * (m.Sentiment + 1.0)
		if m.ExpectedStarter {
			starter = true
		}
		switch m.InjuryStatus {
		case fpl.InjuryDoubtful:
			doubtful = true
		case fpl.InjuryOut, fpl.InjurySuspended:
			out = true
		}
	}

	if out {
		return 0
	}

	// Per-mention weights span [-4, 6]; rescale the average onto 0-10.
	score := sum / float64(len(sources)) * (10.0 / 6.0)
	if starter {
		score += 1.5
	}
	if len(sources) >= 3 {
		score += 1.0
	}
	if doubtful {
		score *= 0.5
	}

	return clampScore(score)
}

// captainPickScore rewards explicit armband endorsements across sources.
func captainPickScore(p *fpl.Player) float64 {
	picks := 0
	for _, m := range p.WebConsensus {
		if m.CaptainPick {
			picks++
		}
	}
	score := float64(picks) * 5.0
	if score > 10 {
		score = 10
	}
	return score
}

func isAvailable(p *fpl.Player) bool {
	if !p.Available {
		return false
	}
	for _, m := range p.WebConsensus {
		if m.InjuryStatus == fpl.InjuryOut || m.InjuryStatus == fpl.InjurySuspended {
			return false
		}
	}
	return true
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 10 {
		return 10
	}
	return v
}

// scale maps one raw metric's observed range onto 0-10 monotonically.
type scale struct {
	min, max float64
}

func buildScale(snap *fpl.Snapshot, ids []int, metric func(*fpl.Player) float64) scale {
	s := scale{min: math.Inf(1), max: math.Inf(-1)}
	for _, id := range ids {
		v := metric(snap.Players[id])
		if v < s.min {
			s.min = v
		}
		if v > s.max {
			s.max = v
		}
	}
	if len(ids) == 0 {
		return scale{}
	}
	return s
}

func (s scale) norm(v float64) float64 {
	if s.max <= s.min {
		return 5.0
	}
	return (v - s.min) / (s.max - s.min) * 10.0
}
