package engine

import (
	"sort"

	"github.com/jstittsworth/fpl-recommender/internal/fpl"
)

// DefaultMinImprovement is the composite-score gain a swap needs before it
// is worth a transfer hit.
const DefaultMinImprovement = 0.5

const (
	differentialOwnership = 10.0
	templateOwnership     = 30.0
	lowOwnership          = 5.0
	consistencyRatio      = 15.0
)

// SearchConfig carries the externally tunable knobs of both searches.
type SearchConfig struct {
	NumTransfers   int
	PositionFilter fpl.Position
	TopN           int
	MinImprovement float64
}

func DefaultSearchConfig() SearchConfig {
	return SearchConfig{
		NumTransfers:   3,
		TopN:           3,
		MinImprovement: DefaultMinImprovement,
	}
}

// RecommendationSearch ranks legal transfers and captain choices over one
// scored snapshot. All ordering carries total tie-breaks down to player id,
// so identical snapshots produce identical output.
type RecommendationSearch struct {
	scorer *ScoringEngine
	cfg    SearchConfig
}

func NewRecommendationSearch(scorer *ScoringEngine, cfg SearchConfig) *RecommendationSearch {
	if cfg.NumTransfers <= 0 {
		cfg.NumTransfers = 3
	}
	if cfg.TopN <= 0 {
		cfg.TopN = 3
	}
	// Zero is a valid setting: any positive improvement qualifies. Only a
	// negative value is nonsensical.
	if cfg.MinImprovement < 0 {
		cfg.MinImprovement = 0
	}
	return &RecommendationSearch{scorer: scorer, cfg: cfg}
}

// SuggestTransfers enumerates same-position swaps that keep the squad
// budget-, club- and formation-legal, ranked by composite improvement.
// An incumbent with no improving candidate contributes nothing.
func (s *RecommendationSearch) SuggestTransfers(snap *fpl.Snapshot, scores *ScoreResult) ([]fpl.TransferSuggestion, error) {
	if snap.Squad == nil || len(snap.Squad.PlayerIDs) == 0 {
		return nil, fpl.ErrMalformedTeamReference
	}
	if len(snap.Players) == 0 {
		return nil, fpl.ErrNoPlayerPool
	}

	clubCounts := snap.Squad.ClubCounts(snap.Players)
	poolIDs := snap.SortedPlayerIDs()

	outIDs := append([]int(nil), snap.Squad.PlayerIDs...)
	sort.Ints(outIDs)

	suggestions := make([]fpl.TransferSuggestion, 0, len(outIDs))
	for _, outID := range outIDs {
		out, ok := snap.Players[outID]
		if !ok || scores.IsExcluded(outID) {
			continue
		}
		if s.cfg.PositionFilter != "" && out.Position != s.cfg.PositionFilter {
			continue
		}

		if best, ok := s.bestSwap(snap, scores, poolIDs, clubCounts, out); ok {
			suggestions = append(suggestions, best)
		}
	}

	sort.Slice(suggestions, func(i, j int) bool {
		if suggestions[i].Improvement != suggestions[j].Improvement {
			return suggestions[i].Improvement > suggestions[j].Improvement
		}
		if suggestions[i].CostDelta != suggestions[j].CostDelta {
			return suggestions[i].CostDelta < suggestions[j].CostDelta
		}
		if suggestions[i].InPlayerID != suggestions[j].InPlayerID {
			return suggestions[i].InPlayerID < suggestions[j].InPlayerID
		}
		return suggestions[i].OutPlayerID < suggestions[j].OutPlayerID
	})

	if len(suggestions) > s.cfg.NumTransfers {
		suggestions = suggestions[:s.cfg.NumTransfers]
	}
	return suggestions, nil
}

// bestSwap finds the strongest legal replacement for one incumbent.
func (s *RecommendationSearch) bestSwap(snap *fpl.Snapshot, scores *ScoreResult, poolIDs []int, clubCounts map[int]int, out *fpl.Player) (fpl.TransferSuggestion, bool) {
	budget := snap.Squad.Bank + out.Price

	var best fpl.TransferSuggestion
	found := false

	for _, inID := range poolIDs {
		in := snap.Players[inID]
		if in.ID == out.ID || in.Position != out.Position {
			continue
		}
		if scores.IsExcluded(inID) || snap.Squad.Contains(inID) {
			continue
		}
		if in.Price > budget {
			continue
		}
		if swapBreaksClubLimit(clubCounts, out.TeamID, in.TeamID) {
			continue
		}

		improvement := in.CompositeScore - out.CompositeScore
		if improvement <= s.cfg.MinImprovement {
			continue
		}

		cand := fpl.TransferSuggestion{
			OutPlayerID: out.ID,
			InPlayerID:  in.ID,
			OutName:     out.Name,
			InName:      in.Name,
			Improvement: improvement,
			CostDelta:   in.Price - out.Price,
			Position:    out.Position,
		}
		if !found || betterSwap(cand, best) {
			best = cand
			found = true
		}
	}

	return best, found
}

func betterSwap(a, b fpl.TransferSuggestion) bool {
	if a.Improvement != b.Improvement {
		return a.Improvement > b.Improvement
	}
	if a.CostDelta != b.CostDelta {
		return a.CostDelta < b.CostDelta
	}
	return a.InPlayerID < b.InPlayerID
}

// swapBreaksClubLimit checks the max-per-club rule after removing the
// incumbent and adding the candidate. Same-position swaps keep formation
// counts intact by construction.
func swapBreaksClubLimit(clubCounts map[int]int, outTeam, inTeam int) bool {
	if inTeam == outTeam {
		return false
	}
	return clubCounts[inTeam]+1 > fpl.MaxPerClub
}

// SuggestCaptains ranks the current squad by captain score, best first, with
// the provenance a manager needs to sanity-check the pick.
func (s *RecommendationSearch) SuggestCaptains(snap *fpl.Snapshot, scores *ScoreResult) ([]fpl.CaptainSuggestion, error) {
	if snap.Squad == nil || len(snap.Squad.PlayerIDs) == 0 {
		return nil, fpl.ErrMalformedTeamReference
	}
	if len(snap.Players) == 0 {
		return nil, fpl.ErrNoPlayerPool
	}

	ids := append([]int(nil), snap.Squad.PlayerIDs...)
	sort.Ints(ids)

	suggestions := make([]fpl.CaptainSuggestion, 0, len(ids))
	for _, id := range ids {
		p, ok := snap.Players[id]
		if !ok || scores.IsExcluded(id) || len(p.Fixtures) == 0 {
			continue
		}
		suggestions = append(suggestions, s.captainSuggestion(p))
	}

	sortCaptains(suggestions)

	if len(suggestions) > s.cfg.TopN {
		suggestions = suggestions[:s.cfg.TopN]
	}
	return suggestions, nil
}

// SuggestViceCaptain picks the most reliable deputy: the captain ranking re-
// weighted toward consistency, excluding the captain himself.
func (s *RecommendationSearch) SuggestViceCaptain(snap *fpl.Snapshot, scores *ScoreResult, captainID int) (*fpl.CaptainSuggestion, error) {
	if snap.Squad == nil || len(snap.Squad.PlayerIDs) == 0 {
		return nil, fpl.ErrMalformedTeamReference
	}

	ids := append([]int(nil), snap.Squad.PlayerIDs...)
	sort.Ints(ids)

	candidates := make([]fpl.CaptainSuggestion, 0, len(ids))
	for _, id := range ids {
		p, ok := snap.Players[id]
		if !ok || id == captainID || scores.IsExcluded(id) || len(p.Fixtures) == 0 {
			continue
		}

		sug := s.captainSuggestion(p)
		if p.SelectedBy < lowOwnership {
			sug.CaptainScore *= 0.8
		}
		if p.Form > 0 && float64(p.TotalPoints)/p.Form > consistencyRatio {
			sug.CaptainScore = clampScore(sug.CaptainScore + 0.5)
		}
		candidates = append(candidates, sug)
	}

	if len(candidates) == 0 {
		return nil, fpl.ErrInsufficientData
	}

	sortCaptains(candidates)
	vice := candidates[0]
	return &vice, nil
}

func (s *RecommendationSearch) captainSuggestion(p *fpl.Player) fpl.CaptainSuggestion {
	return fpl.CaptainSuggestion{
		PlayerID:          p.ID,
		Name:              p.Name,
		CaptainScore:      p.CaptainScore,
		ExpectedPoints:    s.scorer.ExpectedPoints(p),
		Form:              p.Form,
		FixtureDifficulty: p.Fixtures[0].Difficulty,
		HistoricalPoints:  historicalVsNext(p),
		ScoutPick:         isScoutPick(p),
		RationaleTags:     rationaleTags(p),
	}
}

func sortCaptains(suggestions []fpl.CaptainSuggestion) {
	sort.Slice(suggestions, func(i, j int) bool {
		if suggestions[i].CaptainScore != suggestions[j].CaptainScore {
			return suggestions[i].CaptainScore > suggestions[j].CaptainScore
		}
		return suggestions[i].PlayerID < suggestions[j].PlayerID
	})
}

// ScoutSourceName is the web-consensus key of the official scout selection.
const ScoutSourceName = "scout"

func isScoutPick(p *fpl.Player) bool {
	_, ok := p.WebConsensus[ScoutSourceName]
	return ok
}

// rationaleTags emits the fixed-order provenance tags shown to the manager.
func rationaleTags(p *fpl.Player) []string {
	tags := make([]string, 0, 6)
	if isScoutPick(p) {
		tags = append(tags, "scout-pick")
	}
	if len(p.Fixtures) > 0 && p.Fixtures[0].Difficulty <= 2 {
		tags = append(tags, "easy-run")
	}
	if p.Form >= 6.0 {
		tags = append(tags, "in-form")
	}
	if p.Price >= premiumPriceFloor {
		tags = append(tags, "premium")
	}
	if p.SelectedBy > 0 && p.SelectedBy < differentialOwnership {
		tags = append(tags, "differential")
	}
	if p.SelectedBy > templateOwnership {
		tags = append(tags, "template")
	}
	return tags
}
