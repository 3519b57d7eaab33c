package engine

import (
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/jstittsworth/fpl-recommender/internal/fpl"
)

// DefaultFuzzyThreshold is the minimum 0-100 similarity an unkeyed source
// record needs before it may merge into a canonical player.
const DefaultFuzzyThreshold = 80

// Resolver assigns source records without an authoritative id to canonical
// players. Records below the threshold are discarded, never force-merged.
type Resolver struct {
	threshold int
}

// ResolveStats summarizes one resolution pass.
type ResolveStats struct {
	Matched    int
	Unresolved int
}

// Err reports a pass with discarded records as an error. A partial pass is
// not fatal; callers decide whether to log or abort.
func (s ResolveStats) Err() error {
	if s.Unresolved > 0 {
		return fmt.Errorf("%d of %d records unresolved: %w", s.Unresolved, s.Matched+s.Unresolved, fpl.ErrUnresolvedIdentity)
	}
	return nil
}

func NewResolver(threshold int) *Resolver {
	if threshold <= 0 {
		threshold = DefaultFuzzyThreshold
	}
	return &Resolver{threshold: threshold}
}

// Resolve merges records into the pool's web-consensus maps. The pool itself
// is authoritative: players absent from it are never created. Resolution is
// idempotent for identical inputs.
func (r *Resolver) Resolve(pool map[int]*fpl.Player, records []fpl.SourceRecord) ResolveStats {
	var stats ResolveStats

	ids := make([]int, 0, len(pool))
	for id := range pool {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	for _, rec := range records {
		player := r.match(pool, ids, rec)
		if player == nil {
			stats.Unresolved++
			logrus.WithFields(logrus.Fields{
				"source": rec.Source,
				"name":   rec.RawName,
			}).Debug("Source record did not resolve to a canonical player")
			continue
		}

		if player.WebConsensus == nil {
			player.WebConsensus = make(map[string]fpl.WebMention)
		}
		mention := rec.Mention
		mention.Source = rec.Source
		player.WebConsensus[rec.Source] = mergeMention(player.WebConsensus[rec.Source], mention)
		stats.Matched++
	}

	return stats
}

// match returns the best candidate at or above the threshold, or nil. Ties
// resolve to the lexicographically-first normalized name, then the lower id.
func (r *Resolver) match(pool map[int]*fpl.Player, ids []int, rec fpl.SourceRecord) *fpl.Player {
	candidates := ids
	if rec.TeamHint != "" {
		if narrowed := filterByTeam(pool, ids, rec.TeamHint); len(narrowed) > 0 {
			candidates = narrowed
		}
	}

	bestScore := 0
	var best *fpl.Player
	var bestName string

	for _, id := range candidates {
		p := pool[id]
		score := bestVariantScore(p, rec.RawName)
		if score < r.threshold || score < bestScore {
			continue
		}
		normalized := NormalizeName(p.Name)
		if score > bestScore || normalized < bestName {
			bestScore = score
			best = p
			bestName = normalized
		}
	}

	return best
}

func bestVariantScore(p *fpl.Player, rawName string) int {
	best := Similarity(p.Name, rawName)
	if s := Similarity(p.WebName, rawName); s > best {
		best = s
	}
	for _, v := range p.NameVariants {
		if s := Similarity(v, rawName); s > best {
			best = s
		}
	}
	return best
}

func filterByTeam(pool map[int]*fpl.Player, ids []int, hint string) []int {
	normalized := NormalizeName(hint)
	out := make([]int, 0, 32)
	for _, id := range ids {
		p := pool[id]
		if NormalizeName(p.Team) == normalized {
			out = append(out, id)
		}
	}
	return out
}

// mergeMention folds a repeat mention from the same source into the stored
// one. Signals only strengthen: a captain pick or injury flag is never lost
// to a later weaker mention.
func mergeMention(existing, incoming fpl.WebMention) fpl.WebMention {
	if existing.Source == "" {
		return incoming
	}
	if incoming.CaptainPick {
		existing.CaptainPick = true
	}
	if incoming.ExpectedStarter {
		existing.ExpectedStarter = true
	}
	if existing.InjuryStatus == "" {
		existing.InjuryStatus = incoming.InjuryStatus
	}
	if recTypePriority(incoming.RecType) > recTypePriority(existing.RecType) {
		existing.RecType = incoming.RecType
		existing.Sentiment = incoming.Sentiment
	}
	if existing.Rank == 0 || (incoming.Rank > 0 && incoming.Rank < existing.Rank) {
		existing.Rank = incoming.Rank
	}
	return existing
}

func recTypePriority(t string) int {
	switch t {
	case fpl.RecTypeCaptain:
		return 6
	case fpl.RecTypeEssential:
		return 5
	case fpl.RecTypeTransferIn:
		return 4
	case fpl.RecTypeDifferential:
		return 3
	case fpl.RecTypeBudget:
		return 2
	case fpl.RecTypeAvoid:
		return 2
	default:
		return 1
	}
}
