package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jstittsworth/fpl-recommender/internal/fpl"
)

func testPool() map[int]*fpl.Player {
	return map[int]*fpl.Player{
		101: {ID: 101, Name: "Mohamed Salah", WebName: "M.Salah", Team: "LIV", TeamID: 1, Position: fpl.PositionMID},
		102: {ID: 102, Name: "Darwin Núñez", WebName: "Núñez", Team: "LIV", TeamID: 1, Position: fpl.PositionFWD},
		103: {ID: 103, Name: "James Ward-Prowse", WebName: "Ward-Prowse", Team: "WHU", TeamID: 2, Position: fpl.PositionMID},
		104: {ID: 104, Name: "James Maddison", WebName: "Maddison", Team: "TOT", TeamID: 3, Position: fpl.PositionMID},
	}
}

func TestResolverMatchesAcrossSources(t *testing.T) {
	tests := []struct {
		name       string
		record     fpl.SourceRecord
		expectedID int
		matched    bool
	}{
		{
			name:       "diacritic variant resolves",
			record:     fpl.SourceRecord{Source: "expert-a", RawName: "Darwin Nunez"},
			expectedID: 102,
			matched:    true,
		},
		{
			name:       "punctuation variant resolves",
			record:     fpl.SourceRecord{Source: "expert-a", RawName: "Mohamed. Salah"},
			expectedID: 101,
			matched:    true,
		},
		{
			name:       "team hint disambiguates shared first name",
			record:     fpl.SourceRecord{Source: "expert-b", RawName: "James", TeamHint: "WHU"},
			expectedID: 103,
			matched:    false, // single first name alone stays below threshold
		},
		{
			name:       "hyphenated surname with hint",
			record:     fpl.SourceRecord{Source: "expert-b", RawName: "Ward Prowse", TeamHint: "WHU"},
			expectedID: 103,
			matched:    true,
		},
		{
			name:    "unknown player is discarded not invented",
			record:  fpl.SourceRecord{Source: "expert-a", RawName: "Erling Haaland"},
			matched: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pool := testPool()
			resolver := NewResolver(DefaultFuzzyThreshold)

			stats := resolver.Resolve(pool, []fpl.SourceRecord{tt.record})

			if !tt.matched {
				assert.Equal(t, 1, stats.Unresolved)
				for _, p := range pool {
					assert.Empty(t, p.WebConsensus)
				}
				return
			}

			require.Equal(t, 1, stats.Matched)
			require.NotNil(t, pool[tt.expectedID].WebConsensus)
			_, ok := pool[tt.expectedID].WebConsensus[tt.record.Source]
			assert.True(t, ok, "mention should land on player %d", tt.expectedID)

			for id, p := range pool {
				if id != tt.expectedID {
					assert.Empty(t, p.WebConsensus, "player %d should be untouched", id)
				}
			}
		})
	}
}

func TestResolverIdempotence(t *testing.T) {
	pool := testPool()
	resolver := NewResolver(DefaultFuzzyThreshold)

	records := []fpl.SourceRecord{
		{Source: "scout", RawName: "Mohamed Salah", Mention: fpl.WebMention{RecType: fpl.RecTypeCaptain, CaptainPick: true}},
		{Source: "expert-a", RawName: "Darwin Nunez", Mention: fpl.WebMention{RecType: fpl.RecTypeTransferIn, Sentiment: 0.5}},
	}

	first := resolver.Resolve(pool, records)
	salahAfterFirst := pool[101].WebConsensus["scout"]
	nunezAfterFirst := pool[102].WebConsensus["expert-a"]

	second := resolver.Resolve(pool, records)

	assert.Equal(t, first.Matched, second.Matched)
	assert.Equal(t, salahAfterFirst, pool[101].WebConsensus["scout"])
	assert.Equal(t, nunezAfterFirst, pool[102].WebConsensus["expert-a"])
	assert.Len(t, pool[101].WebConsensus, 1)
	assert.Len(t, pool[102].WebConsensus, 1)
}

func TestResolverTieBreakIsDeterministic(t *testing.T) {
	// Two candidates with identical similarity to the record: the
	// lexicographically-first normalized name must win every time.
	pool := map[int]*fpl.Player{
		7: {ID: 7, Name: "Gabriel Barbosa", WebName: "Gabriel", Team: "ARS", TeamID: 1},
		9: {ID: 9, Name: "Gabriel Teodoro", WebName: "Gabriel", Team: "ARS", TeamID: 1},
	}

	resolver := NewResolver(DefaultFuzzyThreshold)
	record := fpl.SourceRecord{Source: "expert-a", RawName: "Gabriel"}

	for i := 0; i < 10; i++ {
		p := testPoolCopy(pool)
		resolver.Resolve(p, []fpl.SourceRecord{record})
		_, onBarbosa := p[7].WebConsensus["expert-a"]
		assert.True(t, onBarbosa, "run %d resolved to the wrong candidate", i)
		assert.Empty(t, p[9].WebConsensus)
	}
}

func TestResolveStatsErr(t *testing.T) {
	assert.NoError(t, ResolveStats{Matched: 3}.Err())

	err := ResolveStats{Matched: 3, Unresolved: 2}.Err()
	require.Error(t, err)
	assert.ErrorIs(t, err, fpl.ErrUnresolvedIdentity)
	assert.Contains(t, err.Error(), "2 of 5")
}

func TestMergeMentionStrengthensOnly(t *testing.T) {
	existing := fpl.WebMention{Source: "expert-a", RecType: fpl.RecTypeCaptain, CaptainPick: true, InjuryStatus: fpl.InjuryDoubtful}
	incoming := fpl.WebMention{Source: "expert-a", RecType: fpl.RecTypeGeneral}

	merged := mergeMention(existing, incoming)

	assert.True(t, merged.CaptainPick)
	assert.Equal(t, fpl.RecTypeCaptain, merged.RecType)
	assert.Equal(t, fpl.InjuryDoubtful, merged.InjuryStatus)
}

func testPoolCopy(pool map[int]*fpl.Player) map[int]*fpl.Player {
	out := make(map[int]*fpl.Player, len(pool))
	for id, p := range pool {
		clone := *p
		clone.WebConsensus = nil
		out[id] = &clone
	}
	return out
}
