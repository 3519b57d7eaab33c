package providers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jstittsworth/fpl-recommender/internal/fpl"
)

const scoutArticle = `The Scout Selection lines up in a 3-4-3 formation this week.
Mohamed Salah (LIV) £12.9m leads the midfield once again.
Ollie Watkins (AVL) £8.9m gets the nod up front.
Gabriel Magalhaes (ARS) £6.1m anchors the defence.
after another stunning haul, Erling Haaland earns the armband.
The vice-captaincy goes to Mohamed Salah.`

func TestParseScoutSelection(t *testing.T) {
	records := ParseScoutSelection(scoutArticle)
	require.NotEmpty(t, records)

	byName := make(map[string]fpl.SourceRecord)
	for _, r := range records {
		byName[r.RawName] = r
		assert.Equal(t, ScoutSourceName, r.Source)
	}

	salah, ok := byName["Mohamed Salah"]
	require.True(t, ok, "picked players must be extracted")
	assert.Equal(t, "LIV", salah.TeamHint)
	assert.Equal(t, fpl.RecTypeEssential, salah.Mention.RecType)
	assert.True(t, salah.Mention.ExpectedStarter)
	assert.Equal(t, 1, salah.Mention.Rank)

	watkins, ok := byName["Ollie Watkins"]
	require.True(t, ok)
	assert.Equal(t, "AVL", watkins.TeamHint)

	haaland, ok := byName["Erling Haaland"]
	require.True(t, ok, "the armband holder must be extracted even outside the XI")
	assert.True(t, haaland.Mention.CaptainPick)
	assert.Equal(t, fpl.RecTypeCaptain, haaland.Mention.RecType)
}

func TestParseScoutSelectionEmptyText(t *testing.T) {
	assert.Empty(t, ParseScoutSelection(""))
	assert.Empty(t, ParseScoutSelection("No player listings in this article at all."))
}

// stubTextCache serves a canned article through the cache-first fetch path,
// so no HTTP request is made.
type stubTextCache struct {
	text string
}

func (c *stubTextCache) SetSimple(string, interface{}, time.Duration) error { return nil }

func (c *stubTextCache) GetSimple(key string, dest interface{}) error {
	s, ok := dest.(*string)
	if !ok {
		return errors.New("unexpected destination type")
	}
	*s = c.text
	return nil
}

func (c *stubTextCache) Flush() error { return nil }

func TestScoutScraperCapturesFormation(t *testing.T) {
	scraper := NewScoutScraper("https://example.com/scout-selection",
		&stubTextCache{text: scoutArticle}, time.Hour, 1)

	assert.Equal(t, "", scraper.Formation(), "no formation before the first fetch")

	records, err := scraper.FetchRecords(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, records)
	assert.Equal(t, "3-4-3", scraper.Formation())
}

func TestParseFormation(t *testing.T) {
	assert.Equal(t, "3-4-3", ParseFormation(scoutArticle))
	assert.Equal(t, "", ParseFormation("no shape mentioned"))
}

func TestLastNameRun(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "trailing name only",
			input:    "after another stunning haul, Erling Haaland",
			expected: "Erling Haaland",
		},
		{
			name:     "bare name",
			input:    "Mohamed Salah",
			expected: "Mohamed Salah",
		},
		{
			name:     "no capitalized run",
			input:    "nothing here",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, lastNameRun(tt.input))
		})
	}
}
