package providers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jstittsworth/fpl-recommender/internal/fpl"
)

func TestParseExpertArticle(t *testing.T) {
	article := `Mohamed Salah is essential this week and looks nailed for minutes.
Avoid Harry Kane after a woeful run of blanks.
Erling Haaland deserves the captain pick against a struggling defence.
Bukayo Saka is a brilliant differential at low ownership.
James Maddison has been ruled out for a month.
The weather on saturday should be fine.`

	records := ParseExpertArticle("fplhints", article)
	require.NotEmpty(t, records)

	byName := make(map[string]fpl.WebMention)
	for _, r := range records {
		assert.Equal(t, "fplhints", r.Source)
		byName[r.RawName] = r.Mention
	}

	salah, ok := byName["Mohamed Salah"]
	require.True(t, ok)
	assert.Equal(t, fpl.RecTypeEssential, salah.RecType)

	kane, ok := byName["Harry Kane"]
	require.True(t, ok, "leading verb must not stick to the name")
	assert.Equal(t, fpl.RecTypeAvoid, kane.RecType)
	assert.Equal(t, float64(-1), kane.Sentiment)

	haaland, ok := byName["Erling Haaland"]
	require.True(t, ok)
	assert.Equal(t, fpl.RecTypeCaptain, haaland.RecType)
	assert.True(t, haaland.CaptainPick)

	saka, ok := byName["Bukayo Saka"]
	require.True(t, ok)
	assert.Equal(t, fpl.RecTypeDifferential, saka.RecType)
	assert.Equal(t, float64(1), saka.Sentiment)

	maddison, ok := byName["James Maddison"]
	require.True(t, ok)
	assert.Equal(t, fpl.InjuryOut, maddison.InjuryStatus)
}

func TestParseExpertArticleNoSignal(t *testing.T) {
	assert.Empty(t, ParseExpertArticle("fplhints", ""))
	assert.Empty(t, ParseExpertArticle("fplhints", "John Smith walked past the stadium today."))
}

func TestClassifySentence(t *testing.T) {
	tests := []struct {
		name            string
		sentence        string
		recType         string
		sentiment       float64
		injuryStatus    string
		captainPick     bool
		expectedStarter bool
	}{
		{
			name:        "captain call",
			sentence:    "Give Salah the armband this week",
			recType:     fpl.RecTypeCaptain,
			captainPick: true,
		},
		{
			name:     "avoid beats essential keyword order",
			sentence: "Avoid him even if he looks essential",
			recType:  fpl.RecTypeAvoid,
		},
		{
			name:      "budget pick",
			sentence:  "A great bargain enabler at the back",
			recType:   fpl.RecTypeBudget,
			sentiment: 1,
		},
		{
			name:         "suspension detected",
			sentence:     "He is suspended for the next match",
			recType:      fpl.RecTypeGeneral,
			injuryStatus: fpl.InjurySuspended,
		},
		{
			name:            "expected starter",
			sentence:        "He is expected to start on the left",
			recType:         fpl.RecTypeGeneral,
			expectedStarter: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := classifySentence(tt.sentence)
			assert.Equal(t, tt.recType, m.RecType)
			assert.Equal(t, tt.sentiment, m.Sentiment)
			assert.Equal(t, tt.injuryStatus, m.InjuryStatus)
			assert.Equal(t, tt.captainPick, m.CaptainPick)
			assert.Equal(t, tt.expectedStarter, m.ExpectedStarter)
		})
	}
}

func TestSourceNameFromURL(t *testing.T) {
	assert.Equal(t, "fplhints", sourceNameFromURL("https://www.fplhints.com/articles/gw12"))
	assert.Equal(t, "fantasyfootballscout", sourceNameFromURL("https://fantasyfootballscout.co.uk/latest"))
	assert.Equal(t, "not a url", sourceNameFromURL("not a url"))
}
