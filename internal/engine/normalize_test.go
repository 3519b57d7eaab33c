package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "simple name lowercased",
			input:    "Mohamed Salah",
			expected: "mohamed salah",
		},
		{
			name:     "diacritics stripped",
			input:    "João Pedro",
			expected: "joao pedro",
		},
		{
			name:     "apostrophe and accent",
			input:    "N'Golo Kanté",
			expected: "ngolo kante",
		},
		{
			name:     "hyphen becomes space",
			input:    "Trent Alexander-Arnold",
			expected: "trent alexander arnold",
		},
		{
			name:     "generational suffix dropped",
			input:    "Vinicius Jr.",
			expected: "vinicius",
		},
		{
			name:     "extra whitespace collapsed",
			input:    "  Bukayo   Saka ",
			expected: "bukayo saka",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeName(tt.input))
		})
	}
}

func TestSimilarity(t *testing.T) {
	tests := []struct {
		name     string
		a        string
		b        string
		minScore int
		maxScore int
	}{
		{
			name:     "exact match",
			a:        "Mohamed Salah",
			b:        "Mohamed Salah",
			minScore: 100,
			maxScore: 100,
		},
		{
			name:     "punctuation variant still exact",
			a:        "Mohamed-Salah",
			b:        "Mohamed. Salah",
			minScore: 100,
			maxScore: 100,
		},
		{
			name:     "initialed first name",
			a:        "M. Salah",
			b:        "Mohamed Salah",
			minScore: 85,
			maxScore: 95,
		},
		{
			name:     "shortened first name",
			a:        "Mo Salah",
			b:        "Mohamed Salah",
			minScore: 80,
			maxScore: 95,
		},
		{
			name:     "surname-only web name",
			a:        "Salah",
			b:        "Mohamed Salah",
			minScore: 80,
			maxScore: 90,
		},
		{
			name:     "clearly different names stay below threshold",
			a:        "Harry Kane",
			b:        "Mohamed Salah",
			minScore: 0,
			maxScore: DefaultFuzzyThreshold - 1,
		},
		{
			name:     "empty input scores zero",
			a:        "",
			b:        "Mohamed Salah",
			minScore: 0,
			maxScore: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score := Similarity(tt.a, tt.b)
			assert.GreaterOrEqual(t, score, tt.minScore)
			assert.LessOrEqual(t, score, tt.maxScore)
		})
	}
}

func TestSimilaritySymmetry(t *testing.T) {
	pairs := [][2]string{
		{"Mohamed Salah", "M. Salah"},
		{"Salah", "Mohamed Salah"},
		{"Erling Haaland", "Harry Kane"},
	}

	for _, pair := range pairs {
		assert.Equal(t, Similarity(pair[0], pair[1]), Similarity(pair[1], pair[0]),
			"similarity should not depend on argument order for %q vs %q", pair[0], pair[1])
	}
}
