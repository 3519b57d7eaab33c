package engine

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var nameSuffixes = map[string]bool{
	"jr":  true,
	"sr":  true,
	"ii":  true,
	"iii": true,
	"iv":  true,
}

var accentStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeName produces the comparison form of a scraped name: case-folded,
// accents and punctuation stripped, generational suffixes dropped, whitespace
// collapsed.
func NormalizeName(name string) string {
	normalized := strings.ToLower(name)

	if stripped, _, err := transform.String(accentStripper, normalized); err == nil {
		normalized = stripped
	}

	normalized = strings.ReplaceAll(normalized, "-", " ")
	normalized = strings.ReplaceAll(normalized, "'", "")
	normalized = strings.ReplaceAll(normalized, ".", "")
	normalized = strings.ReplaceAll(normalized, ",", "")

	parts := strings.Fields(normalized)
	if len(parts) > 1 && nameSuffixes[parts[len(parts)-1]] {
		parts = parts[:len(parts)-1]
	}

	return strings.Join(parts, " ")
}

// Similarity scores two raw names on a 0-100 scale. Exact normalized match
// is 100; first+last token agreement scores high; everything else falls back
// to an edit-distance ratio over the token-sorted forms.
func Similarity(a, b string) int {
	na := NormalizeName(a)
	nb := NormalizeName(b)

	if na == "" || nb == "" {
		return 0
	}
	if na == nb {
		return 100
	}

	partsA := strings.Fields(na)
	partsB := strings.Fields(nb)

	if len(partsA) >= 2 && len(partsB) >= 2 {
		firstA, lastA := partsA[0], partsA[len(partsA)-1]
		firstB, lastB := partsB[0], partsB[len(partsB)-1]

		if lastA == lastB {
			if firstA == firstB {
				return 95
			}
			// Initialed first names ("M. Salah" vs "Mohamed Salah").
			if len(firstA) == 1 && strings.HasPrefix(firstB, firstA) {
				return 90
			}
			if len(firstB) == 1 && strings.HasPrefix(firstA, firstB) {
				return 90
			}
			if strings.Contains(firstA, firstB) || strings.Contains(firstB, firstA) {
				return 85
			}
		}
	}

	// Single-token web names ("Salah") match the last token of a full name,
	// but at reduced confidence so common surnames need a team hint.
	if len(partsA) == 1 && len(partsB) >= 2 && partsA[0] == partsB[len(partsB)-1] {
		return 82
	}
	if len(partsB) == 1 && len(partsA) >= 2 && partsB[0] == partsA[len(partsA)-1] {
		return 82
	}

	return ratio(tokenSort(na), tokenSort(nb))
}

func tokenSort(s string) string {
	parts := strings.Fields(s)
	for i := 1; i < len(parts); i++ {
		for j := i; j > 0 && parts[j] < parts[j-1]; j-- {
			parts[j], parts[j-1] = parts[j-1], parts[j]
		}
	}
	return strings.Join(parts, " ")
}

func ratio(a, b string) int {
	longest := len(a)
	if len(b) > longest {
		longest = len(b)
	}
	if longest == 0 {
		return 0
	}
	dist := levenshtein(a, b)
	return (longest - dist) * 100 / longest
}

func levenshtein(a, b string) int {
	ra := []rune(a)
	rb := []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min3(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}

	return prev[len(rb)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
