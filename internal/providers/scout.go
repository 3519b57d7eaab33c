package providers

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jstittsworth/fpl-recommender/internal/fpl"
)

// ScoutSourceName keys the official Scout Selection in web-consensus maps.
const ScoutSourceName = "scout"

// ScoutScraper reads the official Scout Selection XI article: the picked
// players, the armband call, the vice-captaincy call and the formation.
type ScoutScraper struct {
	scraperBase
	url string

	mu        sync.Mutex
	formation string
}

func NewScoutScraper(url string, cache fpl.Cache, ttl time.Duration, rps float64) *ScoutScraper {
	return &ScoutScraper{
		scraperBase: newScraperBase(cache, ttl, rps),
		url:         url,
	}
}

func (s *ScoutScraper) Name() string {
	return ScoutSourceName
}

func (s *ScoutScraper) FetchRecords(ctx context.Context) ([]fpl.SourceRecord, error) {
	text, err := s.fetchText(ctx, s.url, "fpl:source:"+ScoutSourceName)
	if err != nil {
		return nil, err
	}

	records := ParseScoutSelection(text)
	if len(records) == 0 {
		return nil, fpl.ErrSourceUnavailable
	}

	s.mu.Lock()
	s.formation = ParseFormation(text)
	s.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"source":  ScoutSourceName,
		"records": len(records),
	}).Debug("Scout selection parsed")
	return records, nil
}

// Formation returns the shape parsed by the latest successful fetch, or ""
// when the article omitted one.
func (s *ScoutScraper) Formation() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.formation
}

// ParseScoutSelection extracts source records from the article text. Pure
// function; the tests feed it fixture prose directly.
func ParseScoutSelection(text string) []fpl.SourceRecord {
	records := make([]fpl.SourceRecord, 0, 16)

	captainName := ""
	if m := armbandPattern.FindStringSubmatch(text); len(m) > 1 {
		captainName = lastNameRun(m[1])
	}
	viceName := ""
	if m := vicePattern.FindStringSubmatch(text); len(m) > 1 {
		viceName = lastNameRun(m[1])
	}

	seen := make(map[string]bool)
	for _, m := range pickPattern.FindAllStringSubmatch(text, -1) {
		name := strings.TrimSpace(m[1])
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true

		mention := fpl.WebMention{
			Source:          ScoutSourceName,
			RecType:         fpl.RecTypeEssential,
			Sentiment:       1,
			ExpectedStarter: true,
			Rank:            len(records) + 1,
		}
		if captainName != "" && strings.EqualFold(name, captainName) {
			mention.RecType = fpl.RecTypeCaptain
			mention.CaptainPick = true
		}

		records = append(records, fpl.SourceRecord{
			Source:   ScoutSourceName,
			RawName:  name,
			TeamHint: strings.ToUpper(m[2]),
			Mention:  mention,
		})
	}

	// The armband or vice call can name a player outside the listed XI.
	for _, name := range []string{captainName, viceName} {
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		records = append(records, fpl.SourceRecord{
			Source:  ScoutSourceName,
			RawName: name,
			Mention: fpl.WebMention{
				Source:      ScoutSourceName,
				RecType:     fpl.RecTypeCaptain,
				Sentiment:   1,
				CaptainPick: name == captainName,
			},
		})
	}

	return records
}

// ParseFormation returns the article's formation string, e.g. "3-4-3".
func ParseFormation(text string) string {
	if m := formationPattern.FindStringSubmatch(text); len(m) == 4 {
		return m[1] + "-" + m[2] + "-" + m[3]
	}
	return ""
}

// lastNameRun trims a regex capture down to the trailing capitalized name
// run, dropping the sentence lead-in the lazy match drags along.
func lastNameRun(capture string) string {
	fields := strings.Fields(strings.TrimSpace(capture))
	start := len(fields)
	for i := len(fields) - 1; i >= 0; i-- {
		r := []rune(fields[i])
		if len(r) == 0 || !strings.ContainsRune("ABCDEFGHIJKLMNOPQRSTUVWXYZÀÁÂÄÉÈÊÍÎÓÖÚÜÑ", r[0]) {
			break
		}
		start = i
	}
	if start == len(fields) {
		return ""
	}
	return strings.Join(fields[start:], " ")
}
