package providers

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jstittsworth/fpl-recommender/internal/fpl"
)

// Words the name pattern catches that are never player names.
var nameStopwords = map[string]bool{
	"premier":   true,
	"league":    true,
	"fantasy":   true,
	"gameweek":  true,
	"fpl":       true,
	"the":       true,
	"captain":   true,
	"transfer":  true,
	"wildcard":  true,
	"saturday":  true,
	"sunday":    true,
	"monday":    true,
	"tuesday":   true,
	"wednesday": true,
	"thursday":  true,
	"friday":    true,
	// Sentence-leading verbs and connectives that ride along with a name.
	"avoid":     true,
	"sell":      true,
	"sign":      true,
	"buy":       true,
	"bring":     true,
	"consider":  true,
	"meanwhile": true,
	"however":   true,
	"elsewhere": true,
	"while":     true,
	"after":     true,
	"despite":   true,
	"although":  true,
}

// ExpertScraper mines one independent expert site for player mentions and
// classifies each into a recommendation type, sentiment and injury status.
// Garbage name candidates are cheap: the resolver's threshold discards them.
type ExpertScraper struct {
	scraperBase
	name string
	url  string
}

func NewExpertScraper(url string, cache fpl.Cache, ttl time.Duration, rps float64) *ExpertScraper {
	return &ExpertScraper{
		scraperBase: newScraperBase(cache, ttl, rps),
		name:        sourceNameFromURL(url),
		url:         url,
	}
}

func (s *ExpertScraper) Name() string {
	return s.name
}

func (s *ExpertScraper) FetchRecords(ctx context.Context) ([]fpl.SourceRecord, error) {
	text, err := s.fetchText(ctx, s.url, "fpl:source:"+s.name)
	if err != nil {
		return nil, err
	}

	records := ParseExpertArticle(s.name, text)
	if len(records) == 0 {
		return nil, fpl.ErrSourceUnavailable
	}

	logrus.WithFields(logrus.Fields{
		"source":  s.name,
		"records": len(records),
	}).Debug("Expert article parsed")
	return records, nil
}

// ParseExpertArticle scans article prose sentence by sentence, emitting one
// record per plausible player-name run found near a classified statement.
func ParseExpertArticle(source, text string) []fpl.SourceRecord {
	records := make([]fpl.SourceRecord, 0, 32)

	for _, sentence := range sentenceSplitter.Split(text, -1) {
		sentence = strings.TrimSpace(sentence)
		if sentence == "" {
			continue
		}

		names := candidateNames(sentence)
		if len(names) == 0 {
			continue
		}

		mention := classifySentence(sentence)
		// A sentence with no signal at all is not worth a record.
		if mention.RecType == fpl.RecTypeGeneral && mention.Sentiment == 0 &&
			mention.InjuryStatus == "" && !mention.ExpectedStarter {
			continue
		}

		for _, name := range names {
			m := mention
			m.Source = source
			records = append(records, fpl.SourceRecord{
				Source:  source,
				RawName: name,
				Mention: m,
			})
		}
	}

	return records
}

// candidateNames pulls capitalized runs out of a sentence, dropping
// obvious non-names and single short tokens.
func candidateNames(sentence string) []string {
	matches := playerNamePattern.FindAllString(sentence, -1)
	out := make([]string, 0, len(matches))
	seen := make(map[string]bool)

	for _, m := range matches {
		fields := strings.Fields(m)
		kept := make([]string, 0, len(fields))
		for _, f := range fields {
			if nameStopwords[strings.ToLower(f)] {
				continue
			}
			kept = append(kept, f)
		}
		if len(kept) == 0 {
			continue
		}

		name := strings.Join(kept, " ")
		if len(kept) == 1 && len([]rune(name)) < 4 {
			continue
		}
		if seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}

	return out
}
