package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"github.com/jstittsworth/fpl-recommender/internal/fpl"
)

const scraperUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"

// SourceScraper is the common contract of every scraped source.
type SourceScraper interface {
	Name() string
	FetchRecords(ctx context.Context) ([]fpl.SourceRecord, error)
}

// scraperBase holds the plumbing shared by the scout and expert scrapers:
// paced, cache-fronted document fetches.
type scraperBase struct {
	client  *http.Client
	cache   fpl.Cache
	ttl     time.Duration
	limiter *rate.Limiter
}

func newScraperBase(cache fpl.Cache, ttl time.Duration, rps float64) scraperBase {
	if rps <= 0 {
		rps = 0.5
	}
	return scraperBase{
		client:  &http.Client{Timeout: 15 * time.Second},
		cache:   cache,
		ttl:     ttl,
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
	}
}

// fetchText returns the readable text of a page, cache first.
func (b *scraperBase) fetchText(ctx context.Context, pageURL, cacheKey string) (string, error) {
	if b.cache != nil {
		var cached string
		if err := b.cache.GetSimple(cacheKey, &cached); err == nil && cached != "" {
			return cached, nil
		}
	}

	if err := b.limiter.Wait(ctx); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", scraperUserAgent)

	resp, err := b.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d for %s", resp.StatusCode, pageURL)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	doc.Find("h1, h2, h3, p, li").Each(func(_ int, sel *goquery.Selection) {
		text := strings.TrimSpace(sel.Text())
		if text != "" {
			sb.WriteString(text)
			sb.WriteString("\n")
		}
	})

	text := sb.String()
	if b.cache != nil {
		_ = b.cache.SetSimple(cacheKey, text, b.ttl)
	}
	return text, nil
}

// sourceNameFromURL derives a stable source key from a site host.
func sourceNameFromURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}
	host := strings.TrimPrefix(u.Host, "www.")
	if i := strings.IndexByte(host, '.'); i > 0 {
		host = host[:i]
	}
	return host
}

// playerNamePattern finds capitalized name runs inside prose, e.g.
// "Mohamed Salah" or "Alexander-Arnold".
var playerNamePattern = regexp.MustCompile(`\b[A-ZÀ-Þ][\wÀ-ÿ'\-]+(?:\s+[A-ZÀ-Þ][\wÀ-ÿ'\-]+){0,2}\b`)

// pickPattern matches the scout article's "Name (TEA) £7.5m" listings.
var pickPattern = regexp.MustCompile(`([A-ZÀ-Þ][\wÀ-ÿ'\-\.]+(?:\s+[A-ZÀ-Þ][\wÀ-ÿ'\-\.]+)*)\s*\(([A-Za-z]{2,3})\)\s*£(\d+\.\d)m`)

// armbandPattern extracts the scout's captain call.
var armbandPattern = regexp.MustCompile(`(?i)([\w\s'\-\.]+?)\s+earns?\s+the\s+armband`)

// vicePattern extracts the vice-captaincy call.
var vicePattern = regexp.MustCompile(`(?i)vice[\s-]?captain(?:cy)?\s+(?:goes\s+to|for|is)\s+([\w\s'\-\.]+?)[\.,\n]`)

// formationPattern matches "3-4-3 formation" style mentions.
var formationPattern = regexp.MustCompile(`(\d)-(\d)-(\d)\s+formation`)

var sentenceSplitter = regexp.MustCompile(`[.!?\n]+`)

type keywordClass struct {
	recType  string
	keywords []string
}

// Classification order matters: the first class whose keyword appears wins,
// so stronger calls shadow generic ones.
var recTypeClasses = []keywordClass{
	{fpl.RecTypeCaptain, []string{"captain", "armband", "triple captain"}},
	{fpl.RecTypeAvoid, []string{"avoid", "sell", "transfer out", "ship out", "offload"}},
	{fpl.RecTypeEssential, []string{"essential", "must-have", "must have", "nailed", "lock"}},
	{fpl.RecTypeTransferIn, []string{"transfer in", "bring in", "sign", "move for", "draft in"}},
	{fpl.RecTypeDifferential, []string{"differential", "punt", "under the radar", "low owned"}},
	{fpl.RecTypeBudget, []string{"budget", "bargain", "enabler", "cheap"}},
}

var positiveWords = []string{"great", "excellent", "brilliant", "superb", "in form", "firing", "flying", "strong", "impressive", "prolific"}

var negativeWords = []string{"poor", "struggling", "blank", "woeful", "misfiring", "drought", "concern", "worrying", "risky"}

// classifySentence maps one sentence of expert prose to a mention.
func classifySentence(sentence string) fpl.WebMention {
	lower := strings.ToLower(sentence)

	mention := fpl.WebMention{RecType: fpl.RecTypeGeneral}
	for _, class := range recTypeClasses {
		if containsAny(lower, class.keywords) {
			mention.RecType = class.recType
			break
		}
	}
	if mention.RecType == fpl.RecTypeCaptain {
		mention.CaptainPick = true
	}

	mention.Sentiment = sentimentOf(lower)
	mention.InjuryStatus = injuryStatusOf(lower)

	if containsAny(lower, []string{"expected to start", "set to start", "starts", "in the starting"}) {
		mention.ExpectedStarter = true
	}

	return mention
}

func sentimentOf(lower string) float64 {
	score := 0
	for _, w := range positiveWords {
		if strings.Contains(lower, w) {
			score++
		}
	}
	for _, w := range negativeWords {
		if strings.Contains(lower, w) {
			score--
		}
	}
	switch {
	case score > 0:
		return 1
	case score < 0:
		return -1
	default:
		return 0
	}
}

func injuryStatusOf(lower string) string {
	switch {
	case containsAny(lower, []string{"suspended", "suspension", "banned"}):
		return fpl.InjurySuspended
	case containsAny(lower, []string{"ruled out", "out injured", "out for", "sidelined"}):
		return fpl.InjuryOut
	case containsAny(lower, []string{"doubt", "doubtful", "fitness test", "knock"}):
		return fpl.InjuryDoubtful
	default:
		return ""
	}
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
