// Package intelligence scores news articles and ranks candidate strategies
// against news, market conditions, learned performance and timing.
package intelligence

import (
	"math"
	"sort"
	"strings"
	"time"
	"unicode"

	"solana-autotrader/internal/domain"
)

// Article weights decay with this half-life-like constant.
const recencyScale = 6 * time.Hour

const maxSummaryKeywords = 10

var (
	positiveTerms = []string{
		"bullish", "surge", "surges", "rally", "rallies", "partnership", "listing", "listed",
		"launch", "launches", "upgrade", "adoption", "breakout", "integration", "airdrop",
		"growth", "record", "approval", "approved", "pump", "gains", "soars",
	}
	negativeTerms = []string{
		"bearish", "hack", "hacked", "exploit", "rug", "rugpull", "dump", "dumps", "crash",
		"crashes", "lawsuit", "ban", "outage", "delist", "delisted", "scam", "liquidation",
		"vulnerability", "plunge", "plunges", "selloff", "halted",
	}
	impactTerms = []string{
		"solana", "sol", "etf", "sec", "binance", "coinbase", "regulation", "fed",
		"whale", "mainnet", "jupiter", "raydium", "validator",
	}
)

// ArticleScore is the scored form of one article.
type ArticleScore struct {
	Sentiment float64 // -1..1
	Impact    float64 // 0..1
	Keywords  []string
}

// NewsAnalyzer scores articles with a fixed keyword lexicon.
type NewsAnalyzer struct {
	positive map[string]struct{}
	negative map[string]struct{}
	impact   map[string]struct{}
}

// NewNewsAnalyzer creates an analyzer with the built-in lexicon.
func NewNewsAnalyzer() *NewsAnalyzer {
	return &NewsAnalyzer{
		positive: toSet(positiveTerms),
		negative: toSet(negativeTerms),
		impact:   toSet(impactTerms),
	}
}

// Analyze scores a single article title.
func (a *NewsAnalyzer) Analyze(article domain.NewsArticle) ArticleScore {
	var pos, neg, hits int
	var keywords []string
	seen := make(map[string]struct{})

	for _, tok := range tokenize(article.Title) {
		_, isPos := a.positive[tok]
		_, isNeg := a.negative[tok]
		_, isImpact := a.impact[tok]
		switch {
		case isPos:
			pos++
		case isNeg:
			neg++
		case !isImpact:
			continue
		}
		if isImpact {
			hits++
		}
		if _, dup := seen[tok]; !dup {
			seen[tok] = struct{}{}
			keywords = append(keywords, tok)
		}
	}

	var sentiment float64
	if pos+neg > 0 {
		sentiment = float64(pos-neg) / float64(pos+neg)
	}
	impact := math.Min(1, 0.2*float64(pos+neg)+0.25*float64(hits))
	return ArticleScore{Sentiment: sentiment, Impact: impact, Keywords: keywords}
}

// Summarize aggregates articles into one NewsSignal. Newer and more
// impactful articles weigh more; articles from the future count as fresh.
func (a *NewsAnalyzer) Summarize(articles []domain.NewsArticle, now time.Time) domain.NewsSignal {
	sig := domain.NewsSignal{Articles: len(articles)}
	if len(articles) == 0 {
		return sig
	}

	var sentSum, sentWeight, impactSum, recencySum float64
	counts := make(map[string]int)
	for _, art := range articles {
		sc := a.Analyze(art)
		age := now.Sub(art.Timestamp)
		if art.Timestamp.IsZero() || age < 0 {
			age = 0
		}
		recency := math.Exp(-float64(age) / float64(recencyScale))

		w := recency * (0.5 + sc.Impact)
		sentSum += w * sc.Sentiment
		sentWeight += w
		impactSum += recency * sc.Impact
		recencySum += recency
		for _, k := range sc.Keywords {
			counts[k]++
		}
	}

	if sentWeight > 0 {
		sig.Sentiment = sentSum / sentWeight
	}
	if recencySum > 0 {
		sig.Impact = impactSum / recencySum
	}
	sig.Keywords = topKeywords(counts, maxSummaryKeywords)
	return sig
}

func topKeywords(counts map[string]int, n int) []string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})
	if len(keys) > n {
		keys = keys[:n]
	}
	return keys
}

func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func toSet(words []string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}
