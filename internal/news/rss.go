// Package news fetches raw article records from RSS and Atom feeds for the
// news analyzer.
package news

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"solana-autotrader/internal/domain"
)

// Defaults.
const (
	DefaultMaxAge      = 24 * time.Hour
	DefaultMaxArticles = 50
	DefaultTimeout     = 15 * time.Second
)

// ErrAllFeedsFailed is returned when no configured feed could be read.
var ErrAllFeedsFailed = errors.New("news: all feeds failed")

var dateLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	time.RFC3339,
	time.RFC822Z,
	time.RFC822,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 MST",
}

// RSSClient implements controller.NewsSource.
type RSSClient struct {
	client      *resty.Client
	feeds       []string
	limiter     *rate.Limiter
	maxAge      time.Duration
	maxArticles int
	now         func() time.Time
	logger      zerolog.Logger
}

// Option configures RSSClient.
type Option func(*RSSClient)

// WithMaxAge drops articles older than d.
func WithMaxAge(d time.Duration) Option {
	return func(c *RSSClient) { c.maxAge = d }
}

// WithMaxArticles caps the number of returned articles.
func WithMaxArticles(n int) Option {
	return func(c *RSSClient) { c.maxArticles = n }
}

// WithRateLimit limits feed requests per second.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *RSSClient) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), max(burst, 1))
	}
}

// WithClock sets the time source.
func WithClock(now func() time.Time) Option {
	return func(c *RSSClient) { c.now = now }
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *RSSClient) { c.logger = l }
}

// NewRSSClient creates a client reading feeds.
func NewRSSClient(feeds []string, opts ...Option) *RSSClient {
	client := resty.New()
	client.SetTimeout(DefaultTimeout)
	client.SetHeader("User-Agent", "Mozilla/5.0 (compatible; autotrader/1.0)")
	client.SetRetryCount(2)
	client.SetRetryWaitTime(500 * time.Millisecond)

	c := &RSSClient{
		client:      client,
		feeds:       feeds,
		limiter:     rate.NewLimiter(rate.Limit(2), 2),
		maxAge:      DefaultMaxAge,
		maxArticles: DefaultMaxArticles,
		now:         time.Now,
		logger:      log.Logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With().Str("component", "news").Logger()
	return c
}

// Articles fetches every feed and returns recent, de-duplicated articles,
// newest first. A failing feed is logged and skipped.
func (c *RSSClient) Articles(ctx context.Context) ([]domain.NewsArticle, error) {
	if len(c.feeds) == 0 {
		return nil, nil
	}

	now := c.now()
	seen := make(map[string]struct{})
	var out []domain.NewsArticle
	var failed int

	for _, feed := range c.feeds {
		articles, err := c.fetch(ctx, feed)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			failed++
			c.logger.Warn().Err(err).Str("feed", feed).Msg("feed fetch failed")
			continue
		}
		for _, a := range articles {
			key := strings.ToLower(a.Title)
			if _, dup := seen[key]; dup {
				continue
			}
			if c.maxAge > 0 && !a.Timestamp.IsZero() && now.Sub(a.Timestamp) > c.maxAge {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, a)
		}
	}
	if failed == len(c.feeds) {
		return nil, ErrAllFeedsFailed
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	if c.maxArticles > 0 && len(out) > c.maxArticles {
		out = out[:c.maxArticles]
	}
	return out, nil
}

func (c *RSSClient) fetch(ctx context.Context, feed string) ([]domain.NewsArticle, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	resp, err := c.client.R().SetContext(ctx).Get(feed)
	if err != nil {
		return nil, fmt.Errorf("fetch feed: %w", err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("HTTP error %d", resp.StatusCode())
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(resp.String()))
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}
	return parseFeed(doc, feedHost(feed)), nil
}

// parseFeed extracts RSS items and Atom entries.
func parseFeed(doc *goquery.Document, fallbackSource string) []domain.NewsArticle {
	source := cleanText(doc.Find("channel > title").First().Text())
	if source == "" {
		source = cleanText(doc.Find("feed > title").First().Text())
	}
	if source == "" {
		source = fallbackSource
	}

	var out []domain.NewsArticle
	doc.Find("item, entry").Each(func(_ int, s *goquery.Selection) {
		title := cleanText(s.Find("title").First().Text())
		if title == "" {
			return
		}
		date := s.Find("pubdate").First().Text()
		if date == "" {
			date = s.Find("published").First().Text()
		}
		if date == "" {
			date = s.Find("updated").First().Text()
		}
		out = append(out, domain.NewsArticle{
			Title:     title,
			Source:    source,
			Timestamp: parseDate(date),
		})
	})
	return out
}

func cleanText(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "<![CDATA[")
	s = strings.TrimSuffix(s, "]]>")
	return strings.Join(strings.Fields(s), " ")
}

func parseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

func feedHost(feed string) string {
	u, err := url.Parse(feed)
	if err != nil || u.Host == "" {
		return feed
	}
	return u.Host
}
