package collector

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/exp/slices"

	"github.com/newsradar/tweet-collector/api/types"
	"github.com/newsradar/tweet-collector/internal/config"
	"github.com/newsradar/tweet-collector/internal/jobs/stats"
	"github.com/newsradar/tweet-collector/internal/jobs/twitterapify"
	"github.com/newsradar/tweet-collector/internal/metrics"
)

const (
	// DefaultMaxItems is the upper bound requested from the actor when the
	// caller does not supply one. The actor may return fewer.
	DefaultMaxItems = 500

	// Near-duplicate detection: same author, same leading text, posted
	// within this window.
	duplicateWindow    = 2 * time.Hour
	duplicatePrefixLen = 80
)

// Stats reports what one Collect call received, dropped and kept.
type Stats struct {
	MaxItems         uint `json:"max_items"`
	Returned         int  `json:"apify_returned"`
	ParseErrors      int  `json:"parse_errors"`
	FilteredByAge    int  `json:"filtered_by_age"`
	FilteredByLength int  `json:"filtered_by_min_length"`
	AfterFilter      int  `json:"after_basic_filter"`
	DedupRemoved     int  `json:"dedup_removed"`
	Kept             int  `json:"after_dedup"`
}

// ListFetcher is what the collector needs from the actor wrapper.
type ListFetcher interface {
	GetListTweets(runID string, listID string, maxItems uint) ([]*types.TimelineItem, int, error)
	ValidateApiKey() error
}

// Collector fetches a list timeline through the Apify actor and normalizes
// and filters the result. It holds no per-call state: the client handle is
// built once and reused, and concurrent Collect calls are independent.
type Collector struct {
	fetcher        ListFetcher
	statsCollector *stats.StatsCollector
	maxTweetAge    time.Duration
	minTextLength  int
}

// Option tunes a Collector at construction.
type Option func(*Collector)

// WithMaxTweetAge overrides the recency window.
func WithMaxTweetAge(age time.Duration) Option {
	return func(c *Collector) { c.maxTweetAge = age }
}

// WithMinTextLength overrides the minimum trimmed text length.
func WithMinTextLength(length int) Option {
	return func(c *Collector) { c.minTextLength = length }
}

// WithFetcher substitutes the actor wrapper. Used by tests.
func WithFetcher(f ListFetcher) Option {
	return func(c *Collector) { c.fetcher = f }
}

// New builds a Collector. The token may be empty, in which case it is read
// from the environment; missing both fails here, at construction, so a
// misconfigured worker dies before its first run. No network call happens
// until Collect.
func New(token string, statsCollector *stats.StatsCollector, opts ...Option) (*Collector, error) {
	c := &Collector{
		statsCollector: statsCollector,
		maxTweetAge:    36 * time.Hour,
		minTextLength:  20,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.fetcher == nil {
		resolved, err := config.ResolveApifyToken(token)
		if err != nil {
			return nil, err
		}
		fetcher, err := twitterapify.NewTwitterApifyClient(resolved, statsCollector)
		if err != nil {
			return nil, fmt.Errorf("failed to create twitter apify client: %w", err)
		}
		c.fetcher = fetcher
	}

	return c, nil
}

// FromConfig builds a Collector with the filter settings from the worker
// configuration.
func FromConfig(cfg *config.Config, statsCollector *stats.StatsCollector, opts ...Option) (*Collector, error) {
	opts = append([]Option{
		WithMaxTweetAge(cfg.MaxTweetAge),
		WithMinTextLength(cfg.MinTextLength),
	}, opts...)
	return New(cfg.ApifyToken, statsCollector, opts...)
}

// ValidateApiKey checks the Apify token without consuming an actor run.
func (c *Collector) ValidateApiKey() error {
	return c.fetcher.ValidateApiKey()
}

// Collect runs the list-timeline actor for listID, blocks until the remote
// run finishes, then normalizes, filters and deduplicates the items. The
// recency cutoff is computed once per call so the whole batch shares it.
// Remote failures propagate to the caller unrecovered.
func (c *Collector) Collect(listID string, maxItems uint) ([]*types.Tweet, Stats, error) {
	if maxItems == 0 {
		maxItems = DefaultMaxItems
	}

	runID := uuid.New().String()
	start := time.Now()
	logrus.Infof("Starting collection %s for list %s (max %d)", runID, listID, maxItems)
	metrics.CollectionRuns.Inc()

	items, received, err := c.fetcher.GetListTweets(runID, listID, maxItems)
	if err != nil {
		metrics.CollectionErrors.Inc()
		return nil, Stats{}, fmt.Errorf("list %s: %w", listID, err)
	}

	cutoff := time.Now().UTC().Add(-c.maxTweetAge)

	colStats := Stats{
		MaxItems:    maxItems,
		Returned:    received,
		ParseErrors: received - len(items),
	}

	kept := make([]*types.Tweet, 0, len(items))
	for _, item := range items {
		tweet := item.Normalize()
		// An unknown timestamp never fails the recency check.
		if tweet.CreatedAt != nil && tweet.CreatedAt.Before(cutoff) {
			colStats.FilteredByAge++
			continue
		}
		if utf8.RuneCountInString(strings.TrimSpace(tweet.Text)) < c.minTextLength {
			colStats.FilteredByLength++
			continue
		}
		kept = append(kept, tweet)
	}
	colStats.AfterFilter = len(kept)

	tweets := dedupe(kept)
	colStats.DedupRemoved = colStats.AfterFilter - len(tweets)
	colStats.Kept = len(tweets)

	if c.statsCollector != nil {
		c.statsCollector.Add(runID, stats.FilteredByAge, uint(colStats.FilteredByAge))
		c.statsCollector.Add(runID, stats.FilteredByLength, uint(colStats.FilteredByLength))
		c.statsCollector.Add(runID, stats.DuplicatesRemoved, uint(colStats.DedupRemoved))
		c.statsCollector.Add(runID, stats.TweetsKept, uint(colStats.Kept))
	}
	metrics.TweetsReturned.Add(float64(colStats.Returned))
	metrics.TweetsKept.Add(float64(colStats.Kept))
	metrics.ObserveRunDuration(start)

	logrus.Infof("Collection %s: apify_returned=%d, age=-%d, length=-%d, dedup=-%d, final=%d",
		runID, colStats.Returned, colStats.FilteredByAge, colStats.FilteredByLength,
		colStats.DedupRemoved, colStats.Kept)

	return tweets, colStats, nil
}

// dedupe removes pure retweets, exact text duplicates and near-duplicates.
// Every pass is stable: survivors keep their dataset positions, so the
// result stays a subsequence of the raw dataset order. Exact duplicates keep
// the highest-engagement copy at that copy's own position.
func dedupe(tweets []*types.Tweet) []*types.Tweet {
	noRTs := slices.DeleteFunc(slices.Clone(tweets), func(t *types.Tweet) bool {
		return strings.HasPrefix(strings.TrimSpace(t.Text), "RT @")
	})

	// Exact same trimmed text: keep the highest-engagement copy.
	best := make(map[string]*types.Tweet, len(noRTs))
	for _, t := range noRTs {
		key := strings.TrimSpace(t.Text)
		if prev, ok := best[key]; !ok || t.Engagement() > prev.Engagement() {
			best[key] = t
		}
	}
	uniq := make([]*types.Tweet, 0, len(noRTs))
	for _, t := range noRTs {
		key := strings.TrimSpace(t.Text)
		if best[key] == t {
			uniq = append(uniq, t)
			delete(best, key)
		}
	}

	// Same author + same leading text within the duplicate window: keep the
	// first occurrence.
	seen := make(map[string]time.Time)
	result := make([]*types.Tweet, 0, len(uniq))
	for _, t := range uniq {
		key := t.AuthorHandle + ":" + textPrefix(t.Text, duplicatePrefixLen)
		if prevTime, ok := seen[key]; ok && t.CreatedAt != nil {
			delta := t.CreatedAt.Sub(prevTime)
			if delta < 0 {
				delta = -delta
			}
			if delta < duplicateWindow {
				continue
			}
		}
		if t.CreatedAt != nil {
			seen[key] = *t.CreatedAt
		}
		result = append(result, t)
	}

	return result
}

func textPrefix(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
