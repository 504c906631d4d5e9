package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/newsradar/tweet-collector/api/types"
	"github.com/newsradar/tweet-collector/internal/collector"
	"github.com/newsradar/tweet-collector/internal/config"
)

// tweetRecord is one tweet in the one-shot dump. The permalink is added for
// the humans reading the output; the API response leaves it derivable.
type tweetRecord struct {
	*types.Tweet
	URL string `json:"url"`
}

// listResult is the one-shot dump for a single list.
type listResult struct {
	ListID string          `json:"list_id"`
	Tweets []tweetRecord   `json:"tweets"`
	Stats  collector.Stats `json:"stats"`
}

// runOnce collects the list given on the command line, or every list from the
// lists file, and prints the results as a JSON array on w. A failed list does
// not stop the remaining ones; the run exits non-zero if any failed.
func runOnce(col *collector.Collector, cfg *config.Config, listID string, maxItems uint, w io.Writer) error {
	lists := cfg.Lists
	if listID != "" {
		lists = []config.ListConfig{{ID: listID, MaxItems: maxItems}}
	}

	results := make([]listResult, 0, len(lists))
	failed := 0
	for _, list := range lists {
		tweets, colStats, err := col.Collect(list.ID, list.MaxItems)
		if err != nil {
			logrus.Errorf("Collection for list %s failed: %v", list.ID, err)
			failed++
			continue
		}
		records := make([]tweetRecord, 0, len(tweets))
		for _, tweet := range tweets {
			records = append(records, tweetRecord{Tweet: tweet, URL: tweet.URL()})
		}
		results = append(results, listResult{
			ListID: list.ID,
			Tweets: records,
			Stats:  colStats,
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(results); err != nil {
		return fmt.Errorf("error writing results: %w", err)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d collections failed", failed, len(lists))
	}
	return nil
}
