package twitterapify

import (
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/newsradar/tweet-collector/api/types"
	"github.com/newsradar/tweet-collector/internal/apify"
	"github.com/newsradar/tweet-collector/internal/jobs/stats"
	"github.com/newsradar/tweet-collector/pkg/client"
)

// SortLatest asks the actor for the list timeline in reverse-chronological order.
const SortLatest = "Latest"

// ListActorRunRequest represents the input for running the list-timeline actor
type ListActorRunRequest struct {
	ListID   string `json:"listId"`
	MaxItems uint   `json:"maxItems"`
	Sort     string `json:"sort"`
}

// TwitterApifyClient wraps the generic Apify client for list-timeline operations
type TwitterApifyClient struct {
	apifyClient    client.Apify
	statsCollector *stats.StatsCollector
}

// NewInternalClient is a function variable that can be replaced in tests.
// It defaults to the actual implementation.
var NewInternalClient = func(apiToken string) (client.Apify, error) {
	return client.NewApifyClient(apiToken)
}

// NewTwitterApifyClient creates a new list-timeline Apify client
func NewTwitterApifyClient(apiToken string, statsCollector *stats.StatsCollector) (*TwitterApifyClient, error) {
	apifyClient, err := NewInternalClient(apiToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create apify client: %w", err)
	}

	return &TwitterApifyClient{
		apifyClient:    apifyClient,
		statsCollector: statsCollector,
	}, nil
}

// ValidateApiKey tests if the Apify API token is valid
func (c *TwitterApifyClient) ValidateApiKey() error {
	return c.apifyClient.ValidateApiKey()
}

// GetListTweets runs the list-timeline actor for one list and returns the
// decoded items plus the raw dataset size. A single undecodable item is
// logged and skipped; it never fails the batch.
func (c *TwitterApifyClient) GetListTweets(runID string, listID string, maxItems uint) ([]*types.TimelineItem, int, error) {
	if c.statsCollector != nil {
		c.statsCollector.Add(runID, stats.ListScrapes, 1)
	}

	input := ListActorRunRequest{
		ListID:   listID,
		MaxItems: maxItems,
		Sort:     SortLatest,
	}

	dataset, err := c.apifyClient.RunActorAndGetDataset(string(apify.ActorIds.TwitterListScraper), input, maxItems)
	if err != nil {
		if c.statsCollector != nil {
			c.statsCollector.Add(runID, stats.ApifyErrors, 1)
		}
		return nil, 0, err
	}

	items := make([]*types.TimelineItem, 0, len(dataset.Data.Items))
	for i, raw := range dataset.Data.Items {
		var item types.TimelineItem
		if err := json.Unmarshal(raw, &item); err != nil {
			logrus.Warnf("Failed to unmarshal timeline item at index %d: %v", i, err)
			if c.statsCollector != nil {
				c.statsCollector.Add(runID, stats.ParseErrors, 1)
			}
			continue
		}
		items = append(items, &item)
	}

	if c.statsCollector != nil {
		c.statsCollector.Add(runID, stats.TweetsReturned, uint(len(items)))
	}

	return items, len(dataset.Data.Items), nil
}
