package twitterapify_test

import (
	"encoding/json"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/newsradar/tweet-collector/internal/apify"
	"github.com/newsradar/tweet-collector/internal/jobs/twitterapify"
	"github.com/newsradar/tweet-collector/pkg/client"
)

// MockApifyClient is a mock implementation of the ApifyClient.
type MockApifyClient struct {
	RunActorAndGetDatasetFunc func(actorID string, input any, limit uint) (*client.DatasetResponse, error)
	ValidateApiKeyFunc        func() error
}

func (m *MockApifyClient) RunActorAndGetDataset(actorID string, input any, limit uint) (*client.DatasetResponse, error) {
	if m.RunActorAndGetDatasetFunc != nil {
		return m.RunActorAndGetDatasetFunc(actorID, input, limit)
	}
	return nil, errors.New("RunActorAndGetDatasetFunc not defined")
}

func (m *MockApifyClient) ValidateApiKey() error {
	if m.ValidateApiKeyFunc != nil {
		return m.ValidateApiKeyFunc()
	}
	return errors.New("ValidateApiKeyFunc not defined")
}

var _ = Describe("TwitterApifyClient", func() {
	var (
		mockClient    *MockApifyClient
		twitterClient *twitterapify.TwitterApifyClient
	)

	BeforeEach(func() {
		mockClient = &MockApifyClient{}
		// Replace the client creation function with one that returns the mock
		twitterapify.NewInternalClient = func(apiKey string) (client.Apify, error) {
			return mockClient, nil
		}
		var err error
		twitterClient, err = twitterapify.NewTwitterApifyClient("test-token", nil)
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("GetListTweets", func() {
		It("should construct the correct actor input", func() {
			mockClient.RunActorAndGetDatasetFunc = func(actorID string, input any, limit uint) (*client.DatasetResponse, error) {
				Expect(actorID).To(Equal(string(apify.ActorIds.TwitterListScraper)))
				Expect(limit).To(Equal(uint(200)))
				req := input.(twitterapify.ListActorRunRequest)
				Expect(req.ListID).To(Equal("1867531278701948928"))
				Expect(req.MaxItems).To(Equal(uint(200)))
				Expect(req.Sort).To(Equal(twitterapify.SortLatest))
				return &client.DatasetResponse{Data: client.ApifyDatasetData{Items: []json.RawMessage{}}}, nil
			}

			_, _, err := twitterClient.GetListTweets("run-1", "1867531278701948928", 200)
			Expect(err).NotTo(HaveOccurred())
		})

		It("should decode items and report the raw dataset size", func() {
			mockClient.RunActorAndGetDatasetFunc = func(actorID string, input any, limit uint) (*client.DatasetResponse, error) {
				return &client.DatasetResponse{Data: client.ApifyDatasetData{Items: []json.RawMessage{
					json.RawMessage(`{"id": "1", "text": "first"}`),
					json.RawMessage(`{"id": "2", "text": "second"}`),
				}}}, nil
			}

			items, received, err := twitterClient.GetListTweets("run-1", "list", 100)
			Expect(err).NotTo(HaveOccurred())
			Expect(received).To(Equal(2))
			Expect(items).To(HaveLen(2))
			Expect(items[0].Normalize().TweetID).To(Equal("1"))
		})

		It("should skip undecodable items without failing the batch", func() {
			mockClient.RunActorAndGetDatasetFunc = func(actorID string, input any, limit uint) (*client.DatasetResponse, error) {
				return &client.DatasetResponse{Data: client.ApifyDatasetData{Items: []json.RawMessage{
					json.RawMessage(`{"id": "1", "text": "good", "retweetCount": 3}`),
					json.RawMessage(`{"id": "2", "text": "bad", "retweetCount": "many"}`),
					json.RawMessage(`{"id": "3", "text": "also good"}`),
				}}}, nil
			}

			items, received, err := twitterClient.GetListTweets("run-1", "list", 100)
			Expect(err).NotTo(HaveOccurred())
			Expect(received).To(Equal(3))
			Expect(items).To(HaveLen(2))
			Expect(items[0].Normalize().TweetID).To(Equal("1"))
			Expect(items[1].Normalize().TweetID).To(Equal("3"))
		})

		It("should handle errors from the apify client", func() {
			expectedErr := errors.New("apify error")
			mockClient.RunActorAndGetDatasetFunc = func(actorID string, input any, limit uint) (*client.DatasetResponse, error) {
				return nil, expectedErr
			}

			_, _, err := twitterClient.GetListTweets("run-1", "list", 100)
			Expect(err).To(MatchError(expectedErr))
		})
	})
})
