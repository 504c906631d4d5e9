package client_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	. "github.com/newsradar/tweet-collector/pkg/client"
)

var _ = Describe("ApifyClient", func() {
	var (
		mockServer  *httptest.Server
		apifyClient *ApifyClient
		statusPolls atomic.Int32
		runStatus   string
	)

	BeforeEach(func() {
		statusPolls.Store(0)
		runStatus = RunStatusSucceeded

		mockServer = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/acts/apidojo~twitter-list-scraper/runs":
				if r.Method == http.MethodPost {
					w.WriteHeader(http.StatusCreated)
					w.Write([]byte(`{"data": {"id": "run-1", "status": "RUNNING", "defaultDatasetId": "ds-1"}}`))
				}
			case "/actor-runs/run-1":
				if r.Method == http.MethodGet {
					statusPolls.Add(1)
					resp := map[string]any{"data": map[string]any{"id": "run-1", "status": runStatus, "defaultDatasetId": "ds-1"}}
					respJSON, _ := json.Marshal(resp)
					w.WriteHeader(http.StatusOK)
					w.Write(respJSON)
				}
			case "/datasets/ds-1/items":
				if r.Method == http.MethodGet {
					w.WriteHeader(http.StatusOK)
					w.Write([]byte(`[{"id": "1"}, {"id": "2"}]`))
				}
			default:
				w.WriteHeader(http.StatusNotFound)
			}
		}))

		var err error
		apifyClient, err = NewApifyClient("test-token")
		Expect(err).NotTo(HaveOccurred())
		apifyClient.SetBaseUrl(mockServer.URL)
	})

	AfterEach(func() {
		mockServer.Close()
	})

	Describe("RunActor", func() {
		It("should start a run and return its descriptor", func() {
			resp, err := apifyClient.RunActor("apidojo~twitter-list-scraper", map[string]any{"listId": "123"})
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Data.ID).To(Equal("run-1"))
			Expect(resp.Data.DefaultDatasetId).To(Equal("ds-1"))
		})

		It("should fail on an unknown actor", func() {
			_, err := apifyClient.RunActor("nope~missing", nil)
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("GetDatasetItems", func() {
		It("should return the raw items", func() {
			resp, err := apifyClient.GetDatasetItems("ds-1", 0, 100)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Data.Items).To(HaveLen(2))
			Expect(resp.DatasetId).To(Equal("ds-1"))
		})
	})

	Describe("RunActorAndGetDataset", func() {
		It("should block until the run succeeds and fetch the dataset", func() {
			resp, err := apifyClient.RunActorAndGetDataset("apidojo~twitter-list-scraper", map[string]any{"listId": "123"}, 100)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Data.Items).To(HaveLen(2))
			Expect(statusPolls.Load()).To(BeNumerically(">=", 1))
		})

		It("should return an error when the run fails", func() {
			runStatus = RunStatusFailed
			_, err := apifyClient.RunActorAndGetDataset("apidojo~twitter-list-scraper", map[string]any{"listId": "123"}, 100)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring(RunStatusFailed))
		})
	})
})
