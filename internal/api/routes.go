package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/newsradar/tweet-collector/api/types"
	"github.com/newsradar/tweet-collector/internal/collector"
	"github.com/newsradar/tweet-collector/internal/config"
	"github.com/newsradar/tweet-collector/internal/jobs/stats"
)

// CollectRequest is the body of POST /collect.
type CollectRequest struct {
	ListID   string `json:"list_id"`
	MaxItems uint   `json:"max_items"`
}

// CollectResponse is the body returned by POST /collect.
type CollectResponse struct {
	ListID string          `json:"list_id"`
	Tweets []*types.Tweet  `json:"tweets"`
	Stats  collector.Stats `json:"stats"`
}

// APIError is the uniform error body.
type APIError struct {
	Error string `json:"error"`
}

// collect runs one collection synchronously. The call blocks for as long as
// the remote actor run takes; there is no server-side job queue.
func collect(col *collector.Collector) func(c echo.Context) error {
	return func(c echo.Context) error {
		req := CollectRequest{}
		if err := c.Bind(&req); err != nil {
			return err
		}

		if req.ListID == "" {
			return c.JSON(http.StatusBadRequest, APIError{Error: "list_id is required"})
		}

		tweets, colStats, err := col.Collect(req.ListID, req.MaxItems)
		if err != nil {
			logrus.Errorf("Collection for list %s failed: %v", req.ListID, err)
			return c.JSON(http.StatusBadGateway, APIError{Error: err.Error()})
		}

		return c.JSON(http.StatusOK, CollectResponse{
			ListID: req.ListID,
			Tweets: tweets,
			Stats:  colStats,
		})
	}
}

// lists returns the lists configured for the one-shot mode, so operators can
// check what a scheduled run would collect.
func lists(cfg *config.Config) func(c echo.Context) error {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, cfg.Lists)
	}
}

// runStats dumps the accumulated per-run statistics.
func runStats(statsCollector *stats.StatsCollector) func(c echo.Context) error {
	return func(c echo.Context) error {
		body, err := statsCollector.Json()
		if err != nil {
			return c.JSON(http.StatusInternalServerError, APIError{Error: err.Error()})
		}
		return c.JSONBlob(http.StatusOK, body)
	}
}
