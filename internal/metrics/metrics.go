package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	CollectionRuns = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tweet_collector_runs_total",
		Help: "Total collection runs",
	})
	CollectionErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tweet_collector_errors_total",
		Help: "Total collection runs that failed",
	})
	TweetsReturned = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tweet_collector_tweets_returned_total",
		Help: "Raw tweets returned by the actor",
	})
	TweetsKept = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tweet_collector_tweets_kept_total",
		Help: "Tweets kept after filtering and dedup",
	})
	RunDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "tweet_collector_run_duration_seconds",
		Help:    "Collection run duration seconds",
		Buckets: prometheus.DefBuckets,
	})
)

func init() {
	prometheus.MustRegister(CollectionRuns, CollectionErrors, TweetsReturned, TweetsKept, RunDuration)
}

// ObserveRunDuration records a run duration
func ObserveRunDuration(start time.Time) {
	RunDuration.Observe(time.Since(start).Seconds())
}
