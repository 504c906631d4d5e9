package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/newsradar/tweet-collector/internal/api"
	"github.com/newsradar/tweet-collector/internal/collector"
	"github.com/newsradar/tweet-collector/internal/config"
	"github.com/newsradar/tweet-collector/internal/jobs/stats"
)

func main() {
	listID := flag.String("list", "", "collect a single list and print the result instead of serving")
	maxItems := flag.Uint("max-items", collector.DefaultMaxItems, "upper bound on items requested from the actor")
	flag.Parse()

	cfg := config.ReadConfig()
	statsCollector := stats.StartCollector(cfg.StatsBufSize)

	col, err := collector.FromConfig(cfg, statsCollector)
	if err != nil {
		logrus.Fatalf("Failed to create collector: %v", err)
	}

	if *listID != "" || len(cfg.Lists) > 0 {
		if err := runOnce(col, cfg, *listID, *maxItems, os.Stdout); err != nil {
			logrus.Fatal(err)
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := api.Start(ctx, cfg, col, statsCollector); err != nil {
		logrus.Fatal(err)
	}
}
