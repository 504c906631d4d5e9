package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo-contrib/pprof"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/newsradar/tweet-collector/internal/collector"
	"github.com/newsradar/tweet-collector/internal/config"
	"github.com/newsradar/tweet-collector/internal/jobs/stats"
)

// Start wires the HTTP surface and serves until ctx is cancelled. Collection
// requests run inline on the handler goroutine; a slow actor run makes a slow
// request, not a queued job.
func Start(ctx context.Context, cfg *config.Config, col *collector.Collector, statsCollector *stats.StatsCollector) error {

	// Echo instance
	e := echo.New()
	e.HideBanner = true

	switch strings.ToLower(cfg.LogLevel) {
	case "debug":
		e.Logger.SetLevel(log.DEBUG)
		pprof.Register(e)
	case "warn":
		e.Logger.SetLevel(log.WARN)
	case "error":
		e.Logger.SetLevel(log.ERROR)
	default:
		e.Logger.SetLevel(log.INFO)
	}

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	// API Key Authentication Middleware
	e.Use(APIKeyAuthMiddleware(cfg.APIKey))

	// Each collection triggers a paid actor run, so keep request bursts in check.
	e.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(rate.Limit(5))))

	// Routes
	e.GET(HealthCheckPath, healthz)
	e.GET(ReadinessCheckPath, readyz(col))
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/lists", lists(cfg))
	e.GET("/stats", runStats(statsCollector))
	e.POST("/collect", collect(col))

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := e.Shutdown(shutdownCtx); err != nil {
			e.Logger.Error(err)
		}
	}()

	if err := e.Start(cfg.ListenAddress); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
