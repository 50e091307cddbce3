package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/pricegate/pricegate_api/internal/cache"
	"github.com/pricegate/pricegate_api/internal/metrics"
	"github.com/pricegate/pricegate_api/pkg/searchindex"
)

// HealthCheckWorker periodically pings the search index and redis and
// publishes their availability as gauges. The orchestrator does its own
// per-request fallback; the gauges exist for dashboards and alerting.
type HealthCheckWorker struct {
	index    *searchindex.Client // nil when running on the mock provider
	redis    *cache.RedisClient  // nil when redis is not configured
	metrics  *metrics.Metrics
	interval time.Duration
}

// NewHealthCheckWorker constructs a HealthCheckWorker.
func NewHealthCheckWorker(index *searchindex.Client, redis *cache.RedisClient, m *metrics.Metrics, interval time.Duration) *HealthCheckWorker {
	return &HealthCheckWorker{index: index, redis: redis, metrics: m, interval: interval}
}

// Start begins the periodic check loop and listens for context cancellation.
func (w *HealthCheckWorker) Start(ctx context.Context) {
	log.Info().Dur("interval", w.interval).Msg("Starting health check worker")

	// Run immediately on start
	w.run(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.run(ctx)
		case <-ctx.Done():
			log.Info().Msg("Health check worker stopped")
			return
		}
	}
}

func (w *HealthCheckWorker) run(ctx context.Context) {
	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if w.index != nil {
		err := w.index.Ping(checkCtx)
		w.metrics.SetProviderUp("index", err == nil)
		if err != nil {
			log.Warn().Err(err).Msg("search index health check failed")
		}
	}

	if w.redis != nil {
		err := w.redis.Ping(checkCtx)
		w.metrics.SetProviderUp("redis", err == nil)
		if err != nil {
			log.Warn().Err(err).Msg("redis health check failed")
		}
	}
}
