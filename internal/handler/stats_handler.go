package handler

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pricegate/pricegate_api/internal/cache"
	"github.com/pricegate/pricegate_api/internal/utils"
)

// statsSource is the slice of the redis cache the handler needs.
// *cache.SearchCache satisfies it.
type statsSource interface {
	Stats(ctx context.Context) map[string]any
	StatsTTL() time.Duration
}

// StatsHandler serves cache statistics. The stats scan redis keyspace, so
// the computed snapshot is held in memory for the stats TTL between scans.
type StatsHandler struct {
	cache statsSource // nil when redis is not configured

	mu        sync.Mutex
	snapshot  map[string]any
	expiresAt time.Time
}

// NewStatsHandler creates a new StatsHandler.
func NewStatsHandler(searchCache *cache.SearchCache) *StatsHandler {
	h := &StatsHandler{}
	if searchCache != nil {
		h.cache = searchCache
	}
	return h
}

// GetStats handles GET /v1/cache/stats.
func (h *StatsHandler) GetStats(c *gin.Context) {
	if h.cache == nil {
		utils.Error(c, http.StatusServiceUnavailable, "CACHE_DISABLED", "redis cache is not configured")
		return
	}

	h.mu.Lock()
	if h.snapshot != nil && time.Now().Before(h.expiresAt) {
		snapshot := h.snapshot
		h.mu.Unlock()
		utils.Success(c, http.StatusOK, "Cache stats retrieved", snapshot)
		return
	}
	h.mu.Unlock()

	// The keyspace scan runs without the lock held. Concurrent requests
	// that miss an expired snapshot may each scan once; last write wins.
	snapshot := h.cache.Stats(c.Request.Context())

	h.mu.Lock()
	h.snapshot = snapshot
	h.expiresAt = time.Now().Add(h.cache.StatsTTL())
	h.mu.Unlock()

	utils.Success(c, http.StatusOK, "Cache stats retrieved", snapshot)
}
