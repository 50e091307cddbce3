package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pricegate/pricegate_api/internal/cache"
	"github.com/pricegate/pricegate_api/internal/utils"
	"github.com/pricegate/pricegate_api/pkg/searchindex"
)

var startTime = time.Now()

// HealthHandler provides the health endpoint.
type HealthHandler struct {
	index *searchindex.Client // nil when running on the mock provider
	redis *cache.RedisClient  // nil when redis is not configured
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(index *searchindex.Client, redis *cache.RedisClient) *HealthHandler {
	return &HealthHandler{index: index, redis: redis}
}

// GetHealth responds with service, search index and redis status.
func (h *HealthHandler) GetHealth(c *gin.Context) {
	ctx := c.Request.Context()

	indexStatus := "not_configured"
	if h.index != nil {
		indexStatus = "connected"
		if err := h.index.Ping(ctx); err != nil {
			indexStatus = "disconnected"
		}
	}

	redisStatus := "not_configured"
	if h.redis != nil {
		redisStatus = "connected"
		if err := h.redis.Ping(ctx); err != nil {
			redisStatus = "disconnected"
		}
	}

	utils.Success(c, http.StatusOK, "Service is healthy", gin.H{
		"status":  "healthy",
		"version": "1.0.0",
		"uptime":  int(time.Since(startTime).Seconds()),
		"search_index": gin.H{
			"status": indexStatus,
		},
		"redis": gin.H{
			"status": redisStatus,
		},
	})
}
