package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/pricegate/pricegate_api/internal/models"
)

// SearchCache stores serialized search results and listing details in Redis.
// It is a pure read-through/write-through layer: callers decide when to read
// and write; the cache only owns serialization and TTLs.
type SearchCache struct {
	redis     *RedisClient
	searchTTL time.Duration
	detailTTL time.Duration
	statsTTL  time.Duration
}

// NewSearchCache creates a SearchCache with the configured TTLs.
func NewSearchCache(redis *RedisClient, searchTTL, detailTTL, statsTTL time.Duration) *SearchCache {
	return &SearchCache{
		redis:     redis,
		searchTTL: searchTTL,
		detailTTL: detailTTL,
		statsTTL:  statsTTL,
	}
}

// GetResult retrieves a cached search result. A missing key returns
// (nil, nil); any store error is returned for the caller to log and treat as
// a miss.
func (c *SearchCache) GetResult(ctx context.Context, key string) (*models.SearchResult, error) {
	raw, err := c.redis.Get(ctx, key)
	if errors.Is(err, ErrCacheMiss) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cache get: %w", err)
	}

	var result models.SearchResult
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil, fmt.Errorf("cache payload decode: %w", err)
	}
	return &result, nil
}

// SetResult stores a search result under the given key with the search TTL.
func (c *SearchCache) SetResult(ctx context.Context, key string, result *models.SearchResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("cache payload encode: %w", err)
	}
	if err := c.redis.Set(ctx, key, string(payload), c.searchTTL); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

// GetListing retrieves a cached listing detail. Missing keys return (nil, nil).
func (c *SearchCache) GetListing(ctx context.Context, key string) (*models.Listing, error) {
	raw, err := c.redis.Get(ctx, key)
	if errors.Is(err, ErrCacheMiss) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cache get: %w", err)
	}

	var listing models.Listing
	if err := json.Unmarshal([]byte(raw), &listing); err != nil {
		return nil, fmt.Errorf("cache payload decode: %w", err)
	}
	return &listing, nil
}

// SetListing stores a listing detail with the detail TTL.
func (c *SearchCache) SetListing(ctx context.Context, key string, listing *models.Listing) error {
	payload, err := json.Marshal(listing)
	if err != nil {
		return fmt.Errorf("cache payload encode: %w", err)
	}
	if err := c.redis.Set(ctx, key, string(payload), c.detailTTL); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

// Stats reports cache occupancy and configuration for the stats endpoint.
func (c *SearchCache) Stats(ctx context.Context) map[string]any {
	searchKeys, err := c.redis.CountKeys(ctx, "search:*")
	if err != nil {
		return map[string]any{"status": "unavailable", "error": err.Error()}
	}
	detailKeys, _ := c.redis.CountKeys(ctx, detailKeyPrefix+"*")
	return map[string]any{
		"status":             "connected",
		"search_keys":        searchKeys,
		"detail_keys":        detailKeys,
		"search_ttl_seconds": int(c.searchTTL.Seconds()),
		"detail_ttl_seconds": int(c.detailTTL.Seconds()),
	}
}

// StatsTTL exposes the configured stats TTL for handlers that cache the
// stats payload itself.
func (c *SearchCache) StatsTTL() time.Duration {
	return c.statsTTL
}
