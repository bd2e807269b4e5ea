// Package cache caches ranked search responses in Redis, collapsing
// concurrent identical queries through singleflight. Every index
// mutation invalidates the whole search keyspace.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/Janucorn/searchd/internal/search/engine"
	"github.com/Janucorn/searchd/pkg/config"
	pkgredis "github.com/Janucorn/searchd/pkg/redis"
)

const keyPrefix = "search:"

// Result is one cached search response.
type Result struct {
	Query     string            `json:"query"`
	Status    string            `json:"status"`
	Page      int               `json:"page"`
	PageSize  int               `json:"page_size"`
	Total     int               `json:"total"`
	Documents []engine.Document `json:"documents"`
}

// QueryCache fronts the engine's search path with Redis.
type QueryCache struct {
	client *pkgredis.Client
	cfg    config.RedisConfig
	group  singleflight.Group
	logger *slog.Logger
	hits   atomic.Int64
	misses atomic.Int64
}

// New creates a QueryCache over an established Redis client.
func New(client *pkgredis.Client, cfg config.RedisConfig) *QueryCache {
	return &QueryCache{
		client: client,
		cfg:    cfg,
		logger: slog.Default().With("component", "query-cache"),
	}
}

// Get returns the cached result for the key parameters, if present.
func (c *QueryCache) Get(ctx context.Context, query, status string, page, pageSize int) (*Result, bool) {
	key := buildKey(query, status, page, pageSize)
	data, err := c.client.Get(ctx, key)
	if err != nil {
		if !pkgredis.IsNilError(err) {
			c.logger.Error("cache get failed", "key", key, "error", err)
		}
		c.misses.Add(1)
		return nil, false
	}
	var result Result
	if err := json.Unmarshal([]byte(data), &result); err != nil {
		c.logger.Error("cache unmarshal failed", "key", key, "error", err)
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	return &result, true
}

// Set stores a result under the key parameters with the configured TTL.
func (c *QueryCache) Set(ctx context.Context, result *Result) {
	key := buildKey(result.Query, result.Status, result.Page, result.PageSize)
	data, err := json.Marshal(result)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	if err := c.client.Set(ctx, key, data, c.cfg.CacheTTL); err != nil {
		c.logger.Error("cache set failed", "key", key, "error", err)
	}
}

// GetOrCompute returns the cached result or computes, stores, and
// returns a fresh one. Concurrent callers with the same key share one
// computation. The second return reports a cache hit.
func (c *QueryCache) GetOrCompute(
	ctx context.Context,
	query, status string,
	page, pageSize int,
	computeFn func() (*Result, error),
) (*Result, bool, error) {
	if result, ok := c.Get(ctx, query, status, page, pageSize); ok {
		return result, true, nil
	}
	key := buildKey(query, status, page, pageSize)
	val, err, _ := c.group.Do(key, func() (interface{}, error) {
		if result, ok := c.Get(ctx, query, status, page, pageSize); ok {
			return result, nil
		}
		result, err := computeFn()
		if err != nil {
			return nil, err
		}
		c.Set(ctx, result)
		return result, nil
	})
	if err != nil {
		return nil, false, err
	}
	return val.(*Result), false, nil
}

// Invalidate drops every cached search response. Called after any index
// mutation; ranked results depend on global document counts, so partial
// invalidation is never safe.
func (c *QueryCache) Invalidate(ctx context.Context) error {
	deleted, err := c.client.FlushByPattern(ctx, keyPrefix+"*")
	if err != nil {
		return fmt.Errorf("invalidating cache: %w", err)
	}
	c.logger.Debug("cache invalidated", "keys_deleted", deleted)
	return nil
}

// Stats returns cumulative hit and miss counts.
func (c *QueryCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

func buildKey(query, status string, page, pageSize int) string {
	raw := fmt.Sprintf("%s|%s|%d|%d", query, status, page, pageSize)
	hash := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("%s%x", keyPrefix, hash[:16])
}
