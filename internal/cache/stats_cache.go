package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/problem-tracker/internal/domain"
)

const (
	statsKey      = "problem-tracker:dashboard:stats"
	generationKey = statsKey + ":generation"
)

// StatsCache stores the admin dashboard aggregate in Redis for a short TTL. Entries are keyed
// by a generation counter that Invalidate advances, so a value computed before an
// invalidation can never be stored under the current generation.
type StatsCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStatsCache wraps client. A nil client yields a cache that always misses.
func NewStatsCache(client *redis.Client, ttl time.Duration) *StatsCache {
	return &StatsCache{client: client, ttl: ttl}
}

// Get returns the cached stats, or nil on a miss, together with the generation a freshly
// computed value must be stored under.
func (c *StatsCache) Get(ctx context.Context) (*domain.DashboardStats, int64, error) {
	if c == nil || c.client == nil {
		return nil, 0, nil
	}
	generation, err := c.client.Get(ctx, generationKey).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, 0, fmt.Errorf("stats cache generation: %w", err)
	}

	raw, err := c.client.Get(ctx, entryKey(generation)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, generation, nil
	}
	if err != nil {
		return nil, generation, fmt.Errorf("stats cache get: %w", err)
	}

	var stats domain.DashboardStats
	if err := json.Unmarshal(raw, &stats); err != nil {
		return nil, generation, fmt.Errorf("stats cache decode: %w", err)
	}
	return &stats, generation, nil
}

// Set stores stats under generation until the TTL elapses. A stale generation lands on a key
// no reader looks at and simply expires.
func (c *StatsCache) Set(ctx context.Context, generation int64, stats domain.DashboardStats) error {
	if c == nil || c.client == nil {
		return nil
	}
	raw, err := json.Marshal(stats)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, entryKey(generation), raw, c.ttl).Err()
}

// Invalidate retires the current generation.
func (c *StatsCache) Invalidate(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Incr(ctx, generationKey).Err()
}

func entryKey(generation int64) string {
	return fmt.Sprintf("%s:%d", statsKey, generation)
}
