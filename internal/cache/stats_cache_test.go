package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/problem-tracker/internal/domain"
)

func newTestCache(t *testing.T) (*StatsCache, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewStatsCache(client, 30*time.Second), srv
}

func TestStatsCache_RoundTripAndExpiry(t *testing.T) {
	c, srv := newTestCache(t)
	ctx := context.Background()

	got, generation, err := c.Get(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Equal(t, int64(0), generation)

	stats := domain.DashboardStats{
		TotalUsers:    2,
		TotalProblems: 5,
		ProblemStats:  domain.ProblemProgress{Total: 5, Todo: 1, Doing: 1, Done: 3},
	}
	require.NoError(t, c.Set(ctx, generation, stats))

	got, _, err = c.Get(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, stats, *got)

	srv.FastForward(31 * time.Second)
	got, _, err = c.Get(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestStatsCache_Invalidate(t *testing.T) {
	c, srv := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, 0, domain.DashboardStats{TotalUsers: 1}))
	require.True(t, srv.Exists(entryKey(0)))

	require.NoError(t, c.Invalidate(ctx))
	got, generation, err := c.Get(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Equal(t, int64(1), generation)
}

func TestStatsCache_StaleGenerationIsNeverServed(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	_, generation, err := c.Get(ctx)
	require.NoError(t, err)

	// A problem change lands while the aggregate is being computed.
	require.NoError(t, c.Invalidate(ctx))
	require.NoError(t, c.Set(ctx, generation, domain.DashboardStats{TotalUsers: 7}))

	got, current, err := c.Get(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Equal(t, generation+1, current)

	require.NoError(t, c.Set(ctx, current, domain.DashboardStats{TotalUsers: 8}))
	got, _, err = c.Get(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, int64(8), got.TotalUsers)
}

func TestStatsCache_UnreachableServer(t *testing.T) {
	c, srv := newTestCache(t)
	srv.Close()

	_, _, err := c.Get(context.Background())
	assert.Error(t, err)
}

func TestStatsCache_NilClientAlwaysMisses(t *testing.T) {
	c := NewStatsCache(nil, time.Second)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, 0, domain.DashboardStats{TotalUsers: 1}))
	got, _, err := c.Get(ctx)
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.NoError(t, c.Invalidate(ctx))
}
