package rediscache

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
)

func TestRedisCache_GetSet(t *testing.T) {
	mr := miniredis.RunT(t)
	c := New(mr.Addr())

	ctx := context.Background()

	_, ok, err := c.Get(ctx, "tracking:dfs-1:current")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, c.Set(ctx, "tracking:dfs-1:current", []byte(`{"tracking_id":"DFS-1"}`), time.Minute))

	b, ok, err := c.Get(ctx, "tracking:dfs-1:current")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte(`{"tracking_id":"DFS-1"}`), b)
}

func TestRedisCache_TTLExpires(t *testing.T) {
	mr := miniredis.RunT(t)
	c := New(mr.Addr())

	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Second))

	mr.FastForward(2 * time.Second)

	_, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestLimiter_Allow(t *testing.T) {
	mr := miniredis.RunT(t)
	l := NewLimiter(mr.Addr())

	ctx := context.Background()
	ok, n, err := l.Allow(ctx, "lookup:1.2.3.4", 2, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, int64(1), n)

	ok, n, _ = l.Allow(ctx, "lookup:1.2.3.4", 2, time.Minute)
	require.True(t, ok)
	require.Equal(t, int64(2), n)

	ok, n, _ = l.Allow(ctx, "lookup:1.2.3.4", 2, time.Minute)
	require.False(t, ok)
	require.Equal(t, int64(3), n)

	// A different caller gets its own window.
	ok, _, _ = l.Allow(ctx, "lookup:5.6.7.8", 2, time.Minute)
	require.True(t, ok)
}
