package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type record struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
}

func newRedisCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisCache(client, WithRedisPrefix("test")), mr
}

func backends(t *testing.T) map[string]Service {
	rc, _ := newRedisCache(t)
	mc := NewMemoryCache(WithMemoryMaxSize(10))
	t.Cleanup(func() { _ = mc.Close() })
	return map[string]Service{"redis": rc, "memory": mc}
}

func TestSetGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, svc := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, svc.Set(ctx, "rec", record{ID: "a", Score: 1.5}, time.Minute))
			var got record
			require.NoError(t, svc.Get(ctx, "rec", &got))
			assert.Equal(t, record{ID: "a", Score: 1.5}, got)

			require.NoError(t, svc.Set(ctx, "str", "plain", time.Minute))
			var s string
			require.NoError(t, svc.Get(ctx, "str", &s))
			assert.Equal(t, "plain", s)
		})
	}
}

func TestGetMiss(t *testing.T) {
	for name, svc := range backends(t) {
		t.Run(name, func(t *testing.T) {
			var s string
			assert.ErrorIs(t, svc.Get(context.Background(), "nope", &s), ErrCacheMiss)
		})
	}
}

func TestDeleteAndExists(t *testing.T) {
	ctx := context.Background()
	for name, svc := range backends(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, svc.Set(ctx, "k", "v", time.Minute))
			ok, err := svc.Exists(ctx, "k")
			require.NoError(t, err)
			assert.True(t, ok)

			require.NoError(t, svc.Delete(ctx, "k"))
			ok, err = svc.Exists(ctx, "k")
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestTryLock(t *testing.T) {
	ctx := context.Background()
	for name, svc := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ok, err := svc.TryLock(ctx, "lock", time.Minute)
			require.NoError(t, err)
			assert.True(t, ok)

			ok, err = svc.TryLock(ctx, "lock", time.Minute)
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, svc.Unlock(ctx, "lock"))
			ok, err = svc.TryLock(ctx, "lock", time.Minute)
			require.NoError(t, err)
			assert.True(t, ok)
		})
	}
}

func TestRedisCacheExpiry(t *testing.T) {
	ctx := context.Background()
	rc, mr := newRedisCache(t)

	require.NoError(t, rc.Set(ctx, "ttl", "v", time.Second))
	assert.True(t, mr.Exists("test:ttl"))

	mr.FastForward(2 * time.Second)
	var s string
	assert.ErrorIs(t, rc.Get(ctx, "ttl", &s), ErrCacheMiss)
}

func TestMemoryCacheEvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache(WithMemoryMaxSize(2))
	defer mc.Close()

	require.NoError(t, mc.Set(ctx, "a", "1", time.Minute))
	time.Sleep(time.Millisecond)
	require.NoError(t, mc.Set(ctx, "b", "2", time.Minute))
	time.Sleep(time.Millisecond)
	var s string
	require.NoError(t, mc.Get(ctx, "a", &s))
	require.NoError(t, mc.Set(ctx, "c", "3", time.Minute))

	ok, _ := mc.Exists(ctx, "b")
	assert.False(t, ok)
	ok, _ = mc.Exists(ctx, "a")
	assert.True(t, ok)
}

func TestMemoryCacheSweepsExpired(t *testing.T) {
	ctx := context.Background()
	mc := NewMemoryCache(WithMemoryCleanup(10 * time.Millisecond))
	defer mc.Close()

	require.NoError(t, mc.Set(ctx, "short", "v", 5*time.Millisecond))
	require.NoError(t, mc.Set(ctx, "long", "v", time.Minute))

	assert.Eventually(t, func() bool {
		mc.mutex.Lock()
		defer mc.mutex.Unlock()
		_, ok := mc.data["short"]
		return !ok
	}, time.Second, 5*time.Millisecond)

	ok, err := mc.Exists(ctx, "long")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestGenerateKey(t *testing.T) {
	assert.Equal(t, "task:abc", GenerateKey("task", "abc"))
}
