package repository

import (
	"context"
	"testing"
	"time"

	"StratLab/internal/domain/models"
	"StratLab/pkg/cache"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheTaskStoreRoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	store := NewCacheTaskStore(cache.NewRedisCache(client), time.Hour)
	ctx := context.Background()

	res := models.NewEmptyResult()
	task := &models.Task{
		ID:        "t-1",
		State:     models.TaskSuccess,
		Path:      "/data/prices.csv",
		Params:    map[string]float64{"level": 0.95},
		Result:    &res,
		CreatedAt: time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, store.Save(ctx, task))
	assert.True(t, mr.Exists("stratlab:task:t-1"))

	got, err := store.Get(ctx, "t-1")
	require.NoError(t, err)
	assert.Equal(t, models.TaskSuccess, got.State)
	assert.Equal(t, 0.95, got.Params["level"])
	require.NotNil(t, got.Result)
	assert.NotNil(t, got.Result.Summary.Data)
	assert.True(t, task.CreatedAt.Equal(got.CreatedAt))

	ttl := mr.TTL("stratlab:task:t-1")
	assert.Equal(t, time.Hour, ttl)
}

func TestCacheTaskStoreMissing(t *testing.T) {
	mc := cache.NewMemoryCache()
	defer mc.Close()

	_, err := NewCacheTaskStore(mc, 0).Get(context.Background(), "nope")
	assert.ErrorIs(t, err, models.ErrTaskNotFound)
}

func TestCacheTaskStoreRejectsMissingID(t *testing.T) {
	mc := cache.NewMemoryCache()
	defer mc.Close()

	assert.Error(t, NewCacheTaskStore(mc, 0).Save(context.Background(), &models.Task{}))
}
