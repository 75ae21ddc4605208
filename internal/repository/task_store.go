package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"StratLab/internal/domain/models"
	"StratLab/internal/domain/repository"
	"StratLab/pkg/cache"
)

const taskKeyPrefix = "task"

// CacheTaskStore keeps task records as JSON in a cache.Service with a TTL.
type CacheTaskStore struct {
	cache cache.Service
	ttl   time.Duration
}

// NewCacheTaskStore creates a task store. A non-positive ttl keeps the
// backend default.
func NewCacheTaskStore(c cache.Service, ttl time.Duration) repository.TaskStore {
	return &CacheTaskStore{cache: c, ttl: ttl}
}

func (s *CacheTaskStore) Save(ctx context.Context, t *models.Task) error {
	if t == nil || t.ID == "" {
		return fmt.Errorf("save task: missing id")
	}
	if err := s.cache.Set(ctx, cache.GenerateKey(taskKeyPrefix, t.ID), t, s.ttl); err != nil {
		return fmt.Errorf("save task %s: %w", t.ID, err)
	}
	return nil
}

func (s *CacheTaskStore) Get(ctx context.Context, id string) (*models.Task, error) {
	var t models.Task
	if err := s.cache.Get(ctx, cache.GenerateKey(taskKeyPrefix, id), &t); err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return nil, models.ErrTaskNotFound
		}
		return nil, fmt.Errorf("get task %s: %w", id, err)
	}
	return &t, nil
}
