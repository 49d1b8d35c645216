package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"EpiWatch/internal/domain/repository"
	applogger "EpiWatch/pkg/logger"
)

// RedisModelStore keeps encoded model bundles in Redis, one key per
// (disease, location) pair. Bundles survive process restarts, which is
// what lets the daily job reuse models trained by the weekly job.
type RedisModelStore struct {
	client *redis.Client
	l      *applogger.Logger
	ttl    time.Duration
}

// NewRedisModelStore creates a Redis-backed model store. A zero ttl
// keeps models until the next retrain overwrites them.
func NewRedisModelStore(client *redis.Client, l *applogger.Logger, ttl time.Duration) repository.ModelStore {
	return &RedisModelStore{client: client, l: l, ttl: ttl}
}

func modelKey(disease, location string) string {
	return fmt.Sprintf("epiwatch:model:%s|%s", disease, location)
}

func (s *RedisModelStore) Save(ctx context.Context, disease, location string, blob []byte) error {
	key := modelKey(disease, location)
	if err := s.client.Set(ctx, key, blob, s.ttl).Err(); err != nil {
		return fmt.Errorf("save model %s: %w", key, err)
	}
	if s.l != nil {
		s.l.Debug("model saved",
			applogger.String("disease", disease),
			applogger.String("location", location),
			applogger.Int("bytes", len(blob)))
	}
	return nil
}

func (s *RedisModelStore) Load(ctx context.Context, disease, location string) ([]byte, bool, error) {
	blob, err := s.client.Get(ctx, modelKey(disease, location)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("load model: %w", err)
	}
	return blob, true, nil
}

func (s *RedisModelStore) Delete(ctx context.Context, disease, location string) error {
	return s.client.Del(ctx, modelKey(disease, location)).Err()
}
