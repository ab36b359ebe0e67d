package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"orderscope/pkg/platform/sentinel"
)

// RedisStore counts in redis so quotas hold across instances. INCR and
// EXPIRE NX run in one pipeline: the increment is atomic and the window TTL
// is set exactly once, by whichever caller lands first in a fresh window.
type RedisStore struct {
	client redis.UniversalClient
	now    func() time.Time
}

func NewRedisStore(client redis.UniversalClient) (*RedisStore, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	return &RedisStore{client: client, now: time.Now}, nil
}

func (s *RedisStore) Incr(ctx context.Context, key string, windowSize time.Duration) (int64, time.Time, error) {
	pipe := s.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, windowSize)
	ttl := pipe.PTTL(ctx, key)

	if _, err := pipe.Exec(ctx); err != nil {
		return 0, time.Time{}, fmt.Errorf("%w: redis incr: %w", sentinel.ErrUnavailable, err)
	}

	resetAt := s.now().Add(windowSize)
	if d := ttl.Val(); d > 0 {
		resetAt = s.now().Add(d)
	}
	return incr.Val(), resetAt, nil
}
