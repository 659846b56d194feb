package service

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type RateLimitService interface {
	// Allow records one request under key and reports whether the caller is
	// still within limit requests per window.
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

type redisRateLimitService struct {
	client redis.Cmdable
}

func NewRateLimitService(client redis.Cmdable) RateLimitService {
	return &redisRateLimitService{client: client}
}

// Allow keeps a sliding window per key in a sorted set scored by unix time.
func (s *redisRateLimitService) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	now := time.Now()
	windowStart := now.Add(-window).Unix()

	pipe := s.client.Pipeline()
	pipe.ZRemRangeByScore(ctx, key, "0", fmt.Sprintf("%d", windowStart))
	count := pipe.ZCard(ctx, key)
	pipe.ZAdd(ctx, key, redis.Z{Score: float64(now.Unix()), Member: now.UnixNano()})
	pipe.Expire(ctx, key, window)

	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("rate limit %s: %w", key, err)
	}

	return count.Val() < int64(limit), nil
}
