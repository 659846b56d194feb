package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimitSlidingWindow(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	limiter := NewRateLimitService(client)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, err := limiter.Allow(ctx, "rl:user:1", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, ok, "request %d should pass", i+1)
	}

	ok, err := limiter.Allow(ctx, "rl:user:1", 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = limiter.Allow(ctx, "rl:user:2", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, ok, "keys are independent")

	assert.True(t, mr.Exists("rl:user:1"))
	assert.Greater(t, mr.TTL("rl:user:1"), time.Duration(0))
}

func TestRateLimitReportsRedisErrors(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { client.Close() })
	mr.Close()

	_, err := NewRateLimitService(client).Allow(context.Background(), "rl:user:1", 3, time.Minute)
	assert.Error(t, err)
}
