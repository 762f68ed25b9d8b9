package ratelimiter

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisFixedWindowLimiter(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.Ping(context.Background()).Err())

	rl := NewRedisFixedWindowLimiter(client, 2, time.Second, nil)
	rl.prefix = "test:" + uuid.NewString() + ":"

	allowed, _ := rl.Allow("1.2.3.4")
	assert.True(t, allowed)
	allowed, _ = rl.Allow("1.2.3.4")
	assert.True(t, allowed)

	allowed, retry := rl.Allow("1.2.3.4")
	assert.False(t, allowed)
	assert.Greater(t, retry, time.Duration(0))
	assert.LessOrEqual(t, retry, time.Second)

	allowed, _ = rl.Allow("5.6.7.8")
	assert.True(t, allowed)
}

func TestRedisFixedWindowLimiterFailsOpen(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = client.Close() })

	var seen error
	rl := NewRedisFixedWindowLimiter(client, 1, time.Second, func(err error) { seen = err })

	allowed, retry := rl.Allow("1.2.3.4")
	assert.True(t, allowed)
	assert.Zero(t, retry)
	assert.Error(t, seen)
}
