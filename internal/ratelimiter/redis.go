package ratelimiter

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// incrWindow bumps the counter for a key and starts its expiry on the first
// hit. It returns the new count and the milliseconds left in the window.
var incrWindow = redis.NewScript(`
local n = redis.call('INCR', KEYS[1])
if n == 1 then
  redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
return {n, redis.call('PTTL', KEYS[1])}
`)

const redisCallTimeout = 200 * time.Millisecond

// RedisFixedWindowLimiter shares fixed windows between API replicas through
// Redis. Requests are allowed when Redis cannot be reached.
type RedisFixedWindowLimiter struct {
	client *redis.Client
	prefix string
	limit  int
	window time.Duration
	onErr  func(error)
}

func NewRedisFixedWindowLimiter(client *redis.Client, limit int, w time.Duration, onErr func(error)) *RedisFixedWindowLimiter {
	if onErr == nil {
		onErr = func(error) {}
	}
	return &RedisFixedWindowLimiter{
		client: client,
		prefix: "ratelimit:",
		limit:  limit,
		window: w,
		onErr:  onErr,
	}
}

func (rl *RedisFixedWindowLimiter) Allow(ip string) (bool, time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), redisCallTimeout)
	defer cancel()

	count, ttl, err := rl.hit(ctx, rl.prefix+ip)
	if err != nil {
		rl.onErr(err)
		return true, 0
	}

	if count <= int64(rl.limit) {
		return true, 0
	}
	return false, ttl
}

func (rl *RedisFixedWindowLimiter) hit(ctx context.Context, key string) (int64, time.Duration, error) {
	res, err := incrWindow.Run(ctx, rl.client, []string{key}, rl.window.Milliseconds()).Slice()
	if err != nil {
		return 0, 0, fmt.Errorf("rate limit %s: %w", key, err)
	}
	if len(res) != 2 {
		return 0, 0, fmt.Errorf("rate limit %s: unexpected reply %v", key, res)
	}

	count, ok := res[0].(int64)
	if !ok {
		return 0, 0, fmt.Errorf("rate limit %s: unexpected count %v", key, res[0])
	}
	pttl, _ := res[1].(int64)
	if pttl < 0 {
		pttl = 0
	}
	return count, time.Duration(pttl) * time.Millisecond, nil
}
