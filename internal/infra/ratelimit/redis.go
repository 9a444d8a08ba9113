package ratelimit

import (
	"context"
	"strconv"
	"strings"
	"time"

	"booking-engine/internal/pkg/errs"

	"github.com/redis/go-redis/v9"
)

var redisFixedWindowScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return current
`)

// RedisLimiter is a fixed-window limiter shared by every instance.
type RedisLimiter struct {
	rdb    redis.UniversalClient
	limit  int
	window time.Duration
	prefix string
}

func NewRedisLimiter(rdb redis.UniversalClient, limit int, window time.Duration, prefix string) *RedisLimiter {
	limit, window = normalize(limit, window)
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "rl"
	}
	return &RedisLimiter{rdb: rdb, limit: limit, window: window, prefix: prefix}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	res, err := redisFixedWindowScript.Run(ctx, l.rdb, []string{l.prefix + ":" + key}, l.window.Milliseconds()).Result()
	if err != nil {
		return false, errs.Wrap(err, "redis rate limit")
	}

	var count int64
	switch v := res.(type) {
	case int64:
		count = v
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return false, errs.Wrap(err, "parse rate limit counter")
		}
		count = n
	default:
		return false, errs.Newf("unexpected redis script result type %T", res)
	}
	return count <= int64(l.limit), nil
}

func normalize(limit int, window time.Duration) (int, time.Duration) {
	if limit <= 0 {
		limit = 60
	}
	if window <= 0 {
		window = time.Minute
	}
	return limit, window
}
