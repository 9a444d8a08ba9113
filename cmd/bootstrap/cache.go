package bootstrap

import (
	"context"
	"log/slog"
	"time"

	"booking-engine/internal/handler"
	"booking-engine/internal/handler/middleware"
	"booking-engine/internal/infra/cache"
	"booking-engine/internal/infra/ratelimit"
	"booking-engine/internal/pkg/clock"
	"booking-engine/internal/pkg/config"
	"booking-engine/internal/usecase/queries"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
)

const DriverRedis = "redis"

var CacheModule = fx.Module("cache",
	fx.Provide(
		NewRedisClient,
		NewSlotCache,
		NewLimiter,
	),
)

// NewRedisClient does not dial; drivers that use it ping on construction.
func NewRedisClient(lc fx.Lifecycle, cfg config.Config) redis.UniversalClient {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			return rdb.Close()
		},
	})
	return rdb
}

func pingRedis(rdb redis.UniversalClient) error {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	return cache.RedisReadyCheck(rdb)(ctx)
}

type SlotCacheResult struct {
	fx.Out

	Cache queries.Cache
	Ready handler.ReadyCheck `group:"ready"`
}

func NewSlotCache(cfg config.Config, rdb redis.UniversalClient, c clock.Clock, logger *slog.Logger) (SlotCacheResult, error) {
	if cfg.Cache.Driver != DriverRedis {
		logger.Info("slot cache", "driver", "memory", "ttl", cfg.Cache.TTL)
		return SlotCacheResult{
			Cache: cache.NewMemoryCache(c),
			Ready: handler.ReadyCheck{Name: "cache", Check: func(context.Context) error { return nil }},
		}, nil
	}
	if err := pingRedis(rdb); err != nil {
		return SlotCacheResult{}, err
	}
	logger.Info("slot cache", "driver", DriverRedis, "addr", cfg.Redis.Addr, "ttl", cfg.Cache.TTL)
	return SlotCacheResult{
		Cache: cache.NewRedisCache(rdb, cfg.Cache.Prefix),
		Ready: handler.ReadyCheck{Name: "cache", Check: cache.RedisReadyCheck(rdb)},
	}, nil
}

func NewLimiter(cfg config.Config, rdb redis.UniversalClient, c clock.Clock) (middleware.Limiter, error) {
	rl := cfg.RateLimit
	if rl.Driver != DriverRedis {
		return ratelimit.NewMemoryLimiter(c, rl.Limit, rl.Window), nil
	}
	if err := pingRedis(rdb); err != nil && !rl.FailOpen {
		return nil, err
	}
	return ratelimit.NewRedisLimiter(rdb, rl.Limit, rl.Window, cfg.Cache.Prefix+":rl"), nil
}
