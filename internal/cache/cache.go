package cache

import (
	"context"
	"fmt"
	"happy-game/internal/config"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

// Cache holds serialized catalog responses for the revalidation window.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// New picks Redis when REDIS_URL is configured and an in-process cache otherwise.
func New(lc fx.Lifecycle, cfg *config.Config, logger zerolog.Logger) (Cache, error) {
	if cfg.RedisURL == "" {
		logger.Info().Msg("using in-memory catalog cache")
		return NewMemoryCache(), nil
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := client.Ping(ctx).Err(); err != nil {
				logger.Warn().Err(err).Msg("redis not reachable, catalog cache misses will hit the API")
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return client.Close()
		},
	})

	logger.Info().Str("addr", opts.Addr).Msg("using redis catalog cache")
	return NewRedisCache(client), nil
}
