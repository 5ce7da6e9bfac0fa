package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/dhavalaMadhav/swaminarayan.foundation/internal/config"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient builds a client for the configured server. It does not
// dial; callers check reachability with HealthCheck.
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
}

// HealthCheck pings redis.
func (s *CacheService) HealthCheck(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis connection failed: %w", err)
	}
	return nil
}
