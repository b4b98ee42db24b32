package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/oggyb/matchme/internal/config"
	"github.com/redis/go-redis/v9"
)

// counterTTL bounds staleness of cached approval counters; the DB stays
// the source of truth on miss.
const counterTTL = time.Hour

type RedisCache struct {
	Client *redis.Client
}

// NewRedisCache initializes Redis client from config.
// Only Addr is mandatory, Password/DB are optional.
func NewRedisCache(cfg *config.Config) *RedisCache {
	opts := &redis.Options{
		Addr: cfg.Redis.Addr,
	}
	if cfg.Redis.Password != "" {
		opts.Password = cfg.Redis.Password
	}
	if cfg.Redis.DB != 0 {
		opts.DB = cfg.Redis.DB
	}
	return &RedisCache{Client: redis.NewClient(opts)}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.Client.Ping(ctx).Err()
}

func (c *RedisCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return c.Client.Set(ctx, key, value, ttl).Err()
}

func (c *RedisCache) Get(ctx context.Context, key string) (string, error) {
	return c.Client.Get(ctx, key).Result()
}

func (c *RedisCache) Del(ctx context.Context, key string) error {
	return c.Client.Del(ctx, key).Err()
}

// KeyForReceivedCount is the counter of approvals received by a user.
func (c *RedisCache) KeyForReceivedCount(userID uint64) string {
	return fmt.Sprintf("approvals:received:%d", userID)
}

// BumpReceivedCount adjusts a cached received-approval counter after an
// edge write. Missing keys are left missing so the next read repopulates
// from the DB.
func (c *RedisCache) BumpReceivedCount(ctx context.Context, userID uint64, delta int64) error {
	key := c.KeyForReceivedCount(userID)
	exists, err := c.Client.Exists(ctx, key).Result()
	if err != nil || exists == 0 {
		return err
	}
	if err := c.Client.IncrBy(ctx, key, delta).Err(); err != nil {
		return err
	}
	return c.Client.Expire(ctx, key, counterTTL).Err()
}

// GetReceivedCount reads the cached counter. A cache miss returns ok=false
// rather than an error.
func (c *RedisCache) GetReceivedCount(ctx context.Context, userID uint64) (int64, bool, error) {
	val, err := c.Client.Get(ctx, c.KeyForReceivedCount(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	} else if err != nil {
		return 0, false, err
	}
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false, nil
	}
	// refresh TTL on access
	_ = c.Client.Expire(ctx, c.KeyForReceivedCount(userID), counterTTL).Err()
	return n, true, nil
}

// SetReceivedCount stores a counter fetched from the DB.
func (c *RedisCache) SetReceivedCount(ctx context.Context, userID uint64, count int64) error {
	return c.Client.Set(ctx, c.KeyForReceivedCount(userID), count, counterTTL).Err()
}
