package dedup

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const seenPrefix = "tenders:seen:"

// RedisCache shares known URLs between processes. Entries expire after ttl;
// expiry only costs an extra store lookup.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache wraps an existing client.
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

// NewRedisClient parses a redis:// URL.
func NewRedisClient(redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	return redis.NewClient(opts), nil
}

func (c *RedisCache) Seen(ctx context.Context, url string) (bool, error) {
	n, err := c.client.Exists(ctx, seenPrefix+url).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (c *RedisCache) Mark(ctx context.Context, url string) error {
	return c.client.Set(ctx, seenPrefix+url, 1, c.ttl).Err()
}

// Ping checks connectivity.
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
