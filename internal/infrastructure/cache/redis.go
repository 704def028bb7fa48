package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrMiss is returned by Redis.Get when the key does not exist.
var ErrMiss = errors.New("cache miss")

// Redis is a thin namespaced wrapper shared by the embedding cache,
// the onboarding session store and the API rate limiter.
type Redis struct {
	client redis.UniversalClient
}

func NewRedis(client redis.UniversalClient) *Redis {
	return &Redis{client: client}
}

func key(namespace, k string) string {
	return namespace + ":" + k
}

func (c *Redis) Set(ctx context.Context, namespace, k string, value interface{}, ttl time.Duration) error {
	return c.client.Set(ctx, key(namespace, k), value, ttl).Err()
}

func (c *Redis) Get(ctx context.Context, namespace, k string) ([]byte, error) {
	b, err := c.client.Get(ctx, key(namespace, k)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	return b, err
}

func (c *Redis) Delete(ctx context.Context, namespace, k string) error {
	return c.client.Del(ctx, key(namespace, k)).Err()
}

func (c *Redis) TTL(ctx context.Context, namespace, k string) (time.Duration, error) {
	return c.client.TTL(ctx, key(namespace, k)).Result()
}

// IncrWithExpire increments a fixed-window counter and starts its TTL on first use.
func (c *Redis) IncrWithExpire(ctx context.Context, namespace, k string, window time.Duration) (int64, error) {
	countKey := key(namespace, k)

	cnt, err := c.client.Incr(ctx, countKey).Result()
	if err != nil {
		return 0, err
	}
	if cnt == 1 {
		_ = c.client.Expire(ctx, countKey, window).Err()
	}
	return cnt, nil
}

func (c *Redis) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
