// internal/salesforce/token_cache.go
package salesforce

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const tokenCacheKey = "salesforce:access_token"

// TokenCache stores the OAuth access token between calls.
type TokenCache interface {
	Get(ctx context.Context) (string, bool, error)
	Set(ctx context.Context, token string, ttl time.Duration) error
	Invalidate(ctx context.Context) error
}

// RedisTokenCache shares one token across service replicas.
type RedisTokenCache struct {
	client *redis.Client
	key    string
}

func NewRedisTokenCache(client *redis.Client) *RedisTokenCache {
	return &RedisTokenCache{client: client, key: tokenCacheKey}
}

func (c *RedisTokenCache) Get(ctx context.Context) (string, bool, error) {
	token, err := c.client.Get(ctx, c.key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return token, token != "", nil
}

func (c *RedisTokenCache) Set(ctx context.Context, token string, ttl time.Duration) error {
	return c.client.Set(ctx, c.key, token, ttl).Err()
}

func (c *RedisTokenCache) Invalidate(ctx context.Context) error {
	return c.client.Del(ctx, c.key).Err()
}
