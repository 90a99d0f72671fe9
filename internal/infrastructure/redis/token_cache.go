package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenCache shares the gateway access token across service replicas.
type TokenCache struct {
	client *redis.Client
	key    string
}

func NewTokenCache(client *redis.Client, prefix string) *TokenCache {
	return &TokenCache{client: client, key: fmt.Sprintf("%s:oauth:token", prefix)}
}

func (c *TokenCache) Get(ctx context.Context) (string, bool, error) {
	token, err := c.client.Get(ctx, c.key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return token, true, nil
}

func (c *TokenCache) Set(ctx context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return c.client.Set(ctx, c.key, token, ttl).Err()
}
