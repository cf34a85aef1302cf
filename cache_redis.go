package authstate

import (
	"context"
	"encoding/json"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/redis/go-redis/v9"
)

// RedisProfileCache implements ProfileCache backed by Redis, for
// deployments where several processes should share enrichment reads.
// Expiry is delegated to the server TTL.
type RedisProfileCache struct {
	client    redis.UniversalClient
	ttl       time.Duration
	keyPrefix string
}

var _ ProfileCache = (*RedisProfileCache)(nil)

// RedisProfileCacheOption customizes the Redis cache.
type RedisProfileCacheOption func(*RedisProfileCache)

// WithRedisKeyPrefix overrides the default "authstate:profile:" prefix.
func WithRedisKeyPrefix(prefix string) RedisProfileCacheOption {
	return func(c *RedisProfileCache) {
		if prefix != "" {
			c.keyPrefix = prefix
		}
	}
}

// NewRedisProfileCache constructs a Redis-backed profile cache.
func NewRedisProfileCache(client redis.UniversalClient, ttl time.Duration, opts ...RedisProfileCacheOption) *RedisProfileCache {
	if ttl <= 0 {
		ttl = DefaultProfileCacheTTL
	}

	cache := &RedisProfileCache{
		client:    client,
		ttl:       ttl,
		keyPrefix: "authstate:profile:",
	}

	for _, opt := range opts {
		if opt != nil {
			opt(cache)
		}
	}

	return cache
}

func (c *RedisProfileCache) Get(ctx context.Context, key string) (*Profile, bool, error) {
	payload, err := c.client.Get(ctx, c.keyPrefix+key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, false, nil
		}
		return nil, false, goerrors.Wrap(err, goerrors.CategoryOperation, "failed to load cached profile")
	}

	var profile Profile
	if err := json.Unmarshal(payload, &profile); err != nil {
		return nil, false, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to decode cached profile")
	}

	return &profile, true, nil
}

func (c *RedisProfileCache) Set(ctx context.Context, key string, profile *Profile) error {
	payload, err := json.Marshal(profile)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to encode profile for cache")
	}

	if err := c.client.Set(ctx, c.keyPrefix+key, payload, c.ttl).Err(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "failed to persist cached profile")
	}

	return nil
}

func (c *RedisProfileCache) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, c.keyPrefix+key).Err(); err != nil && err != redis.Nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "failed to invalidate cached profile")
	}
	return nil
}
