package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jonwraymond/pipelineplus/resilience"
)

// RedisCache is a Cache backed by Redis. Expiry is delegated to Redis key
// TTLs, so entries are shared by every process using the same server.
type RedisCache struct {
	rdb    redis.UniversalClient
	prefix string
	guard  *resilience.Guard
}

// RedisOption configures a RedisCache.
type RedisOption func(*RedisCache)

// WithPrefix namespaces every key as "<prefix>:<key>".
func WithPrefix(prefix string) RedisOption {
	return func(c *RedisCache) { c.prefix = prefix }
}

// WithGuard runs every Redis command through guard.
func WithGuard(guard *resilience.Guard) RedisOption {
	return func(c *RedisCache) { c.guard = guard }
}

// NewRedisCache creates a cache over an existing client. The caller owns
// the client and closes it.
func NewRedisCache(rdb redis.UniversalClient, opts ...RedisOption) *RedisCache {
	c := &RedisCache{rdb: rdb}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *RedisCache) key(key string) string {
	if c.prefix == "" {
		return key
	}
	return c.prefix + ":" + key
}

func (c *RedisCache) do(ctx context.Context, op, key string, fn func(context.Context) error) error {
	if err := c.guard.Do(ctx, fn); err != nil {
		return fmt.Errorf("%w: %s %q: %w", ErrStoreUnavailable, op, key, err)
	}
	return nil
}

// Get retrieves a value. A missing key is a miss, not an error.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var (
		value []byte
		found bool
	)
	err := c.do(ctx, "get", key, func(ctx context.Context) error {
		b, err := c.rdb.Get(ctx, c.key(key)).Bytes()
		if errors.Is(err, redis.Nil) {
			found = false
			return nil
		}
		if err != nil {
			return err
		}
		value, found = b, true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return value, found, nil
}

// Set stores value with a Redis TTL. A ttl <= 0 stores nothing.
func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return c.do(ctx, "set", key, func(ctx context.Context) error {
		return c.rdb.Set(ctx, c.key(key), value, ttl).Err()
	})
}

// Reserve stores value with SET NX.
func (c *RedisCache) Reserve(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		return false, ErrInvalidTTL
	}
	var ok bool
	err := c.do(ctx, "reserve", key, func(ctx context.Context) error {
		var err error
		ok, err = c.rdb.SetNX(ctx, c.key(key), value, ttl).Result()
		return err
	})
	if err != nil {
		return false, err
	}
	return ok, nil
}

// Delete removes a value. Idempotent - no error on miss.
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	return c.do(ctx, "delete", key, func(ctx context.Context) error {
		return c.rdb.Del(ctx, c.key(key)).Err()
	})
}

// Ping checks connectivity to the server.
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.do(ctx, "ping", "", func(ctx context.Context) error {
		return c.rdb.Ping(ctx).Err()
	})
}

var _ Cache = (*RedisCache)(nil)
