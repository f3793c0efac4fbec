package health

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/jonwraymond/pipelineplus/cache"
	"github.com/jonwraymond/pipelineplus/resilience"
)

// probeTTL bounds the life of a probe key left behind by a failed delete.
const probeTTL = 30 * time.Second

// CacheChecker round-trips a probe key through a cache store.
type CacheChecker struct {
	name  string
	store cache.Cache
}

// NewCacheChecker creates a checker for store.
func NewCacheChecker(name string, store cache.Cache) *CacheChecker {
	return &CacheChecker{name: name, store: store}
}

func (c *CacheChecker) Name() string { return c.name }

// Check writes a unique probe value, reads it back and deletes it. A value
// that reads back wrong is degraded; any store error is unhealthy.
func (c *CacheChecker) Check(ctx context.Context) Result {
	key := "health:probe:" + uuid.NewString()
	want := []byte(key)

	if err := c.store.Set(ctx, key, want, probeTTL); err != nil {
		return Unhealthy("cache write failed", err)
	}
	got, ok, err := c.store.Get(ctx, key)
	if err != nil {
		return Unhealthy("cache read failed", err)
	}
	if err := c.store.Delete(ctx, key); err != nil {
		return Unhealthy("cache delete failed", err)
	}
	if !ok || !bytes.Equal(got, want) {
		return Degraded("cache probe read back a different value").With(map[string]any{"found": ok})
	}
	return Healthy("cache round trip ok")
}

// RedisChecker pings a Redis server.
type RedisChecker struct {
	name string
	rdb  redis.UniversalClient
}

// NewRedisChecker creates a checker for rdb.
func NewRedisChecker(name string, rdb redis.UniversalClient) *RedisChecker {
	return &RedisChecker{name: name, rdb: rdb}
}

func (c *RedisChecker) Name() string { return c.name }

// Check sends PING and reports the pool counters.
func (c *RedisChecker) Check(ctx context.Context) Result {
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return Unhealthy("redis ping failed", fmt.Errorf("%w: %w", ErrCheckFailed, err))
	}
	details := map[string]any{}
	if stats := c.rdb.PoolStats(); stats != nil {
		details["total_conns"] = stats.TotalConns
		details["idle_conns"] = stats.IdleConns
		details["timeouts"] = stats.Timeouts
	}
	return Healthy("redis reachable").With(details)
}

// BreakerChecker reports a circuit breaker: closed is healthy, half-open is
// degraded and open is unhealthy.
type BreakerChecker struct {
	name    string
	breaker *resilience.Breaker
}

// NewBreakerChecker creates a checker for breaker. A nil breaker is always
// healthy.
func NewBreakerChecker(name string, breaker *resilience.Breaker) *BreakerChecker {
	return &BreakerChecker{name: name, breaker: breaker}
}

func (c *BreakerChecker) Name() string { return c.name }

func (c *BreakerChecker) Check(context.Context) Result {
	if c.breaker == nil {
		return Healthy("no breaker configured")
	}
	state := c.breaker.State()
	details := map[string]any{"state": state.String()}
	switch state {
	case resilience.StateOpen:
		return Unhealthy("circuit open", resilience.ErrCircuitOpen).With(details)
	case resilience.StateHalfOpen:
		return Degraded("circuit half-open").With(details)
	}
	return Healthy("circuit closed").With(details)
}
