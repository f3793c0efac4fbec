package config

import (
	"context"
	"errors"
	"fmt"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/redis/go-redis/v9"

	"github.com/jonwraymond/pipelineplus/cache"
	"github.com/jonwraymond/pipelineplus/health"
	"github.com/jonwraymond/pipelineplus/outbox"
	"github.com/jonwraymond/pipelineplus/resilience"
)

// Stores are the backends named by Options, ready for the mediator.
type Stores struct {
	Cache cache.Cache
	Sink  outbox.Sink
	Guard *resilience.Guard

	// Redis is the shared client, nil when nothing uses Redis.
	Redis *redis.Client

	stop context.CancelFunc
}

// Close stops the memory janitor and closes the Redis client.
func (s *Stores) Close() error {
	if s == nil {
		return nil
	}
	if s.stop != nil {
		s.stop()
	}
	if s.Redis != nil {
		return s.Redis.Close()
	}
	return nil
}

// Checkers returns health checkers for the opened stores: a cache round
// trip, a Redis ping when Redis is used, and the shared breaker.
func (s *Stores) Checkers() []health.Checker {
	checkers := []health.Checker{health.NewCacheChecker("cache", s.Cache)}
	if s.Redis != nil {
		checkers = append(checkers, health.NewRedisChecker("redis", s.Redis))
	}
	return append(checkers, health.NewBreakerChecker("breaker", s.Guard.Breaker()))
}

// Guard builds the retry and breaker pair from the resilience settings.
func (o Options) Guard() *resilience.Guard {
	r := o.Resilience
	return resilience.NewGuard(resilience.GuardConfig{
		Retry: resilience.RetryConfig{
			MaxAttempts:  r.MaxAttempts,
			InitialDelay: r.InitialDelay,
			MaxDelay:     r.MaxDelay,
			Multiplier:   2,
			RetryIf:      resilience.IsTransient,
		},
		Breaker: resilience.BreakerConfig{
			MaxFailures:  r.BreakerFailures,
			ResetTimeout: r.BreakerReset,
		},
		DisableBreaker: r.BreakerFailures == 0,
	})
}

// CachePolicy is the fallback policy for cached requests registered with a
// zero TTL.
func (o Options) CachePolicy() cache.Policy {
	return cache.Policy{TTL: o.Cache.DefaultTTL, MaxTTL: o.Cache.MaxTTL}
}

// Open builds the cache and outbox sink. The memory janitor runs until
// Close. Open pings Redis when it is used.
func Open(ctx context.Context, o Options) (*Stores, error) {
	if err := o.Validate(); err != nil {
		return nil, err
	}

	s := &Stores{Guard: o.Guard()}
	if o.usesRedis() {
		s.Redis = redis.NewClient(&redis.Options{
			Addr:     o.Redis.Addr,
			DB:       o.Redis.DB,
			Password: o.Redis.Password,
		})
		if err := s.Redis.Ping(ctx).Err(); err != nil {
			_ = s.Redis.Close()
			return nil, fmt.Errorf("%w: redis ping %s: %w", cache.ErrStoreUnavailable, o.Redis.Addr, err)
		}
	}

	switch o.Cache.Backend {
	case "redis":
		s.Cache = cache.NewRedisCache(s.Redis, cache.WithPrefix(o.Cache.Prefix), cache.WithGuard(s.Guard))
	default:
		mem := cache.NewMemoryCache()
		if o.Cache.JanitorInterval > 0 {
			jctx, stop := context.WithCancel(context.WithoutCancel(ctx))
			s.stop = stop
			mem.StartJanitor(jctx, o.Cache.JanitorInterval)
		}
		s.Cache = mem
	}

	if !o.Outbox {
		return s, nil
	}
	sink, err := o.openSink(s)
	if err != nil {
		_ = s.Close()
		return nil, err
	}
	s.Sink = sink
	return s, nil
}

func (o Options) openSink(s *Stores) (outbox.Sink, error) {
	switch o.Sink.Kind {
	case "redis":
		return outbox.NewRedisStreamSink(s.Redis,
			outbox.WithStream(o.Sink.Stream),
			outbox.WithMaxLen(o.Sink.MaxLen),
			outbox.WithStreamGuard(s.Guard),
		), nil
	case "cloudevents":
		p, err := cloudevents.NewHTTP(cloudevents.WithTarget(o.Sink.Target))
		if err != nil {
			return nil, fmt.Errorf("config: cloudevents sink: %w", err)
		}
		return outbox.NewCloudEventsSink(p,
			outbox.WithSource(o.Sink.Source),
			outbox.WithSenderGuard(s.Guard),
		), nil
	case "memory":
		return outbox.NewMemorySink(), nil
	}
	return nil, errors.New("config: unknown sink " + o.Sink.Kind)
}
