package behavior

import (
	"context"
	"fmt"
	"reflect"

	"golang.org/x/sync/singleflight"

	"github.com/jonwraymond/pipelineplus/cache"
	"github.com/jonwraymond/pipelineplus/observe"
	"github.com/jonwraymond/pipelineplus/pipeline"
	"github.com/jonwraymond/pipelineplus/policy"
)

// CachingConfig configures a Caching behavior.
type CachingConfig struct {
	Codec  cache.Codec    // defaults to cache.JSONCodec
	Logger observe.Logger // defaults to a no-op logger

	// Coalesce collapses concurrent misses for the same key in this process
	// into one call of next. All waiters share the first caller's context.
	// Without it, concurrent misses each call next and the last write wins.
	Coalesce bool
}

// Caching is a look-aside cache around the rest of the chain. Keys come
// from the request type's cache rule; only successful responses are stored.
// Unit responses bypass the cache, as do response types rejected by
// cache.CheckStorable.
type Caching[Req, Resp any] struct {
	store  cache.Cache
	rule   policy.CacheRule
	codec  cache.Codec
	logger observe.Logger
	group  *singleflight.Group

	// unstorable is set when Resp would not decode back to the value
	// stored; the behavior then passes every call through.
	unstorable error
}

// NewCaching creates the behavior for one request type.
func NewCaching[Req, Resp any](store cache.Cache, rule policy.CacheRule, cfg CachingConfig) *Caching[Req, Resp] {
	b := &Caching[Req, Resp]{
		store:  store,
		rule:   rule,
		codec:  cfg.Codec,
		logger: cfg.Logger,
	}
	if b.codec == nil {
		b.codec = cache.JSONCodec{}
	}
	if b.logger == nil {
		b.logger = observe.NopLogger()
	}
	if cfg.Coalesce {
		b.group = &singleflight.Group{}
	}
	if !pipeline.IsUnit[Resp]() {
		if err := cache.CheckStorable(reflect.TypeFor[Resp]()); err != nil {
			b.unstorable = err
			b.logger.Warn(context.Background(), "response type cannot be cached, caching disabled",
				observe.Field{Key: "request", Value: rule.Name},
				observe.Field{Key: "error", Value: err.Error()},
			)
		}
	}
	return b
}

// Handle implements pipeline.Behavior.
func (b *Caching[Req, Resp]) Handle(ctx context.Context, req Req, next pipeline.HandlerFunc[Req, Resp]) (Resp, error) {
	var zero Resp
	if pipeline.IsUnit[Resp]() || b.unstorable != nil {
		return next(ctx, req)
	}

	key, err := b.rule.Key(req)
	if err != nil {
		return zero, err
	}

	data, ok, err := b.store.Get(ctx, key)
	if err != nil {
		return zero, err
	}
	if ok {
		var resp Resp
		if err := b.codec.Unmarshal(data, &resp); err == nil {
			b.logger.Debug(ctx, "cache hit", observe.Field{Key: "key", Value: key})
			return resp, nil
		}
		b.logger.Warn(ctx, "cache entry undecodable, refreshing", observe.Field{Key: "key", Value: key})
	}

	if b.group == nil {
		return b.fill(ctx, key, req, next)
	}
	v, err, _ := b.group.Do(key, func() (any, error) {
		return b.fill(ctx, key, req, next)
	})
	if err != nil {
		return zero, err
	}
	resp, _ := v.(Resp)
	return resp, nil
}

func (b *Caching[Req, Resp]) fill(ctx context.Context, key string, req Req, next pipeline.HandlerFunc[Req, Resp]) (Resp, error) {
	var zero Resp
	resp, err := next(ctx, req)
	if err != nil {
		return zero, err
	}

	data, err := b.codec.Marshal(resp)
	if err != nil {
		return zero, fmt.Errorf("behavior: encode %s response: %w", b.rule.Name, err)
	}
	if err := b.store.Set(ctx, key, data, b.rule.TTL()); err != nil {
		return zero, err
	}
	b.logger.Debug(ctx, "cache set",
		observe.Field{Key: "key", Value: key},
		observe.Field{Key: "ttl", Value: b.rule.TTL().String()},
	)
	return resp, nil
}
