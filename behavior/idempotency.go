package behavior

import (
	"context"
	"fmt"
	"reflect"
	"time"

	"github.com/jonwraymond/pipelineplus/cache"
	"github.com/jonwraymond/pipelineplus/observe"
	"github.com/jonwraymond/pipelineplus/pipeline"
	"github.com/jonwraymond/pipelineplus/policy"
)

// Idempotency record states.
const (
	StatePending  = "pending"
	StateComplete = "complete"
)

// idempotencyRecord is stored under idem:<name>:<token>.
type idempotencyRecord[Resp any] struct {
	State     string    `json:"state"`
	Response  *Resp     `json:"response,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// IdempotencyConfig configures an Idempotency behavior.
type IdempotencyConfig struct {
	Codec  cache.Codec      // defaults to cache.JSONCodec
	Logger observe.Logger   // defaults to a no-op logger
	Now    func() time.Time // defaults to time.Now
}

// Idempotency replays the stored response of an earlier successful call
// bearing the same token.
//
// A pending marker is reserved atomically before next runs, so concurrent
// calls with the same token see pipeline.ErrRequestInFlight instead of
// executing twice. A failed call deletes its marker and the caller may retry.
// Calls without the header pass through and never touch the store.
type Idempotency[Req, Resp any] struct {
	store  cache.Cache
	name   string
	policy policy.Idempotency
	codec  cache.Codec
	logger observe.Logger
	now    func() time.Time

	unstorable error
}

// NewIdempotency creates the behavior for the request type registered as
// name.
func NewIdempotency[Req, Resp any](store cache.Cache, name string, p policy.Idempotency, cfg IdempotencyConfig) *Idempotency[Req, Resp] {
	b := &Idempotency[Req, Resp]{
		store:  store,
		name:   name,
		policy: p.WithDefaults(),
		codec:  cfg.Codec,
		logger: cfg.Logger,
		now:    cfg.Now,
	}
	if b.codec == nil {
		b.codec = cache.JSONCodec{}
	}
	if b.logger == nil {
		b.logger = observe.NopLogger()
	}
	if b.now == nil {
		b.now = time.Now
	}
	if err := cache.CheckStorable(reflect.TypeFor[Resp]()); err != nil {
		b.unstorable = err
		b.logger.Warn(context.Background(), "response type cannot be replayed, idempotency disabled",
			observe.Field{Key: "request", Value: name},
			observe.Field{Key: "error", Value: err.Error()},
		)
	}
	return b
}

// Handle implements pipeline.Behavior.
func (b *Idempotency[Req, Resp]) Handle(ctx context.Context, req Req, next pipeline.HandlerFunc[Req, Resp]) (Resp, error) {
	var zero Resp
	token := pipeline.Header(ctx, b.policy.Header)
	if token == "" || b.unstorable != nil {
		return next(ctx, req)
	}
	key := b.policy.Key(b.name, token)
	if err := cache.ValidateKey(key); err != nil {
		return zero, fmt.Errorf("behavior: %s idempotency token: %w", b.name, err)
	}

	reserved, replay, err := b.reserve(ctx, key)
	if err != nil {
		return zero, err
	}
	if !reserved {
		b.logger.Info(ctx, "idempotent replay", observe.Field{Key: "request", Value: b.name})
		if replay == nil {
			return zero, nil
		}
		return *replay, nil
	}

	resp, err := next(ctx, req)
	if err != nil {
		b.release(ctx, key)
		return zero, err
	}

	data, err := b.codec.Marshal(idempotencyRecord[Resp]{State: StateComplete, Response: &resp, CreatedAt: b.now().UTC()})
	if err != nil {
		b.release(ctx, key)
		return zero, fmt.Errorf("behavior: encode %s response: %w", b.name, err)
	}
	if err := b.store.Set(context.WithoutCancel(ctx), key, data, b.policy.TTL); err != nil {
		b.release(ctx, key)
		return zero, err
	}
	return resp, nil
}

// release deletes the pending marker so the caller may retry.
func (b *Idempotency[Req, Resp]) release(ctx context.Context, key string) {
	if err := b.store.Delete(context.WithoutCancel(ctx), key); err != nil {
		b.logger.Warn(ctx, "failed to release idempotency marker",
			observe.Field{Key: "request", Value: b.name},
			observe.Field{Key: "error", Value: err.Error()},
		)
	}
}

// reserve places the pending marker. When another record already holds the
// key it returns the completed response to replay (nil for a stored nil
// value), or ErrRequestInFlight.
func (b *Idempotency[Req, Resp]) reserve(ctx context.Context, key string) (bool, *Resp, error) {
	pending, err := b.codec.Marshal(idempotencyRecord[Resp]{State: StatePending, CreatedAt: b.now().UTC()})
	if err != nil {
		return false, nil, fmt.Errorf("behavior: encode pending marker: %w", err)
	}

	// The second attempt covers a record that expired or was released
	// between Reserve and Get.
	for attempt := 0; attempt < 2; attempt++ {
		ok, err := b.store.Reserve(ctx, key, pending, b.policy.TTL)
		if err != nil {
			return false, nil, err
		}
		if ok {
			return true, nil, nil
		}

		data, found, err := b.store.Get(ctx, key)
		if err != nil {
			return false, nil, err
		}
		if !found {
			continue
		}

		var rec idempotencyRecord[Resp]
		if err := b.codec.Unmarshal(data, &rec); err != nil {
			return false, nil, fmt.Errorf("behavior: decode idempotency record %s: %w", b.name, err)
		}
		// A nil Response is a stored nil pointer, slice or map.
		if rec.State == StateComplete {
			return false, rec.Response, nil
		}
		return false, nil, fmt.Errorf("%w: %s", pipeline.ErrRequestInFlight, b.name)
	}
	return false, nil, fmt.Errorf("%w: %s", pipeline.ErrRequestInFlight, b.name)
}
