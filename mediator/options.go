package mediator

import (
	"time"

	"github.com/jonwraymond/pipelineplus/cache"
	"github.com/jonwraymond/pipelineplus/config"
	"github.com/jonwraymond/pipelineplus/errmap"
	"github.com/jonwraymond/pipelineplus/observe"
	"github.com/jonwraymond/pipelineplus/outbox"
	"github.com/jonwraymond/pipelineplus/policy"
	"github.com/jonwraymond/pipelineplus/validation"
)

// Option configures a Mediator.
type Option func(*Mediator)

// WithOptions replaces config.Default().
func WithOptions(opts config.Options) Option {
	return func(m *Mediator) { m.opts = opts }
}

// WithCache sets the store shared by caching and idempotency.
func WithCache(store cache.Cache) Option {
	return func(m *Mediator) { m.store = store }
}

// WithOutbox sets the sink for domain events.
func WithOutbox(sink outbox.Sink) Option {
	return func(m *Mediator) { m.sink = sink }
}

// WithStores takes the cache and sink from stores opened by config.Open.
func WithStores(stores *config.Stores) Option {
	return func(m *Mediator) {
		if stores == nil {
			return
		}
		m.store = stores.Cache
		m.sink = stores.Sink
	}
}

// WithPolicies sets the cache and idempotency policy registry.
func WithPolicies(r *policy.Registry) Option {
	return func(m *Mediator) { m.policies = r }
}

// WithValidators sets the validator registry.
func WithValidators(r *validation.Registry) Option {
	return func(m *Mediator) { m.validators = r }
}

// WithMiddleware sets the telemetry recorded by the Performance behavior.
func WithMiddleware(mw *observe.Middleware) Option {
	return func(m *Mediator) { m.mw = mw }
}

// WithLogger sets the logger used by caching, idempotency and outbox.
func WithLogger(logger observe.Logger) Option {
	return func(m *Mediator) { m.logger = logger }
}

// WithMapper puts custom mappers in front of errmap.Default.
func WithMapper(custom ...errmap.Mapper) Option {
	return func(m *Mediator) { m.mapper = errmap.With(custom...) }
}

// WithCodec sets the encoding of cached and replayed responses.
func WithCodec(codec cache.Codec) Option {
	return func(m *Mediator) { m.codec = codec }
}

// WithClock sets the clock stamped on idempotency records.
func WithClock(now func() time.Time) Option {
	return func(m *Mediator) { m.now = now }
}
