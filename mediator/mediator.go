package mediator

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/jonwraymond/pipelineplus/cache"
	"github.com/jonwraymond/pipelineplus/config"
	"github.com/jonwraymond/pipelineplus/errmap"
	"github.com/jonwraymond/pipelineplus/observe"
	"github.com/jonwraymond/pipelineplus/outbox"
	"github.com/jonwraymond/pipelineplus/pipeline"
	"github.com/jonwraymond/pipelineplus/policy"
	"github.com/jonwraymond/pipelineplus/validation"
)

// Request kinds reported to telemetry.
const (
	KindCommand = "command"
	KindQuery   = "query"
)

// Mediator routes requests to handlers wrapped in their behavior chains.
// It is safe for concurrent use.
type Mediator struct {
	opts       config.Options
	store      cache.Cache
	sink       outbox.Sink
	policies   *policy.Registry
	validators *validation.Registry
	mw         *observe.Middleware
	logger     observe.Logger
	mapper     errmap.Mapper
	codec      cache.Codec
	now        func() time.Time

	mu     sync.RWMutex
	routes map[string]route
}

type route struct {
	handler   any
	behaviors []string
}

// New creates a Mediator. Without options it uses config.Default() and an
// in-memory cache.
func New(opts ...Option) *Mediator {
	m := &Mediator{
		opts:   config.Default(),
		routes: make(map[string]route),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.store == nil {
		m.store = cache.NewMemoryCache()
	}
	if m.mw == nil {
		m.mw = observe.NopMiddleware()
	}
	if m.logger == nil {
		m.logger = observe.NopLogger()
	}
	if m.mapper == nil {
		m.mapper = errmap.Default{}
	}
	if m.codec == nil {
		m.codec = cache.JSONCodec{}
	}
	return m
}

// Options returns the toggles the Mediator was built with.
func (m *Mediator) Options() config.Options {
	return m.opts
}

// Register builds the behavior chain for Req and routes Req to it.
func Register[Req, Resp any](m *Mediator, handler pipeline.HandlerFunc[Req, Resp]) error {
	if handler == nil {
		return ErrNilHandler
	}
	name := pipeline.NameOf[Req]()

	chain, names, err := assemble(m, name, handler)
	if err != nil {
		return fmt.Errorf("mediator: %s: %w", name, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.routes[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateHandler, name)
	}
	m.routes[name] = route{handler: chain, behaviors: names}
	return nil
}

// Send runs req through the chain registered for Req.
func Send[Req, Resp any](ctx context.Context, m *Mediator, req Req) (Resp, error) {
	var zero Resp
	name := pipeline.NameOf[Req]()

	m.mu.RLock()
	r, ok := m.routes[name]
	m.mu.RUnlock()
	if !ok {
		return zero, fmt.Errorf("%w: %s", ErrNoHandler, name)
	}

	h, ok := r.handler.(pipeline.HandlerFunc[Req, Resp])
	if !ok {
		return zero, fmt.Errorf("%w: %s is not handled as %T", ErrHandlerType, name, zero)
	}
	return h(ctx, req)
}

// Behaviors lists the behaviors wrapped around the handler for name,
// outermost first.
func (m *Mediator) Behaviors(name string) ([]string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.routes[name]
	if !ok {
		return nil, false
	}
	return slices.Clone(r.behaviors), true
}

// Requests lists the registered request names, sorted.
func (m *Mediator) Requests() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.routes))
	for name := range m.routes {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// MapError translates err for the transport layer. With exception mapping
// disabled nothing is mapped.
func (m *Mediator) MapError(err error) (errmap.Mapped, bool) {
	if !m.opts.ExceptionMapping {
		return errmap.Mapped{}, false
	}
	return m.mapper.Map(err)
}
