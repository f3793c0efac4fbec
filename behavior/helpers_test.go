package behavior

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonwraymond/pipelineplus/cache"
	"github.com/jonwraymond/pipelineplus/pipeline"
	"github.com/jonwraymond/pipelineplus/policy"
)

type getOrder struct {
	OrderID string `json:"orderId"`
}

func (q getOrder) KeyFields() map[string]any {
	return map[string]any{"OrderID": q.OrderID}
}

type order struct {
	ID    string `json:"id"`
	Total int    `json:"total"`
}

type placeOrder struct {
	OrderID string `json:"orderId"`
	Amount  int    `json:"amount"`
}

type orderPlaced struct {
	OrderID string `json:"orderId"`
}

type orderPaid struct {
	OrderID string `json:"orderId"`
	Amount  int    `json:"amount"`
}

type placed struct {
	OrderID string `json:"orderId"`
	Events  []any  `json:"-"`
}

func (p placed) DomainEvents() []any { return p.Events }

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// counter is a handler that counts its invocations.
type counter[Req, Resp any] struct {
	calls atomic.Int64
	fn    func(ctx context.Context, req Req) (Resp, error)
}

func (c *counter[Req, Resp]) handle(ctx context.Context, req Req) (Resp, error) {
	c.calls.Add(1)
	return c.fn(ctx, req)
}

func (c *counter[Req, Resp]) count() int {
	return int(c.calls.Load())
}

func orderHandler() *counter[getOrder, order] {
	return &counter[getOrder, order]{fn: func(_ context.Context, q getOrder) (order, error) {
		return order{ID: q.OrderID, Total: 100}, nil
	}}
}

// spyCache counts store operations.
type spyCache struct {
	cache.Cache
	ops atomic.Int64
}

func (s *spyCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	s.ops.Add(1)
	return s.Cache.Get(ctx, key)
}

func (s *spyCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	s.ops.Add(1)
	return s.Cache.Set(ctx, key, value, ttl)
}

func (s *spyCache) Reserve(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	s.ops.Add(1)
	return s.Cache.Reserve(ctx, key, value, ttl)
}

func (s *spyCache) Delete(ctx context.Context, key string) error {
	s.ops.Add(1)
	return s.Cache.Delete(ctx, key)
}

// downCache fails every operation as an unreachable store would.
type downCache struct{}

func (downCache) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, fmt.Errorf("%w: connection refused", cache.ErrStoreUnavailable)
}

func (downCache) Set(context.Context, string, []byte, time.Duration) error {
	return fmt.Errorf("%w: connection refused", cache.ErrStoreUnavailable)
}

func (downCache) Reserve(context.Context, string, []byte, time.Duration) (bool, error) {
	return false, fmt.Errorf("%w: connection refused", cache.ErrStoreUnavailable)
}

func (downCache) Delete(context.Context, string) error {
	return fmt.Errorf("%w: connection refused", cache.ErrStoreUnavailable)
}

func orderRule(t *testing.T, p cache.Policy) policy.CacheRule {
	t.Helper()
	reg := policy.NewRegistry()
	if err := policy.RegisterCache[getOrder](reg, p); err != nil {
		t.Fatalf("RegisterCache failed: %v", err)
	}
	rule, ok := reg.Cache(pipeline.NameOf[getOrder]())
	if !ok {
		t.Fatal("rule not registered")
	}
	return rule
}

func withToken(token string) context.Context {
	return pipeline.WithHeaders(context.Background(), pipeline.HeaderMap{"Idempotency-Key": token})
}
