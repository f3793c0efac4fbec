package behavior

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonwraymond/pipelineplus/cache"
	"github.com/jonwraymond/pipelineplus/observe"
	"github.com/jonwraymond/pipelineplus/pipeline"
	"github.com/jonwraymond/pipelineplus/policy"
)

func TestCaching_GetOrderWithinAndAfterTTL(t *testing.T) {
	clock := newTestClock()
	store := cache.NewMemoryCache(cache.WithClock(clock.Now))
	h := orderHandler()
	b := NewCaching[getOrder, order](store, orderRule(t, cache.Policy{KeyTemplate: "order:{OrderID}", TTL: 30 * time.Second}), CachingConfig{})
	ctx := context.Background()
	req := getOrder{OrderID: "O-1"}
	want := order{ID: "O-1", Total: 100}

	first, err := b.Handle(ctx, req, h.handle)
	if err != nil || first != want || h.count() != 1 {
		t.Fatalf("first call = %+v, %v (calls %d)", first, err, h.count())
	}

	clock.Advance(10 * time.Second)
	second, err := b.Handle(ctx, req, h.handle)
	if err != nil || second != want || h.count() != 1 {
		t.Fatalf("second call = %+v, %v (calls %d)", second, err, h.count())
	}

	clock.Advance(21 * time.Second)
	third, err := b.Handle(ctx, req, h.handle)
	if err != nil || third != want {
		t.Fatalf("third call = %+v, %v", third, err)
	}
	if h.count() != 2 {
		t.Fatalf("call at T+31s should reach the handler, calls = %d", h.count())
	}
}

func TestCaching_TTLBoundary(t *testing.T) {
	clock := newTestClock()
	store := cache.NewMemoryCache(cache.WithClock(clock.Now))
	h := orderHandler()
	b := NewCaching[getOrder, order](store, orderRule(t, cache.Policy{KeyTemplate: "order:{OrderID}", TTL: 30 * time.Second}), CachingConfig{})
	ctx := context.Background()

	_, _ = b.Handle(ctx, getOrder{OrderID: "O-1"}, h.handle)

	clock.Advance(30*time.Second - time.Nanosecond)
	_, _ = b.Handle(ctx, getOrder{OrderID: "O-1"}, h.handle)
	if h.count() != 1 {
		t.Fatalf("entry must be present just before expiry, calls = %d", h.count())
	}

	clock.Advance(2 * time.Nanosecond)
	_, _ = b.Handle(ctx, getOrder{OrderID: "O-1"}, h.handle)
	if h.count() != 2 {
		t.Fatalf("entry must be absent just after expiry, calls = %d", h.count())
	}
}

func TestCaching_DistinctKeys(t *testing.T) {
	h := orderHandler()
	b := NewCaching[getOrder, order](cache.NewMemoryCache(), orderRule(t, cache.Policy{KeyTemplate: "order:{OrderID}"}), CachingConfig{})
	ctx := context.Background()

	a, _ := b.Handle(ctx, getOrder{OrderID: "O-1"}, h.handle)
	c, _ := b.Handle(ctx, getOrder{OrderID: "O-2"}, h.handle)
	if a.ID != "O-1" || c.ID != "O-2" || h.count() != 2 {
		t.Fatalf("got %+v %+v with %d calls", a, c, h.count())
	}
}

func TestCaching_ErrorsAreNotCached(t *testing.T) {
	store := cache.NewMemoryCache()
	boom := errors.New("db down")
	fail := true
	h := &counter[getOrder, order]{fn: func(_ context.Context, q getOrder) (order, error) {
		if fail {
			return order{}, boom
		}
		return order{ID: q.OrderID}, nil
	}}
	b := NewCaching[getOrder, order](store, orderRule(t, cache.Policy{KeyTemplate: "order:{OrderID}"}), CachingConfig{})
	ctx := context.Background()

	if _, err := b.Handle(ctx, getOrder{OrderID: "O-1"}, h.handle); err != boom {
		t.Fatalf("error must propagate unchanged, got %v", err)
	}
	if store.Len() != 0 {
		t.Fatal("failed call must not write the cache")
	}

	fail = false
	if resp, err := b.Handle(ctx, getOrder{OrderID: "O-1"}, h.handle); err != nil || resp.ID != "O-1" {
		t.Fatalf("retry = %+v, %v", resp, err)
	}
	if h.count() != 2 {
		t.Errorf("calls = %d", h.count())
	}
}

func TestCaching_HashedKeyWithoutTemplate(t *testing.T) {
	store := cache.NewMemoryCache()
	h := orderHandler()
	b := NewCaching[getOrder, order](store, orderRule(t, cache.Policy{TTL: time.Minute}), CachingConfig{})
	ctx := context.Background()

	_, _ = b.Handle(ctx, getOrder{OrderID: "O-1"}, h.handle)
	_, _ = b.Handle(ctx, getOrder{OrderID: "O-1"}, h.handle)
	if h.count() != 1 {
		t.Fatalf("equal requests should share a hashed key, calls = %d", h.count())
	}

	key, _ := cache.HashKey("getOrder", getOrder{OrderID: "O-1"}.KeyFields())
	if _, ok, _ := store.Get(ctx, key); !ok {
		t.Errorf("expected entry under %s", key)
	}
}

func TestCaching_UnitBypassesStore(t *testing.T) {
	store := &spyCache{Cache: cache.NewMemoryCache()}
	h := &counter[getOrder, pipeline.Unit]{fn: func(context.Context, getOrder) (pipeline.Unit, error) {
		return pipeline.Unit{}, nil
	}}
	b := NewCaching[getOrder, pipeline.Unit](store, orderRule(t, cache.Policy{KeyTemplate: "order:{OrderID}"}), CachingConfig{})

	for i := 0; i < 2; i++ {
		if _, err := b.Handle(context.Background(), getOrder{OrderID: "O-1"}, h.handle); err != nil {
			t.Fatal(err)
		}
	}
	if h.count() != 2 || store.ops.Load() != 0 {
		t.Fatalf("calls = %d, store ops = %d", h.count(), store.ops.Load())
	}
}

func TestCaching_StoreUnavailable(t *testing.T) {
	h := orderHandler()
	b := NewCaching[getOrder, order](downCache{}, orderRule(t, cache.Policy{KeyTemplate: "order:{OrderID}"}), CachingConfig{})

	_, err := b.Handle(context.Background(), getOrder{OrderID: "O-1"}, h.handle)
	if !errors.Is(err, cache.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
	if h.count() != 0 {
		t.Errorf("calls = %d", h.count())
	}
}

func TestCaching_CorruptEntryIsRefreshed(t *testing.T) {
	store := cache.NewMemoryCache()
	ctx := context.Background()
	_ = store.Set(ctx, "order:O-1", []byte("not json"), time.Minute)

	h := orderHandler()
	b := NewCaching[getOrder, order](store, orderRule(t, cache.Policy{KeyTemplate: "order:{OrderID}"}), CachingConfig{})

	resp, err := b.Handle(ctx, getOrder{OrderID: "O-1"}, h.handle)
	if err != nil || resp.ID != "O-1" || h.count() != 1 {
		t.Fatalf("Handle() = %+v, %v (calls %d)", resp, err, h.count())
	}
	raw, _, _ := store.Get(ctx, "order:O-1")
	if !strings.Contains(string(raw), `"id":"O-1"`) {
		t.Errorf("entry not overwritten: %s", raw)
	}
}

func TestCaching_UnresolvedToken(t *testing.T) {
	tmpl, err := cache.ParseTemplate("order:{Customer}")
	if err != nil {
		t.Fatal(err)
	}
	rule := policy.CacheRule{Name: "getOrder", Template: tmpl}
	h := orderHandler()
	b := NewCaching[getOrder, order](cache.NewMemoryCache(), rule, CachingConfig{})

	_, err = b.Handle(context.Background(), getOrder{OrderID: "O-1"}, h.handle)
	if !errors.Is(err, cache.ErrUnresolvedToken) {
		t.Fatalf("expected ErrUnresolvedToken, got %v", err)
	}
	if h.count() != 0 {
		t.Error("a key error must not reach the handler")
	}
}

func TestCaching_Coalesce(t *testing.T) {
	store := &spyCache{Cache: cache.NewMemoryCache()}
	release := make(chan struct{})
	h := &counter[getOrder, order]{fn: func(_ context.Context, q getOrder) (order, error) {
		<-release
		return order{ID: q.OrderID, Total: 100}, nil
	}}
	b := NewCaching[getOrder, order](store, orderRule(t, cache.Policy{KeyTemplate: "order:{OrderID}"}), CachingConfig{Coalesce: true})

	const callers = 8
	var (
		wg     sync.WaitGroup
		failed atomic.Int64
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := b.Handle(context.Background(), getOrder{OrderID: "O-1"}, h.handle)
			if err != nil || resp.ID != "O-1" {
				failed.Add(1)
			}
		}()
	}

	deadline := time.Now().Add(2 * time.Second)
	for store.ops.Load() < callers && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if failed.Load() != 0 {
		t.Fatalf("%d callers failed", failed.Load())
	}
	if h.count() != 1 {
		t.Errorf("coalesced misses should call the handler once, got %d", h.count())
	}
}

// sealedOrder keeps its total out of the encoded form.
type sealedOrder struct {
	ID    string
	total int
}

func TestCaching_UnstorableResponsesPassThrough(t *testing.T) {
	rule := orderRule(t, cache.Policy{KeyTemplate: "order:{OrderID}", TTL: time.Minute})

	t.Run("unexported field", func(t *testing.T) {
		store := &spyCache{Cache: cache.NewMemoryCache()}
		h := &counter[getOrder, sealedOrder]{fn: func(_ context.Context, q getOrder) (sealedOrder, error) {
			return sealedOrder{ID: q.OrderID, total: 100}, nil
		}}
		b := NewCaching[getOrder, sealedOrder](store, rule, CachingConfig{})

		for range 2 {
			resp, err := b.Handle(context.Background(), getOrder{OrderID: "O-1"}, h.handle)
			if err != nil {
				t.Fatal(err)
			}
			if resp.total != 100 {
				t.Fatalf("total = %d, want 100", resp.total)
			}
		}
		if h.count() != 2 || store.ops.Load() != 0 {
			t.Errorf("calls = %d, store ops = %d, want 2 and 0", h.count(), store.ops.Load())
		}
	})

	t.Run("interface response", func(t *testing.T) {
		var buf bytes.Buffer
		store := &spyCache{Cache: cache.NewMemoryCache()}
		h := &counter[getOrder, any]{fn: func(_ context.Context, q getOrder) (any, error) {
			return order{ID: q.OrderID, Total: 100}, nil
		}}
		b := NewCaching[getOrder, any](store, rule, CachingConfig{Logger: observe.NewLoggerWithWriter("info", &buf)})

		for range 2 {
			resp, err := b.Handle(context.Background(), getOrder{OrderID: "O-1"}, h.handle)
			if err != nil {
				t.Fatal(err)
			}
			if _, ok := resp.(order); !ok {
				t.Fatalf("resp = %T, want order", resp)
			}
		}
		if h.count() != 2 || store.ops.Load() != 0 {
			t.Errorf("calls = %d, store ops = %d, want 2 and 0", h.count(), store.ops.Load())
		}
		if !strings.Contains(buf.String(), "caching disabled") {
			t.Errorf("log = %s, want caching disabled warning", buf.String())
		}
	})
}
