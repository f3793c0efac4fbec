package policy

import (
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/jonwraymond/pipelineplus/cache"
)

type getOrder struct {
	OrderID  string
	Currency string
}

func (q getOrder) KeyFields() map[string]any {
	return map[string]any{"OrderID": q.OrderID, "Currency": q.Currency}
}

type listOrders struct {
	Page int `json:"page"`
}

type placeOrder struct{}

func (placeOrder) RequestName() string { return "orders.place" }

type ptrQuery struct{ ID string }

func (q *ptrQuery) KeyFields() map[string]any { return map[string]any{"ID": q.ID} }

func TestRegisterCache_CompilesTemplate(t *testing.T) {
	reg := NewRegistry()
	err := RegisterCache[getOrder](reg, cache.Policy{KeyTemplate: "order:{OrderID}:{Currency}", TTL: 30 * time.Second})
	if err != nil {
		t.Fatalf("RegisterCache() error = %v", err)
	}

	rule, ok := reg.Cache("getOrder")
	if !ok {
		t.Fatal("rule not found")
	}
	if rule.Template == nil {
		t.Fatal("template should be compiled")
	}
	if rule.TTL() != 30*time.Second {
		t.Errorf("TTL() = %v", rule.TTL())
	}

	key, err := rule.Key(getOrder{OrderID: "O-1", Currency: "EUR"})
	if err != nil {
		t.Fatalf("Key() error = %v", err)
	}
	if key != "order:O-1:EUR" {
		t.Errorf("Key() = %q", key)
	}
}

func TestRegisterCache_UnknownToken(t *testing.T) {
	reg := NewRegistry()
	err := RegisterCache[getOrder](reg, cache.Policy{KeyTemplate: "order:{OrderId}"})
	if !errors.Is(err, ErrUnknownToken) {
		t.Fatalf("expected ErrUnknownToken, got %v", err)
	}
	if _, ok := reg.Cache("getOrder"); ok {
		t.Error("failed registration must not store a rule")
	}
}

func TestRegisterCache_TemplateWithoutFields(t *testing.T) {
	reg := NewRegistry()
	err := RegisterCache[listOrders](reg, cache.Policy{KeyTemplate: "orders:{Page}"})
	if !errors.Is(err, ErrNoKeyFields) {
		t.Fatalf("expected ErrNoKeyFields, got %v", err)
	}
}

func TestRegisterCache_InvalidPolicy(t *testing.T) {
	reg := NewRegistry()
	err := RegisterCache[getOrder](reg, cache.Policy{TTL: -time.Second})
	if !errors.Is(err, ErrInvalidPolicy) || !errors.Is(err, cache.ErrInvalidTTL) {
		t.Fatalf("expected ErrInvalidPolicy wrapping ErrInvalidTTL, got %v", err)
	}
}

func TestRegisterCache_Duplicate(t *testing.T) {
	reg := NewRegistry()
	if err := RegisterCache[listOrders](reg, cache.Policy{}); err != nil {
		t.Fatal(err)
	}
	if err := RegisterCache[listOrders](reg, cache.Policy{}); !errors.Is(err, ErrAlreadyRegistered) {
		t.Fatalf("expected ErrAlreadyRegistered, got %v", err)
	}
}

func TestRegisterCache_PointerRequest(t *testing.T) {
	reg := NewRegistry()
	if err := RegisterCache[*ptrQuery](reg, cache.Policy{KeyTemplate: "q:{ID}"}); err != nil {
		t.Fatalf("RegisterCache() error = %v", err)
	}
	rule, _ := reg.Cache("ptrQuery")
	key, err := rule.Key(&ptrQuery{ID: "7"})
	if err != nil || key != "q:7" {
		t.Fatalf("Key() = %q, %v", key, err)
	}
}

func TestCacheRule_HashedKey(t *testing.T) {
	reg := NewRegistry()
	if err := RegisterCache[listOrders](reg, cache.Policy{}); err != nil {
		t.Fatal(err)
	}
	rule, _ := reg.Cache("listOrders")

	k1, err := rule.Key(listOrders{Page: 1})
	if err != nil {
		t.Fatal(err)
	}
	k2, _ := rule.Key(listOrders{Page: 1})
	k3, _ := rule.Key(listOrders{Page: 2})

	if !strings.HasPrefix(k1, "cache:listOrders:") {
		t.Errorf("unexpected key %q", k1)
	}
	if k1 != k2 || k1 == k3 {
		t.Errorf("keys: %q %q %q", k1, k2, k3)
	}
}

func TestCacheRule_InvalidRenderedKey(t *testing.T) {
	reg := NewRegistry()
	_ = RegisterCache[getOrder](reg, cache.Policy{KeyTemplate: "{OrderID}"})
	rule, _ := reg.Cache("getOrder")

	if _, err := rule.Key(getOrder{OrderID: "  "}); !errors.Is(err, cache.ErrInvalidKey) {
		t.Fatalf("expected ErrInvalidKey, got %v", err)
	}
}

func TestRegisterIdempotency_Defaults(t *testing.T) {
	reg := NewRegistry()
	if err := RegisterIdempotency[placeOrder](reg, Idempotency{}); err != nil {
		t.Fatal(err)
	}

	p, ok := reg.Idempotency("orders.place")
	if !ok {
		t.Fatal("policy not found under RequestName")
	}
	if p.Header != DefaultIdempotencyHeader || p.TTL != DefaultIdempotencyTTL {
		t.Errorf("unexpected defaults: %+v", p)
	}
	if got := p.Key("orders.place", "abc"); got != "idem:orders.place:abc" {
		t.Errorf("Key() = %q", got)
	}

	if err := RegisterIdempotency[placeOrder](reg, Idempotency{}); !errors.Is(err, ErrAlreadyRegistered) {
		t.Fatalf("expected ErrAlreadyRegistered, got %v", err)
	}
	if err := RegisterIdempotency[getOrder](reg, Idempotency{TTL: -time.Second}); !errors.Is(err, ErrInvalidPolicy) {
		t.Fatalf("expected ErrInvalidPolicy, got %v", err)
	}
}

func TestRegistry_List(t *testing.T) {
	reg := NewRegistry()
	_ = RegisterCache[getOrder](reg, cache.Policy{})
	_ = RegisterIdempotency[getOrder](reg, Idempotency{})
	_ = RegisterIdempotency[placeOrder](reg, Idempotency{Header: "X-Request-Id"})

	want := []string{"getOrder", "orders.place"}
	if got := reg.List(); !reflect.DeepEqual(got, want) {
		t.Errorf("List() = %v, want %v", got, want)
	}
}

func TestRegistry_NilLookups(t *testing.T) {
	var reg *Registry
	if _, ok := reg.Cache("x"); ok {
		t.Error("nil registry should have no cache rules")
	}
	if _, ok := reg.Idempotency("x"); ok {
		t.Error("nil registry should have no idempotency policies")
	}
}

type lookupByID struct {
	id string
}

type lookupByToken struct {
	Token string `json:"-"`
	Page  int
}

type lookupByRef struct {
	ref string
}

func (q lookupByRef) KeyFields() map[string]any { return map[string]any{"Ref": q.ref} }

func TestRegisterCache_HiddenFieldsWithoutTemplate(t *testing.T) {
	reg := NewRegistry()
	if err := RegisterCache[lookupByID](reg, cache.Policy{}); !errors.Is(err, cache.ErrNotHashable) {
		t.Errorf("unexported field: error = %v, want ErrNotHashable", err)
	}
	if err := RegisterCache[lookupByToken](reg, cache.Policy{}); !errors.Is(err, cache.ErrNotHashable) {
		t.Errorf("json:\"-\" field: error = %v, want ErrNotHashable", err)
	}
	if _, ok := reg.Cache("lookupByID"); ok {
		t.Error("rejected policy was registered")
	}
}

func TestCacheRule_HashedKeyFromKeyFields(t *testing.T) {
	reg := NewRegistry()
	if err := RegisterCache[lookupByRef](reg, cache.Policy{}); err != nil {
		t.Fatalf("RegisterCache() error = %v", err)
	}
	rule, _ := reg.Cache("lookupByRef")

	a, err := rule.Key(lookupByRef{ref: "A"})
	if err != nil {
		t.Fatal(err)
	}
	b, _ := rule.Key(lookupByRef{ref: "B"})
	if a == b {
		t.Errorf("distinct requests share key %q", a)
	}
	want, _ := cache.HashKey("lookupByRef", map[string]any{"Ref": "A"})
	if a != want {
		t.Errorf("Key() = %q, want %q", a, want)
	}
}

func TestRegisterCache_ReservedPrefix(t *testing.T) {
	reg := NewRegistry()
	err := RegisterCache[getOrder](reg, cache.Policy{KeyTemplate: "idem:{OrderID}"})
	if !errors.Is(err, ErrInvalidPolicy) {
		t.Fatalf("error = %v, want ErrInvalidPolicy", err)
	}
}
