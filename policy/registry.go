package policy

import (
	"fmt"
	"reflect"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/jonwraymond/pipelineplus/cache"
	"github.com/jonwraymond/pipelineplus/pipeline"
)

// Registry maps request names to their policies.
//
// Contract:
//   - Concurrency: safe for concurrent use. Registration is expected at
//     startup; lookups happen on every call.
//   - Each request type carries at most one cache and one idempotency policy.
type Registry struct {
	mu          sync.RWMutex
	caches      map[string]CacheRule
	idempotency map[string]Idempotency
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		caches:      make(map[string]CacheRule),
		idempotency: make(map[string]Idempotency),
	}
}

// RegisterCache attaches p to request type Req. The key template is checked
// against the fields Req declares through cache.Fielder. Without a template
// the key is hashed from KeyFields, or from the whole request when Req is not
// a Fielder; the latter requires every field to be visible to JSON.
func RegisterCache[Req any](r *Registry, p cache.Policy) error {
	name := pipeline.NameOf[Req]()
	if err := p.Validate(); err != nil {
		return fmt.Errorf("%w for %s: %w", ErrInvalidPolicy, name, err)
	}

	if strings.HasPrefix(p.KeyTemplate, IdempotencyKeyPrefix) {
		return fmt.Errorf("%w for %s: key template %q uses the reserved %q prefix", ErrInvalidPolicy, name, p.KeyTemplate, IdempotencyKeyPrefix)
	}

	rule := CacheRule{Name: name, Policy: p}
	if p.KeyTemplate == "" {
		if _, fielder := declaredFields[Req](); !fielder {
			if err := cache.CheckHashable(reflect.TypeFor[Req]()); err != nil {
				return fmt.Errorf("%w for %s: %w", ErrInvalidPolicy, name, err)
			}
		}
	}
	if p.KeyTemplate != "" {
		declared, ok := declaredFields[Req]()
		if !ok {
			return fmt.Errorf("%w: %s", ErrNoKeyFields, name)
		}
		tmpl, err := cache.CompileTemplate(p.KeyTemplate, declared)
		if err != nil {
			return fmt.Errorf("policy: %s: %w", name, err)
		}
		rule.Template = tmpl
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.caches[name]; exists {
		return fmt.Errorf("%w: cache policy for %s", ErrAlreadyRegistered, name)
	}
	r.caches[name] = rule
	return nil
}

// RegisterIdempotency attaches p, completed with defaults, to request type
// Req.
func RegisterIdempotency[Req any](r *Registry, p Idempotency) error {
	name := pipeline.NameOf[Req]()
	p = p.WithDefaults()
	if p.TTL < 0 {
		return fmt.Errorf("%w for %s: negative ttl %v", ErrInvalidPolicy, name, p.TTL)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.idempotency[name]; exists {
		return fmt.Errorf("%w: idempotency policy for %s", ErrAlreadyRegistered, name)
	}
	r.idempotency[name] = p
	return nil
}

// Cache returns the cache rule registered under name.
func (r *Registry) Cache(name string) (CacheRule, bool) {
	if r == nil {
		return CacheRule{}, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	rule, ok := r.caches[name]
	return rule, ok
}

// Idempotency returns the idempotency policy registered under name.
func (r *Registry) Idempotency(name string) (Idempotency, bool) {
	if r == nil {
		return Idempotency{}, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.idempotency[name]
	return p, ok
}

// List returns every request name with at least one policy.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.caches)+len(r.idempotency))
	for name := range r.caches {
		names = append(names, name)
	}
	for name := range r.idempotency {
		if !slices.Contains(names, name) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// declaredFields reads the key field names of Req from its zero value. A
// pointer type is read through a freshly allocated element.
func declaredFields[Req any]() ([]string, bool) {
	var zero Req
	sample := any(zero)
	if t := reflect.TypeFor[Req](); t.Kind() == reflect.Pointer {
		sample = reflect.New(t.Elem()).Interface()
	}
	f, ok := sample.(cache.Fielder)
	if !ok {
		return nil, false
	}
	fields := make([]string, 0, len(f.KeyFields()))
	for name := range f.KeyFields() {
		fields = append(fields, name)
	}
	sort.Strings(fields)
	return fields, true
}
