package validation

import (
	"errors"
	"fmt"
	"sync"

	"github.com/jonwraymond/pipelineplus/pipeline"
)

// ErrNilValidator is returned when registering a nil validator.
var ErrNilValidator = errors.New("validation: nil validator")

// Registry holds the validators of every request type, in registration
// order.
type Registry struct {
	mu         sync.RWMutex
	validators map[string][]any
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{validators: make(map[string][]any)}
}

// Register appends validators for request type Req.
func Register[Req any](r *Registry, validators ...Validator[Req]) error {
	name := pipeline.NameOf[Req]()
	for i, v := range validators {
		if v == nil {
			return fmt.Errorf("%w: %s #%d", ErrNilValidator, name, i)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, v := range validators {
		r.validators[name] = append(r.validators[name], v)
	}
	return nil
}

// For returns the validators registered for request type Req.
func For[Req any](r *Registry) []Validator[Req] {
	if r == nil {
		return nil
	}
	name := pipeline.NameOf[Req]()

	r.mu.RLock()
	defer r.mu.RUnlock()
	stored := r.validators[name]
	if len(stored) == 0 {
		return nil
	}
	out := make([]Validator[Req], 0, len(stored))
	for _, v := range stored {
		if typed, ok := v.(Validator[Req]); ok {
			out = append(out, typed)
		}
	}
	return out
}

// Len returns the number of validators registered under name.
func (r *Registry) Len(name string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.validators[name])
}
