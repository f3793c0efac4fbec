package policy

import (
	"fmt"
	"time"

	"github.com/jonwraymond/pipelineplus/cache"
)

// CacheRule is a cache policy compiled for one request type.
type CacheRule struct {
	Name   string
	Policy cache.Policy

	// Template is nil when the policy has no key template; keys are then
	// hashed from KeyFields, or from the whole request.
	Template *cache.Template
}

// TTL returns the effective TTL of the rule.
func (r CacheRule) TTL() time.Duration {
	return r.Policy.EffectiveTTL()
}

// Key derives the cache key for req.
func (r CacheRule) Key(req any) (string, error) {
	var (
		key string
		err error
	)
	if r.Template == nil {
		if f, ok := req.(cache.Fielder); ok {
			key, err = cache.HashKey(r.Name, f.KeyFields())
		} else {
			key, err = cache.HashKey(r.Name, req)
		}
	} else {
		f, ok := req.(cache.Fielder)
		if !ok {
			return "", fmt.Errorf("%w: %s", ErrNoKeyFields, r.Name)
		}
		key, err = r.Template.Render(f.KeyFields())
	}
	if err != nil {
		return "", err
	}
	if err := cache.ValidateKey(key); err != nil {
		return "", fmt.Errorf("%w: %q", err, key)
	}
	return key, nil
}
