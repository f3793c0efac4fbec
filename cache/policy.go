package cache

import (
	"fmt"
	"time"
)

// DefaultTTL applies when a Policy leaves TTL unset.
const DefaultTTL = 5 * time.Minute

// Policy is the cache metadata attached to a request type.
type Policy struct {
	// KeyTemplate builds the key from request fields, e.g. "order:{OrderID}".
	// If empty, the key is a hash of the whole request.
	KeyTemplate string

	// TTL is how long a response stays cached. If zero, DefaultTTL is used.
	TTL time.Duration

	// MaxTTL clamps TTL when set.
	MaxTTL time.Duration
}

// Validate checks the policy values and the template syntax.
func (p Policy) Validate() error {
	if p.TTL < 0 || p.MaxTTL < 0 {
		return fmt.Errorf("%w: %v", ErrInvalidTTL, p.TTL)
	}
	if p.KeyTemplate != "" {
		if _, err := ParseTemplate(p.KeyTemplate); err != nil {
			return err
		}
	}
	return nil
}

// EffectiveTTL returns the TTL to use, applying the default and clamping.
func (p Policy) EffectiveTTL() time.Duration {
	ttl := p.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if p.MaxTTL > 0 && ttl > p.MaxTTL {
		ttl = p.MaxTTL
	}
	return ttl
}
