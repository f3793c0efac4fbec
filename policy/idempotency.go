package policy

import (
	"strings"
	"time"
)

// Idempotency defaults.
const (
	DefaultIdempotencyHeader = "Idempotency-Key"
	DefaultIdempotencyTTL    = 300 * time.Second

	// IdempotencyKeyPrefix starts every idempotency store key. Cache key
	// templates may not use it.
	IdempotencyKeyPrefix = "idem:"
)

// Idempotency is the idempotency metadata attached to a request type.
type Idempotency struct {
	// Header names the inbound header carrying the caller's token.
	Header string

	// TTL bounds how long a completed response is replayed.
	TTL time.Duration
}

// WithDefaults fills unset fields with the defaults.
func (p Idempotency) WithDefaults() Idempotency {
	p.Header = strings.TrimSpace(p.Header)
	if p.Header == "" {
		p.Header = DefaultIdempotencyHeader
	}
	if p.TTL == 0 {
		p.TTL = DefaultIdempotencyTTL
	}
	return p
}

// Key scopes token to the request type: idem:<name>:<token>.
func (p Idempotency) Key(name, token string) string {
	return IdempotencyKeyPrefix + name + ":" + token
}
