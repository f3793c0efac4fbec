package cache

import (
	"context"
	"errors"
	"strings"
	"time"
)

// MaxKeyLength is the maximum allowed length for a cache key.
const MaxKeyLength = 512

// Sentinel errors for cache operations.
var (
	ErrInvalidKey = errors.New("cache: key is invalid")
	ErrKeyTooLong = errors.New("cache: key exceeds max length")
	ErrInvalidTTL = errors.New("cache: ttl must be positive")

	// ErrStoreUnavailable wraps I/O failures of the backing store. It is
	// surfaced unchanged by the behaviors; retries belong to the store.
	ErrStoreUnavailable = errors.New("cache: store unavailable")
)

// Cache is the key/value store behind the caching and idempotency behaviors.
//
// Contract:
//   - Concurrency: implementations must be safe for concurrent use without
//     external locking.
//   - Context: methods should honor cancellation/deadlines where applicable.
//   - Expiry: a read after an entry's expiry must behave as a miss.
//   - Errors: a miss is (nil, false, nil); only I/O failures return an error,
//     wrapping ErrStoreUnavailable.
type Cache interface {
	// Get retrieves a stored value. An empty stored value is a hit.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value under key for ttl, replacing any previous entry.
	// A ttl <= 0 stores nothing.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Reserve atomically stores value only when key is absent or expired and
	// reports whether it did.
	Reserve(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)

	// Delete removes a stored value. Idempotent - no error on miss.
	Delete(ctx context.Context, key string) error
}

// ValidateKey checks if a key is valid for caching.
func ValidateKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return ErrInvalidKey
	}
	if len(key) > MaxKeyLength {
		return ErrKeyTooLong
	}
	if strings.ContainsAny(key, "\n\r") {
		return ErrInvalidKey
	}
	return nil
}
