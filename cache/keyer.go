package cache

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// HashKey derives a deterministic key from the request name and the whole
// request value: cache:<name>:<first 16 hex chars of SHA-256>.
//
// The request is round-tripped through JSON so that map ordering never
// changes the key.
func HashKey(name string, req any) (string, error) {
	canonical, err := canonicalize(req)
	if err != nil {
		return "", fmt.Errorf("cache: failed to canonicalize request: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return fmt.Sprintf("cache:%s:%s", name, hex.EncodeToString(sum[:8])), nil
}

func canonicalize(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var generic any
	if err := dec.Decode(&generic); err != nil {
		return nil, err
	}
	// encoding/json writes map keys in sorted order.
	return json.Marshal(generic)
}
