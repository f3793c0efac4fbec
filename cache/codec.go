package cache

import "encoding/json"

// Codec turns responses into stored bytes and back.
//
// A cache hit or an idempotent replay returns whatever Unmarshal produces,
// so decoding must yield a value equal to the one encoded. For JSONCodec
// that holds for the types accepted by CheckStorable.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

// JSONCodec encodes values with encoding/json.
type JSONCodec struct{}

// Marshal encodes v as JSON.
func (JSONCodec) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

// Unmarshal decodes JSON data into v.
func (JSONCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }
