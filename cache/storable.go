package cache

import (
	"encoding"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
)

var (
	// ErrNotStorable is returned for response types that would not decode
	// back into the value that was encoded.
	ErrNotStorable = errors.New("cache: response type does not survive encoding")

	// ErrNotHashable is returned for request types with state the hashed
	// key cannot see.
	ErrNotHashable = errors.New("cache: request type has fields hidden from the hashed key")
)

var (
	jsonMarshaler   = reflect.TypeFor[json.Marshaler]()
	jsonUnmarshaler = reflect.TypeFor[json.Unmarshaler]()
	textMarshaler   = reflect.TypeFor[encoding.TextMarshaler]()
	textUnmarshaler = reflect.TypeFor[encoding.TextUnmarshaler]()
)

// CheckStorable reports whether values of t come back from JSONCodec equal
// to what was stored. Interface-typed values, unexported fields and
// unencodable kinds are rejected. Fields tagged `json:"-"` are left out on
// purpose and allowed.
func CheckStorable(t reflect.Type) error {
	if err := walk(t, false, map[reflect.Type]bool{}); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrNotStorable, t, err)
	}
	return nil
}

// CheckHashable reports whether every field of request type t contributes
// to HashKey. Unexported fields and fields tagged `json:"-"` are rejected.
func CheckHashable(t reflect.Type) error {
	if err := walk(t, true, map[reflect.Type]bool{}); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrNotHashable, t, err)
	}
	return nil
}

func walk(t reflect.Type, hashing bool, seen map[reflect.Type]bool) error {
	if seen[t] {
		return nil
	}
	seen[t] = true

	if custom(t, hashing) {
		return nil
	}

	switch t.Kind() {
	case reflect.Interface:
		if hashing {
			return nil
		}
		return errors.New("interface value decodes as a generic value")
	case reflect.Chan, reflect.Func, reflect.Complex64, reflect.Complex128, reflect.UnsafePointer:
		return fmt.Errorf("%s cannot be encoded", t.Kind())
	case reflect.Pointer, reflect.Slice, reflect.Array:
		return walk(t.Elem(), hashing, seen)
	case reflect.Map:
		return walk(t.Elem(), hashing, seen)
	case reflect.Struct:
		for i := range t.NumField() {
			if err := walkField(t.Field(i), hashing, seen); err != nil {
				return err
			}
		}
	}
	return nil
}

func walkField(f reflect.StructField, hashing bool, seen map[reflect.Type]bool) error {
	if f.Tag.Get("json") == "-" {
		if hashing {
			return fmt.Errorf("field %s is tagged json:\"-\"", f.Name)
		}
		return nil
	}
	if !f.IsExported() {
		ft := f.Type
		if ft.Kind() == reflect.Pointer {
			ft = ft.Elem()
		}
		// Exported fields of an embedded unexported struct are promoted.
		if f.Anonymous && ft.Kind() == reflect.Struct {
			return walk(ft, hashing, seen)
		}
		return fmt.Errorf("field %s is unexported", f.Name)
	}
	if err := walk(f.Type, hashing, seen); err != nil {
		return fmt.Errorf("field %s: %w", f.Name, err)
	}
	return nil
}

// custom reports whether t encodes itself, as time.Time does.
func custom(t reflect.Type, hashing bool) bool {
	marshals := t.Implements(jsonMarshaler) || t.Implements(textMarshaler)
	if hashing {
		return marshals
	}
	pt := reflect.PointerTo(t)
	unmarshals := pt.Implements(jsonUnmarshaler) || pt.Implements(textUnmarshaler)
	return (marshals || pt.Implements(jsonMarshaler) || pt.Implements(textMarshaler)) && unmarshals
}
