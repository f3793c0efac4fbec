package cache

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Template errors.
var (
	ErrInvalidTemplate = errors.New("cache: invalid key template")

	// ErrUnknownToken means a template names a field the request type does
	// not declare. It is reported when the policy is registered.
	ErrUnknownToken = errors.New("cache: key template references an undeclared field")

	// ErrUnresolvedToken means a request instance did not supply a value for
	// a template field.
	ErrUnresolvedToken = errors.New("cache: key template field has no value")
)

// Fielder exposes the request fields a key template may reference. The set
// of keys must not depend on the instance: it is read from the zero value at
// registration to check templates.
type Fielder interface {
	KeyFields() map[string]any
}

// Template is a parsed key template such as "order:{OrderID}:{Currency}".
type Template struct {
	raw   string
	parts []templatePart
}

type templatePart struct {
	text  string
	field bool
}

// ParseTemplate parses tokens of the form {Name}. Braces must balance and
// token names must be non-empty.
func ParseTemplate(s string) (*Template, error) {
	t := &Template{raw: s}
	rest := s
	for rest != "" {
		open := strings.IndexAny(rest, "{}")
		if open < 0 {
			t.parts = append(t.parts, templatePart{text: rest})
			break
		}
		if rest[open] == '}' {
			return nil, fmt.Errorf("%w: unmatched '}' in %q", ErrInvalidTemplate, s)
		}
		if open > 0 {
			t.parts = append(t.parts, templatePart{text: rest[:open]})
		}
		end := strings.IndexAny(rest[open+1:], "{}")
		if end < 0 || rest[open+1+end] != '}' {
			return nil, fmt.Errorf("%w: unterminated token in %q", ErrInvalidTemplate, s)
		}
		name := strings.TrimSpace(rest[open+1 : open+1+end])
		if name == "" {
			return nil, fmt.Errorf("%w: empty token in %q", ErrInvalidTemplate, s)
		}
		t.parts = append(t.parts, templatePart{text: name, field: true})
		rest = rest[open+end+2:]
	}
	return t, nil
}

// CompileTemplate parses s and checks every token against declared.
func CompileTemplate(s string, declared []string) (*Template, error) {
	t, err := ParseTemplate(s)
	if err != nil {
		return nil, err
	}
	for _, f := range t.Fields() {
		if !slices.Contains(declared, f) {
			return nil, fmt.Errorf("%w: {%s} in %q", ErrUnknownToken, f, s)
		}
	}
	return t, nil
}

// Fields returns the token names in order of appearance, without duplicates.
func (t *Template) Fields() []string {
	var out []string
	for _, p := range t.parts {
		if p.field && !slices.Contains(out, p.text) {
			out = append(out, p.text)
		}
	}
	return out
}

// Render substitutes every token with the string form of its value.
func (t *Template) Render(values map[string]any) (string, error) {
	var b strings.Builder
	for _, p := range t.parts {
		if !p.field {
			b.WriteString(p.text)
			continue
		}
		v, ok := values[p.text]
		if !ok {
			return "", fmt.Errorf("%w: {%s} in %q", ErrUnresolvedToken, p.text, t.raw)
		}
		b.WriteString(fmt.Sprint(v))
	}
	return b.String(), nil
}

// String returns the template source.
func (t *Template) String() string {
	return t.raw
}
