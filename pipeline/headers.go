package pipeline

import (
	"context"
	"strings"
)

type contextKey int

const headersKey contextKey = iota

// HeaderSource looks up inbound transport headers. http.Header satisfies it.
type HeaderSource interface {
	Get(name string) string
}

// HeaderMap is a HeaderSource over a plain map with exact-match keys.
type HeaderMap map[string]string

// Get returns the value stored under name.
func (m HeaderMap) Get(name string) string {
	return m[name]
}

// WithHeaders returns a new context carrying the inbound headers of the
// current call.
func WithHeaders(ctx context.Context, headers HeaderSource) context.Context {
	return context.WithValue(ctx, headersKey, headers)
}

// HeadersFromContext returns the headers attached with WithHeaders, or nil.
func HeadersFromContext(ctx context.Context) HeaderSource {
	h, _ := ctx.Value(headersKey).(HeaderSource)
	return h
}

// Header returns the trimmed value of the named inbound header, or "" when
// no headers are attached or the header is absent.
func Header(ctx context.Context, name string) string {
	h := HeadersFromContext(ctx)
	if h == nil {
		return ""
	}
	return strings.TrimSpace(h.Get(name))
}
