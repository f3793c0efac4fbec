// Package observe provides the telemetry used by the performance behavior:
// OpenTelemetry spans and metrics per request type, and a structured JSON
// logger on log/slog.
//
// It performs no I/O beyond exporter setup. The Middleware measures a call
// in a deferred scope so that success, failure, cancellation and panics are
// all recorded.
package observe
