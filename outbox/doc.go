// Package outbox accepts domain events produced by successful handler calls
// and hands them to a deferred-delivery sink.
//
// Delivery is fire-and-forget after success: the handler's effects and the
// enqueue are not atomic. Sinks:
//
//   - MemorySink keeps events in order for tests and demos.
//   - RedisStreamSink appends one Redis stream entry per event.
//   - CloudEventsSink sends each event as a CloudEvents v1.0 event through a
//     protocol.Sender and succeeds only on ACK.
package outbox
