package outbox

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jonwraymond/pipelineplus/resilience"
)

// DefaultStream is the stream RedisStreamSink appends to when none is set.
const DefaultStream = "pipeline:outbox"

// RedisStreamSink appends each event to a Redis stream with XADD. Entry
// fields are id, type, occurred_at (RFC 3339) and payload (JSON).
type RedisStreamSink struct {
	rdb    redis.UniversalClient
	stream string
	maxLen int64
	guard  *resilience.Guard
	now    func() time.Time
}

// RedisStreamOption configures a RedisStreamSink.
type RedisStreamOption func(*RedisStreamSink)

// WithStream sets the stream name.
func WithStream(stream string) RedisStreamOption {
	return func(s *RedisStreamSink) {
		if stream != "" {
			s.stream = stream
		}
	}
}

// WithMaxLen trims the stream to roughly n entries on every append.
func WithMaxLen(n int64) RedisStreamOption {
	return func(s *RedisStreamSink) { s.maxLen = n }
}

// WithStreamGuard runs every XADD through guard.
func WithStreamGuard(guard *resilience.Guard) RedisStreamOption {
	return func(s *RedisStreamSink) { s.guard = guard }
}

// NewRedisStreamSink creates a sink over an existing client.
func NewRedisStreamSink(rdb redis.UniversalClient, opts ...RedisStreamOption) *RedisStreamSink {
	s := &RedisStreamSink{rdb: rdb, stream: DefaultStream, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Stream returns the stream name.
func (s *RedisStreamSink) Stream() string {
	return s.stream
}

// Enqueue appends event to the stream.
func (s *RedisStreamSink) Enqueue(ctx context.Context, event any) error {
	env, err := NewEnvelope(event, s.now())
	if err != nil {
		return err
	}

	args := &redis.XAddArgs{
		Stream: s.stream,
		Values: map[string]any{
			"id":          env.ID,
			"type":        env.Type,
			"occurred_at": env.OccurredAt.Format(time.RFC3339Nano),
			"payload":     string(env.Payload),
		},
	}
	if s.maxLen > 0 {
		args.MaxLen = s.maxLen
		args.Approx = true
	}

	err = s.guard.Do(ctx, func(ctx context.Context) error {
		return s.rdb.XAdd(ctx, args).Err()
	})
	if err != nil {
		return fmt.Errorf("%w: xadd %s: %w", ErrSinkUnavailable, s.stream, err)
	}
	return nil
}
