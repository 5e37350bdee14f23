package stroming

import (
	"context"

	"github.com/google/uuid"
)

type ctxKey string

const (
	correlationIDKey ctxKey = "correlationID"
	streamNameKey    ctxKey = "streamName"
)

// WithCorrelationID adds a fresh correlation ID to ctx. If one is already
// present ctx is returned unchanged.
func WithCorrelationID(ctx context.Context) context.Context {
	if CorrelationIDFromContext(ctx) != "" {
		return ctx
	}
	return context.WithValue(ctx, correlationIDKey, uuid.NewString())
}

// WithCorrelationIDValue stores id as the correlation ID of ctx. An empty id
// behaves like WithCorrelationID.
func WithCorrelationIDValue(ctx context.Context, id string) context.Context {
	if id == "" {
		return WithCorrelationID(ctx)
	}
	return context.WithValue(ctx, correlationIDKey, id)
}

// CorrelationIDFromContext returns the correlation ID or "" if not present.
func CorrelationIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(correlationIDKey).(string); ok {
		return v
	}
	return ""
}

// WithStreamName records the stream an operation targets.
func WithStreamName(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, streamNameKey, name)
}

// StreamNameFromContext returns the stream name or "" if not present.
func StreamNameFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(streamNameKey).(string); ok {
		return v
	}
	return ""
}
