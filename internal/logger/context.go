package logger

import (
	"context"

	"go.uber.org/zap"
)

type ctxKey string

const (
	requestIDKey ctxKey = "request_id"
	fetchIDKey   ctxKey = "fetch_id"
)

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

func RequestIDFrom(ctx context.Context) string {
	if v, ok := ctx.Value(requestIDKey).(string); ok {
		return v
	}
	return ""
}

// WithFetchID tags a listing fetch cycle so its logs can be correlated with
// the generation that issued it.
func WithFetchID(ctx context.Context, fetchID uint64) context.Context {
	return context.WithValue(ctx, fetchIDKey, fetchID)
}

func FetchIDFrom(ctx context.Context) (uint64, bool) {
	v, ok := ctx.Value(fetchIDKey).(uint64)
	return v, ok
}

// FromCtx returns logger with request_id and fetch_id added when present
func FromCtx(ctx context.Context) *zap.Logger {
	l := L()
	if reqID := RequestIDFrom(ctx); reqID != "" {
		l = l.With(zap.String("request_id", reqID))
	}
	if fetchID, ok := FetchIDFrom(ctx); ok {
		l = l.With(zap.Uint64("fetch_id", fetchID))
	}
	return l
}
