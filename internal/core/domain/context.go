package domain

import "context"

type ctxKey string

const requestIDKey ctxKey = "request_id"

// WithRequestID attaches a request ID to ctx.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext returns the request ID stored in ctx, or "-".
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return "-"
	}
	if value, ok := ctx.Value(requestIDKey).(string); ok && value != "" {
		return value
	}
	return "-"
}
