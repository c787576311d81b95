package middleware

import "context"

type ctxKey int

const (
	requestIDKey ctxKey = iota
	htmxKey
	sessionKey
	localeFallbackKey
)

// WithRequestID stores the request id for error bodies.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestID returns the id set by the Logger middleware, or "".
func RequestID(ctx context.Context) string {
	v, _ := ctx.Value(requestIDKey).(string)
	return v
}

// WithHTMX records whether the request came from htmx.
func WithHTMX(ctx context.Context, is bool) context.Context {
	return context.WithValue(ctx, htmxKey, is)
}

// IsHTMX reports whether the request carries HX-Request.
func IsHTMX(ctx context.Context) bool {
	v, _ := ctx.Value(htmxKey).(bool)
	return v
}
