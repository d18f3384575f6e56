package observability

import "context"

// Request identity travels in the context so middleware, handlers and the
// search service agree on who is calling without threading extra parameters.
type ctxKey int

const (
	ctxKeyRequestID ctxKey = iota
	ctxKeyUserID
	ctxKeyLogger
)

// WithRequestID stores the request ID in the context
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKeyRequestID, id)
}

// GetRequestID returns the request ID, or "" when none was set
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKeyRequestID).(string)
	return id
}

// WithUserID stores the authenticated caller's user ID in the context
func WithUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKeyUserID, id)
}

// GetUserID returns the authenticated user ID, or "" for anonymous callers
func GetUserID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKeyUserID).(string)
	return id
}

// WithLogger stores the request-scoped logger in the context
func WithLogger(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, ctxKeyLogger, logger)
}

// FromContext returns the context's logger with the request identity
// attached. When no logger was installed a default stdout logger is used, so
// call sites never need a nil check.
func FromContext(ctx context.Context) *Logger {
	logger, ok := ctx.Value(ctxKeyLogger).(*Logger)
	if !ok {
		logger = NewLogger(InfoLevel, nil)
	}
	if id := GetRequestID(ctx); id != "" {
		logger = logger.WithField("request_id", id)
	}
	if id := GetUserID(ctx); id != "" {
		logger = logger.WithField("user_id", id)
	}
	return logger
}
