package analytics

import "context"

type ctxKey string

// TraceIDKey carries the request trace id through an iteration.
const TraceIDKey ctxKey = "trace_id"

func WithTraceID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, TraceIDKey, id)
}

// TraceIDFromContext returns "" when no trace id was set.
func TraceIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(TraceIDKey).(string)
	return id
}
