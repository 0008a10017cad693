package logger

import (
	"context"
	"log/slog"
)

type fieldsKey struct{}

// With returns a context carrying fields for every log line of the request,
// e.g. requestID, sessionID and userID. Fields accumulate across calls.
func With(ctx context.Context, fields ...any) context.Context {
	prev := Fields(ctx)
	merged := make([]any, 0, len(prev)+len(fields))
	merged = append(merged, prev...)
	merged = append(merged, fields...)
	return context.WithValue(ctx, fieldsKey{}, merged)
}

// Fields returns the fields stored in ctx.
func Fields(ctx context.Context) []any {
	if fields, ok := ctx.Value(fieldsKey{}).([]any); ok {
		return fields
	}
	return nil
}

// Enrich returns lg with the context fields attached.
func Enrich(lg *slog.Logger, ctx context.Context) *slog.Logger {
	fields := Fields(ctx)
	if len(fields) == 0 {
		return lg
	}
	return lg.With(fields...)
}
