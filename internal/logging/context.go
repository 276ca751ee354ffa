package logging

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type ctxKey int

const (
	requestIDKey ctxKey = iota
	batchIDKey
	filenameKey
)

// correlation lists the context values copied onto every entry, in order.
var correlation = []struct {
	key   ctxKey
	field string
}{
	{requestIDKey, "request.id"},
	{batchIDKey, "batch.id"},
	{filenameKey, "file.name"},
}

// ContextFields returns the trace and correlation fields carried by ctx.
func ContextFields(ctx context.Context) []zap.Field {
	var fields []zap.Field
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		fields = append(fields,
			zap.Stringer("trace_id", sc.TraceID()),
			zap.Stringer("span_id", sc.SpanID()),
		)
	}
	for _, c := range correlation {
		if v := stringValue(ctx, c.key); v != "" {
			fields = append(fields, zap.String(c.field, v))
		}
	}
	return fields
}

func stringValue(ctx context.Context, key ctxKey) string {
	v, _ := ctx.Value(key).(string)
	return v
}

// WithRequestID tags ctx with the HTTP request ID.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext returns the HTTP request ID, or "".
func RequestIDFromContext(ctx context.Context) string {
	return stringValue(ctx, requestIDKey)
}

// WithBatchID tags ctx with the scan batch ID.
func WithBatchID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, batchIDKey, id)
}

// BatchIDFromContext returns the scan batch ID, or "".
func BatchIDFromContext(ctx context.Context) string {
	return stringValue(ctx, batchIDKey)
}

// WithFilename tags ctx with the file being scanned.
func WithFilename(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, filenameKey, name)
}

// FilenameFromContext returns the file being scanned, or "".
func FilenameFromContext(ctx context.Context) string {
	return stringValue(ctx, filenameKey)
}
