package httpapi

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

var apiTracer = otel.Tracer("sunday-league/internal/interfaces/httpapi")

// Handler and auth spans are exported; other middleware stays inside the
// otelhttp request span.
var tracedSpanPrefixes = []string{"httpapi.Handler.", "httpapi.RequireAuth"}

// startSpan opens a child span only under an active request trace. The
// returned span is always safe to End.
func startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	if !trace.SpanContextFromContext(ctx).IsValid() || !isTracedSpan(name) {
		return ctx, trace.SpanFromContext(context.Background())
	}
	return apiTracer.Start(ctx, name)
}

func isTracedSpan(name string) bool {
	for _, prefix := range tracedSpanPrefixes {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}
