package httpapi

import (
	"context"
	"testing"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestIsTracedSpan(t *testing.T) {
	t.Parallel()

	tests := map[string]bool{
		"httpapi.Handler.RecordMatch": true,
		"httpapi.RequireAuth":         true,
		"httpapi.RequestLogging":      false,
		"httpapi.writeError":          false,
		"":                            false,
	}
	for name, want := range tests {
		if got := isTracedSpan(name); got != want {
			t.Fatalf("isTracedSpan(%q)=%v want=%v", name, got, want)
		}
	}
}

func TestStartSpan_NeedsParentTrace(t *testing.T) {
	t.Parallel()

	_, span := startSpan(context.Background(), "httpapi.Handler.GetMatch")
	if span.SpanContext().IsValid() {
		t.Fatalf("expected no span without a parent trace")
	}
	span.End()

	provider := sdktrace.NewTracerProvider()
	defer func() { _ = provider.Shutdown(context.Background()) }()
	ctx, parent := provider.Tracer("test").Start(context.Background(), "request")
	defer parent.End()

	_, child := startSpan(ctx, "httpapi.Handler.GetMatch")
	defer child.End()
	if !child.SpanContext().IsValid() {
		t.Fatalf("expected child span under an active trace")
	}
}

func TestShouldTraceRequest(t *testing.T) {
	t.Parallel()

	tests := map[string]bool{
		"/healthz":                    false,
		" /Readyz ":                   false,
		"/livez":                      false,
		"/v1/matches/mt-1":            true,
		"/v1/groups/grp-1/stats/2025": true,
		"/docs":                       true,
	}
	for path, want := range tests {
		if got := shouldTraceRequest(path); got != want {
			t.Fatalf("shouldTraceRequest(%q)=%v want=%v", path, got, want)
		}
	}
}
