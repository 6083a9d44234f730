package observability

import (
	"math"
	"testing"

	otellog "go.opentelemetry.io/otel/log"
)

func TestShouldSkipUptraceLog(t *testing.T) {
	if !shouldSkipUptraceLog("http request", []any{"method", "GET", "path", "/healthz"}) {
		t.Fatalf("expected health check log to be skipped")
	}
	if shouldSkipUptraceLog("http request", []any{"method", "POST", "path", "/v1/groups/grp-sunday-league/matches"}) {
		t.Fatalf("did not expect non-health log to be skipped")
	}
	if shouldSkipUptraceLog("qstash publish request", []any{"path", "/healthz"}) {
		t.Fatalf("did not expect non-http_request event to be skipped")
	}
}

func TestBuildOTelLogAttributes(t *testing.T) {
	attrs := buildOTelLogAttributes([]any{"match_id", "mt-1", "attempt", 2, "payload"})
	if len(attrs) != 3 {
		t.Fatalf("expected 3 attributes, got %d", len(attrs))
	}
	if attrs[0].Key != "match_id" || attrs[0].Value.AsString() != "mt-1" {
		t.Fatalf("unexpected match_id attribute")
	}
	if attrs[1].Key != "attempt" || attrs[1].Value.AsInt64() != 2 {
		t.Fatalf("unexpected attempt attribute")
	}
	if attrs[2].Key != "payload" || attrs[2].Value.Kind() != otellog.KindEmpty {
		t.Fatalf("unexpected payload attribute")
	}
}

func TestToOTelLogValue_Map(t *testing.T) {
	v := toOTelLogValue(map[string]any{
		"goals":   2,
		"is_mvp":  true,
		"assists": []int{1, 0},
	}, 0)
	if v.Kind() != otellog.KindMap {
		t.Fatalf("expected map value, got %s", v.Kind())
	}
	items := v.AsMap()
	if len(items) != 3 {
		t.Fatalf("expected 3 map items, got %d", len(items))
	}
	if items[0].Key != "assists" || items[0].Value.Kind() != otellog.KindSlice {
		t.Fatalf("expected sorted keys with slice value first, got %s", items[0].Key)
	}
}

func TestShouldSkipUptraceLog_DocsPaths(t *testing.T) {
	if !shouldSkipUptraceLog("http request", []any{"path", "/openapi.yaml", "status", 200}) {
		t.Fatalf("expected docs request log to be skipped")
	}
}

func TestToOTelLogValue_NumericKinds(t *testing.T) {
	type season int
	if v := toOTelLogValue(season(2026), 0); v.Kind() != otellog.KindInt64 || v.AsInt64() != 2026 {
		t.Fatalf("expected named int to map to int64, got %s", v.Kind())
	}
	if v := toOTelLogValue(uint64(math.MaxUint64), 0); v.Kind() != otellog.KindString {
		t.Fatalf("expected overflowing uint to map to string, got %s", v.Kind())
	}
}
