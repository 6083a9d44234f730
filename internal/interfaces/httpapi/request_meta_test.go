package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/riskibarqy/sunday-league/internal/platform/logging"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewRequestMeta_HeaderPrecedence(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/v1/matches/mt-1", nil)
	req.RemoteAddr = "10.0.0.9:5123"
	req.Header.Set("X-Forwarded-For", " 203.0.113.7 , 10.0.0.1")
	req.Header.Set("CF-IPCountry", "id")

	meta := newRequestMeta(req)
	if meta.ClientIP != "203.0.113.7" {
		t.Fatalf("unexpected client ip: %q", meta.ClientIP)
	}
	if meta.Country != "ID" {
		t.Fatalf("unexpected country: %q", meta.Country)
	}
}

func TestNewRequestMeta_Fallbacks(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.RemoteAddr = "[2001:db8::1]:443"
	req.Header.Set("Fly-Client-IP", "not-an-ip")
	req.Header.Set("Fly-Client-Country", "X1")

	meta := newRequestMeta(req)
	if meta.ClientIP != "2001:db8::1" {
		t.Fatalf("unexpected client ip: %q", meta.ClientIP)
	}
	if meta.Country != "ZZ" {
		t.Fatalf("unexpected country: %q", meta.Country)
	}
}

func TestRequestLogging_IncludesAuthenticatedUser(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.InfoLevel)
	logger := logging.FromZap(zap.New(core))

	verifier := stubVerifier{"tok-andi": "usr-andi"}
	handler := RequestLogging(logger, RequireAuth(verifier, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})))

	req := httptest.NewRequest(http.MethodGet, "/v1/matches/mt-1", nil)
	req.Header.Set("Authorization", "Bearer tok-andi")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	entries := logs.FilterMessage("http request").All()
	if len(entries) != 1 {
		t.Fatalf("expected one request log, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["user_id"] != "usr-andi" {
		t.Fatalf("expected user_id in request log, got %v", fields["user_id"])
	}
	if fields["status"] != int64(http.StatusNoContent) {
		t.Fatalf("unexpected status field: %v", fields["status"])
	}
}
