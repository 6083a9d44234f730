package observability

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/riskibarqy/sunday-league/internal/config"
	"github.com/riskibarqy/sunday-league/internal/platform/logging"
)

// ingestServer records every batch posted to it.
type ingestServer struct {
	*httptest.Server

	mu      sync.Mutex
	batches int
	auth    string
	entries []map[string]any
}

func newIngestServer(t *testing.T) *ingestServer {
	t.Helper()

	s := &ingestServer{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var batch []map[string]any
		if err := sonic.Unmarshal(body, &batch); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		s.mu.Lock()
		s.batches++
		s.auth = r.Header.Get("Authorization")
		s.entries = append(s.entries, batch...)
		s.mu.Unlock()
		w.WriteHeader(http.StatusAccepted)
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *ingestServer) config(minLevel logging.Level) config.Config {
	return config.Config{
		AppEnv:              config.EnvStage,
		ServiceName:         "sunday-league-api",
		StoreDriver:         config.StorePostgres,
		BetterStackEnabled:  true,
		BetterStackEndpoint: s.URL,
		BetterStackToken:    "secret-token",
		BetterStackTimeout:  2 * time.Second,
		BetterStackMinLevel: minLevel,
	}
}

func flush(t *testing.T, shutdown func(context.Context) error) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := shutdown(ctx); err != nil {
		t.Fatalf("flush logger: %v", err)
	}
}

func TestInitBetterStackLogger_ShipsEntriesAtOrAboveMinLevel(t *testing.T) {
	t.Parallel()

	ingest := newIngestServer(t)
	logger, shutdown, err := InitBetterStackLogger(ingest.config(logging.LevelWarn), logging.NewNop())
	if err != nil {
		t.Fatalf("init betterstack logger: %v", err)
	}

	logger.Info("vote cast", "match_id", "mt-0")
	logger.Warn("mvp sweep slow", "match_id", "mt-1")
	logger.ErrorContext(context.Background(), "ledger commit failed", "match_id", "mt-2")
	flush(t, shutdown)

	ingest.mu.Lock()
	defer ingest.mu.Unlock()
	if ingest.auth != "Bearer secret-token" {
		t.Fatalf("unexpected authorization header: %q", ingest.auth)
	}
	if len(ingest.entries) != 2 {
		t.Fatalf("expected warn and error entries, got %+v", ingest.entries)
	}
	first, second := ingest.entries[0], ingest.entries[1]
	if first["match_id"] != "mt-1" || second["match_id"] != "mt-2" {
		t.Fatalf("unexpected shipped entries: %+v", ingest.entries)
	}
	if second["store"] != "postgres" || second["env"] != config.EnvStage || second["service"] != "sunday-league-api" {
		t.Fatalf("expected process fields on every entry: %+v", second)
	}
}

func TestInitBetterStackLogger_QuietBelowMinLevel(t *testing.T) {
	t.Parallel()

	ingest := newIngestServer(t)
	logger, shutdown, err := InitBetterStackLogger(ingest.config(logging.LevelError), logging.NewNop())
	if err != nil {
		t.Fatalf("init betterstack logger: %v", err)
	}

	logger.Warn("voting window extended")
	flush(t, shutdown)

	ingest.mu.Lock()
	defer ingest.mu.Unlock()
	if ingest.batches != 0 {
		t.Fatalf("expected nothing shipped below min level, got %d batches", ingest.batches)
	}
}

func TestInitBetterStackLogger_DisabledReturnsBase(t *testing.T) {
	t.Parallel()

	base := logging.NewNop()
	logger, shutdown, err := InitBetterStackLogger(config.Config{}, base)
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	if logger != base {
		t.Fatalf("expected base logger when betterstack is disabled")
	}
	flush(t, shutdown)
}
