package app

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/riskibarqy/afl-match-model/internal/config"
	"github.com/riskibarqy/afl-match-model/internal/platform/logging"
	"github.com/riskibarqy/afl-match-model/internal/usecase"
)

func TestBuild_MemoryBackend(t *testing.T) {
	cfg := config.Config{
		HTTPAddr:       ":0",
		DatasetBackend: config.BackendMemory,
		CacheEnabled:   true,
	}

	c, err := Build(context.Background(), cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("build container: %v", err)
	}
	t.Cleanup(func() {
		if err := c.Close(); err != nil {
			t.Fatalf("close container: %v", err)
		}
	})

	if c.Models.Outcome != nil || c.Models.Margin != nil {
		t.Fatalf("expected no models without configured paths")
	}

	srv, err := NewHTTPServer(cfg, c, logging.NewNop())
	if err != nil {
		t.Fatalf("new http server: %v", err)
	}

	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected healthz 200, got %d", rec.Code)
	}

	// The memory backend starts without provider datasets.
	if _, err := c.Features.Build(context.Background(), usecase.BuildRequest{}); err == nil {
		t.Fatalf("expected build to fail without the primary provider")
	}
}

func TestBuild_CSVBackendWithCache(t *testing.T) {
	cfg := config.Config{
		HTTPAddr:       ":0",
		DatasetBackend: config.BackendCSV,
		DatasetDir:     t.TempDir(),
		CacheEnabled:   true,
		CacheTTL:       time.Minute,
	}

	c, err := Build(context.Background(), cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("build container: %v", err)
	}
	if _, err := c.Features.GetMatchFeatures(context.Background(), "AFLM_2024_01_Carlton_Richmond"); !errors.Is(err, usecase.ErrNotFound) {
		t.Fatalf("expected ErrNotFound from an empty directory, got %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("close container: %v", err)
	}
}

func TestBuild_MissingModelFile(t *testing.T) {
	cfg := config.Config{
		HTTPAddr:         ":0",
		DatasetBackend:   config.BackendMemory,
		OutcomeModelPath: t.TempDir() + "/missing.json",
	}

	if _, err := Build(context.Background(), cfg, logging.NewNop()); err == nil {
		t.Fatalf("expected error for a missing model file")
	}
}

func TestNewHTTPServer_RequiresAddr(t *testing.T) {
	c, err := Build(context.Background(), config.Config{DatasetBackend: config.BackendMemory}, logging.NewNop())
	if err != nil {
		t.Fatalf("build container: %v", err)
	}
	if _, err := NewHTTPServer(config.Config{}, c, logging.NewNop()); err == nil {
		t.Fatalf("expected error for empty addr")
	}
}
