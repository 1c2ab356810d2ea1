package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/riskibarqy/afl-match-model/internal/platform/logging"
)

func TestShouldTraceRequest(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path string
		want bool
	}{
		{path: "/healthz", want: false},
		{path: "/readyz", want: false},
		{path: " /HEALTHZ ", want: false},
		{path: "/v1/features/build", want: true},
		{path: "/v1/features/matches/AFLM_2024_01_Carlton_Richmond", want: true},
		{path: "/docs", want: true},
	}

	for _, tc := range tests {
		if got := shouldTraceRequest(tc.path); got != tc.want {
			t.Fatalf("shouldTraceRequest(%q)=%v want=%v", tc.path, got, tc.want)
		}
	}
}

func TestIsHandlerSpan(t *testing.T) {
	t.Parallel()

	tests := map[string]bool{
		"httpapi.Handler.PredictMargin": true,
		"httpapi.Handler.":              false,
		"httpapi.CORS":                  false,
		"httpapi.writeError":            false,
	}
	for name, want := range tests {
		if got := isHandlerSpan(name); got != want {
			t.Fatalf("isHandlerSpan(%q)=%v want=%v", name, got, want)
		}
	}
}

func TestCORS(t *testing.T) {
	t.Parallel()

	const dashboard = "https://footy-dashboard.example.com"

	tests := []struct {
		name        string
		allowed     []string
		method      string
		origin      string
		wantStatus  int
		wantOrigin  string
		wantVary    bool
		wantMethods bool
	}{
		{
			name:        "configured origin",
			allowed:     []string{" " + dashboard + " "},
			method:      http.MethodPost,
			origin:      dashboard,
			wantStatus:  http.StatusOK,
			wantOrigin:  dashboard,
			wantVary:    true,
			wantMethods: true,
		},
		{
			name:        "wildcard preflight",
			allowed:     []string{"*"},
			method:      http.MethodOptions,
			origin:      dashboard,
			wantStatus:  http.StatusNoContent,
			wantOrigin:  "*",
			wantMethods: true,
		},
		{
			name:       "unknown origin preflight",
			allowed:    []string{dashboard},
			method:     http.MethodOptions,
			origin:     "https://scraper.example.com",
			wantStatus: http.StatusNoContent,
		},
		{
			name:       "no origin header",
			allowed:    []string{"*"},
			method:     http.MethodGet,
			wantStatus: http.StatusOK,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusOK)
			})
			req := httptest.NewRequest(tc.method, "/v1/model/outcome/predict", nil)
			if tc.origin != "" {
				req.Header.Set("Origin", tc.origin)
			}
			rec := httptest.NewRecorder()
			CORS(tc.allowed, next).ServeHTTP(rec, req)

			if rec.Code != tc.wantStatus {
				t.Fatalf("expected status %d, got %d", tc.wantStatus, rec.Code)
			}
			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tc.wantOrigin {
				t.Fatalf("unexpected Access-Control-Allow-Origin: %q", got)
			}
			if got := rec.Header().Get("Vary") == "Origin"; got != tc.wantVary {
				t.Fatalf("unexpected Vary header: %q", rec.Header().Get("Vary"))
			}
			if got := rec.Header().Get("Access-Control-Allow-Methods") != ""; got != tc.wantMethods {
				t.Fatalf("unexpected Access-Control-Allow-Methods: %q", rec.Header().Get("Access-Control-Allow-Methods"))
			}
		})
	}
}

func TestSwaggerRoutes(t *testing.T) {
	t.Parallel()

	handler := NewHandler(nil, nil, nil)

	t.Run("enabled", func(t *testing.T) {
		t.Parallel()

		router := NewRouter(handler, nil, RouterOptions{SwaggerEnabled: true})
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/openapi.yaml", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rec.Code)
		}
		if rec.Body.Len() != len(openAPIDocument) {
			t.Fatalf("expected the embedded document, got %d bytes", rec.Body.Len())
		}
	})

	t.Run("disabled", func(t *testing.T) {
		t.Parallel()

		router := NewRouter(handler, nil, RouterOptions{})
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/docs", nil))

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected status 404, got %d", rec.Code)
		}
	})
}

func TestRecoverPanic(t *testing.T) {
	t.Parallel()

	handler := recoverPanic(logging.NewNop(), http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("feature table corrupted")
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/features/runs/last", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", rec.Code)
	}
}

func TestStatusRecorder_KeepsFirstStatus(t *testing.T) {
	t.Parallel()

	rec := &statusRecorder{ResponseWriter: httptest.NewRecorder(), status: http.StatusOK}
	rec.WriteHeader(http.StatusAccepted)
	rec.WriteHeader(http.StatusTeapot)
	_, _ = rec.Write([]byte("ok"))

	if rec.status != http.StatusAccepted || rec.bytes != 2 {
		t.Fatalf("unexpected recorder state: status=%d bytes=%d", rec.status, rec.bytes)
	}
}
