package metrics

import (
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMain(m *testing.M) {
	RegisterHTTPMetrics()
	RegisterIngestMetrics()
	RegisterEmbeddingMetrics()
	os.Exit(m.Run())
}

func TestMiddleware_UsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Get("/api/data/source/{sourceReference}", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("[]"))
	})

	for _, src := range []string{"0xaaa", "0xbbb"} {
		req := httptest.NewRequest("GET", "/api/data/source/"+src, http.NoBody)
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rr.Code)
		}
	}

	got := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/api/data/source/{sourceReference}", "200"))
	if got < 2 {
		t.Errorf("expected both requests under one route label, got %f", got)
	}
}

func TestMiddleware_StatusCodes(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Post("/api/upload", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("case") {
		case "dup":
			w.WriteHeader(http.StatusConflict)
		case "bad":
			w.WriteHeader(http.StatusUnprocessableEntity)
		default:
			w.WriteHeader(http.StatusOK)
		}
	})

	tests := []struct {
		query  string
		status string
	}{
		{"", "200"},
		{"?case=dup", "409"},
		{"?case=bad", "422"},
	}
	for _, tc := range tests {
		t.Run(tc.status, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/api/upload"+tc.query, strings.NewReader("body"))
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, req)

			got := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("POST", "/api/upload", tc.status))
			if got < 1 {
				t.Errorf("expected counter for status %s, got %f", tc.status, got)
			}
		})
	}

	if testutil.CollectAndCount(httpUploadBytes) == 0 {
		t.Error("expected upload size observations")
	}
}

func TestMiddleware_ImplicitOK(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	req := httptest.NewRequest("GET", "/health", http.NoBody)
	r.ServeHTTP(httptest.NewRecorder(), req)

	if got := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/health", "200")); got < 1 {
		t.Errorf("expected implicit 200 to be recorded, got %f", got)
	}
}

func TestMiddleware_UnmatchedRoute(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Get("/known", func(w http.ResponseWriter, _ *http.Request) {})

	req := httptest.NewRequest("GET", "/definitely/not/here", http.NoBody)
	r.ServeHTTP(httptest.NewRecorder(), req)

	if got := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "unknown", "404")); got < 1 {
		t.Errorf("expected unmatched route under 'unknown', got %f", got)
	}
}
