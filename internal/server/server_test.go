package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"userperf/internal/aggregate"
	"userperf/internal/config"
	"userperf/internal/discovery"
	"userperf/internal/ingest"
	"userperf/internal/service/dashboard"
	"userperf/internal/service/project"
	"userperf/internal/sheets"
	"userperf/internal/store"
)

func newTestServer(t *testing.T, dev bool) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.DefaultConfig()
	cfg.Server.DevMode = dev

	st := store.NewMemoryStore()
	pm, err := project.NewManager(context.Background(), st, nil)
	if err != nil {
		t.Fatalf("manager: %v", err)
	}
	client := sheets.NewClient("http://127.0.0.1:0", 0)
	svc := dashboard.New(pm, discovery.NewDiscoverer(client, nil), ingest.NewMerger(client, pm, 1, nil), aggregate.NewEngine(nil, ""), st, nil)

	s := NewServer(cfg, svc, st, nil)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestServer_CORSPreflight(t *testing.T) {
	s := newTestServer(t, true)

	req := httptest.NewRequest(http.MethodOptions, "/api/projects", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("preflight got=%d want=204", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("allow-origin got=%q", got)
	}
}

func TestServer_StatusAndNoRoute(t *testing.T) {
	s := newTestServer(t, true)

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/status", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status got=%d body=%s", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/dashboard", nil))
	if w.Code != http.StatusTemporaryRedirect {
		t.Fatalf("dev no-route got=%d want=307", w.Code)
	}
}
