package handler

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"activesg-proxy-go/internal/client"
	"activesg-proxy-go/internal/config"
	"activesg-proxy-go/internal/metrics"
	"activesg-proxy-go/internal/service"
)

func newTestEcho(t *testing.T, upstreamURL string, metricsEnabled bool) *echo.Echo {
	t.Helper()
	cfg := &config.Config{
		Upstream: config.UpstreamConfig{
			BaseURL:         upstreamURL,
			TimeoutSeconds:  10,
			IdleConnections: 10,
			TLSFingerprint:  "go",
		},
		Metrics: config.MetricsConfig{Enabled: metricsEnabled, Path: "/metrics"},
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	m := metrics.New()
	uc := client.NewUpstreamClient(cfg, logger, m)
	d := service.NewDispatcherForTest(uc, cfg, logger, m)

	e := echo.New()
	RegisterRoutes(e, cfg, m, NewProxyHandler(d), NewHealthHandler(cfg, "test"))
	return e
}

func TestRegisterRoutes_Wiring(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer upstream.Close()

	e := newTestEcho(t, upstream.URL, true)

	tests := []struct {
		name       string
		method     string
		path       string
		wantStatus int
	}{
		{"GET /", http.MethodGet, "/", http.StatusOK},
		{"GET /healthz", http.MethodGet, "/healthz", http.StatusOK},
		{"GET /proxy/status", http.MethodGet, "/proxy/status", http.StatusOK},
		{"GET /api/venues", http.MethodGet, "/api/venues", http.StatusOK},
		{"GET /api/sportslist", http.MethodGet, "/api/sportslist", http.StatusOK},
		{"GET /api/activity", http.MethodGet, "/api/activity?sport=tennis", http.StatusOK},
		{"GET /api/activity without sport", http.MethodGet, "/api/activity", http.StatusBadRequest},
		{"GET /api/capacity", http.MethodGet, "/api/capacity", http.StatusOK},
		{"GET /metrics", http.MethodGet, "/metrics", http.StatusOK},
		{"POST /api/venues not allowed", http.MethodPost, "/api/venues", http.StatusMethodNotAllowed},
		{"GET /unknown returns 404", http.MethodGet, "/unknown", http.StatusNotFound},
		{"GET /api/unknown returns 404", http.MethodGet, "/api/unknown", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, http.NoBody)
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestRegisterRoutes_RootWithoutUpstream(t *testing.T) {
	upstream := httptest.NewServer(http.NotFoundHandler())
	base := upstream.URL
	upstream.Close()

	e := newTestEcho(t, base, false)

	req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestRegisterRoutes_MetricsDisabled(t *testing.T) {
	e := newTestEcho(t, "https://activesg.gov.sg/api/trpc", false)

	req := httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestRegisterRoutes_MetricsExposeDispatchFailures(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer upstream.Close()

	e := newTestEcho(t, upstream.URL, true)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/venues", http.NoBody))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))
	if !strings.Contains(rec.Body.String(), `activesg_proxy_dispatch_failures_total{kind="decode",operation="venues"} 1`) {
		t.Errorf("metrics output missing dispatch failure counter:\n%s", rec.Body.String())
	}
}
