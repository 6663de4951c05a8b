package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	dto "github.com/prometheus/client_model/go"

	"activesg-proxy-go/internal/metrics"
)

// findSeries returns the first series of family name whose labels include want.
func findSeries(t *testing.T, m *metrics.Metrics, name string, want map[string]string) *dto.Metric {
	t.Helper()
	families, err := m.Registry.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
		for _, metric := range f.GetMetric() {
			labels := make(map[string]string)
			for _, lp := range metric.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			match := true
			for k, v := range want {
				if labels[k] != v {
					match = false
					break
				}
			}
			if match {
				return metric
			}
		}
	}
	return nil
}

func TestMetricsMiddleware_IncrementsCounter(t *testing.T) {
	m := metrics.New()

	e := echo.New()
	e.Use(MetricsMiddleware(m))
	e.GET("/api/venues", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	req := httptest.NewRequest(http.MethodGet, "/api/venues", http.NoBody)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	series := findSeries(t, m, "activesg_proxy_http_requests_total", map[string]string{"path": "/api/venues", "status_code": "200"})
	if series == nil {
		t.Fatal("expected activesg_proxy_http_requests_total with path=/api/venues")
	}
	if v := series.GetCounter().GetValue(); v != 1 {
		t.Errorf("counter value = %v, want 1", v)
	}
}

func TestMetricsMiddleware_QueryDoesNotSplitLabel(t *testing.T) {
	m := metrics.New()

	e := echo.New()
	e.Use(MetricsMiddleware(m))
	e.GET("/api/activity", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	for _, sport := range []string{"tennis", "squash", "golf"} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/activity?sport="+sport, http.NoBody))
	}

	series := findSeries(t, m, "activesg_proxy_http_requests_total", map[string]string{"path": "/api/activity"})
	if series == nil {
		t.Fatal("expected activesg_proxy_http_requests_total with path=/api/activity")
	}
	if v := series.GetCounter().GetValue(); v != 3 {
		t.Errorf("counter value = %v, want 3", v)
	}
}

func TestMetricsMiddleware_RecordsDuration(t *testing.T) {
	m := metrics.New()

	e := echo.New()
	e.Use(MetricsMiddleware(m))
	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	req := httptest.NewRequest(http.MethodGet, "/healthz", http.NoBody)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	series := findSeries(t, m, "activesg_proxy_http_request_duration_seconds", map[string]string{"path": "/healthz"})
	if series == nil || series.GetHistogram().GetSampleCount() == 0 {
		t.Error("expected activesg_proxy_http_request_duration_seconds with at least one sample")
	}
}

func TestMetricsMiddleware_JSONErrorStatus(t *testing.T) {
	m := metrics.New()

	e := echo.New()
	e.Use(MetricsMiddleware(m))
	e.GET("/api/activity", func(c echo.Context) error {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Sport query parameter is required."})
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/activity", http.NoBody))

	if findSeries(t, m, "activesg_proxy_http_requests_total", map[string]string{"path": "/api/activity", "status_code": "400"}) == nil {
		t.Error("expected activesg_proxy_http_requests_total with path=/api/activity, status_code=400")
	}
}

func TestMetricsMiddleware_HTTPErrorStatus(t *testing.T) {
	m := metrics.New()

	e := echo.New()
	e.Use(MetricsMiddleware(m))
	e.GET("/api/capacity", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "down")
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/capacity", http.NoBody))

	if findSeries(t, m, "activesg_proxy_http_requests_total", map[string]string{"path": "/api/capacity", "status_code": "503"}) == nil {
		t.Error("expected activesg_proxy_http_requests_total with path=/api/capacity, status_code=503")
	}
}

func TestMetricsMiddleware_UnknownMethodNormalized(t *testing.T) {
	m := metrics.New()

	e := echo.New()
	e.Use(MetricsMiddleware(m))
	// Any() lets the middleware see a non-standard method without a 405.
	e.Any("/api/venues", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest("XYZZY", "/api/venues", http.NoBody))

	if findSeries(t, m, "activesg_proxy_http_requests_total", map[string]string{"path": "/api/venues", "method": "other"}) == nil {
		t.Error("expected activesg_proxy_http_requests_total with path=/api/venues and method=other")
	}
}

func TestMetricsMiddleware_RouterNotFound(t *testing.T) {
	m := metrics.New()

	e := echo.New()
	e.Use(MetricsMiddleware(m))
	// No routes registered; request should yield 404.

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nonexistent", http.NoBody))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
	if findSeries(t, m, "activesg_proxy_http_requests_total", map[string]string{"path": "other", "method": "GET", "status_code": "404"}) == nil {
		t.Error("expected activesg_proxy_http_requests_total with path=other, method=GET, status_code=404")
	}
}

func TestMetricsMiddleware_SkipsListedPaths(t *testing.T) {
	m := metrics.New()

	e := echo.New()
	e.Use(MetricsMiddleware(m, "/metrics"))
	e.GET("/metrics", func(c echo.Context) error {
		return c.String(http.StatusOK, "# metrics")
	})
	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	for _, p := range []string{"/metrics", "/metrics", "/healthz"} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, p, http.NoBody))
	}

	if findSeries(t, m, "activesg_proxy_http_requests_total", map[string]string{"path": "/metrics"}) != nil {
		t.Error("scrape requests should not be recorded")
	}
	if findSeries(t, m, "activesg_proxy_http_requests_total", map[string]string{"path": "/healthz"}) == nil {
		t.Error("expected activesg_proxy_http_requests_total with path=/healthz")
	}
}
