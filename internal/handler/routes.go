package handler

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"activesg-proxy-go/internal/config"
	"activesg-proxy-go/internal/metrics"
)

// RegisterRoutes wires all route handlers onto the Echo instance.
// The metrics endpoint is only mounted when enabled in config.
func RegisterRoutes(e *echo.Echo, cfg *config.Config, m *metrics.Metrics, proxy *ProxyHandler, health *HealthHandler) {
	e.GET("/", health.Root)
	e.GET("/healthz", health.Healthz)
	e.GET("/proxy/status", health.Status)

	api := e.Group("/api")
	api.GET("/venues", proxy.Venues)
	api.GET("/sportslist", proxy.SportsList)
	api.GET("/activity", proxy.Activity)
	api.GET("/capacity", proxy.Capacity)

	if cfg.Metrics.Enabled {
		e.GET(cfg.Metrics.Path, echo.WrapHandler(promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})))
	}
}
