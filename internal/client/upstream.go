// Package client provides the upstream HTTP client for the ActiveSG API.
package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"

	"activesg-proxy-go/internal/config"
	"activesg-proxy-go/internal/metrics"
	"activesg-proxy-go/internal/model"
)

// ErrInvalidRequest is returned when an upstream request cannot be constructed.
// No network traffic has happened when it is returned.
var ErrInvalidRequest = errors.New("invalid upstream request")

// UpstreamClient sends GET requests to the upstream API.
type UpstreamClient struct {
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

// NewUpstreamClient creates an UpstreamClient with connection pooling and the
// configured TLS fingerprint. A zero upstream timeout leaves the client without
// a deadline of its own. The metrics parameter is optional; pass nil to disable
// upstream metrics recording.
func NewUpstreamClient(cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) *UpstreamClient {
	return &UpstreamClient{
		httpClient: &http.Client{
			Transport: newTransport(cfg.Upstream),
			Timeout:   time.Duration(cfg.Upstream.TimeoutSeconds) * time.Second,
		},
		logger:  logger.With("component", "upstream_client"),
		metrics: m,
	}
}

// Do performs a single GET for ur and returns the fully read, decompressed
// response. Non-2xx statuses are returned as responses, not errors. The context
// controls the lifetime of the upstream call.
func (c *UpstreamClient) Do(ctx context.Context, ur *model.UpstreamRequest) (*model.UpstreamResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ur.URL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	req.Header = ur.Header

	c.logger.Debug("upstream request",
		"operation", ur.Operation,
		"path", req.URL.Path,
	)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.observe(ur.Operation, start, 0)
		return nil, fmt.Errorf("upstream request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := readBody(resp)
	c.observe(ur.Operation, start, resp.StatusCode)
	if err != nil {
		return nil, fmt.Errorf("read upstream body: %w", err)
	}

	c.logger.Debug("upstream response",
		"operation", ur.Operation,
		"status", resp.StatusCode,
		"size", humanize.Bytes(uint64(len(body))),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	header := resp.Header.Clone()
	header.Del("Content-Encoding")
	header.Del("Content-Length")

	return &model.UpstreamResponse{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Header:     header,
		Body:       body,
	}, nil
}

// observe records latency and, when a response arrived, its status code.
func (c *UpstreamClient) observe(operation string, start time.Time, status int) {
	if c.metrics == nil {
		return
	}
	c.metrics.UpstreamDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	if status != 0 {
		c.metrics.UpstreamResponses.WithLabelValues(operation, strconv.Itoa(status)).Inc()
	}
}
