// Package service implements the request translation and error
// classification between inbound routes and the upstream API.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"

	"activesg-proxy-go/internal/client"
	"activesg-proxy-go/internal/config"
	"activesg-proxy-go/internal/metrics"
	"activesg-proxy-go/internal/model"
	"activesg-proxy-go/internal/route"
)

// allowedUpstreamHosts restricts which hosts the proxy will forward to.
var allowedUpstreamHosts = map[string]bool{
	"activesg.gov.sg": true,
}

// Upstream performs a single upstream call.
type Upstream interface {
	Do(ctx context.Context, req *model.UpstreamRequest) (*model.UpstreamResponse, error)
}

// Dispatcher turns an operation name plus optional query parameter into one
// upstream call and classifies the outcome. It holds no per-request state and
// is safe for concurrent use.
type Dispatcher struct {
	upstream Upstream
	routes   *route.Table
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

// NewDispatcher creates a Dispatcher. The metrics parameter may be nil.
func NewDispatcher(up Upstream, cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) (*Dispatcher, error) {
	u, err := url.Parse(cfg.Upstream.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse upstream base_url: %w", err)
	}

	if !allowedUpstreamHosts[u.Hostname()] {
		return nil, fmt.Errorf("upstream host %q is not in the allowlist", u.Hostname())
	}

	return newDispatcher(up, cfg, logger, m), nil
}

// NewDispatcherForTest creates a Dispatcher without host allowlist validation.
// This is intended only for tests that use httptest servers on localhost.
func NewDispatcherForTest(up Upstream, cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) *Dispatcher {
	return newDispatcher(up, cfg, logger, m)
}

func newDispatcher(up Upstream, cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) *Dispatcher {
	return &Dispatcher{
		upstream: up,
		routes:   route.NewTable(cfg.Upstream.BaseURL),
		logger:   logger.With("component", "dispatcher"),
		metrics:  m,
	}
}

// Resource returns the human-readable resource name for an operation, or the
// operation name itself when it is unknown.
func (d *Dispatcher) Resource(operation string) string {
	if r, ok := d.routes.Lookup(operation); ok {
		return r.Resource
	}
	return operation
}

// Dispatch performs the upstream call for operation and returns the upstream
// JSON body unmodified. Every failure is returned as *Error; at most one
// upstream call is made and none is made when validation fails.
func (d *Dispatcher) Dispatch(ctx context.Context, operation, param string) (body []byte, err error) {
	resource := d.Resource(operation)

	defer func() {
		if p := recover(); p != nil {
			body = nil
			err = d.fail(ctx, operation, resource, KindUnexpected, fmt.Errorf("panic: %v", p))
		}
	}()

	r, ok := d.routes.Lookup(operation)
	if !ok {
		return nil, d.fail(ctx, operation, resource, KindUnexpected, fmt.Errorf("%w: %q", route.ErrUnknownRoute, operation))
	}

	upstreamURL, err := d.routes.Build(operation, param)
	if err != nil {
		if errors.Is(err, route.ErrMissingParameter) {
			e := d.fail(ctx, operation, resource, KindMissingParameter, err)
			e.Param = r.Param
			return nil, e
		}
		return nil, d.fail(ctx, operation, resource, KindUnexpected, err)
	}

	resp, err := d.upstream.Do(ctx, &model.UpstreamRequest{
		Operation: operation,
		URL:       upstreamURL,
		Header:    BrowserHeaders(),
	})
	if err != nil {
		if errors.Is(err, client.ErrInvalidRequest) {
			return nil, d.fail(ctx, operation, resource, KindUnexpected, err)
		}
		return nil, d.fail(ctx, operation, resource, KindTransport, err)
	}

	if !resp.IsSuccess() {
		return nil, d.fail(ctx, operation, resource, KindUpstreamHTTP, &UpstreamStatusError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			URL:        upstreamURL,
		})
	}

	var raw json.RawMessage
	if err := json.Unmarshal(resp.Body, &raw); err != nil {
		return nil, d.fail(ctx, operation, resource, KindDecode, err)
	}

	return resp.Body, nil
}

// fail logs and counts a failed dispatch and wraps cause in *Error.
func (d *Dispatcher) fail(ctx context.Context, operation, resource string, kind Kind, cause error) *Error {
	level := slog.LevelError
	if kind == KindMissingParameter {
		level = slog.LevelWarn
	}
	d.logger.Log(ctx, level, "dispatch failed",
		"operation", operation,
		"kind", kind.String(),
		"err", cause,
	)

	if d.metrics != nil {
		d.metrics.DispatchFailures.WithLabelValues(d.operationLabel(operation), kind.String()).Inc()
	}

	return &Error{
		Kind:      kind,
		Operation: operation,
		Resource:  resource,
		Err:       cause,
	}
}

// operationLabel bounds the metrics label to known routes.
func (d *Dispatcher) operationLabel(operation string) string {
	if _, ok := d.routes.Lookup(operation); ok {
		return operation
	}
	return "other"
}
