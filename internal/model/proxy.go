// Package model defines shared types for the proxy.
package model

import "net/http"

// UpstreamRequest is one fully resolved call against the upstream API.
// It is built fresh for every inbound request and never shared.
type UpstreamRequest struct {
	Operation string
	URL       string
	Header    http.Header
}

// UpstreamResponse holds a completed upstream response with its body already
// read and decompressed.
type UpstreamResponse struct {
	StatusCode int
	Status     string
	Header     http.Header
	Body       []byte
}

// IsSuccess reports whether the upstream answered with a 2xx status.
func (r *UpstreamResponse) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// ErrorBody is the JSON shape returned to callers for every failure.
type ErrorBody struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
