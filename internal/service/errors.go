package service

import "fmt"

// Kind classifies why a dispatch failed.
type Kind int

const (
	// KindUnexpected covers failures outside the other kinds.
	KindUnexpected Kind = iota
	// KindMissingParameter: a required query parameter was absent or blank.
	KindMissingParameter
	// KindUpstreamHTTP: the upstream answered with a non-2xx status.
	KindUpstreamHTTP
	// KindTransport: no usable response was obtained.
	KindTransport
	// KindDecode: a 2xx response whose body is not valid JSON.
	KindDecode
)

func (k Kind) String() string {
	switch k {
	case KindMissingParameter:
		return "missing_parameter"
	case KindUpstreamHTTP:
		return "upstream_http"
	case KindTransport:
		return "transport"
	case KindDecode:
		return "decode"
	default:
		return "unexpected"
	}
}

// Error is the only error type Dispatch returns.
type Error struct {
	Kind      Kind
	Operation string
	// Resource is the human-readable name of what was being fetched.
	Resource string
	// Param is set for KindMissingParameter.
	Param string
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Operation, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// UpstreamStatusError reports a non-2xx upstream response.
type UpstreamStatusError struct {
	StatusCode int
	Status     string
	URL        string
}

func (e *UpstreamStatusError) Error() string {
	return fmt.Sprintf("%s for url: %s", e.Status, e.URL)
}
