// Package route holds the fixed table of upstream tRPC procedures the proxy
// exposes and builds fully encoded upstream URLs from it.
package route

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Operation names served by the proxy.
const (
	Venues     = "venues"
	SportsList = "sportslist"
	Activity   = "activity"
	Capacity   = "capacity"
)

// activityPageSize is the number of programmes requested per activity search.
const activityPageSize = 10

var (
	// ErrUnknownRoute is returned when an operation name has no table entry.
	ErrUnknownRoute = errors.New("unknown route")

	// ErrMissingParameter matches any *MissingParameterError via errors.Is.
	ErrMissingParameter = errors.New("missing required parameter")
)

// MissingParameterError reports a required query parameter that was absent,
// empty, or whitespace-only.
type MissingParameterError struct {
	Param string
}

func (e *MissingParameterError) Error() string {
	return fmt.Sprintf("%s query parameter is required", e.Param)
}

// Is lets errors.Is(err, ErrMissingParameter) match.
func (e *MissingParameterError) Is(target error) bool {
	return target == ErrMissingParameter
}

// Route describes one upstream procedure. Routes are immutable once the
// table is built.
type Route struct {
	// Name is the operation identifier used by handlers.
	Name string
	// Resource is the human-readable noun used in error messages.
	Resource string
	// Procedure is the tRPC procedure path appended to the base URL.
	Procedure string
	// Param names the required query parameter, or is empty when none is taken.
	Param string

	input func(param string) any
}

// Table maps operation names to routes against a single upstream base URL.
// It is safe for concurrent use.
type Table struct {
	baseURL string
	routes  map[string]Route
}

// NewTable returns the route table for the given upstream base URL.
func NewTable(baseURL string) *Table {
	routes := []Route{
		{Name: Venues, Resource: "venues", Procedure: "programme.getProgrammeVenues", input: noInput},
		{Name: SportsList, Resource: "sports list", Procedure: "activity.listForProgrammes", input: noInput},
		{Name: Activity, Resource: "activity", Procedure: "programme.listV2", Param: "sport", input: programmeSearch},
		{Name: Capacity, Resource: "capacity", Procedure: "pass.getFacilityCapacities", input: noInput},
	}

	t := &Table{
		baseURL: strings.TrimRight(baseURL, "/"),
		routes:  make(map[string]Route, len(routes)),
	}
	for _, r := range routes {
		t.routes[r.Name] = r
	}
	return t
}

// Lookup returns the route registered under name.
func (t *Table) Lookup(name string) (Route, bool) {
	r, ok := t.routes[name]
	return r, ok
}

// Build resolves name and the raw query parameter into an absolute upstream URL.
// The parameter is ignored for routes that take none.
func (t *Table) Build(name, param string) (string, error) {
	r, ok := t.routes[name]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownRoute, name)
	}
	if r.Param != "" && strings.TrimSpace(param) == "" {
		return "", &MissingParameterError{Param: r.Param}
	}

	input, err := encodeInput(r.input(param))
	if err != nil {
		return "", fmt.Errorf("encode %s input: %w", r.Name, err)
	}

	return t.baseURL + "/" + r.Procedure + "?input=" + url.QueryEscape(input), nil
}

// encodeInput renders v as compact JSON without HTML escaping, so characters
// such as '&' reach the upstream literally once the query is decoded.
func encodeInput(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}
