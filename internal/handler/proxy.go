package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"activesg-proxy-go/internal/model"
	"activesg-proxy-go/internal/route"
	"activesg-proxy-go/internal/service"
)

// ProxyHandler serves the /api routes by dispatching them to the upstream API.
type ProxyHandler struct {
	dispatcher *service.Dispatcher
}

// NewProxyHandler creates a ProxyHandler.
func NewProxyHandler(d *service.Dispatcher) *ProxyHandler {
	return &ProxyHandler{dispatcher: d}
}

// Venues relays the programme venue list.
func (h *ProxyHandler) Venues(c echo.Context) error {
	return h.relay(c, route.Venues, "")
}

// SportsList relays the list of activities offered as programmes.
func (h *ProxyHandler) SportsList(c echo.Context) error {
	return h.relay(c, route.SportsList, "")
}

// Activity relays a programme search for the sport query parameter.
func (h *ProxyHandler) Activity(c echo.Context) error {
	return h.relay(c, route.Activity, c.QueryParam("sport"))
}

// Capacity relays current facility capacities.
func (h *ProxyHandler) Capacity(c echo.Context) error {
	return h.relay(c, route.Capacity, "")
}

// relay writes the upstream JSON verbatim on success and a normalized error
// body otherwise. It never returns a non-nil error for dispatch failures.
func (h *ProxyHandler) relay(c echo.Context, operation, param string) error {
	body, err := h.dispatcher.Dispatch(c.Request().Context(), operation, param)
	if err != nil {
		return h.mapError(c, operation, err)
	}
	return c.JSONBlob(http.StatusOK, body)
}

func (h *ProxyHandler) mapError(c echo.Context, operation string, err error) error {
	var de *service.Error
	if !errors.As(err, &de) {
		de = &service.Error{
			Kind:      service.KindUnexpected,
			Operation: operation,
			Resource:  h.dispatcher.Resource(operation),
			Err:       err,
		}
	}

	status, body := errorResponse(de)
	return c.JSON(status, body)
}

// errorResponse maps a dispatch failure to its outbound status and body.
// Upstream HTTP errors and transport failures share one message.
func errorResponse(e *service.Error) (int, model.ErrorBody) {
	details := ""
	if e.Err != nil {
		details = e.Err.Error()
	}

	switch e.Kind {
	case service.KindMissingParameter:
		return http.StatusBadRequest, model.ErrorBody{
			Error: fmt.Sprintf("%s query parameter is required.", capitalize(e.Param)),
		}
	case service.KindUpstreamHTTP, service.KindTransport:
		return http.StatusInternalServerError, model.ErrorBody{
			Error:   fmt.Sprintf("Failed to fetch %s data.", e.Resource),
			Details: details,
		}
	case service.KindDecode:
		return http.StatusInternalServerError, model.ErrorBody{
			Error:   fmt.Sprintf("Failed to parse API response for %s.", e.Resource),
			Details: details,
		}
	default:
		return http.StatusInternalServerError, model.ErrorBody{
			Error:   fmt.Sprintf("An unexpected server error occurred for %s.", e.Resource),
			Details: details,
		}
	}
}

func capitalize(s string) string {
	if s == "" {
		return "Required"
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
