package middleware

import (
	"net/http"
	"slices"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

// CORS allows browser clients from the given origins to call the read-only
// API routes. A "*" entry allows every origin.
func CORS(allowOrigins []string) echo.MiddlewareFunc {
	if len(allowOrigins) == 0 || slices.Contains(allowOrigins, "*") {
		allowOrigins = []string{"*"}
	}
	return echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:  allowOrigins,
		AllowMethods:  []string{http.MethodGet, http.MethodHead, http.MethodOptions},
		AllowHeaders:  []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
		ExposeHeaders: []string{echo.HeaderXRequestID},
	})
}
