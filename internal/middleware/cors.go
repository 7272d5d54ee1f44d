package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// CORSConfig holds configuration for the CORS middleware.
type CORSConfig struct {
	// AllowedOrigins is the list of origins permitted to make cross-origin
	// requests. ["*"] allows all, which is the default for the public API:
	// auth is carried in the Authorization header, not cookies, so a
	// wildcard origin does not expose ambient credentials.
	AllowedOrigins []string
}

// CORS returns middleware that handles Cross-Origin Resource Sharing headers
// for the JSON API. The storefront is statically hosted on a different origin
// than the API, so every response carries CORS headers and preflight OPTIONS
// requests are answered with 204 and no body.
func CORS(cfg CORSConfig) echo.MiddlewareFunc {
	allowAll := false
	originSet := make(map[string]bool)
	for _, o := range cfg.AllowedOrigins {
		if o == "*" {
			allowAll = true
		}
		originSet[o] = true
	}

	allowMethods := strings.Join([]string{
		http.MethodGet,
		http.MethodPost,
		http.MethodPut,
		http.MethodDelete,
		http.MethodOptions,
	}, ", ")
	allowHeaders := "Content-Type, Authorization"

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			res := c.Response()
			origin := req.Header.Get("Origin")

			switch {
			case allowAll:
				res.Header().Set("Access-Control-Allow-Origin", "*")
			case originSet[origin]:
				res.Header().Set("Access-Control-Allow-Origin", origin)
				res.Header().Set("Vary", "Origin")
			default:
				// Origin not in whitelist -- proceed without CORS headers.
				// The browser will block the response on the client side.
				return next(c)
			}

			res.Header().Set("Access-Control-Allow-Methods", allowMethods)
			res.Header().Set("Access-Control-Allow-Headers", allowHeaders)

			// Preflight gets an empty 204 and a day of cache.
			if req.Method == http.MethodOptions {
				res.Header().Set("Access-Control-Max-Age", "86400")
				return c.NoContent(http.StatusNoContent)
			}

			return next(c)
		}
	}
}
