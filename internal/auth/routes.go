package auth

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/vendaria/vendaria/internal/middleware"
	"github.com/vendaria/vendaria/internal/token"
)

// RegisterRoutes sets up all auth and account routes on the given Echo
// instance.
//
// Credential endpoints are rate-limited per IP to slow brute-force and
// credential stuffing: 10 attempts per minute for login, 5 for register.
func RegisterRoutes(e *echo.Echo, h *Handler, codec *token.Codec) {
	// Public routes -- no token required.
	e.POST("/auth/register", h.Register, middleware.RateLimit(5, time.Minute))
	e.POST("/auth/login", h.Login, middleware.RateLimit(10, time.Minute))

	// Logout is public too: tokens are stateless, so there is nothing to
	// revoke and nothing to verify. It always reports success.
	e.POST("/auth/logout", h.Logout)

	// Everything below requires a valid bearer token.
	authed := e.Group("", RequireToken(codec))
	authed.GET("/auth/me", h.Me)
	authed.GET("/users/profile", h.GetProfile)
	authed.PUT("/users/profile", h.UpdateProfile)
	authed.PUT("/users/password", h.ChangePassword)
	authed.DELETE("/users/account", h.DeleteAccount)
}
