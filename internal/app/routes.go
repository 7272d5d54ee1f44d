package app

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/vendaria/vendaria/internal/auth"
	"github.com/vendaria/vendaria/internal/cep"
)

// RegisterRoutes sets up all application routes. It constructs each feature
// package's repository/service/handler chain and delegates to its route
// registration function.
func (a *App) RegisterRoutes() {
	e := a.Echo

	// Health check endpoint for container orchestration.
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":    "ok",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})

	// Auth and account management.
	authRepo := auth.NewUserRepository(a.DB)
	authService := auth.NewService(authRepo, a.Tokens, a.Config.Auth.TokenTTL)
	auth.RegisterRoutes(e, auth.NewHandler(authService), a.Tokens)

	// CEP lookup proxy with Redis cache.
	cepService := cep.NewService(a.Config.CEP, a.Redis, slog.Default())
	cep.RegisterRoutes(e, cep.NewHandler(cepService))
}
