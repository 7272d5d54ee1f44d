package auth

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/vendaria/vendaria/internal/apperror"
)

// Handler handles HTTP requests for authentication and account management.
// Handlers are thin: they bind the request, call the service, and render the
// response. No business logic lives here.
type Handler struct {
	service AuthService
}

// NewHandler creates a new auth handler with the given service.
func NewHandler(service AuthService) *Handler {
	return &Handler{service: service}
}

// Register creates a new account (POST /auth/register).
func (h *Handler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewValidation("invalid request body")
	}

	user, tok, err := h.service.Register(c.Request().Context(), req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, map[string]any{
		"user":  user,
		"token": tok,
	})
}

// Login authenticates an existing account (POST /auth/login).
func (h *Handler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewValidation("invalid request body")
	}

	user, tok, err := h.service.Login(c.Request().Context(), req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{
		"user":  user,
		"token": tok,
	})
}

// Logout acknowledges a logout (POST /auth/logout). Tokens are stateless so
// there is nothing to revoke; the client clears its own session.
func (h *Handler) Logout(c echo.Context) error {
	if err := h.service.Logout(c.Request().Context()); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{"success": true})
}

// Me returns the identity embedded in the presented token (GET /auth/me).
// Claims are a snapshot from issuance time; no database round trip happens.
func (h *Handler) Me(c echo.Context) error {
	claims, ok := GetClaims(c)
	if !ok {
		return apperror.NewUnauthorized("no valid token provided")
	}

	return c.JSON(http.StatusOK, map[string]any{
		"user": PublicUser{
			ID:      claims.ID,
			Name:    claims.Name,
			Email:   claims.Email,
			Profile: claims.Profile,
		},
	})
}

// GetProfile returns the stored user record (GET /users/profile).
func (h *Handler) GetProfile(c echo.Context) error {
	claims, ok := GetClaims(c)
	if !ok {
		return apperror.NewUnauthorized("no valid token provided")
	}

	user, err := h.service.Profile(c.Request().Context(), claims.ID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{"user": user})
}

// UpdateProfile changes name and email (PUT /users/profile).
func (h *Handler) UpdateProfile(c echo.Context) error {
	claims, ok := GetClaims(c)
	if !ok {
		return apperror.NewUnauthorized("no valid token provided")
	}

	var req UpdateProfileRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewValidation("invalid request body")
	}

	user, err := h.service.UpdateProfile(c.Request().Context(), claims, req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{"user": user})
}

// ChangePassword rotates the account password (PUT /users/password).
func (h *Handler) ChangePassword(c echo.Context) error {
	claims, ok := GetClaims(c)
	if !ok {
		return apperror.NewUnauthorized("no valid token provided")
	}

	var req ChangePasswordRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewValidation("invalid request body")
	}

	if err := h.service.ChangePassword(c.Request().Context(), claims.ID, req); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{"success": true})
}

// DeleteAccount removes the authenticated account (DELETE /users/account).
func (h *Handler) DeleteAccount(c echo.Context) error {
	claims, ok := GetClaims(c)
	if !ok {
		return apperror.NewUnauthorized("no valid token provided")
	}

	if err := h.service.DeleteAccount(c.Request().Context(), claims.ID); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{"success": true})
}
