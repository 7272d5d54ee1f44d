package cep

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Handler exposes CEP lookup over HTTP.
type Handler struct {
	service *Service
}

// NewHandler creates a new CEP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Lookup handles GET /cep/:code.
func (h *Handler) Lookup(c echo.Context) error {
	addr, err := h.service.Lookup(c.Request().Context(), c.Param("code"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, addr)
}

// RegisterRoutes sets up the CEP route. Lookup is public: the address form
// calls it before the shopper necessarily has an account.
func RegisterRoutes(e *echo.Echo, h *Handler) {
	e.GET("/cep/:code", h.Lookup)
}
