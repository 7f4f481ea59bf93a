// Package match serves the cascade and normalization endpoints.
package match

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/aster/pkg/models"
	"github.com/Ramsey-B/aster/pkg/unify"
)

var validate = validator.New()

// Handler serves matching routes
type Handler struct {
	service *unify.Service
}

// NewHandler creates a new match handler
func NewHandler(service *unify.Service) *Handler {
	return &Handler{service: service}
}

// Register registers matching routes on the group
func (h *Handler) Register(g *echo.Group) {
	g.POST("/match", h.Resolve)
	g.POST("/normalize", h.Normalize)
}

// Resolve runs the full match cascade for a set of identifiers
func (h *Handler) Resolve(c echo.Context) error {
	var req models.ResolveRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	resp, err := h.service.Resolve(c.Request().Context(), &req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, resp)
}

// Normalize canonicalizes one identifier
func (h *Handler) Normalize(c echo.Context) error {
	var req models.NormalizeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	return c.JSON(http.StatusOK, h.service.Normalize(&req))
}
