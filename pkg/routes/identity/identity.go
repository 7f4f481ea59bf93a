// Package identity serves the platform identity endpoints.
package identity

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/aster/pkg/models"
	"github.com/Ramsey-B/aster/pkg/unify"
)

var validate = validator.New()

// Handler serves identity routes
type Handler struct {
	service *unify.Service
}

// NewHandler creates a new identity handler
func NewHandler(service *unify.Service) *Handler {
	return &Handler{service: service}
}

// Register registers identity routes on the group
func (h *Handler) Register(g *echo.Group) {
	g.GET("", h.List)
	g.POST("", h.Create)
}

// List returns all platform identities with their profile names
func (h *Handler) List(c echo.Context) error {
	identities, err := h.service.ListIdentities(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{
		"data":  identities,
		"count": len(identities),
	})
}

// Create ingests a new identity, running the match cascade unless
// auto_match is disabled
func (h *Handler) Create(c echo.Context) error {
	var req models.CreateIdentityRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	result, err := h.service.CreateIdentity(c.Request().Context(), &req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, result)
}
