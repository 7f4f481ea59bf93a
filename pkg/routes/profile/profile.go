// Package profile serves the unified profile endpoints.
package profile

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/aster/pkg/models"
	"github.com/Ramsey-B/aster/pkg/unify"
)

var validate = validator.New()

// Handler serves profile routes
type Handler struct {
	service *unify.Service
}

// NewHandler creates a new profile handler
func NewHandler(service *unify.Service) *Handler {
	return &Handler{service: service}
}

// Register registers profile routes on the group
func (h *Handler) Register(g *echo.Group) {
	g.GET("", h.List)
	g.GET("/:id", h.Get)
	g.POST("", h.Create)
}

// List returns all active profiles with their identities
func (h *Handler) List(c echo.Context) error {
	profiles, err := h.service.ListProfiles(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{
		"data":  profiles,
		"count": len(profiles),
	})
}

// Get returns a single profile with its linked identities
func (h *Handler) Get(c echo.Context) error {
	profile, err := h.service.GetProfile(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, profile)
}

// Create creates a new unified profile
func (h *Handler) Create(c echo.Context) error {
	var req models.CreateProfileRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	profile, err := h.service.CreateProfile(c.Request().Context(), &req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, profile)
}
