// Package stats serves the system statistics endpoint.
package stats

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/aster/pkg/unify"
)

// Handler serves the stats route
type Handler struct {
	service *unify.Service
}

// NewHandler creates a new stats handler
func NewHandler(service *unify.Service) *Handler {
	return &Handler{service: service}
}

// Register registers the stats route on the group
func (h *Handler) Register(g *echo.Group) {
	g.GET("", h.Get)
}

// Get returns profile, identity, and review-queue counts
func (h *Handler) Get(c echo.Context) error {
	stats, err := h.service.Stats(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stats)
}
