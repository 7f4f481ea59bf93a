// Package candidate serves the match review queue endpoints.
package candidate

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/aster/pkg/context"
	"github.com/Ramsey-B/aster/pkg/models"
	"github.com/Ramsey-B/aster/pkg/unify"
)

// Handler serves candidate review routes
type Handler struct {
	service *unify.Service
}

// NewHandler creates a new candidate handler
func NewHandler(service *unify.Service) *Handler {
	return &Handler{service: service}
}

// Register registers candidate routes on the group
func (h *Handler) Register(g *echo.Group) {
	g.GET("", h.List)
	g.POST("/:id/approve", h.Approve)
	g.POST("/:id/reject", h.Reject)
}

// List returns candidates filtered by status, pending by default
func (h *Handler) List(c echo.Context) error {
	candidates, err := h.service.ListCandidates(c.Request().Context(), c.QueryParam("status"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{
		"data":  candidates,
		"count": len(candidates),
	})
}

// Approve approves a pending candidate and links its identity
func (h *Handler) Approve(c echo.Context) error {
	candidate, err := h.service.ApproveCandidate(c.Request().Context(), c.Param("id"), h.reviewer(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, candidate)
}

// Reject rejects a pending candidate
func (h *Handler) Reject(c echo.Context) error {
	candidate, err := h.service.RejectCandidate(c.Request().Context(), c.Param("id"), h.reviewer(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, candidate)
}

// reviewer resolves the reviewer identity from the body, falling back
// to the X-Reviewer-ID header.
func (h *Handler) reviewer(c echo.Context) string {
	var req models.ReviewRequest
	if err := c.Bind(&req); err == nil && req.ReviewedBy != "" {
		return req.ReviewedBy
	}
	return context.GetReviewerID(c.Request().Context())
}
