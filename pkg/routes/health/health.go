// Package health serves liveness and readiness endpoints.
package health

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/aster/pkg/database"
)

// Checker handles health check endpoints
type Checker struct {
	db        database.DB
	version   string
	startTime time.Time
}

// NewChecker creates a new health checker
func NewChecker(db database.DB, version string) *Checker {
	return &Checker{
		db:        db,
		version:   version,
		startTime: time.Now(),
	}
}

// Register registers health check endpoints
func (h *Checker) Register(e *echo.Echo) {
	e.GET("/health", h.Health)
	e.GET("/health/ready", h.Ready)
}

// Status is the health check response
type Status struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`
}

// Health reports basic service identity
func (h *Checker) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, Status{
		Status:  "healthy",
		Service: "aster",
		Version: h.version,
		Uptime:  time.Since(h.startTime).Round(time.Second).String(),
	})
}

// Ready reports whether the database is reachable
func (h *Checker) Ready(c echo.Context) error {
	if err := h.db.PingContext(c.Request().Context()); err != nil {
		return c.JSON(http.StatusServiceUnavailable, Status{
			Status:  "unavailable",
			Service: "aster",
			Version: h.version,
		})
	}
	return c.JSON(http.StatusOK, Status{
		Status:  "ready",
		Service: "aster",
		Version: h.version,
		Uptime:  time.Since(h.startTime).Round(time.Second).String(),
	})
}
