// Package server assembles the echo application: middleware, route
// groups, and the HTTP listener.
package server

import (
	"context"
	"fmt"
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.uber.org/zap"

	"github.com/Ramsey-B/aster/config"
	"github.com/Ramsey-B/aster/pkg/database"
	"github.com/Ramsey-B/aster/pkg/middleware"
	"github.com/Ramsey-B/aster/pkg/routes/candidate"
	"github.com/Ramsey-B/aster/pkg/routes/health"
	"github.com/Ramsey-B/aster/pkg/routes/identity"
	"github.com/Ramsey-B/aster/pkg/routes/match"
	"github.com/Ramsey-B/aster/pkg/routes/profile"
	"github.com/Ramsey-B/aster/pkg/routes/stats"
	"github.com/Ramsey-B/aster/pkg/unify"
)

// Server wraps the echo instance
type Server struct {
	echo   *echo.Echo
	config *config.Config
	logger *zap.Logger
}

// New builds the echo application with all middleware and routes
func New(cfg *config.Config, logger *zap.Logger, db database.DB, service *unify.Service) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: cfg.AllowOrigins,
		AllowMethods: cfg.AllowMethods,
	}))
	e.Use(otelecho.Middleware(cfg.AppName))
	e.Use(middleware.Context())
	e.Use(middleware.Logger(logger))
	e.HTTPErrorHandler = middleware.Error(logger)

	health.NewChecker(db, cfg.Version).Register(e)

	api := e.Group("/api")
	profile.NewHandler(service).Register(api.Group("/profiles"))
	identity.NewHandler(service).Register(api.Group("/identities"))
	match.NewHandler(service).Register(api)
	candidate.NewHandler(service).Register(api.Group("/candidates"))
	stats.NewHandler(service).Register(api.Group("/stats"))

	e.Server.ReadTimeout = time.Duration(cfg.HttpServerReadTimeoutSeconds) * time.Second
	e.Server.WriteTimeout = time.Duration(cfg.HttpServerWriteTimeoutSeconds) * time.Second
	e.Server.IdleTimeout = time.Duration(cfg.HttpServerIdleTimeoutSeconds) * time.Second

	return &Server{
		echo:   e,
		config: cfg,
		logger: logger,
	}
}

// Start begins serving and blocks until the listener stops
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.config.Port)
	s.logger.Info("http server listening", zap.String("addr", addr))
	return s.echo.Start(addr)
}

// Shutdown stops the server gracefully
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
