package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	postgresmigrate "github.com/golang-migrate/migrate/v4/database/postgres"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Ramsey-B/aster/config"
	candidaterepo "github.com/Ramsey-B/aster/internal/repositories/candidate"
	identityrepo "github.com/Ramsey-B/aster/internal/repositories/identity"
	profilerepo "github.com/Ramsey-B/aster/internal/repositories/profile"
	"github.com/Ramsey-B/aster/pkg/database"
	"github.com/Ramsey-B/aster/pkg/kafka"
	"github.com/Ramsey-B/aster/pkg/llm"
	"github.com/Ramsey-B/aster/pkg/matching"
	"github.com/Ramsey-B/aster/pkg/server"
	"github.com/Ramsey-B/aster/pkg/tracing"
	"github.com/Ramsey-B/aster/pkg/unify"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := newLogger(cfg)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Setup(ctx, cfg.Tracing)
	if err != nil {
		logger.Fatal("failed to set up tracing", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(shutdownCtx)
	}()

	db, err := database.Connect(ctx, cfg.Database, logger)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := runMigrations(cfg, logger, db); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}

	profiles := profilerepo.NewRepository(db, logger)
	identities := identityrepo.NewRepository(db, logger)
	candidates := candidaterepo.NewRepository(db, logger)

	scorer := matching.NewScorer()
	deterministic := matching.NewDeterministic(identities, logger, cfg.Unify.PhoneRegion)
	fuzzy := matching.NewFuzzy(identities, scorer, logger, cfg.Unify.PhoneRegion)
	llmMatcher := matching.NewLLMMatcher(llm.NewClient(cfg.LLM), logger)
	cascade := matching.NewCascade(deterministic, fuzzy, llmMatcher, identities, logger, cfg.Cascade, cfg.Unify.PhoneRegion)

	service := unify.NewService(profiles, identities, candidates, cascade, logger, cfg.Unify)

	var consumer *kafka.Consumer
	if cfg.Kafka.Enabled {
		consumer = kafka.NewConsumer(cfg.Kafka, logger, func(ctx context.Context, msg *kafka.IncomingMessage) error {
			_, err := service.CreateIdentity(ctx, msg.Observation.CreateRequest())
			return err
		})
		if err := consumer.Start(ctx); err != nil {
			logger.Fatal("failed to start kafka consumer", zap.Error(err))
		}
	}

	srv := server.New(cfg, logger, db, service)

	go func() {
		<-ctx.Done()
		logger.Info("shutting down")

		if consumer != nil {
			if err := consumer.Stop(); err != nil {
				logger.Error("failed to stop kafka consumer", zap.Error(err))
			}
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("failed to shut down http server", zap.Error(err))
		}
	}()

	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("http server stopped", zap.Error(err))
	}
}

func newLogger(cfg *config.Config) *zap.Logger {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.PrettyLogs {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	logger, err := zapCfg.Build()
	if err != nil {
		panic(err)
	}
	return logger.Named(cfg.AppName)
}

func runMigrations(cfg *config.Config, logger *zap.Logger, db database.DB) error {
	driver, err := postgresmigrate.WithInstance(db.Unsafe().DB, &postgresmigrate.Config{})
	if err != nil {
		return err
	}

	ms := database.NewMigrationService(logger, &cfg.Migration)
	return ms.Migrate(cfg.Database.Name, driver)
}
