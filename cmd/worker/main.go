package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/devlink-notifier/internal/app"
	"github.com/jwalitptl/devlink-notifier/internal/config"
	"github.com/jwalitptl/devlink-notifier/internal/handler/health"
	"github.com/jwalitptl/devlink-notifier/internal/handler/prometheus"
	"github.com/jwalitptl/devlink-notifier/internal/middleware"
	"github.com/jwalitptl/devlink-notifier/internal/worker"
	"github.com/jwalitptl/devlink-notifier/pkg/logger"
)

// setupHealthCheck serves liveness, readiness and metrics on the health port.
func setupHealthCheck(a *app.App, logger *logger.Logger) *http.Server {
	metricsH := prometheus.New(a.Registry, "devlink_notifier_worker")

	engine := gin.New()
	engine.Use(middleware.Recovery(), metricsH.Middleware())
	health.NewHandler(a.HealthChecks()).RegisterRoutes(engine)
	engine.GET("/metrics", metricsH.Handler())

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", a.Config.Scheduler.HealthPort),
		Handler: engine,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal(err, "health check server failed")
		}
	}()
	return srv
}

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	logger := app.NewLogger(cfg.Logging, "worker")
	gin.SetMode(gin.ReleaseMode)

	a, err := app.New(cfg, logger, "worker")
	if err != nil {
		logger.Fatal(err, "failed to initialize dependencies")
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Error(err, "failed to close dependencies")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	healthSrv := setupHealthCheck(a, logger)

	scheduler := worker.NewScheduler(a.Jobs, cfg.Jobs.Schedules, cfg.Scheduler.RunTimeout, logger)
	if err := scheduler.Start(ctx); err != nil {
		logger.Fatal(err, "failed to start scheduler")
	}

	cleanup := worker.NewRunCleanupWorker(a.Ledger, cfg.Scheduler.LedgerRetention, cfg.Scheduler.CleanupInterval, logger)
	go cleanup.Start(ctx)

	logger.Info("worker started", "jobs", len(a.Jobs.Names()))
	<-ctx.Done()
	logger.Info("shutting down...")

	// Wait for in-flight jobs; they observe ctx and stop between recipients.
	<-scheduler.Stop().Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := healthSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error(err, "health server forced to shutdown")
	}

	logger.Info("worker exited properly")
}
