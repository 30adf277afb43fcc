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
	"golang.org/x/time/rate"

	"github.com/jwalitptl/devlink-notifier/internal/app"
	"github.com/jwalitptl/devlink-notifier/internal/config"
	"github.com/jwalitptl/devlink-notifier/internal/handler/health"
	jobsHandler "github.com/jwalitptl/devlink-notifier/internal/handler/jobs"
	notificationHandler "github.com/jwalitptl/devlink-notifier/internal/handler/notification"
	"github.com/jwalitptl/devlink-notifier/internal/handler/prometheus"
	"github.com/jwalitptl/devlink-notifier/internal/middleware"
	"github.com/jwalitptl/devlink-notifier/internal/router"
)

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	logger := app.NewLogger(cfg.Logging, "api")
	gin.SetMode(gin.ReleaseMode)

	a, err := app.New(cfg, logger, "api")
	if err != nil {
		logger.Fatal(err, "failed to initialize dependencies")
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Error(err, "failed to close dependencies")
		}
	}()

	r := router.NewRouter(
		middleware.NewAuthMiddleware(a.Tokens),
		health.NewHandler(a.HealthChecks()),
		prometheus.New(a.Registry, "devlink_notifier"),
		router.RouterConfig{
			RateLimit: rate.Limit(cfg.Server.RateLimit),
			RateBurst: cfg.Server.RateBurst,
		},
		jobsHandler.NewHandler(a.Jobs),
		notificationHandler.NewHandler(a.Notifications, a.Users, a.Templates),
	)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal(err, "failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error(err, "server forced to shutdown")
	}

	logger.Info("server exited properly")
}
