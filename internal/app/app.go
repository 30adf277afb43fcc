// Package app wires the notifier's dependency graph shared by the api and
// worker binaries.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/jwalitptl/devlink-notifier/internal/config"
	"github.com/jwalitptl/devlink-notifier/internal/email"
	"github.com/jwalitptl/devlink-notifier/internal/handler/health"
	"github.com/jwalitptl/devlink-notifier/internal/repository"
	"github.com/jwalitptl/devlink-notifier/internal/repository/cache"
	"github.com/jwalitptl/devlink-notifier/internal/repository/postgres"
	"github.com/jwalitptl/devlink-notifier/internal/service/jobs"
	"github.com/jwalitptl/devlink-notifier/internal/service/notification"
	"github.com/jwalitptl/devlink-notifier/pkg/auth"
	"github.com/jwalitptl/devlink-notifier/pkg/logger"
	"github.com/jwalitptl/devlink-notifier/pkg/messaging"
	"github.com/jwalitptl/devlink-notifier/pkg/messaging/redis"
	"github.com/jwalitptl/devlink-notifier/pkg/metrics"
)

const (
	metricsNamespace  = "devlink_notifier"
	publishAttempts   = 3
	publishRetryDelay = 200 * time.Millisecond
)

type App struct {
	Config        *config.Config
	Logger        *logger.Logger
	DB            *sqlx.DB
	Registry      *prometheus.Registry
	Metrics       *metrics.Metrics
	Broker        messaging.Broker
	Publisher     messaging.Publisher
	Users         *cache.UserRepository
	Ledger        repository.JobRunRepository
	Templates     *email.Templates
	Notifications *notification.Service
	Jobs          *jobs.Runner
	Tokens        *auth.SchedulerTokens
}

// New connects the datastore and broker and builds the services. component
// labels the metrics subsystem ("api" or "worker").
func New(cfg *config.Config, log *logger.Logger, component string) (*App, error) {
	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		return nil, err
	}

	a := &App{
		Config:   cfg,
		Logger:   log,
		DB:       db,
		Registry: prometheus.NewRegistry(),
	}
	a.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	a.Metrics = metrics.NewMetrics(a.Registry, metricsNamespace, component)

	a.Publisher = messaging.NopPublisher{}
	if cfg.Redis.URL != "" {
		broker, err := redis.NewRedisBroker(context.Background(), redis.Config{
			URL:          cfg.Redis.URL,
			MaxRetries:   cfg.Redis.MaxRetries,
			RetryBackoff: cfg.Redis.RetryBackoff,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
		}, log)
		if err != nil {
			db.Close()
			return nil, err
		}
		a.Broker = broker
		a.Publisher = messaging.NewRetryPublisher(broker, messaging.RetryConfig{
			Attempts: publishAttempts,
			Delay:    publishRetryDelay,
		})
	} else {
		log.Warn("redis not configured, events will not be published")
	}

	base := postgres.NewBaseRepository(db, a.Metrics)
	a.Users = cache.NewUserRepository(postgres.NewUserRepository(base), cfg.Scheduler.UserCacheTTL)
	a.Ledger = postgres.NewJobRunRepository(base)
	a.Templates = email.NewTemplates(cfg.App.BaseURL)
	a.Tokens = auth.NewSchedulerTokens(cfg.Scheduler.JWTSecret, cfg.Scheduler.JWTIssuer)

	sender := email.NewSMTPSender(cfg.SMTP, log)
	a.Notifications = notification.NewService(
		a.Users,
		sender,
		a.Templates,
		a.Publisher,
		a.Metrics,
		log,
		cfg.Scheduler.BulkConcurrency,
	)

	a.Jobs = jobs.NewRunner(jobs.Deps{
		Users:          a.Users,
		Activity:       postgres.NewActivityRepository(base),
		Testimonials:   postgres.NewTestimonialRepository(base),
		Collaborations: postgres.NewCollaborationRepository(base),
		Ledger:         a.Ledger,
		Notifier:       a.Notifications,
		Templates:      a.Templates,
		Publisher:      a.Publisher,
		Metrics:        a.Metrics,
		Logger:         log,
	}, cfg.Jobs)

	return a, nil
}

// HealthChecks are the readiness probes for the connected dependencies.
func (a *App) HealthChecks() map[string]health.Check {
	checks := map[string]health.Check{
		"database": a.DB.PingContext,
	}
	if a.Broker != nil {
		checks["redis"] = a.Broker.Ping
	}
	return checks
}

func (a *App) Close() error {
	var errs []error
	if a.Broker != nil {
		if err := a.Broker.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close broker: %w", err))
		}
	}
	if err := a.DB.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close database: %w", err))
	}
	return errors.Join(errs...)
}
