package app

import (
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/devlink-notifier/internal/config"
	"github.com/jwalitptl/devlink-notifier/pkg/logger"
)

// NewLogger builds the process logger and installs it as the zerolog
// global used by the HTTP middleware.
func NewLogger(cfg config.LoggingConfig, component string) *logger.Logger {
	l := logger.NewLogger(&logger.Config{
		Level:  logger.ParseLevel(cfg.Level),
		Format: cfg.Format,
	}).With("service", component)

	log.Logger = l.ZL
	return l
}
