package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/jwalitptl/devlink-notifier/internal/repository"
	"github.com/jwalitptl/devlink-notifier/pkg/logger"
)

// RunCleanupWorker prunes the job-run ledger.
type RunCleanupWorker struct {
	repo            repository.JobRunRepository
	retention       time.Duration
	cleanupInterval time.Duration
	logger          *logger.Logger
	now             func() time.Time
}

func NewRunCleanupWorker(repo repository.JobRunRepository, retention, cleanupInterval time.Duration, log *logger.Logger) *RunCleanupWorker {
	return &RunCleanupWorker{
		repo:            repo,
		retention:       retention,
		cleanupInterval: cleanupInterval,
		logger:          log.With("component", "run_cleanup"),
		now:             time.Now,
	}
}

// Start blocks until ctx is cancelled.
func (w *RunCleanupWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := w.cleanup(ctx); err != nil {
				w.logger.Error(err, "ledger cleanup failed")
			}
		}
	}
}

func (w *RunCleanupWorker) cleanup(ctx context.Context) (int64, error) {
	cutoff := w.now().Add(-w.retention)

	rows, err := w.repo.DeleteBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup job runs: %w", err)
	}

	w.logger.Info("cleaned up job runs", "deleted", rows, "cutoff", cutoff.Format(time.RFC3339))
	return rows, nil
}
