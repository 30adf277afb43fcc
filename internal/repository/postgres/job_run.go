package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/devlink-notifier/internal/model"
	"github.com/jwalitptl/devlink-notifier/internal/repository"
)

type jobRunRepository struct {
	BaseRepository
}

func NewJobRunRepository(base BaseRepository) repository.JobRunRepository {
	return &jobRunRepository{base}
}

func (r *jobRunRepository) Create(ctx context.Context, run *model.JobRun) error {
	if run == nil {
		return fmt.Errorf("job run cannot be nil")
	}
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}

	query := `
		INSERT INTO notifier_job_runs (
			id, job, status, sent, delivered, total, failed, error, started_at, finished_at
		) VALUES (
			:id, :job, :status, :sent, :delivered, :total, :failed, :error, :started_at, :finished_at
		)`

	_, err := r.db.NamedExecContext(ctx, query, run)
	r.observe("create_job_run", err)
	if err != nil {
		return fmt.Errorf("failed to record job run: %w", err)
	}
	return nil
}

// LastSucceeded returns nil, nil when the job never succeeded.
func (r *jobRunRepository) LastSucceeded(ctx context.Context, job string) (*model.JobRun, error) {
	query := `
		SELECT id, job, status, sent, delivered, total, failed, error, started_at, finished_at
		FROM notifier_job_runs
		WHERE job = $1 AND status = $2
		ORDER BY started_at DESC
		LIMIT 1`

	var run model.JobRun
	err := r.db.GetContext(ctx, &run, query, job, string(model.JobRunSucceeded))
	if errors.Is(err, sql.ErrNoRows) {
		r.observe("last_job_run", nil)
		return nil, nil
	}
	r.observe("last_job_run", err)
	if err != nil {
		return nil, fmt.Errorf("failed to get last run of %s: %w", job, err)
	}
	return &run, nil
}

func (r *jobRunRepository) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `DELETE FROM notifier_job_runs WHERE started_at < $1`

	result, err := r.db.ExecContext(ctx, query, cutoff)
	r.observe("delete_job_runs", err)
	if err != nil {
		return 0, fmt.Errorf("failed to delete job runs: %w", err)
	}

	return result.RowsAffected()
}
