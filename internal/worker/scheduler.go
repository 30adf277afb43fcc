package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/jwalitptl/devlink-notifier/internal/config"
	"github.com/jwalitptl/devlink-notifier/internal/model"
	"github.com/jwalitptl/devlink-notifier/pkg/logger"
)

// JobRunner is the subset of jobs.Runner the scheduler drives.
type JobRunner interface {
	Names() []string
	Run(ctx context.Context, name string) (*model.JobResult, error)
}

// Scheduler triggers every job on its cron spec. A job whose previous run
// is still going is skipped, not queued.
type Scheduler struct {
	runner     JobRunner
	schedules  map[string]config.JobSchedule
	runTimeout time.Duration
	logger     *logger.Logger
	cron       *cron.Cron
	entries    map[string]cron.EntryID
}

func NewScheduler(runner JobRunner, schedules map[string]config.JobSchedule, runTimeout time.Duration, log *logger.Logger) *Scheduler {
	log = log.With("component", "scheduler")
	cl := cronLogger{log}

	return &Scheduler{
		runner:     runner,
		schedules:  schedules,
		runTimeout: runTimeout,
		logger:     log,
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		entries: make(map[string]cron.EntryID),
	}
}

// Start registers every scheduled job and starts the cron loop. Runs use
// ctx as their parent, so cancelling it aborts in-flight jobs.
func (s *Scheduler) Start(ctx context.Context) error {
	for _, name := range s.runner.Names() {
		name := name
		schedule, ok := s.schedules[name]
		if !ok || schedule.Cron == "" {
			s.logger.Info("job has no schedule, trigger only", "job", name)
			continue
		}

		id, err := s.cron.AddFunc(schedule.Cron, func() { s.runOnce(ctx, name) })
		if err != nil {
			return fmt.Errorf("invalid schedule %q for job %s: %w", schedule.Cron, name, err)
		}
		s.entries[name] = id
		s.logger.Info("job scheduled", "job", name, "cron", schedule.Cron,
			"idempotency_window", schedule.IdempotencyWindow.String())
	}

	s.cron.Start()
	return nil
}

// Stop halts the cron loop. The returned context is done once running jobs finish.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

// Next reports the next activation of a scheduled job.
func (s *Scheduler) Next(name string) (time.Time, bool) {
	id, ok := s.entries[name]
	if !ok {
		return time.Time{}, false
	}
	return s.cron.Entry(id).Next, true
}

func (s *Scheduler) runOnce(ctx context.Context, name string) {
	if s.runTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.runTimeout)
		defer cancel()
	}

	s.logger.Debug("triggering job", "job", name)
	if _, err := s.runner.Run(ctx, name); err != nil {
		s.logger.Error(err, "scheduled run failed", "job", name)
	}
}

// cronLogger routes cron's chatter to debug and keeps errors.
type cronLogger struct {
	log *logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error(err, msg, keysAndValues...)
}
