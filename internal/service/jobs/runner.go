package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jwalitptl/devlink-notifier/internal/config"
	"github.com/jwalitptl/devlink-notifier/internal/email"
	"github.com/jwalitptl/devlink-notifier/internal/model"
	"github.com/jwalitptl/devlink-notifier/internal/repository"
	"github.com/jwalitptl/devlink-notifier/pkg/logger"
	"github.com/jwalitptl/devlink-notifier/pkg/messaging"
	"github.com/jwalitptl/devlink-notifier/pkg/metrics"
)

const (
	JobWeeklyDigest           = "weekly-digest"
	JobTestimonialReminders   = "testimonial-reminders"
	JobIncompleteProfile      = "incomplete-profile-reminders"
	JobReEngagement           = "re-engagement"
	JobCollaborationReminders = "collaboration-reminders"
)

// ErrUnknownJob is returned by Run for names outside Names().
var ErrUnknownJob = errors.New("unknown job")

// ErrJobRunning is returned when the same job is already in flight in this
// process.
var ErrJobRunning = errors.New("job already running")

// Notifier sends a single email and reports the transport outcome.
type Notifier interface {
	SendEmail(ctx context.Context, msg *model.EmailMessage) error
}

type Deps struct {
	Users          repository.UserRepository
	Activity       repository.ActivityRepository
	Testimonials   repository.TestimonialRepository
	Collaborations repository.CollaborationRepository
	Ledger         repository.JobRunRepository
	Notifier       Notifier
	Templates      *email.Templates
	Publisher      messaging.Publisher
	Metrics        *metrics.Metrics
	Logger         *logger.Logger
}

// Runner executes the scheduled notification jobs. Every job selects a
// cohort, sends sequentially and collects per-recipient failures instead of
// aborting. Only a cohort query failure fails a job.
type Runner struct {
	Deps
	cfg  config.JobsConfig
	now  func() time.Time
	jobs map[string]jobFunc

	mu      sync.Mutex
	running map[string]bool
}

type jobFunc func(ctx context.Context, res *model.JobResult) error

func NewRunner(deps Deps, cfg config.JobsConfig) *Runner {
	if deps.Publisher == nil {
		deps.Publisher = messaging.NopPublisher{}
	}
	deps.Logger = deps.Logger.With("component", "jobs")

	r := &Runner{Deps: deps, cfg: cfg, now: time.Now, running: make(map[string]bool)}
	r.jobs = map[string]jobFunc{
		JobWeeklyDigest:           r.weeklyDigests,
		JobTestimonialReminders:   r.testimonialReminders,
		JobIncompleteProfile:      r.incompleteProfileReminders,
		JobReEngagement:           r.reEngagement,
		JobCollaborationReminders: r.collaborationReminders,
	}
	return r
}

// Names lists every job in a stable order.
func (r *Runner) Names() []string {
	return []string{
		JobWeeklyDigest,
		JobTestimonialReminders,
		JobIncompleteProfile,
		JobReEngagement,
		JobCollaborationReminders,
	}
}

// Run executes the job registered under name.
func (r *Runner) Run(ctx context.Context, name string) (*model.JobResult, error) {
	fn, ok := r.jobs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownJob, name)
	}
	if !r.acquire(name) {
		return nil, fmt.Errorf("%w: %s", ErrJobRunning, name)
	}
	defer r.release(name)

	return r.run(ctx, name, fn)
}

func (r *Runner) acquire(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running[name] {
		return false
	}
	r.running[name] = true
	return true
}

func (r *Runner) release(name string) {
	r.mu.Lock()
	delete(r.running, name)
	r.mu.Unlock()
}

func (r *Runner) SendWeeklyDigests(ctx context.Context) (*model.JobResult, error) {
	return r.Run(ctx, JobWeeklyDigest)
}

func (r *Runner) SendTestimonialReminders(ctx context.Context) (*model.JobResult, error) {
	return r.Run(ctx, JobTestimonialReminders)
}

func (r *Runner) SendIncompleteProfileReminders(ctx context.Context) (*model.JobResult, error) {
	return r.Run(ctx, JobIncompleteProfile)
}

func (r *Runner) SendReEngagementEmails(ctx context.Context) (*model.JobResult, error) {
	return r.Run(ctx, JobReEngagement)
}

func (r *Runner) SendCollaborationRequestReminders(ctx context.Context) (*model.JobResult, error) {
	return r.Run(ctx, JobCollaborationReminders)
}

func (r *Runner) run(ctx context.Context, name string, fn jobFunc) (*model.JobResult, error) {
	log := r.Logger.With("job", name)
	res := &model.JobResult{Job: name, StartedAt: r.now()}

	if r.recentlySucceeded(ctx, log, name, res.StartedAt) {
		res.Success, res.Skipped = true, true
		res.FinishedAt = r.now()
		log.Info("job skipped, last successful run is inside the idempotency window")
		r.Metrics.JobRuns.WithLabelValues(name, string(model.JobRunSkipped)).Inc()
		r.record(ctx, log, res, model.JobRunSkipped, nil)
		return res, nil
	}

	log.Info("job started")
	err := fn(ctx, res)
	res.FinishedAt = r.now()
	duration := res.FinishedAt.Sub(res.StartedAt)

	r.Metrics.JobDuration.WithLabelValues(name).Observe(duration.Seconds())
	r.Metrics.JobCohortSize.WithLabelValues(name).Set(float64(res.Total))

	if err != nil {
		log.Error(err, "job failed", "sent", res.Sent, "total", res.Total, "duration", duration.String())
		r.Metrics.JobRuns.WithLabelValues(name, string(model.JobRunFailed)).Inc()
		r.record(ctx, log, res, model.JobRunFailed, err)
		r.publish(ctx, log, res)
		return nil, fmt.Errorf("job %s: %w", name, err)
	}

	res.Success = true
	log.Info("job finished",
		"sent", res.Sent,
		"delivered", res.Delivered,
		"failed", len(res.Failures),
		"total", res.Total,
		"duration", duration.String(),
	)
	r.Metrics.JobRuns.WithLabelValues(name, string(model.JobRunSucceeded)).Inc()
	r.record(ctx, log, res, model.JobRunSucceeded, nil)
	r.publish(ctx, log, res)
	return res, nil
}

// recentlySucceeded consults the ledger when the job has an idempotency
// window. A ledger error lets the run proceed.
func (r *Runner) recentlySucceeded(ctx context.Context, log *logger.Logger, name string, now time.Time) bool {
	window := r.cfg.Schedules[name].IdempotencyWindow
	if window <= 0 {
		return false
	}

	last, err := r.Ledger.LastSucceeded(ctx, name)
	if err != nil {
		log.Warn("failed to read job ledger, running anyway", "error", err.Error())
		return false
	}
	return last != nil && now.Sub(last.StartedAt) < window
}

func (r *Runner) record(ctx context.Context, log *logger.Logger, res *model.JobResult, status model.JobRunStatus, jobErr error) {
	run := &model.JobRun{
		Job:        res.Job,
		Status:     status,
		Sent:       res.Sent,
		Delivered:  res.Delivered,
		Total:      res.Total,
		Failed:     len(res.Failures),
		StartedAt:  res.StartedAt,
		FinishedAt: res.FinishedAt,
	}
	if jobErr != nil {
		msg := jobErr.Error()
		run.Error = &msg
	}

	if err := r.Ledger.Create(context.WithoutCancel(ctx), run); err != nil {
		log.Warn("failed to record job run", "error", err.Error())
	}
}

func (r *Runner) publish(ctx context.Context, log *logger.Logger, res *model.JobResult) {
	msg := messaging.Message{Type: "job_completed", Payload: res}
	if err := r.Publisher.Publish(context.WithoutCancel(ctx), messaging.ChannelJobCompleted, msg); err != nil {
		log.Warn("failed to publish job completion", "error", err.Error())
	}
}

// send makes one attempt and records its outcome on res.
func (r *Runner) send(ctx context.Context, res *model.JobResult, u *model.User, content email.Content) {
	recipient := u.Recipient()
	res.Sent++
	if err := r.Notifier.SendEmail(ctx, email.Message(recipient.Email, content)); err != nil {
		res.AddFailure(recipient, err)
		return
	}
	res.Delivered++
}
