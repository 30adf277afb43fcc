package notification

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/jwalitptl/devlink-notifier/internal/email"
	"github.com/jwalitptl/devlink-notifier/internal/model"
	"github.com/jwalitptl/devlink-notifier/internal/repository"
	"github.com/jwalitptl/devlink-notifier/pkg/logger"
	"github.com/jwalitptl/devlink-notifier/pkg/messaging"
	"github.com/jwalitptl/devlink-notifier/pkg/metrics"
)

const defaultConcurrency = 10

// ErrUnknownMetric is returned for metrics without a milestone ladder.
var ErrUnknownMetric = errors.New("unknown milestone metric")

// milestones are matched exactly. A counter that jumps past a value never
// fires it.
var milestones = map[model.MetricType][]int{
	model.MetricFollowers:    {1, 10, 50, 100, 500, 1000},
	model.MetricProfileViews: {10, 50, 100, 500, 1000, 5000},
	model.MetricProjects:     {1, 5, 10, 25, 50},
	model.MetricPosts:        {1, 5, 10, 25, 50, 100},
}

// Milestones returns the thresholds for metric in ascending order.
func Milestones(metric model.MetricType) ([]int, bool) {
	thresholds, ok := milestones[metric]
	if !ok {
		return nil, false
	}
	out := make([]int, len(thresholds))
	copy(out, thresholds)
	return out, true
}

// Render builds the email for one recipient of a fan-out.
type Render func(r model.Recipient) email.Content

type Service struct {
	users       repository.UserRepository
	sender      email.Sender
	templates   *email.Templates
	publisher   messaging.Publisher
	metrics     *metrics.Metrics
	logger      *logger.Logger
	concurrency int
	now         func() time.Time
}

func NewService(
	users repository.UserRepository,
	sender email.Sender,
	templates *email.Templates,
	publisher messaging.Publisher,
	m *metrics.Metrics,
	log *logger.Logger,
	concurrency int,
) *Service {
	if publisher == nil {
		publisher = messaging.NopPublisher{}
	}
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	return &Service{
		users:       users,
		sender:      sender,
		templates:   templates,
		publisher:   publisher,
		metrics:     m,
		logger:      log.With("component", "notification"),
		concurrency: concurrency,
		now:         time.Now,
	}
}

// SendEmail hands one message to the transport. Transport errors are
// returned to the caller.
func (s *Service) SendEmail(ctx context.Context, msg *model.EmailMessage) error {
	label := msg.Template
	if label == "" {
		label = "custom"
	}

	start := time.Now()
	err := s.sender.Send(ctx, msg)
	s.metrics.EmailSendLatency.Observe(time.Since(start).Seconds())

	if err != nil {
		s.metrics.EmailsFailed.WithLabelValues(label).Inc()
		s.logger.Error(err, "failed to send email", "to", msg.To, "template", label)
		return fmt.Errorf("send %s email to %s: %w", label, msg.To, err)
	}

	s.metrics.EmailsSent.WithLabelValues(label).Inc()
	s.logger.Info("email sent", "to", msg.To, "template", label)
	return nil
}

// SendBulkEmail attempts every recipient concurrently and waits for all of
// them. Individual failures are collected in the result, never returned.
func (s *Service) SendBulkEmail(ctx context.Context, recipients []model.Recipient, render Render) *model.BatchResult {
	result := &model.BatchResult{Attempted: len(recipients)}
	if len(recipients) == 0 {
		return result
	}

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(s.concurrency)

	for _, r := range recipients {
		r := r
		g.Go(func() error {
			err := s.SendEmail(ctx, email.Message(r.Email, render(r)))

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.Failures = append(result.Failures, model.SendFailure{
					UserID: r.UserID,
					Email:  r.Email,
					Error:  err.Error(),
				})
				return nil
			}
			result.Delivered++
			return nil
		})
	}
	_ = g.Wait()

	sort.Slice(result.Failures, func(i, j int) bool {
		return result.Failures[i].Email < result.Failures[j].Email
	})

	s.logger.Info("bulk send finished",
		"attempted", result.Attempted,
		"delivered", result.Delivered,
		"failed", len(result.Failures),
	)
	return result
}

// NotifyFollowers emails every consenting, named follower of userID.
func (s *Service) NotifyFollowers(ctx context.Context, userID uuid.UUID, render Render) (*model.BatchResult, error) {
	followers, err := s.users.ListFollowers(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list followers of %s: %w", userID, err)
	}

	recipients := make([]model.Recipient, 0, len(followers))
	for _, f := range followers {
		if !f.CanReceiveEmail() || !f.HasName() {
			continue
		}
		recipients = append(recipients, f.Recipient())
	}

	if len(recipients) == 0 {
		s.logger.Debug("no eligible followers", "user_id", userID, "followers", len(followers))
		return &model.BatchResult{}, nil
	}

	return s.SendBulkEmail(ctx, recipients, render), nil
}

// consentUser loads a user for a consent decision, bypassing any memo the
// repository keeps.
func (s *Service) consentUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	if fresh, ok := s.users.(repository.FreshUserGetter); ok {
		return fresh.GetFresh(ctx, id)
	}
	return s.users.Get(ctx, id)
}

// CheckAndNotifyMilestone sends the milestone email when count is exactly
// one of the thresholds for metric. It reports whether an email went out.
func (s *Service) CheckAndNotifyMilestone(ctx context.Context, userID uuid.UUID, metric model.MetricType, count int) (bool, error) {
	thresholds, ok := milestones[metric]
	if !ok {
		return false, fmt.Errorf("%w: %q", ErrUnknownMetric, metric)
	}
	if !slices.Contains(thresholds, count) {
		return false, nil
	}

	user, err := s.consentUser(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("failed to load user %s: %w", userID, err)
	}
	if !user.CanReceiveEmail() {
		s.logger.Debug("milestone reached without consent", "user_id", userID, "metric", metric, "count", count)
		return false, nil
	}

	content := s.templates.MilestoneAchieved(user.DisplayName(), metric, count)
	if err := s.SendEmail(ctx, email.Message(user.Recipient().Email, content)); err != nil {
		return false, err
	}

	event := model.MilestoneEvent{
		UserID:    userID,
		Metric:    metric,
		Count:     count,
		Timestamp: s.now().UTC(),
	}
	if err := s.publisher.Publish(ctx, messaging.ChannelMilestone, event); err != nil {
		s.logger.Warn("failed to publish milestone event", "user_id", userID, "error", err.Error())
	}
	return true, nil
}
