package jobs

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/time/rate"

	"github.com/jwalitptl/devlink-notifier/internal/email"
	"github.com/jwalitptl/devlink-notifier/internal/model"
)

// Reminder lines for each missing profile field.
const (
	MissingBio      = "Add a short bio so visitors know who you are"
	MissingSkills   = "List your skills so clients can find you"
	MissingGithub   = "Link your GitHub profile"
	MissingLocation = "Add your location"
	MissingProjects = "Showcase your first project"
)

// MissingProfileItems returns the reminder lines for every incomplete field
// of u, in a fixed order.
func MissingProfileItems(u *model.User) []string {
	var missing []string
	if blank(u.Bio) {
		missing = append(missing, MissingBio)
	}
	if len(u.Skills) == 0 {
		missing = append(missing, MissingSkills)
	}
	if blank(u.GithubURL) {
		missing = append(missing, MissingGithub)
	}
	if blank(u.Location) {
		missing = append(missing, MissingLocation)
	}
	if u.ProjectCount == 0 {
		missing = append(missing, MissingProjects)
	}
	return missing
}

func (r *Runner) weeklyDigests(ctx context.Context, res *model.JobResult) error {
	users, err := r.Users.ListWithNotifications(ctx)
	if err != nil {
		return fmt.Errorf("failed to load digest cohort: %w", err)
	}
	res.Total = len(users)

	since := res.StartedAt.Add(-r.cfg.DigestWindow)
	for _, u := range users {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !u.CanReceiveEmail() {
			continue
		}

		summary, err := r.Activity.Summarize(ctx, u.ID, since)
		if err != nil {
			return fmt.Errorf("failed to summarize activity for %s: %w", u.ID, err)
		}
		if !summary.HasActivity() {
			continue
		}

		r.send(ctx, res, u, r.Templates.WeeklyDigest(u.DisplayName(), email.DigestStats{
			NewFollowers: summary.NewFollowers,
			ProfileViews: summary.ProfileViews,
			NewLikes:     summary.NewLikes,
			NewComments:  summary.NewComments,
		}))
	}
	return nil
}

func (r *Runner) testimonialReminders(ctx context.Context, res *model.JobResult) error {
	cutoff := res.StartedAt.Add(-r.cfg.TestimonialMinAge)
	rows, err := r.Testimonials.ListPendingCreatedBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("failed to load pending testimonials: %w", err)
	}
	res.Total = len(rows)

	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return err
		}
		if row.Count <= 0 || !row.User.CanReceiveEmail() {
			continue
		}
		r.send(ctx, res, &row.User, r.Templates.TestimonialReminder(row.User.DisplayName(), row.Count))
	}
	return nil
}

func (r *Runner) incompleteProfileReminders(ctx context.Context, res *model.JobResult) error {
	from := res.StartedAt.Add(-r.cfg.ProfileReminderMaxAge)
	to := res.StartedAt.Add(-r.cfg.ProfileReminderMinAge)
	users, err := r.Users.ListDevelopersCreatedBetween(ctx, from, to)
	if err != nil {
		return fmt.Errorf("failed to load new developers: %w", err)
	}
	res.Total = len(users)

	for _, u := range users {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !u.CanReceiveEmail() {
			continue
		}
		missing := MissingProfileItems(u)
		if len(missing) < r.cfg.ProfileMissingThreshold {
			continue
		}
		r.send(ctx, res, u, r.Templates.IncompleteProfileReminder(u.DisplayName(), missing))
	}
	return nil
}

func (r *Runner) reEngagement(ctx context.Context, res *model.JobResult) error {
	cutoff := res.StartedAt.Add(-r.cfg.InactivityPeriod)
	users, err := r.Users.ListInactiveSince(ctx, cutoff, r.cfg.ReEngagementLimit)
	if err != nil {
		return fmt.Errorf("failed to load inactive users: %w", err)
	}
	res.Total = len(users)

	var limiter *rate.Limiter
	if r.cfg.ReEngagementInterval > 0 {
		limiter = rate.NewLimiter(rate.Every(r.cfg.ReEngagementInterval), 1)
	}

	for _, u := range users {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !u.CanReceiveEmail() {
			continue
		}
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return err
			}
		}
		r.send(ctx, res, u, r.Templates.ReEngagement(u.DisplayName()))
	}
	return nil
}

func (r *Runner) collaborationReminders(ctx context.Context, res *model.JobResult) error {
	cutoff := res.StartedAt.Add(-r.cfg.CollaborationMinAge)
	rows, err := r.Collaborations.ListPendingCreatedBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("failed to load pending collaboration requests: %w", err)
	}
	res.Total = len(rows)

	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return err
		}
		receiver := &row.Receiver
		if !receiver.CanReceiveEmail() || !receiver.HasName() {
			continue
		}

		var senderName string
		if row.SenderName != nil {
			senderName = *row.SenderName
		}
		r.send(ctx, res, receiver, r.Templates.CollaborationReminder(receiver.DisplayName(), senderName, row.Title))
	}
	return nil
}

func blank(s *string) bool {
	return s == nil || strings.TrimSpace(*s) == ""
}
