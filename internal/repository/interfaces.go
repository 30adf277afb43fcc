package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/devlink-notifier/internal/model"
)

// All repository interfaces in one file. Every interface except
// JobRunRepository is read-only: the product tables belong to the main app.
type (
	// UserRepository selects users and follower edges
	UserRepository interface {
		Get(ctx context.Context, id uuid.UUID) (*model.User, error)
		ListFollowers(ctx context.Context, userID uuid.UUID) ([]*model.User, error)
		ListWithNotifications(ctx context.Context) ([]*model.User, error)
		ListDevelopersCreatedBetween(ctx context.Context, from, to time.Time) ([]*model.User, error)
		ListInactiveSince(ctx context.Context, cutoff time.Time, limit int) ([]*model.User, error)
	}

	// FreshUserGetter is implemented by user repositories that memoize Get.
	// GetFresh always reads the source; consent decisions must use it.
	FreshUserGetter interface {
		GetFresh(ctx context.Context, id uuid.UUID) (*model.User, error)
	}

	// ActivityRepository counts timestamped events attributed to a user
	ActivityRepository interface {
		Summarize(ctx context.Context, userID uuid.UUID, since time.Time) (*model.ActivitySummary, error)
	}

	TestimonialRepository interface {
		ListPendingCreatedBefore(ctx context.Context, cutoff time.Time) ([]*model.PendingTestimonials, error)
	}

	CollaborationRepository interface {
		ListPendingCreatedBefore(ctx context.Context, cutoff time.Time) ([]*model.CollaborationReminder, error)
	}

	// JobRunRepository is the job-run ledger
	JobRunRepository interface {
		Create(ctx context.Context, run *model.JobRun) error
		LastSucceeded(ctx context.Context, job string) (*model.JobRun, error)
		DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
	}
)
