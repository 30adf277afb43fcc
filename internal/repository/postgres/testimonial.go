package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jwalitptl/devlink-notifier/internal/model"
	"github.com/jwalitptl/devlink-notifier/internal/repository"
)

type testimonialRepository struct {
	BaseRepository
}

func NewTestimonialRepository(base BaseRepository) repository.TestimonialRepository {
	return &testimonialRepository{base}
}

func (r *testimonialRepository) ListPendingCreatedBefore(ctx context.Context, cutoff time.Time) ([]*model.PendingTestimonials, error) {
	query := `
		SELECT ` + userColumns("u", "user") + `, pending.pending_count
		FROM (
			SELECT t."targetUserId" AS user_id, COUNT(*) AS pending_count
			FROM "Testimonial" t
			WHERE t.approved = false AND t."createdAt" < $1
			GROUP BY t."targetUserId"
		) pending
		JOIN "User" u ON u.id = pending.user_id
		WHERE u."emailNotifications" = true
		ORDER BY pending.pending_count DESC`

	var rows []*model.PendingTestimonials
	err := r.db.SelectContext(ctx, &rows, query, cutoff)
	r.observe("list_pending_testimonials", err)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending testimonials: %w", err)
	}

	return rows, nil
}
