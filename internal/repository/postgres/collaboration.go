package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jwalitptl/devlink-notifier/internal/model"
	"github.com/jwalitptl/devlink-notifier/internal/repository"
)

type collaborationRepository struct {
	BaseRepository
}

func NewCollaborationRepository(base BaseRepository) repository.CollaborationRepository {
	return &collaborationRepository{base}
}

func (r *collaborationRepository) ListPendingCreatedBefore(ctx context.Context, cutoff time.Time) ([]*model.CollaborationReminder, error) {
	query := `
		SELECT cr.id AS request_id, cr.title, cr."createdAt" AS created_at,
			s.name AS sender_name, ` + userColumns("u", "receiver") + `
		FROM "CollaborationRequest" cr
		JOIN "User" s ON s.id = cr."senderId"
		JOIN "User" u ON u.id = cr."receiverId"
		WHERE lower(cr.status::text) = $1 AND cr."createdAt" < $2
		ORDER BY cr."createdAt"`

	var rows []*model.CollaborationReminder
	err := r.db.SelectContext(ctx, &rows, query, string(model.CollaborationPending), cutoff)
	r.observe("list_pending_collaborations", err)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending collaboration requests: %w", err)
	}

	return rows, nil
}
