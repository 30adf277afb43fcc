package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/devlink-notifier/internal/model"
	"github.com/jwalitptl/devlink-notifier/internal/repository"
)

type activityRepository struct {
	BaseRepository
}

func NewActivityRepository(base BaseRepository) repository.ActivityRepository {
	return &activityRepository{base}
}

// Summarize counts follows, views, likes and comments on the user's
// projects and posts, and received messages, since the given time.
func (r *activityRepository) Summarize(ctx context.Context, userID uuid.UUID, since time.Time) (*model.ActivitySummary, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM "Follow"
				WHERE "followingId" = $1 AND "createdAt" >= $2) AS new_followers,
			(SELECT COUNT(*) FROM "ProfileView"
				WHERE "profileId" = $1 AND "createdAt" >= $2) AS profile_views,
			(SELECT COUNT(*) FROM "Like" l
				LEFT JOIN "Project" p ON p.id = l."projectId"
				LEFT JOIN "BlogPost" b ON b.id = l."postId"
				WHERE (p."userId" = $1 OR b."authorId" = $1) AND l."createdAt" >= $2) AS new_likes,
			(SELECT COUNT(*) FROM "Comment" c
				LEFT JOIN "Project" p ON p.id = c."projectId"
				LEFT JOIN "BlogPost" b ON b.id = c."postId"
				WHERE (p."userId" = $1 OR b."authorId" = $1) AND c."createdAt" >= $2) AS new_comments,
			(SELECT COUNT(*) FROM "Message"
				WHERE "receiverId" = $1 AND "createdAt" >= $2) AS new_messages`

	var summary model.ActivitySummary
	err := r.db.GetContext(ctx, &summary, query, userID, since)
	r.observe("summarize_activity", err)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize activity for %s: %w", userID, err)
	}

	return &summary, nil
}
