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
	apperrors "github.com/jwalitptl/devlink-notifier/pkg/errors"
)

type userRepository struct {
	BaseRepository
}

func NewUserRepository(base BaseRepository) repository.UserRepository {
	return &userRepository{base}
}

func (r *userRepository) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	query := `SELECT ` + userColumns("u", "") + `
		FROM "User" u
		WHERE u.id = $1`

	var user model.User
	err := r.db.GetContext(ctx, &user, query, id)
	r.observe("get_user", err)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("user", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &user, nil
}

func (r *userRepository) ListFollowers(ctx context.Context, userID uuid.UUID) ([]*model.User, error) {
	query := `SELECT ` + userColumns("u", "") + `
		FROM "Follow" f
		JOIN "User" u ON u.id = f."followerId"
		WHERE f."followingId" = $1
		ORDER BY f."createdAt"`

	var users []*model.User
	err := r.db.SelectContext(ctx, &users, query, userID)
	r.observe("list_followers", err)
	if err != nil {
		return nil, fmt.Errorf("failed to list followers: %w", err)
	}

	return users, nil
}

func (r *userRepository) ListWithNotifications(ctx context.Context) ([]*model.User, error) {
	query := `SELECT ` + userColumns("u", "") + `
		FROM "User" u
		WHERE u."emailNotifications" = true
		ORDER BY u."createdAt"`

	var users []*model.User
	err := r.db.SelectContext(ctx, &users, query)
	r.observe("list_users_with_notifications", err)
	if err != nil {
		return nil, fmt.Errorf("failed to list users with notifications: %w", err)
	}

	return users, nil
}

func (r *userRepository) ListDevelopersCreatedBetween(ctx context.Context, from, to time.Time) ([]*model.User, error) {
	query := `SELECT ` + userColumns("u", "") + `
		FROM "User" u
		WHERE lower(u.role::text) = $1
			AND u."emailNotifications" = true
			AND u."createdAt" >= $2
			AND u."createdAt" < $3
		ORDER BY u."createdAt"`

	var users []*model.User
	err := r.db.SelectContext(ctx, &users, query, model.RoleDeveloper, from, to)
	r.observe("list_new_developers", err)
	if err != nil {
		return nil, fmt.Errorf("failed to list developers created between %s and %s: %w",
			from.Format(time.RFC3339), to.Format(time.RFC3339), err)
	}

	return users, nil
}

func (r *userRepository) ListInactiveSince(ctx context.Context, cutoff time.Time, limit int) ([]*model.User, error) {
	query := `SELECT ` + userColumns("u", "") + `
		FROM "User" u
		WHERE u."emailNotifications" = true
			AND u."updatedAt" <= $1
		ORDER BY u."updatedAt"
		LIMIT $2`

	var users []*model.User
	err := r.db.SelectContext(ctx, &users, query, cutoff, limit)
	r.observe("list_inactive_users", err)
	if err != nil {
		return nil, fmt.Errorf("failed to list inactive users: %w", err)
	}

	return users, nil
}
