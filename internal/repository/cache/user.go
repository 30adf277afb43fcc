package cache

import (
	"context"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/jwalitptl/devlink-notifier/internal/model"
	"github.com/jwalitptl/devlink-notifier/internal/repository"
)

// UserRepository memoizes single-user lookups for display data such as
// author names. Cohort listings and GetFresh always hit the underlying
// repository, so consent is never decided from the memo.
type UserRepository struct {
	repository.UserRepository
	users *gocache.Cache
}

func NewUserRepository(next repository.UserRepository, ttl time.Duration) *UserRepository {
	return &UserRepository{
		UserRepository: next,
		users:          gocache.New(ttl, 2*ttl),
	}
}

func (r *UserRepository) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	key := id.String()
	if cached, ok := r.users.Get(key); ok {
		u := *cached.(*model.User)
		return &u, nil
	}

	return r.GetFresh(ctx, id)
}

// GetFresh reads through to the underlying repository and replaces the
// memoized copy. A failed read drops the memo entry.
func (r *UserRepository) GetFresh(ctx context.Context, id uuid.UUID) (*model.User, error) {
	key := id.String()
	user, err := r.UserRepository.Get(ctx, id)
	if err != nil {
		r.users.Delete(key)
		return nil, err
	}

	stored := *user
	r.users.SetDefault(key, &stored)
	return user, nil
}

var _ repository.FreshUserGetter = (*UserRepository)(nil)
