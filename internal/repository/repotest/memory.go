// Package repotest provides an in-memory datastore implementing every
// repository interface, for service and job tests.
//
// Cohort listings apply the time, role and status predicates of the SQL
// repositories but deliberately not the consent predicate, so callers'
// own consent checks are exercised.
package repotest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/devlink-notifier/internal/model"
	apperrors "github.com/jwalitptl/devlink-notifier/pkg/errors"
)

type Follow struct {
	FollowerID  uuid.UUID
	FollowingID uuid.UUID
}

type Testimonial struct {
	TargetUserID uuid.UUID
	Approved     bool
	CreatedAt    time.Time
}

type CollaborationRequest struct {
	ID         uuid.UUID
	SenderID   uuid.UUID
	ReceiverID uuid.UUID
	Title      string
	Status     model.CollaborationStatus
	CreatedAt  time.Time
}

type Store struct {
	mu             sync.Mutex
	users          []*model.User
	follows        []Follow
	activity       map[uuid.UUID]model.ActivitySummary
	testimonials   []Testimonial
	collaborations []CollaborationRequest
	runs           []model.JobRun
	errs           map[string]error
}

func NewStore() *Store {
	return &Store{
		activity: make(map[uuid.UUID]model.ActivitySummary),
		errs:     make(map[string]error),
	}
}

// FailOn makes the named method return err until cleared with a nil err.
func (s *Store) FailOn(method string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.errs, method)
		return
	}
	s.errs[method] = err
}

func (s *Store) AddUser(u *model.User) *model.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	s.users = append(s.users, u)
	return u
}

// SetEmailNotifications flips a stored user's consent flag.
func (s *Store) SetEmailNotifications(id uuid.UUID, on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u := s.user(id); u != nil {
		u.EmailNotifications = on
	}
}

func (s *Store) AddFollow(followerID, followingID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.follows = append(s.follows, Follow{FollowerID: followerID, FollowingID: followingID})
}

func (s *Store) SetActivity(userID uuid.UUID, summary model.ActivitySummary) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activity[userID] = summary
}

func (s *Store) AddTestimonial(t Testimonial) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.testimonials = append(s.testimonials, t)
}

func (s *Store) AddCollaboration(c CollaborationRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	s.collaborations = append(s.collaborations, c)
}

// Runs returns a copy of the ledger.
func (s *Store) Runs() []model.JobRun {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.JobRun, len(s.runs))
	copy(out, s.runs)
	return out
}

func (s *Store) Get(_ context.Context, id uuid.UUID) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.errs["Get"]; err != nil {
		return nil, err
	}
	if u := s.user(id); u != nil {
		c := *u
		return &c, nil
	}
	return nil, apperrors.NotFound("user", nil)
}

func (s *Store) ListFollowers(_ context.Context, userID uuid.UUID) ([]*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.errs["ListFollowers"]; err != nil {
		return nil, err
	}
	var out []*model.User
	for _, f := range s.follows {
		if f.FollowingID != userID {
			continue
		}
		if u := s.user(f.FollowerID); u != nil {
			c := *u
			out = append(out, &c)
		}
	}
	return out, nil
}

func (s *Store) ListWithNotifications(_ context.Context) ([]*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.errs["ListWithNotifications"]; err != nil {
		return nil, err
	}
	return s.filter(func(*model.User) bool { return true }), nil
}

func (s *Store) ListDevelopersCreatedBetween(_ context.Context, from, to time.Time) ([]*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.errs["ListDevelopersCreatedBetween"]; err != nil {
		return nil, err
	}
	return s.filter(func(u *model.User) bool {
		return u.Role == model.RoleDeveloper && !u.CreatedAt.Before(from) && u.CreatedAt.Before(to)
	}), nil
}

func (s *Store) ListInactiveSince(_ context.Context, cutoff time.Time, limit int) ([]*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.errs["ListInactiveSince"]; err != nil {
		return nil, err
	}
	users := s.filter(func(u *model.User) bool { return !u.UpdatedAt.After(cutoff) })
	sort.SliceStable(users, func(i, j int) bool { return users[i].UpdatedAt.Before(users[j].UpdatedAt) })
	if limit > 0 && len(users) > limit {
		users = users[:limit]
	}
	return users, nil
}

func (s *Store) Summarize(_ context.Context, userID uuid.UUID, _ time.Time) (*model.ActivitySummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.errs["Summarize"]; err != nil {
		return nil, err
	}
	summary := s.activity[userID]
	return &summary, nil
}

// Testimonials adapts the store to repository.TestimonialRepository.
func (s *Store) Testimonials() *TestimonialRepository {
	return &TestimonialRepository{s}
}

// Collaborations adapts the store to repository.CollaborationRepository.
func (s *Store) Collaborations() *CollaborationRepository {
	return &CollaborationRepository{s}
}

type TestimonialRepository struct{ s *Store }

func (r *TestimonialRepository) ListPendingCreatedBefore(_ context.Context, cutoff time.Time) ([]*model.PendingTestimonials, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.errs["ListPendingTestimonials"]; err != nil {
		return nil, err
	}

	counts := make(map[uuid.UUID]int)
	var order []uuid.UUID
	for _, t := range s.testimonials {
		if t.Approved || !t.CreatedAt.Before(cutoff) {
			continue
		}
		if counts[t.TargetUserID] == 0 {
			order = append(order, t.TargetUserID)
		}
		counts[t.TargetUserID]++
	}

	var out []*model.PendingTestimonials
	for _, id := range order {
		if u := s.user(id); u != nil {
			out = append(out, &model.PendingTestimonials{User: *u, Count: counts[id]})
		}
	}
	return out, nil
}

type CollaborationRepository struct{ s *Store }

func (r *CollaborationRepository) ListPendingCreatedBefore(_ context.Context, cutoff time.Time) ([]*model.CollaborationReminder, error) {
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.errs["ListPendingCollaborations"]; err != nil {
		return nil, err
	}

	var out []*model.CollaborationReminder
	for _, c := range s.collaborations {
		if c.Status != model.CollaborationPending || !c.CreatedAt.Before(cutoff) {
			continue
		}
		sender, receiver := s.user(c.SenderID), s.user(c.ReceiverID)
		if sender == nil || receiver == nil {
			continue
		}
		out = append(out, &model.CollaborationReminder{
			RequestID:  c.ID,
			Title:      c.Title,
			CreatedAt:  c.CreatedAt,
			SenderName: sender.Name,
			Receiver:   *receiver,
		})
	}
	return out, nil
}

func (s *Store) Create(_ context.Context, run *model.JobRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.errs["CreateJobRun"]; err != nil {
		return err
	}
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	s.runs = append(s.runs, *run)
	return nil
}

func (s *Store) LastSucceeded(_ context.Context, job string) (*model.JobRun, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.errs["LastSucceeded"]; err != nil {
		return nil, err
	}
	var last *model.JobRun
	for i := range s.runs {
		r := s.runs[i]
		if r.Job != job || r.Status != model.JobRunSucceeded {
			continue
		}
		if last == nil || r.StartedAt.After(last.StartedAt) {
			last = &r
		}
	}
	return last, nil
}

func (s *Store) DeleteBefore(_ context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.errs["DeleteBefore"]; err != nil {
		return 0, err
	}
	kept := s.runs[:0]
	var deleted int64
	for _, r := range s.runs {
		if r.StartedAt.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, r)
	}
	s.runs = kept
	return deleted, nil
}

func (s *Store) user(id uuid.UUID) *model.User {
	for _, u := range s.users {
		if u.ID == id {
			return u
		}
	}
	return nil
}

func (s *Store) filter(keep func(*model.User) bool) []*model.User {
	var out []*model.User
	for _, u := range s.users {
		if keep(u) {
			c := *u
			out = append(out, &c)
		}
	}
	return out
}
