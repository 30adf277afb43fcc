package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/devlink-notifier/internal/config"
	"github.com/jwalitptl/devlink-notifier/internal/model"
	"github.com/jwalitptl/devlink-notifier/internal/repository/repotest"
	"github.com/jwalitptl/devlink-notifier/pkg/logger"
)

type fakeRunner struct {
	mu    sync.Mutex
	names []string
	runs  map[string]int
	err   error
}

func newFakeRunner(names ...string) *fakeRunner {
	return &fakeRunner{names: names, runs: make(map[string]int)}
}

func (r *fakeRunner) Names() []string { return r.names }

func (r *fakeRunner) Run(_ context.Context, name string) (*model.JobResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs[name]++
	if r.err != nil {
		return nil, r.err
	}
	return &model.JobResult{Job: name, Success: true}, nil
}

func (r *fakeRunner) count(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.runs[name]
}

func TestScheduler_RunsScheduledJobs(t *testing.T) {
	runner := newFakeRunner("weekly-digest", "re-engagement")
	runner.err = errors.New("smtp down")
	s := NewScheduler(runner, map[string]config.JobSchedule{
		"weekly-digest": {Cron: "@every 1s"},
	}, time.Minute, logger.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, s.Start(ctx))
	defer s.Stop()

	_, scheduled := s.Next("weekly-digest")
	assert.True(t, scheduled)
	_, scheduled = s.Next("re-engagement")
	assert.False(t, scheduled)

	assert.Eventually(t, func() bool { return runner.count("weekly-digest") >= 1 }, 3*time.Second, 50*time.Millisecond)
	assert.Zero(t, runner.count("re-engagement"))
}

func TestScheduler_InvalidSpec(t *testing.T) {
	s := NewScheduler(newFakeRunner("weekly-digest"), map[string]config.JobSchedule{
		"weekly-digest": {Cron: "every monday"},
	}, time.Minute, logger.Nop())

	err := s.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "weekly-digest")
}

func TestScheduler_DefaultSchedulesParse(t *testing.T) {
	names := make([]string, 0)
	for name := range config.Default().Jobs.Schedules {
		names = append(names, name)
	}
	s := NewScheduler(newFakeRunner(names...), config.Default().Jobs.Schedules, time.Minute, logger.Nop())

	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	for _, name := range names {
		next, ok := s.Next(name)
		assert.True(t, ok, name)
		assert.False(t, next.IsZero(), name)
	}
}

func TestRunCleanupWorker_Cleanup(t *testing.T) {
	store := repotest.NewStore()
	now := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	for _, age := range []time.Duration{time.Hour, 100 * 24 * time.Hour, 200 * 24 * time.Hour} {
		require.NoError(t, store.Create(context.Background(), &model.JobRun{
			Job:       "weekly-digest",
			Status:    model.JobRunSucceeded,
			StartedAt: now.Add(-age),
		}))
	}

	w := NewRunCleanupWorker(store, 90*24*time.Hour, time.Hour, logger.Nop())
	w.now = func() time.Time { return now }

	deleted, err := w.cleanup(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 2, deleted)
	assert.Len(t, store.Runs(), 1)
}

func TestRunCleanupWorker_StartStopsOnCancel(t *testing.T) {
	store := repotest.NewStore()
	store.FailOn("DeleteBefore", errors.New("db down"))
	w := NewRunCleanupWorker(store, time.Hour, 5*time.Millisecond, logger.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}
