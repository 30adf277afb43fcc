package notification

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/devlink-notifier/internal/email"
	"github.com/jwalitptl/devlink-notifier/internal/email/emailtest"
	"github.com/jwalitptl/devlink-notifier/internal/model"
	"github.com/jwalitptl/devlink-notifier/internal/repository/repotest"
	"github.com/jwalitptl/devlink-notifier/pkg/logger"
	"github.com/jwalitptl/devlink-notifier/pkg/metrics"
)

type recordingPublisher struct {
	mu       sync.Mutex
	channels []string
	messages []interface{}
	err      error
}

func (p *recordingPublisher) Publish(_ context.Context, channel string, message interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.channels = append(p.channels, channel)
	p.messages = append(p.messages, message)
	return p.err
}

type fixture struct {
	store     *repotest.Store
	sender    *emailtest.Recorder
	publisher *recordingPublisher
	templates *email.Templates
	svc       *Service
}

func newFixture() *fixture {
	f := &fixture{
		store:     repotest.NewStore(),
		sender:    emailtest.NewRecorder(),
		publisher: &recordingPublisher{},
		templates: email.NewTemplates("https://devlink.io"),
	}
	f.svc = NewService(f.store, f.sender, f.templates, f.publisher, metrics.NewNop(), logger.Nop(), 4)
	return f
}

func strPtr(s string) *string { return &s }

func user(name, addr string, consent bool) *model.User {
	u := &model.User{Role: model.RoleDeveloper, EmailNotifications: consent}
	if name != "" {
		u.Name = strPtr(name)
	}
	if addr != "" {
		u.Email = strPtr(addr)
	}
	return u
}

func greeting(r model.Recipient) email.Content {
	return email.NewTemplates("https://devlink.io").Welcome(r.Name)
}

func TestSendEmail_ReturnsTransportError(t *testing.T) {
	f := newFixture()
	f.sender.FailFor("ada@devlink.io", nil)

	err := f.svc.SendEmail(context.Background(), email.Message("ada@devlink.io", f.templates.Welcome("Ada")))
	require.Error(t, err)
	assert.ErrorIs(t, err, emailtest.ErrRejected)
	assert.Len(t, f.sender.Attempts(), 1)
}

func TestSendBulkEmail_ContinuesPastFailures(t *testing.T) {
	f := newFixture()
	f.sender.FailFor("a@devlink.io", nil)

	recipients := []model.Recipient{
		{UserID: uuid.New(), Email: "a@devlink.io", Name: "A"},
		{UserID: uuid.New(), Email: "b@devlink.io", Name: "B"},
		{UserID: uuid.New(), Email: "c@devlink.io", Name: "C"},
	}

	result := f.svc.SendBulkEmail(context.Background(), recipients, greeting)

	assert.Equal(t, 3, result.Attempted)
	assert.Equal(t, 2, result.Delivered)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, "a@devlink.io", result.Failures[0].Email)
	assert.Equal(t, recipients[0].UserID, result.Failures[0].UserID)

	assert.Len(t, f.sender.Attempts(), 3)
	assert.Len(t, f.sender.To("b@devlink.io"), 1)
	assert.Len(t, f.sender.To("c@devlink.io"), 1)
}

func TestSendBulkEmail_PersonalizesEachRecipient(t *testing.T) {
	f := newFixture()

	recipients := make([]model.Recipient, 0, 25)
	for i := 0; i < 25; i++ {
		recipients = append(recipients, model.Recipient{
			UserID: uuid.New(),
			Email:  fmt.Sprintf("dev%d@devlink.io", i),
			Name:   fmt.Sprintf("Dev %d", i),
		})
	}

	result := f.svc.SendBulkEmail(context.Background(), recipients, greeting)
	assert.Equal(t, 25, result.Delivered)
	assert.Empty(t, result.Failures)

	msgs := f.sender.To("dev7@devlink.io")
	require.Len(t, msgs, 1)
	assert.Equal(t, "Welcome to DevLink, Dev 7!", msgs[0].Subject)
	assert.Equal(t, email.TemplateWelcome, msgs[0].Template)
}

func TestSendBulkEmail_Empty(t *testing.T) {
	f := newFixture()

	result := f.svc.SendBulkEmail(context.Background(), nil, greeting)
	assert.Equal(t, &model.BatchResult{}, result)
	assert.Empty(t, f.sender.Attempts())
}

func TestNotifyFollowers_FiltersIneligible(t *testing.T) {
	f := newFixture()
	author := f.store.AddUser(user("Ada", "ada@devlink.io", true))

	eligible := f.store.AddUser(user("Grace", "grace@devlink.io", true))
	optedOut := f.store.AddUser(user("Linus", "linus@devlink.io", false))
	nameless := f.store.AddUser(user("", "anon@devlink.io", true))
	noEmail := f.store.AddUser(user("Ken", "", true))
	stranger := f.store.AddUser(user("Rob", "rob@devlink.io", true))

	for _, u := range []*model.User{eligible, optedOut, nameless, noEmail} {
		f.store.AddFollow(u.ID, author.ID)
	}
	f.store.AddFollow(author.ID, stranger.ID)

	result, err := f.svc.NotifyFollowers(context.Background(), author.ID, func(r model.Recipient) email.Content {
		return f.templates.NewProject(r.Name, "Ada", "Compiler", "https://devlink.io/projects/1")
	})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Attempted)
	assert.Equal(t, 1, result.Delivered)

	attempts := f.sender.Attempts()
	require.Len(t, attempts, 1)
	assert.Equal(t, "grace@devlink.io", attempts[0].To)
	assert.Equal(t, "Ada published a new project", attempts[0].Subject)
}

func TestNotifyFollowers_NoEligibleFollowers(t *testing.T) {
	f := newFixture()
	author := f.store.AddUser(user("Ada", "ada@devlink.io", true))
	follower := f.store.AddUser(user("Linus", "linus@devlink.io", false))
	f.store.AddFollow(follower.ID, author.ID)

	result, err := f.svc.NotifyFollowers(context.Background(), author.ID, greeting)
	require.NoError(t, err)
	assert.Zero(t, result.Attempted)
	assert.Empty(t, f.sender.Attempts())
}

func TestNotifyFollowers_DatastoreError(t *testing.T) {
	f := newFixture()
	boom := errors.New("connection refused")
	f.store.FailOn("ListFollowers", boom)

	_, err := f.svc.NotifyFollowers(context.Background(), uuid.New(), greeting)
	assert.ErrorIs(t, err, boom)
}

func TestCheckAndNotifyMilestone_ExactThresholds(t *testing.T) {
	f := newFixture()
	u := f.store.AddUser(user("Ada", "ada@devlink.io", true))

	var fired []int
	for count := 0; count <= 1000; count++ {
		sent, err := f.svc.CheckAndNotifyMilestone(context.Background(), u.ID, model.MetricFollowers, count)
		require.NoError(t, err)
		if sent {
			fired = append(fired, count)
		}
	}

	assert.Equal(t, []int{1, 10, 50, 100, 500, 1000}, fired)
	assert.Len(t, f.sender.Attempts(), 6)
	assert.Equal(t, "You reached 50 followers on DevLink!", f.sender.Attempts()[2].Subject)
	assert.Len(t, f.publisher.messages, 6)
}

func TestCheckAndNotifyMilestone_SkippedThresholdNeverFires(t *testing.T) {
	f := newFixture()
	u := f.store.AddUser(user("Ada", "ada@devlink.io", true))

	for _, count := range []int{9, 11, 12} {
		sent, err := f.svc.CheckAndNotifyMilestone(context.Background(), u.ID, model.MetricFollowers, count)
		require.NoError(t, err)
		assert.False(t, sent)
	}
	assert.Empty(t, f.sender.Attempts())
}

func TestCheckAndNotifyMilestone(t *testing.T) {
	tests := []struct {
		name     string
		consent  bool
		metric   model.MetricType
		count    int
		wantSent bool
		wantErr  error
	}{
		{name: "profile views threshold", consent: true, metric: model.MetricProfileViews, count: 5000, wantSent: true},
		{name: "first project", consent: true, metric: model.MetricProjects, count: 1, wantSent: true},
		{name: "hundredth post", consent: true, metric: model.MetricPosts, count: 100, wantSent: true},
		{name: "views below first threshold", consent: true, metric: model.MetricProfileViews, count: 1},
		{name: "no consent", consent: false, metric: model.MetricFollowers, count: 10},
		{name: "unknown metric", consent: true, metric: "stars", count: 10, wantErr: ErrUnknownMetric},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			u := f.store.AddUser(user("Ada", "ada@devlink.io", tt.consent))

			sent, err := f.svc.CheckAndNotifyMilestone(context.Background(), u.ID, tt.metric, tt.count)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantSent, sent)
			if tt.wantSent {
				assert.Len(t, f.sender.Attempts(), 1)
			} else {
				assert.Empty(t, f.sender.Attempts())
			}
		})
	}
}

func TestCheckAndNotifyMilestone_PublishFailureIsNotFatal(t *testing.T) {
	f := newFixture()
	f.publisher.err = errors.New("redis down")
	u := f.store.AddUser(user("Ada", "ada@devlink.io", true))

	sent, err := f.svc.CheckAndNotifyMilestone(context.Background(), u.ID, model.MetricFollowers, 1)
	require.NoError(t, err)
	assert.True(t, sent)

	require.Len(t, f.publisher.messages, 1)
	event, ok := f.publisher.messages[0].(model.MilestoneEvent)
	require.True(t, ok)
	assert.Equal(t, u.ID, event.UserID)
	assert.Equal(t, 1, event.Count)
}

func TestCheckAndNotifyMilestone_SendFailure(t *testing.T) {
	f := newFixture()
	f.sender.FailFor("ada@devlink.io", nil)
	u := f.store.AddUser(user("Ada", "ada@devlink.io", true))

	sent, err := f.svc.CheckAndNotifyMilestone(context.Background(), u.ID, model.MetricFollowers, 1)
	assert.Error(t, err)
	assert.False(t, sent)
	assert.Empty(t, f.publisher.messages)
}

func TestMilestones_ReturnsCopy(t *testing.T) {
	thresholds, ok := Milestones(model.MetricFollowers)
	require.True(t, ok)
	thresholds[0] = 99

	again, _ := Milestones(model.MetricFollowers)
	assert.Equal(t, 1, again[0])

	_, ok = Milestones("stars")
	assert.False(t, ok)
}
