package notification

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/devlink-notifier/internal/config"
	"github.com/jwalitptl/devlink-notifier/internal/email"
	"github.com/jwalitptl/devlink-notifier/internal/email/emailtest"
	"github.com/jwalitptl/devlink-notifier/internal/model"
	"github.com/jwalitptl/devlink-notifier/internal/repository/cache"
	"github.com/jwalitptl/devlink-notifier/internal/repository/repotest"
	"github.com/jwalitptl/devlink-notifier/pkg/logger"
	"github.com/jwalitptl/devlink-notifier/pkg/metrics"
)

// These run the service over the transports and repositories the binaries
// wire: the memoizing user cache and the gomail sender.

func TestCheckAndNotifyMilestone_OptOutSeenThroughUserCache(t *testing.T) {
	store := repotest.NewStore()
	users := cache.NewUserRepository(store, time.Hour)
	sender := emailtest.NewRecorder()
	svc := NewService(users, sender, email.NewTemplates("https://devlink.io"), nil, metrics.NewNop(), logger.Nop(), 4)

	u := store.AddUser(user("Ada", "ada@devlink.io", true))

	// An author lookup warms the memo while the user is still opted in.
	cached, err := users.Get(context.Background(), u.ID)
	require.NoError(t, err)
	require.True(t, cached.EmailNotifications)

	store.SetEmailNotifications(u.ID, false)

	sent, err := svc.CheckAndNotifyMilestone(context.Background(), u.ID, model.MetricFollowers, 1)
	require.NoError(t, err)
	assert.False(t, sent)
	assert.Empty(t, sender.Attempts())

	refreshed, err := users.Get(context.Background(), u.ID)
	require.NoError(t, err)
	assert.False(t, refreshed.EmailNotifications)
}

func TestSendBulkEmail_SMTPRejectionsDoNotStopBatch(t *testing.T) {
	server := emailtest.NewSMTPServer()
	sender := email.NewSMTPSender(config.SMTPConfig{
		Host:    "smtp.devlink.io",
		Port:    587,
		From:    "notifications@devlink.io",
		Timeout: time.Second,
	}, logger.Nop(), email.WithDialer(server.Dial))
	svc := NewService(repotest.NewStore(), sender, email.NewTemplates("https://devlink.io"), nil, metrics.NewNop(), logger.Nop(), 1)

	var recipients []model.Recipient
	for i := 0; i < 6; i++ {
		addr := fmt.Sprintf("gone%d@devlink.io", i)
		server.Bounce(addr)
		recipients = append(recipients, model.Recipient{Email: addr, Name: fmt.Sprintf("Gone %d", i)})
	}
	recipients = append(recipients,
		model.Recipient{Email: "grace@devlink.io", Name: "Grace"},
		model.Recipient{Email: "linus@devlink.io", Name: "Linus"},
	)

	result := svc.SendBulkEmail(context.Background(), recipients, greeting)

	assert.Equal(t, 8, result.Attempted)
	assert.Equal(t, 2, result.Delivered)
	assert.Len(t, result.Failures, 6)
	assert.Equal(t, 8, server.Dials())
	assert.ElementsMatch(t, []string{"grace@devlink.io", "linus@devlink.io"}, server.Accepted())
}
