package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchedulerTokens_RoundTrip(t *testing.T) {
	tokens := NewSchedulerTokens("s3cret", "devlink-cron")

	token, err := tokens.Issue("vercel-cron", time.Minute)
	require.NoError(t, err)

	claims, err := tokens.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "vercel-cron", claims.Subject)
}

func TestSchedulerTokens_Rejects(t *testing.T) {
	tokens := NewSchedulerTokens("s3cret", "devlink-cron")
	other := NewSchedulerTokens("another", "devlink-cron")
	foreignIssuer := NewSchedulerTokens("s3cret", "someone-else")

	expired := NewSchedulerTokens("s3cret", "devlink-cron")
	expired.now = func() time.Time { return time.Now().Add(-time.Hour) }

	tests := []struct {
		name   string
		issuer *SchedulerTokens
	}{
		{name: "wrong secret", issuer: other},
		{name: "wrong issuer", issuer: foreignIssuer},
		{name: "expired", issuer: expired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := tt.issuer.Issue("cron", time.Minute)
			require.NoError(t, err)

			_, err = tokens.Validate(token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}

	_, err := tokens.Validate("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
