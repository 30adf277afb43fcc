package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string { return &s }

func TestUser_CanReceiveEmail(t *testing.T) {
	tests := []struct {
		name string
		user *User
		want bool
	}{
		{name: "nil user", user: nil, want: false},
		{name: "opted out", user: &User{Email: strPtr("a@devlink.io")}, want: false},
		{name: "no email", user: &User{EmailNotifications: true}, want: false},
		{name: "blank email", user: &User{EmailNotifications: true, Email: strPtr("  ")}, want: false},
		{name: "opted in", user: &User{EmailNotifications: true, Email: strPtr("a@devlink.io")}, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.user.CanReceiveEmail())
		})
	}
}

func TestUser_Recipient(t *testing.T) {
	u := &User{Email: strPtr(" ada@devlink.io "), Name: strPtr("Ada")}
	r := u.Recipient()
	assert.Equal(t, "ada@devlink.io", r.Email)
	assert.Equal(t, "Ada", r.Name)

	anon := &User{Email: strPtr("x@devlink.io")}
	assert.Equal(t, "there", anon.Recipient().Name)
	assert.False(t, anon.HasName())
}

func TestActivitySummary_HasActivity(t *testing.T) {
	assert.False(t, ActivitySummary{}.HasActivity())
	assert.True(t, ActivitySummary{NewMessages: 1}.HasActivity())
	assert.True(t, ActivitySummary{NewFollowers: 1}.HasActivity())
}
