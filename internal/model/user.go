package model

import (
	"strings"

	"github.com/lib/pq"
)

// User roles
const (
	RoleClient    = "client"
	RoleDeveloper = "developer"
	RoleAdmin     = "admin"
)

// User is the subset of a DevLink account the notifier reads.
type User struct {
	Base
	Email              *string        `json:"email" db:"email"`
	Name               *string        `json:"name" db:"name"`
	Role               string         `json:"role" db:"role"`
	EmailNotifications bool           `json:"email_notifications" db:"email_notifications"`
	Bio                *string        `json:"bio" db:"bio"`
	Skills             pq.StringArray `json:"skills" db:"skills"`
	GithubURL          *string        `json:"github_url" db:"github_url"`
	Location           *string        `json:"location" db:"location"`
	ProjectCount       int            `json:"project_count" db:"project_count"`
}

// CanReceiveEmail is the consent gate: opted in and reachable.
func (u *User) CanReceiveEmail() bool {
	return u != nil && u.EmailNotifications && !blank(u.Email)
}

// HasName reports whether the user has a usable display name.
func (u *User) HasName() bool {
	return u != nil && !blank(u.Name)
}

// DisplayName returns the name, falling back to a neutral greeting.
func (u *User) DisplayName() string {
	if u.HasName() {
		return strings.TrimSpace(*u.Name)
	}
	return "there"
}

func (u *User) Recipient() Recipient {
	r := Recipient{UserID: u.ID, Name: u.DisplayName()}
	if u.Email != nil {
		r.Email = strings.TrimSpace(*u.Email)
	}
	return r
}

func blank(s *string) bool {
	return s == nil || strings.TrimSpace(*s) == ""
}
