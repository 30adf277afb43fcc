package model

// ActivitySummary aggregates a user's events over a trailing window.
type ActivitySummary struct {
	NewFollowers int `json:"new_followers" db:"new_followers"`
	ProfileViews int `json:"profile_views" db:"profile_views"`
	NewLikes     int `json:"new_likes" db:"new_likes"`
	NewComments  int `json:"new_comments" db:"new_comments"`
	NewMessages  int `json:"new_messages" db:"new_messages"`
}

func (s ActivitySummary) HasActivity() bool {
	return s.NewFollowers > 0 || s.ProfileViews > 0 || s.NewLikes > 0 ||
		s.NewComments > 0 || s.NewMessages > 0
}
