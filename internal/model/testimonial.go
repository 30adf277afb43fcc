package model

// PendingTestimonials is a target user with unapproved testimonials awaiting review.
type PendingTestimonials struct {
	User  User `db:"user"`
	Count int  `db:"pending_count"`
}
