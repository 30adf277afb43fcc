package model

import (
	"time"

	"github.com/google/uuid"
)

// Recipient is an addressable, consenting person.
type Recipient struct {
	UserID uuid.UUID `json:"user_id"`
	Email  string    `json:"email"`
	Name   string    `json:"name"`
}

// EmailMessage is a single outbound email.
type EmailMessage struct {
	To       string
	Subject  string
	HTML     string
	Template string // metric label only
}

// SendFailure records one recipient the transport rejected.
type SendFailure struct {
	UserID uuid.UUID `json:"user_id,omitempty"`
	Email  string    `json:"email"`
	Error  string    `json:"error"`
}

// BatchResult is the outcome of a fan-out send.
type BatchResult struct {
	Attempted int           `json:"attempted"`
	Delivered int           `json:"delivered"`
	Failures  []SendFailure `json:"failures,omitempty"`
}

// MetricType is a tracked counter that can cross a milestone.
type MetricType string

const (
	MetricFollowers    MetricType = "followers"
	MetricProfileViews MetricType = "profileViews"
	MetricProjects     MetricType = "projects"
	MetricPosts        MetricType = "posts"
)

// MilestoneEvent is published when a milestone email goes out.
type MilestoneEvent struct {
	UserID    uuid.UUID  `json:"user_id"`
	Metric    MetricType `json:"metric"`
	Count     int        `json:"count"`
	Timestamp time.Time  `json:"timestamp"`
}
