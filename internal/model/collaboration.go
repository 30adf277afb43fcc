package model

import (
	"time"

	"github.com/google/uuid"
)

type CollaborationStatus string

const (
	CollaborationPending  CollaborationStatus = "pending"
	CollaborationAccepted CollaborationStatus = "accepted"
	CollaborationRejected CollaborationStatus = "rejected"
)

// CollaborationReminder is a pending request joined with the people involved.
type CollaborationReminder struct {
	RequestID  uuid.UUID `db:"request_id"`
	Title      string    `db:"title"`
	CreatedAt  time.Time `db:"created_at"`
	SenderName *string   `db:"sender_name"`
	Receiver   User      `db:"receiver"`
}
