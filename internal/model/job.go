package model

import (
	"time"

	"github.com/google/uuid"
)

type JobRunStatus string

const (
	JobRunSucceeded JobRunStatus = "succeeded"
	JobRunFailed    JobRunStatus = "failed"
	JobRunSkipped   JobRunStatus = "skipped"
)

// JobResult is what a scheduled job reports back to its trigger.
// Sent counts send attempts; Delivered counts transport acceptances.
type JobResult struct {
	Job        string        `json:"job"`
	Success    bool          `json:"success"`
	Skipped    bool          `json:"skipped,omitempty"`
	Sent       int           `json:"sent"`
	Delivered  int           `json:"delivered"`
	Total      int           `json:"total"`
	Failures   []SendFailure `json:"failures,omitempty"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
}

func (r *JobResult) AddFailure(recipient Recipient, err error) {
	r.Failures = append(r.Failures, SendFailure{
		UserID: recipient.UserID,
		Email:  recipient.Email,
		Error:  err.Error(),
	})
}

// JobRun is a row of the job-run ledger.
type JobRun struct {
	ID         uuid.UUID    `json:"id" db:"id"`
	Job        string       `json:"job" db:"job"`
	Status     JobRunStatus `json:"status" db:"status"`
	Sent       int          `json:"sent" db:"sent"`
	Delivered  int          `json:"delivered" db:"delivered"`
	Total      int          `json:"total" db:"total"`
	Failed     int          `json:"failed" db:"failed"`
	Error      *string      `json:"error,omitempty" db:"error"`
	StartedAt  time.Time    `json:"started_at" db:"started_at"`
	FinishedAt time.Time    `json:"finished_at" db:"finished_at"`
}
