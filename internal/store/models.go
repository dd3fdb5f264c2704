// Package store contains the job persistence layer for jobward.
package store

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Status represents the lifecycle state of a job.
type Status string

const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Terminal reports whether the status is a final state. Anything that is
// neither queued nor running counts as terminal, so backends may add their
// own final states without breaking the supervisor.
func (s Status) Terminal() bool {
	return s != StatusQueued && s != StatusRunning
}

// Job is a unit of work managed by the supervisor.
//
// PID is only meaningful while Status is running; once the job leaves
// running the recorded pid is stale and the process may already be gone.
type Job struct {
	ID           uuid.UUID
	Name         string
	Payload      json.RawMessage
	Status       Status
	ScheduledAt  time.Time
	PID          *int
	CronSpec     *string
	ErrorMessage *string
	CreatedAt    time.Time
	StartedAt    *time.Time
	FinishedAt   *time.Time
}
