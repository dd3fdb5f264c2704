package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned by Find when no job exists with the given id.
var ErrNotFound = errors.New("job not found")

// Store is the contract a job backend must satisfy for the supervisor to
// manage it. The supervisor only observes status transitions; the worker
// process writes running/terminal states and the shutdown path writes
// queued via Schedule.
type Store interface {
	// Running returns all jobs currently in the running state.
	Running(ctx context.Context) ([]Job, error)

	// CountRunning returns the number of jobs currently running.
	CountRunning(ctx context.Context) (int, error)

	// CountQueued returns the number of jobs waiting in the queue.
	CountQueued(ctx context.Context) (int, error)

	// Due returns up to limit queued jobs whose scheduled_at has passed,
	// ordered ascending by scheduled_at (ties broken by creation order).
	Due(ctx context.Context, now time.Time, limit int) ([]Job, error)

	// Find returns a job by id, or ErrNotFound.
	Find(ctx context.Context, id uuid.UUID) (*Job, error)

	// Create inserts a new queued job.
	Create(ctx context.Context, job *Job) error

	// MarkRunning transitions a job to running and records the worker pid.
	// Called from inside the worker process, never by the supervisor.
	MarkRunning(ctx context.Context, id uuid.UUID, pid int) error

	// MarkCompleted transitions a job to completed.
	MarkCompleted(ctx context.Context, id uuid.UUID) error

	// MarkFailed transitions a job to failed and records the error message.
	MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error

	// Schedule resets a job to queued with the given scheduled time,
	// clearing any recorded pid.
	Schedule(ctx context.Context, id uuid.UUID, at time.Time) error

	// Close releases the backend's resources.
	Close() error
}
