package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"jobward/internal/store"

	"github.com/google/uuid"
)

const jobColumns = `id, name, payload, status, scheduled_at, pid, cron_spec, error_message, created_at, started_at, finished_at`

// Create inserts a new queued job.
func (s *Store) Create(ctx context.Context, job *store.Job) error {
	query := `
		INSERT INTO jobs (id, name, payload, status, scheduled_at, cron_spec, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now()
	}
	if job.Status == "" {
		job.Status = store.StatusQueued
	}

	_, err := s.db.ExecContext(ctx, query,
		job.ID,
		job.Name,
		job.Payload,
		job.Status,
		job.ScheduledAt,
		job.CronSpec,
		job.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create job %s: %w", job.ID, err)
	}
	return nil
}

// Find returns a job by id, or store.ErrNotFound.
func (s *Store) Find(ctx context.Context, id uuid.UUID) (*store.Job, error) {
	query := fmt.Sprintf("SELECT %s FROM jobs WHERE id = $1", jobColumns)

	job, err := scanJob(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find job %s: %w", id, err)
	}
	return job, nil
}

// Running returns all jobs currently in the running state.
func (s *Store) Running(ctx context.Context) ([]store.Job, error) {
	query := fmt.Sprintf("SELECT %s FROM jobs WHERE status = $1 ORDER BY started_at ASC", jobColumns)

	rows, err := s.db.QueryContext(ctx, query, store.StatusRunning)
	if err != nil {
		return nil, fmt.Errorf("running jobs query failed: %w", err)
	}
	defer rows.Close()

	return collectJobs(rows)
}

// CountRunning returns the number of jobs currently running.
func (s *Store) CountRunning(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM jobs WHERE status = $1", store.StatusRunning).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("running count query failed: %w", err)
	}
	return count, nil
}

// CountQueued returns the number of jobs waiting in the queue.
func (s *Store) CountQueued(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM jobs WHERE status = $1", store.StatusQueued).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("queued count query failed: %w", err)
	}
	return count, nil
}

// Due returns up to limit queued jobs whose scheduled_at has passed,
// ordered ascending by scheduled_at with creation order as tiebreak.
func (s *Store) Due(ctx context.Context, now time.Time, limit int) ([]store.Job, error) {
	if limit <= 0 {
		return nil, nil
	}

	query := fmt.Sprintf(`
		SELECT %s FROM jobs
		WHERE status = $1 AND scheduled_at <= $2
		ORDER BY scheduled_at ASC, created_at ASC
		LIMIT $3
	`, jobColumns)

	rows, err := s.db.QueryContext(ctx, query, store.StatusQueued, now, limit)
	if err != nil {
		return nil, fmt.Errorf("due jobs query failed: %w", err)
	}
	defer rows.Close()

	return collectJobs(rows)
}

// MarkRunning transitions a job to running and records the worker pid.
func (s *Store) MarkRunning(ctx context.Context, id uuid.UUID, pid int) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE jobs
		SET status = $1, pid = $2, started_at = NOW()
		WHERE id = $3
	`, store.StatusRunning, pid, id)
	if err != nil {
		return fmt.Errorf("failed to mark job %s running: %w", id, err)
	}
	return nil
}

// MarkCompleted transitions a job to completed. The recorded pid is left in
// place; it is stale by definition once the job is terminal.
func (s *Store) MarkCompleted(ctx context.Context, id uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE jobs
		SET status = $1, finished_at = NOW()
		WHERE id = $2
	`, store.StatusCompleted, id)
	if err != nil {
		return fmt.Errorf("failed to mark job %s completed: %w", id, err)
	}
	return nil
}

// MarkFailed transitions a job to failed and records the error message.
func (s *Store) MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE jobs
		SET status = $1, error_message = $2, finished_at = NOW()
		WHERE id = $3
	`, store.StatusFailed, errMsg, id)
	if err != nil {
		return fmt.Errorf("failed to mark job %s failed: %w", id, err)
	}
	return nil
}

// Schedule resets a job to queued with the given scheduled time and clears
// the execution bookkeeping from the previous attempt.
func (s *Store) Schedule(ctx context.Context, id uuid.UUID, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE jobs
		SET status = $1, scheduled_at = $2, pid = NULL, error_message = NULL, started_at = NULL, finished_at = NULL
		WHERE id = $3
	`, store.StatusQueued, at, id)
	if err != nil {
		return fmt.Errorf("failed to schedule job %s: %w", id, err)
	}
	return nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanJob(r rowScanner) (*store.Job, error) {
	var (
		job        store.Job
		pid        sql.NullInt64
		cronSpec   sql.NullString
		errMsg     sql.NullString
		startedAt  sql.NullTime
		finishedAt sql.NullTime
	)

	err := r.Scan(
		&job.ID,
		&job.Name,
		&job.Payload,
		&job.Status,
		&job.ScheduledAt,
		&pid,
		&cronSpec,
		&errMsg,
		&job.CreatedAt,
		&startedAt,
		&finishedAt,
	)
	if err != nil {
		return nil, err
	}

	if pid.Valid {
		p := int(pid.Int64)
		job.PID = &p
	}
	if cronSpec.Valid {
		job.CronSpec = &cronSpec.String
	}
	if errMsg.Valid {
		job.ErrorMessage = &errMsg.String
	}
	if startedAt.Valid {
		job.StartedAt = &startedAt.Time
	}
	if finishedAt.Valid {
		job.FinishedAt = &finishedAt.Time
	}

	return &job, nil
}

func collectJobs(rows *sql.Rows) ([]store.Job, error) {
	var jobs []store.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("job scan failed: %w", err)
		}
		jobs = append(jobs, *job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("job rows error: %w", err)
	}
	return jobs, nil
}
