package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"jobward/internal/store"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Performer executes a single job inside a worker process. It owns the
// queued -> running -> terminal status transitions; the supervisor only
// observes them through the store.
type Performer struct {
	store    store.Store
	handlers *Registry
	logger   *slog.Logger
}

// NewPerformer creates a performer bound to a store and handler registry.
func NewPerformer(s store.Store, handlers *Registry, logger *slog.Logger) *Performer {
	return &Performer{
		store:    s,
		handlers: handlers,
		logger:   logger,
	}
}

// Perform loads the job, marks it running under the given pid, runs its
// handler, and records the terminal state. Handler errors and panics are
// contained here: they mark the job failed and never propagate to the
// supervisor. The returned error covers infrastructure failures only
// (job missing, store unreachable).
func (p *Performer) Perform(ctx context.Context, jobID uuid.UUID, pid int) error {
	job, err := p.store.Find(ctx, jobID)
	if err != nil {
		return fmt.Errorf("failed to load job %s: %w", jobID, err)
	}

	tracer := otel.Tracer("jobward-worker")
	ctx, span := tracer.Start(ctx, "perform_job",
		trace.WithAttributes(
			attribute.String("job.id", job.ID.String()),
			attribute.String("job.name", job.Name),
			attribute.Int("job.pid", pid),
		),
		trace.WithSpanKind(trace.SpanKindConsumer),
	)
	defer span.End()

	if err := p.store.MarkRunning(ctx, job.ID, pid); err != nil {
		return fmt.Errorf("failed to mark job %s running: %w", job.ID, err)
	}

	log := p.logger.With("job_id", job.ID.String(), "job_name", job.Name, "pid", pid)
	log.Info("job started")

	runErr := p.run(ctx, job)
	if runErr != nil {
		span.RecordError(runErr)
		log.Error("job failed", "error", runErr.Error())
		if err := p.store.MarkFailed(ctx, job.ID, runErr.Error()); err != nil {
			return fmt.Errorf("failed to mark job %s failed: %w", job.ID, err)
		}
		return nil
	}

	if err := p.store.MarkCompleted(ctx, job.ID); err != nil {
		return fmt.Errorf("failed to mark job %s completed: %w", job.ID, err)
	}
	log.Info("job completed")

	if job.CronSpec != nil {
		if err := p.scheduleNext(ctx, job); err != nil {
			log.Error("failed to schedule next occurrence", "error", err.Error())
		}
	}

	return nil
}

// run resolves and executes the handler with a panic boundary. The worker
// process already isolates faults from the supervisor; the recover here
// keeps a panicking handler's outcome recorded in the store instead of
// leaving the job stuck in running.
func (p *Performer) run(ctx context.Context, job *store.Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panicked: %v", r)
		}
	}()

	fn, ok := p.handlers.Resolve(job.Name)
	if !ok {
		return fmt.Errorf("no handler registered for %q", job.Name)
	}
	return fn(ctx, job.Payload)
}

// scheduleNext enqueues the next occurrence of a recurring job.
func (p *Performer) scheduleNext(ctx context.Context, job *store.Job) error {
	schedule, err := cron.ParseStandard(*job.CronSpec)
	if err != nil {
		return fmt.Errorf("invalid cron spec %q: %w", *job.CronSpec, err)
	}

	next := &store.Job{
		ID:          uuid.New(),
		Name:        job.Name,
		Payload:     job.Payload,
		Status:      store.StatusQueued,
		ScheduledAt: schedule.Next(time.Now()),
		CronSpec:    job.CronSpec,
	}
	if err := p.store.Create(ctx, next); err != nil {
		return fmt.Errorf("failed to create next occurrence: %w", err)
	}

	p.logger.Info("scheduled next occurrence",
		"job_name", job.Name,
		"next_job_id", next.ID.String(),
		"scheduled_at", next.ScheduledAt,
	)
	return nil
}
