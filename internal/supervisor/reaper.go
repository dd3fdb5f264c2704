package supervisor

import (
	"context"
	"errors"
	"fmt"

	"jobward/internal/proc"
	"jobward/internal/store"
)

// reap reconciles the in-flight registry against current store status.
// Jobs observed terminal get a best-effort SIGTERM to their recorded pid
// and leave the registry; vanished jobs are simply dropped. The pass is
// idempotent: re-running it without a store change is a no-op, and
// signaling an already-dead pid is not treated as an error.
func (s *Supervisor) reap(ctx context.Context) error {
	for _, id := range s.registry.IDs() {
		job, err := s.store.Find(ctx, id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				s.registry.Remove(id)
				s.logger.Info("dropped vanished job", "job_id", id.String())
				continue
			}
			return fmt.Errorf("failed to reload job %s: %w", id, err)
		}

		if !job.Status.Terminal() {
			continue
		}

		if job.PID != nil {
			if err := s.signaler.Terminate(*job.PID); err != nil && !proc.IsGone(err) {
				s.logger.Warn("failed to signal finished worker",
					"job_id", id.String(),
					"pid", *job.PID,
					"error", err.Error(),
				)
			}
		}

		s.registry.Remove(id)
		s.metrics.addReaped(ctx, 1)
		s.logger.Info("reaped job",
			"job_id", id.String(),
			"status", string(job.Status),
		)
	}
	return nil
}
