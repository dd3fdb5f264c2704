package supervisor

import (
	"context"
	"fmt"

	"jobward/internal/proc"
)

// Shutdown terminates every running worker and returns its job to the
// queue. Running jobs are queried fresh from the store, not from the local
// registry, so workers inherited from a previous supervisor instance are
// covered too. Best-effort: a job that finished a moment before the signal
// may be requeued (at-least-once, not exactly-once).
func (s *Supervisor) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down, requeueing running jobs")

	running, err := s.store.Running(ctx)
	if err != nil {
		return fmt.Errorf("failed to query running jobs: %w", err)
	}

	requeued := 0
	for _, job := range running {
		if job.PID != nil {
			err := s.signaler.Terminate(*job.PID)
			if err != nil && !proc.IsGone(err) && !proc.IsDenied(err) {
				s.logger.Warn("failed to terminate worker",
					"job_id", job.ID.String(),
					"pid", *job.PID,
					"error", err.Error(),
				)
			}
		}

		// Requeue regardless of whether the kill landed.
		if err := s.store.Schedule(ctx, job.ID, s.now()); err != nil {
			s.logger.Error("failed to requeue job",
				"job_id", job.ID.String(),
				"error", err.Error(),
			)
			continue
		}

		s.registry.Remove(job.ID)
		s.metrics.addRequeued(ctx, 1)
		requeued++
		s.logger.Info("requeued job", "job_id", job.ID.String())
	}

	s.logger.Info("shutdown complete", "requeued", requeued)
	return nil
}
