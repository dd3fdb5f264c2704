package supervisor

import (
	"context"
	"fmt"
)

// dispatch selects the first capacity due jobs in scheduled order and spawns
// one detached worker process per job. Spawned job ids enter the registry;
// the loop never blocks on worker completion.
func (s *Supervisor) dispatch(ctx context.Context, capacity int) error {
	if capacity <= 0 {
		s.logger.Debug("dispatch skipped, capacity exhausted",
			"max_concurrent_jobs", s.cfg.MaxConcurrentJobs,
		)
		return nil
	}

	jobs, err := s.store.Due(ctx, s.now(), capacity)
	if err != nil {
		return fmt.Errorf("failed to query due jobs: %w", err)
	}
	if len(jobs) == 0 {
		s.logger.Debug("dispatch skipped, queue empty")
		return nil
	}

	ids := make([]string, 0, len(jobs))
	for _, job := range jobs {
		pid, err := s.launcher.Launch(ctx, job.ID)
		if err != nil {
			// The job stays queued; the next iteration retries it.
			s.logger.Error("failed to spawn worker",
				"job_id", job.ID.String(),
				"job_name", job.Name,
				"error", err.Error(),
			)
			continue
		}

		s.registry.Add(job.ID)
		ids = append(ids, job.ID.String())
		s.metrics.addDispatched(ctx, 1)
		s.logger.Debug("worker spawned", "job_id", job.ID.String(), "pid", pid)
	}

	s.logger.Info("dispatched jobs", "count", len(ids), "job_ids", ids)
	return nil
}
