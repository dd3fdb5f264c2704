// Package supervisor implements the polling loop that dispatches due jobs
// to isolated worker processes and reclaims them once the store reports a
// terminal status.
package supervisor

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"jobward/internal/proc"
	"jobward/internal/store"

	"golang.org/x/time/rate"
)

// MinPollingInterval is the floor for the iteration sleep. Configured
// values below it are clamped with a warning.
const MinPollingInterval = time.Second

// Config holds the supervisor's tunables.
type Config struct {
	PollingInterval   time.Duration
	MaxConcurrentJobs int
}

// Supervisor ties capacity planning, dispatch, and reaping into one
// single-flow loop. All coordination with workers goes through the store;
// the supervisor never waits on a worker process directly.
type Supervisor struct {
	store    store.Store
	launcher proc.Launcher
	signaler proc.Signaler
	cfg      Config
	logger   *slog.Logger
	registry *Registry
	metrics  *metrics

	// Throttles repeated per-iteration failure logs so an unreachable
	// store cannot flood the output at one line per poll.
	failureLog *rate.Limiter

	now func() time.Time
}

// New validates the configuration and constructs a supervisor. A polling
// interval below MinPollingInterval is clamped with a warning; the store
// contract itself is enforced at compile time by the store.Store interface.
func New(s store.Store, launcher proc.Launcher, signaler proc.Signaler, cfg Config, logger *slog.Logger) *Supervisor {
	if cfg.PollingInterval < MinPollingInterval {
		logger.Warn("polling interval below minimum, clamping",
			"configured", cfg.PollingInterval.String(),
			"effective", MinPollingInterval.String(),
		)
		cfg.PollingInterval = MinPollingInterval
	}
	if cfg.MaxConcurrentJobs < 0 {
		logger.Warn("negative max concurrent jobs, clamping to 0",
			"configured", cfg.MaxConcurrentJobs,
		)
		cfg.MaxConcurrentJobs = 0
	}

	return &Supervisor{
		store:      s,
		launcher:   launcher,
		signaler:   signaler,
		cfg:        cfg,
		logger:     logger,
		registry:   NewRegistry(),
		metrics:    newMetrics(logger),
		failureLog: rate.NewLimiter(rate.Every(30*time.Second), 3),
		now:        time.Now,
	}
}

// Config returns the effective (post-clamp) configuration.
func (s *Supervisor) Config() Config {
	return s.cfg
}

// Run executes the supervisor loop until ctx is cancelled, then runs the
// shutdown pass and returns. Iteration errors are logged, never fatal.
func (s *Supervisor) Run(ctx context.Context) error {
	s.logger.Info("supervisor started",
		"polling_interval", s.cfg.PollingInterval.String(),
		"max_concurrent_jobs", s.cfg.MaxConcurrentJobs,
	)

	for {
		select {
		case <-ctx.Done():
			// Shutdown must still reach the store after cancellation.
			return s.Shutdown(context.Background())
		default:
		}

		s.iterate(ctx)

		select {
		case <-ctx.Done():
			return s.Shutdown(context.Background())
		case <-time.After(s.cfg.PollingInterval):
		}
	}
}

// iterate runs one capacity -> dispatch -> reap pass. Errors and panics are
// contained here so a bad iteration never takes the loop down.
func (s *Supervisor) iterate(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("iteration panicked",
				"panic", fmt.Sprint(r),
				"stack", string(debug.Stack()),
			)
		}
	}()

	if err := s.runIteration(ctx); err != nil {
		if s.failureLog.Allow() {
			s.logger.Error("iteration failed", "error", err.Error())
		}
	}
}

func (s *Supervisor) runIteration(ctx context.Context) error {
	running, err := s.store.CountRunning(ctx)
	if err != nil {
		return fmt.Errorf("failed to count running jobs: %w", err)
	}

	if err := s.dispatch(ctx, Capacity(s.cfg.MaxConcurrentJobs, running)); err != nil {
		return err
	}
	return s.reap(ctx)
}
