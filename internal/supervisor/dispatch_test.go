package supervisor

import (
	"context"
	"errors"
	"testing"
	"time"

	"jobward/internal/store"

	"github.com/google/uuid"
)

func queuedJob(name string, scheduledAt time.Time) store.Job {
	return store.Job{
		ID:          uuid.New(),
		Name:        name,
		Status:      store.StatusQueued,
		ScheduledAt: scheduledAt,
	}
}

func TestDispatch_OrderAndCap(t *testing.T) {
	fs := newFakeStore()
	now := time.Now()
	aID := fs.add(queuedJob("a", now.Add(-3*time.Minute)))
	bID := fs.add(queuedJob("b", now.Add(-2*time.Minute)))
	cID := fs.add(queuedJob("c", now.Add(-1*time.Minute)))

	l := newFakeLauncher()
	s := newTestSupervisor(fs, l, newFakeSignaler(), Config{
		PollingInterval:   time.Second,
		MaxConcurrentJobs: 2,
	})

	if err := s.runIteration(context.Background()); err != nil {
		t.Fatalf("iteration failed: %v", err)
	}

	if len(l.launched) != 2 {
		t.Fatalf("launched %d workers, want 2", len(l.launched))
	}
	if l.launched[0] != aID || l.launched[1] != bID {
		t.Errorf("dispatch order wrong: got %v, want [%s %s]", l.launched, aID, bID)
	}
	if !s.registry.Contains(aID) || !s.registry.Contains(bID) {
		t.Error("dispatched jobs should be in the registry")
	}
	if s.registry.Contains(cID) {
		t.Error("undispatched job should not be in the registry")
	}
	if got := fs.get(cID).Status; got != store.StatusQueued {
		t.Errorf("job c should stay queued, got %q", got)
	}
}

func TestDispatch_CapacityAccountsForRunning(t *testing.T) {
	fs := newFakeStore()
	now := time.Now()
	pid := 500
	fs.add(store.Job{ID: uuid.New(), Name: "busy", Status: store.StatusRunning, PID: &pid, ScheduledAt: now})
	fs.add(queuedJob("a", now.Add(-2*time.Minute)))
	fs.add(queuedJob("b", now.Add(-1*time.Minute)))

	l := newFakeLauncher()
	s := newTestSupervisor(fs, l, newFakeSignaler(), Config{
		PollingInterval:   time.Second,
		MaxConcurrentJobs: 2,
	})

	if err := s.runIteration(context.Background()); err != nil {
		t.Fatalf("iteration failed: %v", err)
	}

	if len(l.launched) != 1 {
		t.Errorf("launched %d workers, want 1 (one slot taken by running job)", len(l.launched))
	}
}

func TestDispatch_RunningNeverExceedsCap(t *testing.T) {
	fs := newFakeStore()
	now := time.Now()
	for i := 0; i < 10; i++ {
		fs.add(queuedJob("job", now.Add(-time.Minute)))
	}

	l := newFakeLauncher()
	l.markRunning = fs // workers transition to running at spawn
	s := newTestSupervisor(fs, l, newFakeSignaler(), Config{
		PollingInterval:   time.Second,
		MaxConcurrentJobs: 3,
	})

	for i := 0; i < 5; i++ {
		if err := s.runIteration(context.Background()); err != nil {
			t.Fatalf("iteration %d failed: %v", i, err)
		}
		running, err := fs.CountRunning(context.Background())
		if err != nil {
			t.Fatalf("CountRunning failed: %v", err)
		}
		if running > 3 {
			t.Fatalf("iteration %d: %d running, cap is 3", i, running)
		}
	}
}

func TestDispatch_ZeroCapNeverLaunches(t *testing.T) {
	fs := newFakeStore()
	fs.add(queuedJob("a", time.Now().Add(-time.Minute)))

	l := newFakeLauncher()
	s := newTestSupervisor(fs, l, newFakeSignaler(), Config{
		PollingInterval:   time.Second,
		MaxConcurrentJobs: 0,
	})

	for i := 0; i < 3; i++ {
		if err := s.runIteration(context.Background()); err != nil {
			t.Fatalf("iteration failed: %v", err)
		}
	}

	if len(l.launched) != 0 {
		t.Errorf("launched %d workers with zero cap, want 0", len(l.launched))
	}
}

func TestDispatch_FutureJobsNotDue(t *testing.T) {
	fs := newFakeStore()
	fs.add(queuedJob("later", time.Now().Add(time.Hour)))

	l := newFakeLauncher()
	s := newTestSupervisor(fs, l, newFakeSignaler(), Config{
		PollingInterval:   time.Second,
		MaxConcurrentJobs: 5,
	})

	if err := s.runIteration(context.Background()); err != nil {
		t.Fatalf("iteration failed: %v", err)
	}
	if len(l.launched) != 0 {
		t.Errorf("launched %d workers, want 0 (job not due yet)", len(l.launched))
	}
}

func TestDispatch_LaunchFailureKeepsJobQueued(t *testing.T) {
	fs := newFakeStore()
	now := time.Now()
	aID := fs.add(queuedJob("a", now.Add(-2*time.Minute)))
	bID := fs.add(queuedJob("b", now.Add(-1*time.Minute)))

	l := newFakeLauncher()
	l.failFor[aID] = errors.New("fork failed")
	s := newTestSupervisor(fs, l, newFakeSignaler(), Config{
		PollingInterval:   time.Second,
		MaxConcurrentJobs: 5,
	})

	if err := s.runIteration(context.Background()); err != nil {
		t.Fatalf("iteration failed: %v", err)
	}

	if s.registry.Contains(aID) {
		t.Error("failed launch must not enter the registry")
	}
	if !s.registry.Contains(bID) {
		t.Error("successful launch should enter the registry")
	}
	if got := fs.get(aID).Status; got != store.StatusQueued {
		t.Errorf("failed job should stay queued for retry, got %q", got)
	}
}
