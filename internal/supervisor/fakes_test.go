package supervisor

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"jobward/internal/store"

	"github.com/google/uuid"
)

// fakeStore is an in-memory store.Store honoring the scheduling contract.
type fakeStore struct {
	mu   sync.Mutex
	jobs map[uuid.UUID]*store.Job

	failCountRunning error
	failFind         error
	failRunning      error
	panicOnDue       bool

	// onCountRunning runs before every CountRunning call, for tests that
	// need a side effect mid-loop (e.g. cancelling the run context).
	onCountRunning func()
}

func newFakeStore() *fakeStore {
	return &fakeStore{jobs: make(map[uuid.UUID]*store.Job)}
}

func (f *fakeStore) add(job store.Job) uuid.UUID {
	f.mu.Lock()
	defer f.mu.Unlock()
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now()
	}
	j := job
	f.jobs[j.ID] = &j
	return j.ID
}

func (f *fakeStore) get(id uuid.UUID) store.Job {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.jobs[id]
}

func (f *fakeStore) Running(ctx context.Context) ([]store.Job, error) {
	if f.failRunning != nil {
		return nil, f.failRunning
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []store.Job
	for _, j := range f.jobs {
		if j.Status == store.StatusRunning {
			out = append(out, *j)
		}
	}
	return out, nil
}

func (f *fakeStore) CountRunning(ctx context.Context) (int, error) {
	if f.onCountRunning != nil {
		f.onCountRunning()
	}
	if f.failCountRunning != nil {
		return 0, f.failCountRunning
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, j := range f.jobs {
		if j.Status == store.StatusRunning {
			count++
		}
	}
	return count, nil
}

func (f *fakeStore) CountQueued(ctx context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, j := range f.jobs {
		if j.Status == store.StatusQueued {
			count++
		}
	}
	return count, nil
}

func (f *fakeStore) Due(ctx context.Context, now time.Time, limit int) ([]store.Job, error) {
	if f.panicOnDue {
		panic("due query exploded")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var due []store.Job
	for _, j := range f.jobs {
		if j.Status == store.StatusQueued && !j.ScheduledAt.After(now) {
			due = append(due, *j)
		}
	}
	sort.Slice(due, func(i, k int) bool {
		if !due[i].ScheduledAt.Equal(due[k].ScheduledAt) {
			return due[i].ScheduledAt.Before(due[k].ScheduledAt)
		}
		return due[i].CreatedAt.Before(due[k].CreatedAt)
	})
	if len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}

func (f *fakeStore) Find(ctx context.Context, id uuid.UUID) (*store.Job, error) {
	if f.failFind != nil {
		return nil, f.failFind
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	j, ok := f.jobs[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	copy := *j
	return &copy, nil
}

func (f *fakeStore) Create(ctx context.Context, job *store.Job) error {
	f.add(*job)
	return nil
}

func (f *fakeStore) MarkRunning(ctx context.Context, id uuid.UUID, pid int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	j := f.jobs[id]
	j.Status = store.StatusRunning
	j.PID = &pid
	return nil
}

func (f *fakeStore) MarkCompleted(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jobs[id].Status = store.StatusCompleted
	return nil
}

func (f *fakeStore) MarkFailed(ctx context.Context, id uuid.UUID, errMsg string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	j := f.jobs[id]
	j.Status = store.StatusFailed
	j.ErrorMessage = &errMsg
	return nil
}

func (f *fakeStore) Schedule(ctx context.Context, id uuid.UUID, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	j := f.jobs[id]
	j.Status = store.StatusQueued
	j.ScheduledAt = at
	j.PID = nil
	return nil
}

func (f *fakeStore) Close() error { return nil }

// fakeLauncher records launches and hands out sequential pids.
type fakeLauncher struct {
	launched []uuid.UUID
	nextPID  int
	failFor  map[uuid.UUID]error

	// markRunning mimics the worker-side transition right at spawn time,
	// for loop-level tests that need the store to observe running jobs.
	markRunning *fakeStore
}

func newFakeLauncher() *fakeLauncher {
	return &fakeLauncher{nextPID: 1000, failFor: make(map[uuid.UUID]error)}
}

func (l *fakeLauncher) Launch(ctx context.Context, jobID uuid.UUID) (int, error) {
	if err := l.failFor[jobID]; err != nil {
		return 0, err
	}
	l.nextPID++
	l.launched = append(l.launched, jobID)
	if l.markRunning != nil {
		l.markRunning.MarkRunning(ctx, jobID, l.nextPID)
	}
	return l.nextPID, nil
}

// fakeSignaler records terminations and returns configured errors per pid.
type fakeSignaler struct {
	terminated []int
	errFor     map[int]error
}

func newFakeSignaler() *fakeSignaler {
	return &fakeSignaler{errFor: make(map[int]error)}
}

func (s *fakeSignaler) Terminate(pid int) error {
	s.terminated = append(s.terminated, pid)
	return s.errFor[pid]
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestSupervisor(fs *fakeStore, l *fakeLauncher, sig *fakeSignaler, cfg Config) *Supervisor {
	return New(fs, l, sig, cfg, testLogger())
}
