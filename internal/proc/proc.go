// Package proc spawns and signals the OS processes that execute jobs.
package proc

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"syscall"

	"github.com/google/uuid"
)

// Launcher spawns one isolated worker process for a job and returns its pid.
// Implementations must not wait for the worker to exit.
type Launcher interface {
	Launch(ctx context.Context, jobID uuid.UUID) (int, error)
}

// Signaler delivers a termination signal to a worker process by pid.
type Signaler interface {
	Terminate(pid int) error
}

// ExecLauncher launches worker processes with os/exec. Each worker is the
// configured binary invoked with the base args plus the job id, detached
// into its own session so a supervisor crash does not take workers down.
type ExecLauncher struct {
	Path string
	Args []string
}

// NewSelfLauncher returns a launcher that re-invokes the current binary as
// `<binary> exec <job-id>`.
func NewSelfLauncher() (*ExecLauncher, error) {
	bin, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve executable path: %w", err)
	}
	return &ExecLauncher{Path: bin, Args: []string{"exec"}}, nil
}

// Launch starts the worker process and returns immediately with its pid.
func (l *ExecLauncher) Launch(ctx context.Context, jobID uuid.UUID) (int, error) {
	args := append(append([]string{}, l.Args...), jobID.String())

	cmd := exec.Command(l.Path, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("failed to spawn worker for job %s: %w", jobID, err)
	}

	// Collect the exit status in the background so the child never lingers
	// as a zombie. Dispatch does not block on worker completion; the store
	// is the only channel reporting the outcome.
	go cmd.Wait()

	return cmd.Process.Pid, nil
}

// OSSignaler signals real OS processes.
type OSSignaler struct{}

// Terminate sends SIGTERM to the process with the given pid.
func (OSSignaler) Terminate(pid int) error {
	p, err := os.FindProcess(pid)
	if err != nil {
		return err
	}
	return p.Signal(syscall.SIGTERM)
}

// IsGone reports whether a signaling error means the target process no
// longer exists. Workers usually exit on their own before the supervisor
// gets around to them, so this is an expected outcome, not a failure.
func IsGone(err error) bool {
	return errors.Is(err, os.ErrProcessDone) || errors.Is(err, syscall.ESRCH)
}

// IsDenied reports whether a signaling error means the process exists but
// cannot be signaled by this user.
func IsDenied(err error) bool {
	return errors.Is(err, syscall.EPERM) || errors.Is(err, os.ErrPermission)
}
