// Package worker contains the worker-process side of job execution.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"sort"
)

// HandlerFunc executes the body of a job. It runs inside a dedicated worker
// process; returning an error marks the job failed.
type HandlerFunc func(ctx context.Context, payload json.RawMessage) error

// Registry maps handler names to their implementations. Job records carry a
// name, not code; the worker resolves the name here at execution time.
type Registry struct {
	handlers map[string]HandlerFunc
}

// NewRegistry returns an empty handler registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]HandlerFunc)}
}

// Register adds a handler under the given name, replacing any previous one.
func (r *Registry) Register(name string, fn HandlerFunc) {
	r.handlers[name] = fn
}

// Resolve looks up a handler by name.
func (r *Registry) Resolve(name string) (HandlerFunc, bool) {
	fn, ok := r.handlers[name]
	return fn, ok
}

// Names returns the registered handler names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type shellPayload struct {
	Command []string `json:"command"`
}

// RegisterBuiltins installs the handlers every jobward binary ships with.
func RegisterBuiltins(r *Registry) {
	r.Register("noop", func(ctx context.Context, payload json.RawMessage) error {
		return nil
	})

	// shell runs the payload's command with the worker process as the fault
	// boundary. Payload: {"command": ["sh", "-c", "..."]}.
	r.Register("shell", func(ctx context.Context, payload json.RawMessage) error {
		var p shellPayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return fmt.Errorf("invalid shell payload: %w", err)
		}
		if len(p.Command) == 0 {
			return fmt.Errorf("shell payload has no command")
		}

		cmd := exec.CommandContext(ctx, p.Command[0], p.Command[1:]...)
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		if err := cmd.Run(); err != nil {
			return fmt.Errorf("command failed: %w", err)
		}
		return nil
	})
}
