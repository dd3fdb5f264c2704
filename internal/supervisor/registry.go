package supervisor

import "github.com/google/uuid"

// Registry is the supervisor's local memory of job ids it has dispatched.
// It exists purely to bound the reaping scan; the store stays authoritative.
//
// The registry is confined to the single-flow supervisor loop and is not
// safe for concurrent use.
type Registry struct {
	ids map[uuid.UUID]struct{}
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{ids: make(map[uuid.UUID]struct{})}
}

// Add records a dispatched job id.
func (r *Registry) Add(id uuid.UUID) {
	r.ids[id] = struct{}{}
}

// Remove drops a job id. Removing an absent id is a no-op.
func (r *Registry) Remove(id uuid.UUID) {
	delete(r.ids, id)
}

// Contains reports whether the id is tracked.
func (r *Registry) Contains(id uuid.UUID) bool {
	_, ok := r.ids[id]
	return ok
}

// Len returns the number of tracked ids.
func (r *Registry) Len() int {
	return len(r.ids)
}

// IDs returns a snapshot of the tracked ids, safe to iterate while the
// registry is mutated.
func (r *Registry) IDs() []uuid.UUID {
	out := make([]uuid.UUID, 0, len(r.ids))
	for id := range r.ids {
		out = append(out, id)
	}
	return out
}
