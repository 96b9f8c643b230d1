package engine

import (
	"sync"
	"time"
)

// Registry is the only structure shared by multiple workers. It maps session
// id to the single live instance for that session; creation is atomic, so
// two racing submissions for one session can never produce two instances.
type Registry struct {
	mu        sync.Mutex
	instances map[string]*Instance
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{instances: map[string]*Instance{}}
}

// GetOrCreate returns the instance for the session id, creating it via the
// factory under the registry lock when absent. The boolean reports whether a
// new instance was created.
func (r *Registry) GetOrCreate(sessionID string, create func() *Instance) (*Instance, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if in, ok := r.instances[sessionID]; ok {
		return in, false
	}
	in := create()
	r.instances[sessionID] = in
	return in, true
}

// Get returns the instance for the session id if present.
func (r *Registry) Get(sessionID string) (*Instance, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	in, ok := r.instances[sessionID]
	return in, ok
}

// Remove deletes the instance for the session id.
func (r *Registry) Remove(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.instances, sessionID)
}

// Len reports the number of registered instances.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.instances)
}

// Sweep evicts instances idle since before the cutoff and returns how many
// were removed. Instances with queued events or an in-flight step are never
// evicted, regardless of age.
func (r *Registry) Sweep(cutoff time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	evicted := 0
	for id, in := range r.instances {
		if in.Idle(cutoff) {
			delete(r.instances, id)
			evicted++
		}
	}
	return evicted
}
