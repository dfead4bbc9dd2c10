package service

import "sync"

// Registry holds the last-known Status per service name. Last write wins;
// no history is retained. Readers may observe values mid-reassessment,
// which is acceptable for advisory data.
type Registry struct {
	mu       sync.RWMutex
	statuses map[string]Status
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		statuses: make(map[string]Status),
	}
}

// Record stores the status for its service name, replacing any prior value.
func (r *Registry) Record(status Status) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses[status.Name] = status
}

// Get returns the last-known status for the named service.
func (r *Registry) Get(name string) (Status, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	status, ok := r.statuses[name]
	return status, ok
}

// IsAvailable reports whether the named service's last probe succeeded.
// Unknown services are reported unavailable.
func (r *Registry) IsAvailable(name string) bool {
	status, ok := r.Get(name)
	return ok && status.Available
}

// All returns a copy of every recorded status.
func (r *Registry) All() map[string]Status {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]Status, len(r.statuses))
	for name, status := range r.statuses {
		out[name] = status
	}
	return out
}
