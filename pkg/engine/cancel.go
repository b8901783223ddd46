package engine

import "sync"

// CancelRegistry is the process-wide set of runs flagged for cancellation.
// The engine checks it between agents; the HTTP cancel endpoint and the
// WebSocket listener write to it. Cancellation is cooperative — an in-flight
// provider call is never interrupted.
type CancelRegistry struct {
	mu        sync.RWMutex
	requested map[string]struct{}
}

// NewCancelRegistry creates an empty registry.
func NewCancelRegistry() *CancelRegistry {
	return &CancelRegistry{requested: make(map[string]struct{})}
}

// Request flags an execution for cancellation. Flagging an unknown or
// already-terminal run is harmless; the engine clears the flag when the run
// finishes.
func (r *CancelRegistry) Request(executionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requested[executionID] = struct{}{}
}

// IsRequested reports whether cancellation has been requested.
func (r *CancelRegistry) IsRequested(executionID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.requested[executionID]
	return ok
}

// Clear removes an execution from the registry.
func (r *CancelRegistry) Clear(executionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.requested, executionID)
}
