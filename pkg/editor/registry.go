package editor

import (
	"errors"
	"sync"
)

// ErrUnknownInstance is returned by [Registry.Get] for IDs that were never
// registered or have been removed.
var ErrUnknownInstance = errors.New("editor: unknown instance")

// Registry tracks live editor instances by ID. It is an explicit value that
// hosts construct and pass to whatever needs cross-instance access (an HTTP
// server, a TUI switcher); there is no ambient global.
//
// Registry is safe for concurrent use. The editors it hands out are not;
// callers serialize per instance.
type Registry struct {
	mu      sync.RWMutex
	editors map[string]*Editor
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{editors: make(map[string]*Editor)}
}

// Add registers an editor under its own ID and returns that ID.
func (r *Registry) Add(e *Editor) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.editors[e.ID()] = e
	return e.ID()
}

// Register binds an instance to a caller-chosen ID, typically one per
// workspace or tab. Registering an ID that is already live merges opts into
// the existing editor via [Editor.Reconfigure] instead of replacing it, so
// the drawn graph survives re-registration.
func (r *Registry) Register(id string, opts Options) (*Editor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.editors[id]; ok {
		e.Reconfigure(opts)
		return e, nil
	}
	e, err := New(opts)
	if err != nil {
		return nil, err
	}
	e.id = id
	r.editors[id] = e
	return e, nil
}

// Get looks up an instance by ID.
func (r *Registry) Get(id string) (*Editor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.editors[id]
	if !ok {
		return nil, ErrUnknownInstance
	}
	return e, nil
}

// Remove drops an instance. Removing an unknown ID is a no-op.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.editors, id)
}

// IDs returns the registered instance IDs in unspecified order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.editors))
	for id := range r.editors {
		ids = append(ids, id)
	}
	return ids
}

// Len reports the number of registered instances.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.editors)
}
