package call

import "sync"

// Registry is the in-memory store of live sessions, keyed by call id.
// Operations for different ids never observe each other's state; a session
// leaked by a crashed relay is an accepted loss, there is no eviction.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewRegistry bootstraps an empty registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

// GetOrCreate returns the session for id, creating it if absent. There is
// exactly one Session per live call id.
func (r *Registry) GetOrCreate(id string) *Session {
	r.mu.RLock()
	session, ok := r.sessions[id]
	r.mu.RUnlock()
	if ok {
		return session
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if session, ok := r.sessions[id]; ok {
		return session
	}
	session = &Session{ID: id}
	r.sessions[id] = session
	return session
}

// Get returns the session for id if it exists.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	session, ok := r.sessions[id]
	return session, ok
}

// Delete removes the session for id. Deleting an absent id is a no-op.
func (r *Registry) Delete(id string) {
	r.mu.Lock()
	delete(r.sessions, id)
	r.mu.Unlock()
}

// Len reports the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
