package runtime

import (
	"sync"

	"corpchat/contract"
)

// Registry is the concurrent mapping of each logged-in username to its
// outbound sink. It holds no resources of its own: the sink is owned by
// the transport layer.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]contract.EventSink
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]contract.EventSink),
	}
}

// Add registers a session's sink. If a session for the username already
// exists, the new sink replaces it (last-register-wins): a second login
// silently supersedes the previous connection.
func (r *Registry) Add(username string, sink contract.EventSink) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[username] = sink
}

// Remove deregisters a username. Removing an unknown username is a no-op.
func (r *Registry) Remove(username string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, username)
}

// RemoveIfSink deregisters the username only if it is still mapped to the
// given sink. After a second login replaced the mapping, the first
// connection's teardown must not evict the newer session.
func (r *Registry) RemoveIfSink(username string, sink contract.EventSink) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if current, ok := r.sessions[username]; !ok || current != sink {
		return false
	}
	delete(r.sessions, username)
	return true
}

// ListOnline returns a snapshot of currently registered usernames.
func (r *Registry) ListOnline() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	online := make([]string, 0, len(r.sessions))
	for username := range r.sessions {
		online = append(online, username)
	}
	return online
}

func (r *Registry) SinkFor(username string) (contract.EventSink, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sink, ok := r.sessions[username]
	return sink, ok
}

// Snapshot returns a copy of the full username -> sink mapping, safe to
// iterate while registrations continue.
func (r *Registry) Snapshot() map[string]contract.EventSink {
	r.mu.RLock()
	defer r.mu.RUnlock()
	snapshot := make(map[string]contract.EventSink, len(r.sessions))
	for username, sink := range r.sessions {
		snapshot[username] = sink
	}
	return snapshot
}
