package session

import (
	"sync"
	"time"
)

// InMemoryStore is a volatile session store keeping sessions in a process
// local map. It is safe for concurrent access. Sessions are shared by
// pointer; the Session type guards its own state.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewInMemoryStore constructs an empty in‑memory session store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{sessions: make(map[string]*Session)}
}

// Get returns an existing session.
func (s *InMemoryStore) Get(id string) (*Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

// GetOrCreate returns the session with the given id, creating it lazily.
func (s *InMemoryStore) GetOrCreate(id string) *Session {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if ok {
		return sess
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[id]; ok {
		return sess
	}
	return s.createSessionLocked(id)
}

// Create forces the creation (or overwriting) of a session with the given id.
func (s *InMemoryStore) Create(id string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createSessionLocked(id)
}

// Delete removes the session and reports whether it existed.
func (s *InMemoryStore) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sessions[id]
	delete(s.sessions, id)
	return ok
}

// Len returns the number of stored sessions.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Prune drops sessions idle for longer than maxIdle and returns their ids.
// Sessions with a running turn or an attached connection are kept.
func (s *InMemoryStore) Prune(maxIdle time.Duration) []string {
	cutoff := time.Now().Add(-maxIdle)

	s.mu.Lock()
	defer s.mu.Unlock()
	var removed []string
	for id, sess := range s.sessions {
		if !sess.Busy() && !sess.Attached() && sess.Updated().Before(cutoff) {
			delete(s.sessions, id)
			removed = append(removed, id)
		}
	}
	return removed
}

// createSessionLocked allocates and stores a new session; caller must already
// hold the write lock.
func (s *InMemoryStore) createSessionLocked(id string) *Session {
	sess := New(id)
	s.sessions[id] = sess
	return sess
}
