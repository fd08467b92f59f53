// Package session holds the process-local state of one user's interactive
// use of a chat front-end: the remote agent and thread identifiers, the set
// of remote message ids already shown and the turn history used for
// redisplay. Nothing here is persisted.
package session

import (
	"sync"
	"time"

	"github.com/hupe1980/agentchat/core"
)

// Session is safe for concurrent access.
//
// Contract:
//   - the seen message id set only grows, Reset included
//   - History returns a defensive copy
//   - at most one turn holds the session at a time (TryBeginTurn/EndTurn)
type Session struct {
	ID      string
	Created time.Time

	mu       sync.RWMutex
	agentID  string
	threadID string
	seen     map[string]struct{}
	files    map[string]struct{}
	history  []core.Turn
	updated  time.Time
	inTurn   bool
	conns    int
}

// New creates an empty session with the given id.
func New(id string) *Session {
	now := time.Now()
	return &Session{
		ID:      id,
		Created: now,
		updated: now,
		seen:    make(map[string]struct{}),
		files:   make(map[string]struct{}),
		history: []core.Turn{},
	}
}

// AgentID returns the memoized remote agent id, if any.
func (s *Session) AgentID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.agentID
}

// SetAgentID memoizes the remote agent id.
func (s *Session) SetAgentID(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.agentID = id
	s.touchLocked()
}

// ThreadID returns the memoized remote thread id, if any.
func (s *Session) ThreadID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.threadID
}

// SetThreadID memoizes the remote thread id.
func (s *Session) SetThreadID(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.threadID = id
	s.touchLocked()
}

// Seen reports whether the remote message id was already shown.
func (s *Session) Seen(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.seen[id]
	return ok
}

// MarkSeen records message ids as shown and returns how many were new.
func (s *Session) MarkSeen(ids ...string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	added := 0
	for _, id := range ids {
		if _, ok := s.seen[id]; ok {
			continue
		}
		s.seen[id] = struct{}{}
		added++
	}
	if added > 0 {
		s.touchLocked()
	}
	return added
}

// SeenCount returns the size of the seen message id set.
func (s *Session) SeenCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.seen)
}

// AddFiles records file ids referenced by messages of this session.
func (s *Session) AddFiles(ids ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		s.files[id] = struct{}{}
	}
}

// HasFile reports whether a file id was referenced by this session.
func (s *Session) HasFile(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.files[id]
	return ok
}

// AppendTurn adds a turn to the local history.
func (s *Session) AppendTurn(t core.Turn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, t)
	s.touchLocked()
}

// History returns a copy of the turn history.
func (s *Session) History() []core.Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Turn, len(s.history))
	copy(out, s.history)
	return out
}

// Reset forgets the thread and the history. The agent id and the seen set
// are kept.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.threadID = ""
	s.history = []core.Turn{}
	s.touchLocked()
}

// TryBeginTurn marks the session busy. It returns false if a turn is
// already running.
func (s *Session) TryBeginTurn() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inTurn {
		return false
	}
	s.inTurn = true
	return true
}

// EndTurn releases the session after TryBeginTurn.
func (s *Session) EndTurn() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inTurn = false
	s.touchLocked()
}

// Busy reports whether a turn is running.
func (s *Session) Busy() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.inTurn
}

// Attach registers a live client connection. The returned func detaches it.
func (s *Session) Attach() (detach func()) {
	s.mu.Lock()
	s.conns++
	s.touchLocked()
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.conns--
			s.touchLocked()
		})
	}
}

// Attached reports whether a client connection is open.
func (s *Session) Attached() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.conns > 0
}

// Touch records activity without changing state.
func (s *Session) Touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchLocked()
}

// Updated returns the time of the last mutation.
func (s *Session) Updated() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.updated
}

func (s *Session) touchLocked() { s.updated = time.Now() }
