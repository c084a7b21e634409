package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"kpidash/internal/i18n"
)

// MemoryStore is an in-memory session store with idle expiry
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
	now      func() time.Time
}

// NewMemoryStore creates a store whose sessions expire after ttl of inactivity
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Create starts a new empty session
func (s *MemoryStore) Create(lang i18n.Lang) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.sweepLocked(now)

	sess := &Session{
		ID:       uuid.NewString(),
		Language: lang,
		LastSeen: now,
	}
	s.sessions[sess.ID] = sess

	sessCopy := *sess
	return &sessCopy
}

// Get retrieves a live session and marks it as seen
func (s *MemoryStore) Get(id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, exists := s.sessions[id]
	if !exists {
		return nil, ErrNotFound
	}

	now := s.now()
	if s.expired(sess, now) {
		delete(s.sessions, id)
		return nil, ErrNotFound
	}
	sess.LastSeen = now

	// Return a copy to prevent external modification
	sessCopy := *sess
	return &sessCopy, nil
}

// Update applies change to a copy of the live session under the store lock
// and stores the result. Concurrent updates of different fields of the same
// session never overwrite each other.
func (s *MemoryStore) Update(id string, change func(Session) *Session) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, exists := s.sessions[id]
	if !exists {
		return nil, ErrNotFound
	}
	now := s.now()
	if s.expired(sess, now) {
		delete(s.sessions, id)
		return nil, ErrNotFound
	}

	updated := change(*sess)
	updated.ID = id
	updated.LastSeen = now
	s.sessions[id] = updated

	sessCopy := *updated
	return &sessCopy, nil
}

// Delete removes a session
func (s *MemoryStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// Len returns the number of stored sessions, expired ones included
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Sweep drops expired sessions and returns how many were removed
func (s *MemoryStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sweepLocked(s.now())
}

func (s *MemoryStore) sweepLocked(now time.Time) int {
	removed := 0
	for id, sess := range s.sessions {
		if s.expired(sess, now) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

func (s *MemoryStore) expired(sess *Session, now time.Time) bool {
	return s.ttl > 0 && now.Sub(sess.LastSeen) > s.ttl
}
