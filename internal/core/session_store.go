package core

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// StoreConfig configures a SessionStore.
type StoreConfig struct {
	TTL         time.Duration // Idle time before a session expires (default: 2h)
	MaxSessions int           // Cap on live sessions; the least recently seen is evicted (default: 1000)
	Session     SessionOptions
}

// SessionStore owns all live sessions, keyed by a random UUID.
type SessionStore struct {
	cfg StoreConfig
	now func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewSessionStore creates an empty store.
func NewSessionStore(cfg StoreConfig) *SessionStore {
	if cfg.TTL <= 0 {
		cfg.TTL = 2 * time.Hour
	}
	if cfg.MaxSessions <= 0 {
		cfg.MaxSessions = 1000
	}
	return &SessionStore{
		cfg:      cfg,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

// Create starts a new empty session.
func (st *SessionStore) Create() *Session {
	sess := NewSession(uuid.NewString(), st.cfg.Session)

	st.mu.Lock()
	defer st.mu.Unlock()

	if len(st.sessions) >= st.cfg.MaxSessions {
		st.evictOldestLocked()
	}
	st.sessions[sess.id] = sess
	return sess
}

// Get returns a live session and marks it as seen.
// Returns ErrSessionNotFound for unknown or expired ids.
func (st *SessionStore) Get(id string) (*Session, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrSessionNotFound
	}

	st.mu.RLock()
	sess, ok := st.sessions[id]
	st.mu.RUnlock()

	now := st.now()
	if !ok || now.Sub(sess.LastSeen()) > st.cfg.TTL {
		return nil, ErrSessionNotFound
	}
	sess.touch(now)
	return sess, nil
}

// GetOrCreate returns the session for id, or a new one when id is unknown
// or expired. created reports whether a new session was made.
func (st *SessionStore) GetOrCreate(id string) (sess *Session, created bool) {
	if id != "" {
		if s, err := st.Get(id); err == nil {
			return s, false
		}
	}
	return st.Create(), true
}

// Delete removes a session. Unknown ids are ignored.
func (st *SessionStore) Delete(id string) {
	st.mu.Lock()
	delete(st.sessions, id)
	st.mu.Unlock()
}

// Len returns the number of sessions held, including expired ones not yet swept.
func (st *SessionStore) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// Sweep removes sessions idle for longer than the TTL and returns how many
// were removed.
func (st *SessionStore) Sweep() int {
	cutoff := st.now().Add(-st.cfg.TTL)

	st.mu.Lock()
	defer st.mu.Unlock()

	removed := 0
	for id, sess := range st.sessions {
		if sess.LastSeen().Before(cutoff) {
			delete(st.sessions, id)
			removed++
		}
	}
	return removed
}

func (st *SessionStore) evictOldestLocked() {
	var oldestID string
	var oldest time.Time
	for id, sess := range st.sessions {
		seen := sess.LastSeen()
		if oldestID == "" || seen.Before(oldest) {
			oldestID, oldest = id, seen
		}
	}
	if oldestID != "" {
		delete(st.sessions, oldestID)
	}
}
