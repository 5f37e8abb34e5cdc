package session

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// ErrNotFound is returned for unknown or expired session ids.
var ErrNotFound = errors.New("session: not found")

// DefaultTTL is how long an idle session (and its pasted key) survives.
const DefaultTTL = 2 * time.Hour

// Store is a volatile TTL registry of sessions. Expiry evicts the whole
// session, credential included; concurrent sessions are fully isolated.
type Store struct {
	ttl      time.Duration
	sessions *cache.Cache
}

// NewStore builds a registry with the given idle TTL (DefaultTTL if <= 0).
func NewStore(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{ttl: ttl, sessions: cache.New(ttl, 10*time.Minute)}
}

// Create registers a fresh session under a new UUID.
func (s *Store) Create() *Session {
	sess := New(uuid.NewString())
	s.sessions.Set(sess.ID, sess, s.ttl)
	return sess
}

// Get returns the session for id, sliding its expiry forward.
func (s *Store) Get(id string) (*Session, error) {
	v, ok := s.sessions.Get(id)
	if !ok {
		return nil, ErrNotFound
	}
	sess := v.(*Session)
	s.sessions.Set(id, sess, s.ttl)
	return sess, nil
}

// Delete removes a session immediately.
func (s *Store) Delete(id string) {
	s.sessions.Delete(id)
}
