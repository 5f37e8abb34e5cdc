// Package session holds per-user demo state: the pasted API key, the active
// store reference and the conversation history. The presentation layer owns
// a Session for the lifetime of a browser session; flows borrow it for the
// duration of one call. Nothing here is persisted.
package session

import (
	"strings"
	"sync"
	"time"
)

// Message is one role-tagged entry of the conversation history.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Session is safe for concurrent access. The credential is an opaque
// pass-through secret, required non-empty before any store operation.
type Session struct {
	ID      string
	Created time.Time

	mu         sync.RWMutex
	credential string
	storeName  string
	history    []Message
	updated    time.Time
}

// New creates an empty session with the given id.
func New(id string) *Session {
	now := time.Now()
	return &Session{ID: id, Created: now, updated: now}
}

// SetCredential stores the trimmed API key for this session.
func (s *Session) SetCredential(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.credential = strings.TrimSpace(key)
	s.updated = time.Now()
}

// Credential returns the stored API key, possibly empty.
func (s *Session) Credential() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.credential
}

// HasCredential reports whether a non-blank API key has been set.
func (s *Session) HasCredential() bool {
	return s.Credential() != ""
}

// SetStore switches the active store reference. Prior stores persist
// remotely; only the session-local pointer changes.
func (s *Session) SetStore(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.storeName = name
	s.updated = time.Now()
}

// Store returns the active store resource name, possibly blank.
func (s *Session) Store() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.storeName
}

// AppendExchange appends one (user, assistant) message pair.
func (s *Session) AppendExchange(question, answer string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history,
		Message{Role: "user", Content: question},
		Message{Role: "assistant", Content: answer},
	)
	s.updated = time.Now()
}

// History returns a defensive copy of the conversation history.
func (s *Session) History() []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Message, len(s.history))
	copy(out, s.history)
	return out
}

// ClearHistory drops the conversation history. Explicit user action only.
func (s *Session) ClearHistory() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = nil
	s.updated = time.Now()
}
