package auth

import (
	"context"
	"sync"
)

// NewInMemorySessionStore returns a SessionStore backed by an in-memory map.
func NewInMemorySessionStore() *InMemorySessionStore {
	return &InMemorySessionStore{sessions: make(map[string]Session)}
}

// InMemorySessionStore implements SessionStore for tests and local development.
type InMemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]Session
}

// Save persists the provided session record.
func (s *InMemorySessionStore) Save(_ context.Context, session Session) error {
	s.mu.Lock()
	s.sessions[session.AccessToken] = session
	s.mu.Unlock()
	return nil
}

// Find retrieves a session by access token.
func (s *InMemorySessionStore) Find(_ context.Context, accessToken string) (Session, error) {
	s.mu.RLock()
	session, ok := s.sessions[accessToken]
	s.mu.RUnlock()
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	return session, nil
}

// Delete removes the session associated with the access token.
func (s *InMemorySessionStore) Delete(_ context.Context, accessToken string) error {
	s.mu.Lock()
	delete(s.sessions, accessToken)
	s.mu.Unlock()
	return nil
}

// Has reports whether an access token exists. Useful for tests.
func (s *InMemorySessionStore) Has(accessToken string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.sessions[accessToken]
	return ok
}
