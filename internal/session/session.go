package session

import (
	"sync"
)

// Session is the authenticated state of one user as seen by the edge. It is
// created when a login completes and downgraded the first time the remote
// API answers 401; it never re-authenticates itself.
type Session struct {
	mu            sync.RWMutex
	token         string
	claims        Claims
	authenticated bool
}

func New(token string, claims *Claims) *Session {
	s := &Session{token: token}
	if claims != nil {
		s.claims = *claims
		s.authenticated = token != ""
	}
	return s
}

// Anonymous returns a session that fails every authenticated call locally.
func Anonymous() *Session {
	return &Session{}
}

func (s *Session) Token() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.authenticated {
		return "", false
	}
	return s.token, true
}

func (s *Session) Downgrade() {
	s.mu.Lock()
	s.authenticated = false
	s.mu.Unlock()
}

func (s *Session) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.authenticated
}

func (s *Session) UserID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.claims.UserID
}

func (s *Session) Role() Role {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.claims.Role
}

func (s *Session) Claims() Claims {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.claims
}
