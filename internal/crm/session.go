package crm

import "sync"

// Session holds the credentials for talking to the CRM REST API. It is
// obtained from a login exchange and stays valid until the CRM revokes it.
type Session struct {
	AccessToken string
	InstanceURL string
}

// Valid reports whether the session carries everything needed for a call.
// Absence of either field is the only "needs login" signal; expiry is never
// checked proactively.
func (s Session) Valid() bool {
	return s.AccessToken != "" && s.InstanceURL != ""
}

// SessionStore caches the active CRM session across requests. It is owned by
// whoever wires the client and shared by every CRM-calling component.
//
// Concurrent callers that both observe an empty store will both log in; the
// last writer wins. Either token is valid, so the race is benign.
type SessionStore struct {
	mu      sync.RWMutex
	session Session
}

// NewSessionStore creates an empty session cache.
func NewSessionStore() *SessionStore {
	return &SessionStore{}
}

// Get returns the cached session, which may be invalid.
func (s *SessionStore) Get() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session
}

// Set replaces the cached session.
func (s *SessionStore) Set(sess Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = sess
}

// Clear drops the cached session, forcing the next call to log in again.
func (s *SessionStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = Session{}
}
