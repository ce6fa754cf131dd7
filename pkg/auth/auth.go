// Package auth provides the signed-in principal the views scope their
// queries to.
package auth

import "sync"

// Principal reports the signed-in user. UID is "" when nobody is signed in.
type Principal interface {
	UID() string
}

// Static is a fixed principal.
type Static string

func (s Static) UID() string { return string(s) }

// Session is a principal that can sign in and out at runtime.
type Session struct {
	mu  sync.RWMutex
	uid string
}

// SignIn sets the current user.
func (s *Session) SignIn(uid string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uid = uid
}

// SignOut clears the current user.
func (s *Session) SignOut() {
	s.SignIn("")
}

func (s *Session) UID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.uid
}
