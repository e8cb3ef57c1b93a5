package services

import (
	"errors"
	"fmt"
	"sync"

	"github.com/pocketbase/pocketbase/core"

	"opname/collections"
)

// ErrSessionNotReady is returned while the sheet session is not usable.
var ErrSessionNotReady = errors.New("sheet session not ready")

// SessionState is the lifecycle state of a Session.
type SessionState int

const (
	SessionUninitialized SessionState = iota
	SessionReady
	SessionFailed
)

func (s SessionState) String() string {
	switch s {
	case SessionReady:
		return "ready"
	case SessionFailed:
		return "failed"
	default:
		return "uninitialized"
	}
}

// Session is the connection to the sheet collections. It is created once at
// startup, opened when the app has bootstrapped, and shared by every handler.
type Session struct {
	mu     sync.RWMutex
	app    core.App
	state  SessionState
	reason error
}

// NewSession returns an uninitialized session over app.
func NewSession(app core.App) *Session {
	return &Session{app: app}
}

// Open checks that the sheet collections exist and moves the session to
// SessionReady, or to SessionFailed with the reason.
func (s *Session) Open() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.app == nil {
		s.state, s.reason = SessionFailed, errors.New("no app configured")
		return s.reason
	}
	for _, name := range []string{collections.DataRAB, collections.OpnameFinal} {
		if _, err := s.app.FindCollectionByNameOrId(name); err != nil {
			s.state, s.reason = SessionFailed, fmt.Errorf("collection %q: %w", name, err)
			return s.reason
		}
	}
	s.state, s.reason = SessionReady, nil
	return nil
}

// Fail moves the session to SessionFailed.
func (s *Session) Fail(reason error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state, s.reason = SessionFailed, reason
}

// State returns the current state and, for SessionFailed, the reason.
func (s *Session) State() (SessionState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state, s.reason
}

// App returns the underlying app. Callers check the session first.
func (s *Session) App() core.App {
	return s.app
}

// CheckSession returns nil when s is ready, otherwise an error wrapping
// ErrSessionNotReady.
func CheckSession(s *Session) error {
	if s == nil {
		return fmt.Errorf("%w: no session", ErrSessionNotReady)
	}
	state, reason := s.State()
	switch state {
	case SessionReady:
		return nil
	case SessionFailed:
		return fmt.Errorf("%w: %v", ErrSessionNotReady, reason)
	default:
		return fmt.Errorf("%w: %s", ErrSessionNotReady, state)
	}
}
