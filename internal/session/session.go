// Package session manages the lifecycle of one native capture session.
package session

import (
	"fmt"
	"log"
	"sync"
	"sync/atomic"

	"inputhook/internal/native"
)

// State of a Session
type State int

const (
	Stopped State = iota
	Starting
	Running
)

func (s State) String() string {
	switch s {
	case Starting:
		return "starting"
	case Running:
		return "running"
	default:
		return "stopped"
	}
}

// Session owns at most one running native hook
type Session struct {
	name    string
	factory native.Factory

	mu   sync.Mutex
	hook native.Hook

	// Written under mu, readable without it
	state atomic.Int32
}

// New creates a stopped session that builds hooks with factory.
// name is only used in log lines.
func New(name string, factory native.Factory) *Session {
	if factory == nil {
		factory = native.DefaultFactory()
	}
	return &Session{name: name, factory: factory}
}

// Start installs a new hook bound to handler.
// It fails with ErrAlreadyRunning if a hook is already held.
func (s *Session) Start(handler native.Handler) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.hook != nil {
		return ErrAlreadyRunning
	}

	s.state.Store(int32(Starting))
	hook := s.factory()
	if err := hook.RunAsync(handler); err != nil {
		s.state.Store(int32(Stopped))
		return fmt.Errorf("failed to start hook: %w", err)
	}

	s.hook = hook
	s.state.Store(int32(Running))
	log.Printf("Session: %s capture started", s.name)
	return nil
}

// Stop uninstalls the hook if one is held. The session ends up Stopped even
// when the native stop fails; that failure is returned.
func (s *Session) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	hook := s.hook
	s.hook = nil
	s.state.Store(int32(Stopped))
	if hook == nil {
		return nil
	}

	if err := hook.Stop(); err != nil {
		log.Printf("Session: %s failed to stop hook: %v", s.name, err)
		return fmt.Errorf("failed to stop hook: %w", err)
	}
	log.Printf("Session: %s capture stopped", s.name)
	return nil
}

// IsRunning reports whether a hook is held and still delivering events
func (s *Session) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hook != nil && s.hook.IsRunning()
}

// State returns the current lifecycle state
func (s *Session) State() State {
	return State(s.state.Load())
}
