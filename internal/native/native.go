// Package native defines the capture collaborator that produces raw input events,
// plus the backends that implement it.
package native

import "inputhook/internal/event"

// Handler is invoked on the capture thread once per event. It must return promptly.
// The native layer never invokes a Handler concurrently with itself.
type Handler func(ev *event.Event)

// Hook is one capture session of the native layer
type Hook interface {
	// RunAsync installs the hook and begins delivering events to h on a
	// dedicated capture thread until Stop is called.
	RunAsync(h Handler) error
	// Stop uninstalls the hook. Events are no longer delivered once it returns.
	Stop() error
	IsRunning() bool
}

// Factory creates a fresh, not yet running Hook
type Factory func() Hook

// DefaultFactory returns the factory for the current platform
func DefaultFactory() Factory {
	return func() Hook { return NewPlatform() }
}
