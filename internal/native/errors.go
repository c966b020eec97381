package native

import "errors"

var (
	// ErrUnsupportedPlatform is returned when no native capture backend exists for this OS
	ErrUnsupportedPlatform = errors.New("input capture not supported on this platform")

	// ErrAlreadyRunning is returned by RunAsync on a hook that is already delivering events
	ErrAlreadyRunning = errors.New("hook already running")

	// ErrNotRunning is returned when stopping or feeding a hook that is not running
	ErrNotRunning = errors.New("hook not running")
)
