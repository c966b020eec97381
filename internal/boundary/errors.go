package boundary

import "errors"

var (
	// ErrQueueFull is returned when the loop has no room for another invocation
	ErrQueueFull = errors.New("callback queue full")

	// ErrClosed is returned after the loop has been closed
	ErrClosed = errors.New("callback loop closed")
)
