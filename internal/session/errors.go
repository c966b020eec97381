package session

import "errors"

// ErrAlreadyRunning is returned by Start while a capture session is active
var ErrAlreadyRunning = errors.New("hook is already running")
