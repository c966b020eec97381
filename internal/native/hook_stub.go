//go:build !windows

package native

// Stub implementation for platforms without a native capture backend

type unsupportedHook struct{}

// NewPlatform returns a hook that cannot be started on this platform
func NewPlatform() Hook {
	return unsupportedHook{}
}

func (unsupportedHook) RunAsync(Handler) error {
	return ErrUnsupportedPlatform
}

func (unsupportedHook) Stop() error {
	return nil
}

func (unsupportedHook) IsRunning() bool {
	return false
}
