package session

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inputhook/internal/event"
	"inputhook/internal/native"
)

func noop(*event.Event) {}

func TestStartStop(t *testing.T) {
	s := New("test", native.SyntheticFactory(nil))
	assert.False(t, s.IsRunning())
	assert.Equal(t, Stopped, s.State())

	require.NoError(t, s.Start(noop))
	assert.True(t, s.IsRunning())
	assert.Equal(t, Running, s.State())

	err := s.Start(noop)
	assert.ErrorIs(t, err, ErrAlreadyRunning)
	assert.True(t, s.IsRunning())

	require.NoError(t, s.Stop())
	assert.False(t, s.IsRunning())
	assert.Equal(t, Stopped, s.State())

	// Stopping twice is a no-op
	require.NoError(t, s.Stop())

	// A stopped session can be started again
	require.NoError(t, s.Start(noop))
	require.NoError(t, s.Stop())
}

func TestStartFailureIsWrapped(t *testing.T) {
	boom := errors.New("hook install failed")
	s := New("test", func() native.Hook {
		h := native.NewSynthetic()
		h.StartErr = boom
		return h
	})

	err := s.Start(noop)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "failed to start hook")
	assert.False(t, s.IsRunning())
	assert.Equal(t, Stopped, s.State())
}

func TestStopFailureStillStops(t *testing.T) {
	boom := errors.New("unhook failed")
	var hook *native.Synthetic
	s := New("test", func() native.Hook {
		hook = native.NewSynthetic()
		return hook
	})
	require.NoError(t, s.Start(noop))
	hook.StopErr = boom

	err := s.Stop()
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "failed to stop hook")
	assert.False(t, s.IsRunning())
	require.NoError(t, s.Stop())

	// Clean up the underlying goroutine
	hook.StopErr = nil
	require.NoError(t, hook.Stop())
}

func TestConcurrentStartOnlyOneWins(t *testing.T) {
	for i := 0; i < 50; i++ {
		var created atomic.Int32
		s := New("race", func() native.Hook {
			created.Add(1)
			return native.NewSynthetic()
		})

		const callers = 2
		var wg sync.WaitGroup
		errs := make([]error, callers)
		start := make(chan struct{})
		for j := 0; j < callers; j++ {
			wg.Add(1)
			go func(j int) {
				defer wg.Done()
				<-start
				errs[j] = s.Start(noop)
			}(j)
		}
		close(start)
		wg.Wait()

		var ok, already int
		for _, err := range errs {
			switch {
			case err == nil:
				ok++
			case errors.Is(err, ErrAlreadyRunning):
				already++
			default:
				t.Fatalf("unexpected error: %v", err)
			}
		}
		assert.Equal(t, 1, ok)
		assert.Equal(t, 1, already)
		assert.Equal(t, int32(1), created.Load(), "exactly one capture thread should exist")
		require.NoError(t, s.Stop())
	}
}

func TestUnsupportedPlatformStartFails(t *testing.T) {
	s := New("stub", func() native.Hook {
		h := native.NewSynthetic()
		h.StartErr = native.ErrUnsupportedPlatform
		return h
	})
	assert.ErrorIs(t, s.Start(noop), native.ErrUnsupportedPlatform)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "stopped", Stopped.String())
	assert.Equal(t, "starting", Starting.String())
	assert.Equal(t, "running", Running.String())
}
