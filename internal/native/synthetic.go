package native

import (
	"sync"
	"sync/atomic"
	"time"

	"inputhook/internal/event"
)

// Synthetic is an in-process Hook whose events are supplied by Emit.
// It behaves like a native hook: events are delivered serially on one goroutine,
// HookEnabled is delivered first and HookDisabled last.
type Synthetic struct {
	// StartErr and StopErr, when set, make RunAsync and Stop fail
	StartErr error
	StopErr  error

	mu      sync.Mutex
	running atomic.Bool
	in      chan syntheticItem
	quit    chan struct{}
	exited  chan struct{}
}

type syntheticItem struct {
	ev  *event.Event
	ack chan struct{}
}

// NewSynthetic creates a stopped synthetic hook
func NewSynthetic() *Synthetic {
	return &Synthetic{}
}

// SyntheticFactory returns a Factory producing synthetic hooks.
// Each created hook is also sent to created, if non-nil, so tests can drive it.
func SyntheticFactory(created chan<- *Synthetic) Factory {
	return func() Hook {
		s := NewSynthetic()
		if created != nil {
			created <- s
		}
		return s
	}
}

// RunAsync starts the capture goroutine
func (s *Synthetic) RunAsync(h Handler) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.StartErr != nil {
		return s.StartErr
	}
	if s.running.Load() {
		return ErrAlreadyRunning
	}

	s.in = make(chan syntheticItem, 64)
	s.quit = make(chan struct{})
	s.exited = make(chan struct{})
	s.running.Store(true)

	go s.capture(h, s.in, s.quit, s.exited)
	return nil
}

func (s *Synthetic) capture(h Handler, in <-chan syntheticItem, quit <-chan struct{}, exited chan<- struct{}) {
	defer close(exited)

	h(&event.Event{Category: event.HookEnabled, Time: time.Now()})
	for {
		select {
		case item := <-in:
			if item.ev != nil {
				h(item.ev)
			}
			if item.ack != nil {
				close(item.ack)
			}
		case <-quit:
			h(&event.Event{Category: event.HookDisabled, Time: time.Now()})
			return
		}
	}
}

// Stop ends capture and waits for the capture goroutine to exit.
// Events queued but not yet delivered are discarded.
func (s *Synthetic) Stop() error {
	s.mu.Lock()
	if s.StopErr != nil {
		s.mu.Unlock()
		return s.StopErr
	}
	if !s.running.Load() {
		s.mu.Unlock()
		return nil
	}
	close(s.quit)
	exited := s.exited
	s.running.Store(false)
	s.mu.Unlock()

	<-exited
	return nil
}

// IsRunning reports whether the capture goroutine is active
func (s *Synthetic) IsRunning() bool {
	return s.running.Load()
}

// Emit queues ev for delivery on the capture goroutine.
func (s *Synthetic) Emit(ev *event.Event) error {
	_, err := s.send(syntheticItem{ev: ev})
	return err
}

// Feed emits every event in order
func (s *Synthetic) Feed(evs ...*event.Event) error {
	for _, ev := range evs {
		if err := s.Emit(ev); err != nil {
			return err
		}
	}
	return nil
}

// Sync blocks until every event emitted before the call has been handled.
func (s *Synthetic) Sync() error {
	ack := make(chan struct{})
	exited, err := s.send(syntheticItem{ack: ack})
	if err != nil {
		return err
	}
	select {
	case <-ack:
		return nil
	case <-exited:
		return ErrNotRunning
	}
}

func (s *Synthetic) send(item syntheticItem) (<-chan struct{}, error) {
	s.mu.Lock()
	in, quit, exited := s.in, s.quit, s.exited
	running := s.running.Load()
	s.mu.Unlock()

	if !running {
		return nil, ErrNotRunning
	}
	select {
	case in <- item:
		return exited, nil
	case <-quit:
		return nil, ErrNotRunning
	}
}
