// Package listener provides the single-callback capture mode: every event whose
// category passes a caller supplied mask is delivered to one consumer.
package listener

import (
	"sync/atomic"

	"inputhook/internal/boundary"
	"inputhook/internal/event"
	"inputhook/internal/mask"
	"inputhook/internal/native"
	"inputhook/internal/session"
)

// Listener is a running generic capture session
type Listener struct {
	fn      *boundary.Func[event.Record]
	filter  atomic.Uint32
	session *session.Session

	delivered atomic.Uint64
	dropped   atomic.Uint64
}

// StartListen starts capture and delivers every event passing m to fn on loop.
// A nil or zero mask selects every category.
func StartListen(loop *boundary.Loop, factory native.Factory, fn func(event.Record), m *mask.Mask) (*Listener, error) {
	l := &Listener{
		fn:      boundary.NewFunc(loop, fn),
		session: session.New("listener", factory),
	}
	initial := mask.All
	if m != nil {
		initial = *m
	}
	l.SetEventMask(initial)

	if err := l.session.Start(l.handle); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *Listener) handle(ev *event.Event) {
	if !mask.Test(mask.Mask(l.filter.Load()), ev.Category) {
		return
	}
	if err := l.fn.Call(event.NewRecord(ev)); err != nil {
		l.dropped.Add(1)
		return
	}
	l.delivered.Add(1)
}

// SetEventMask replaces the filter without restarting capture.
// Zero selects every category.
func (l *Listener) SetEventMask(m mask.Mask) {
	m &= mask.All
	if m == mask.None {
		m = mask.All
	}
	l.filter.Store(uint32(m))
}

// EventMask returns the current filter
func (l *Listener) EventMask() mask.Mask {
	return mask.Mask(l.filter.Load())
}

// Stop ends capture. Stopping twice is a no-op.
func (l *Listener) Stop() error {
	return l.session.Stop()
}

// IsRunning reports whether capture is active
func (l *Listener) IsRunning() bool {
	return l.session.IsRunning()
}

// Delivered returns how many records were queued for the consumer
func (l *Listener) Delivered() uint64 {
	return l.delivered.Load()
}

// Dropped returns how many records could not be queued
func (l *Listener) Dropped() uint64 {
	return l.dropped.Load()
}
