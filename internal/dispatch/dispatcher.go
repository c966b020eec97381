package dispatch

import (
	"sync/atomic"

	"inputhook/internal/event"
	"inputhook/internal/mask"
)

// Stats counts what the dispatcher did with the events it was handed
type Stats struct {
	// Rejected events failed the mask check and never touched the registry
	Rejected uint64
	// Routed events passed the mask check and entered the registry branch
	Routed uint64
	// Delivered events were queued on a consumer loop
	Delivered uint64
	// Dropped events were routed but not queued (no slot, no payload, queue full or closed)
	Dropped uint64
}

// Dispatcher turns one native event into at most one consumer invocation
type Dispatcher struct {
	reg *Registry

	rejected  atomic.Uint64
	routed    atomic.Uint64
	delivered atomic.Uint64
	dropped   atomic.Uint64
}

// NewDispatcher creates a dispatcher reading slots and mask from reg
func NewDispatcher(reg *Registry) *Dispatcher {
	return &Dispatcher{reg: reg}
}

// Handle dispatches ev. It is called on the capture thread and never blocks
// on consumers: the registry lock is released before the callback is queued.
func (d *Dispatcher) Handle(ev *event.Event) {
	if !mask.Test(d.reg.Mask(), ev.Category) {
		d.rejected.Add(1)
		return
	}
	d.routed.Add(1)

	send := d.prepare(ev)
	if send == nil {
		d.dropped.Add(1)
		return
	}
	if err := send(); err != nil {
		d.dropped.Add(1)
		return
	}
	d.delivered.Add(1)
}

// prepare reads the destination slot and shapes its payload under the
// registry lock. It returns nil when there is nothing to deliver.
func (d *Dispatcher) prepare(ev *event.Event) func() error {
	slot, ok := SlotFor(ev.Category)
	if !ok {
		return nil
	}
	t := event.Seconds(ev.Time)

	d.reg.mu.Lock()
	defer d.reg.mu.Unlock()
	s := &d.reg.slots

	switch slot {
	case SlotKeyDown, SlotKeyUp:
		f := s.keyDown
		if slot == SlotKeyUp {
			f = s.keyUp
		}
		if f == nil || ev.Keyboard == nil {
			return nil
		}
		p := event.KeyboardEvent{Key: ev.Keyboard.Key, RawCode: ev.Keyboard.RawCode, Time: t}
		return func() error { return f.Call(p) }

	case SlotMouseDown, SlotMouseUp, SlotClick:
		f := s.mouseDown
		switch slot {
		case SlotMouseUp:
			f = s.mouseUp
		case SlotClick:
			f = s.click
		}
		if f == nil || ev.Mouse == nil {
			return nil
		}
		p := event.MouseButtonEvent{X: ev.Mouse.X, Y: ev.Mouse.Y, Button: ev.Mouse.ButtonOrLeft(), Time: t}
		return func() error { return f.Call(p) }

	case SlotMouseMove:
		f := s.mouseMove
		if f == nil || ev.Mouse == nil {
			return nil
		}
		p := event.MouseMoveEvent{X: ev.Mouse.X, Y: ev.Mouse.Y, Time: t}
		return func() error { return f.Call(p) }

	case SlotWheel:
		f := s.wheel
		if f == nil || ev.Wheel == nil {
			return nil
		}
		p := event.WheelEvent{X: ev.Wheel.X, Y: ev.Wheel.Y, Direction: ev.Wheel.Direction, Delta: ev.Wheel.Delta, Time: t}
		return func() error { return f.Call(p) }
	}
	return nil
}

// Stats returns a snapshot of the dispatch counters
func (d *Dispatcher) Stats() Stats {
	return Stats{
		Rejected:  d.rejected.Load(),
		Routed:    d.routed.Load(),
		Delivered: d.delivered.Load(),
		Dropped:   d.dropped.Load(),
	}
}
