package main

import (
	"sync"

	"inputhook/internal/boundary"
	"inputhook/internal/config"
	"inputhook/internal/dispatch"
	"inputhook/internal/event"
	"inputhook/internal/hotkey"
	"inputhook/internal/listener"
	"inputhook/internal/mask"
	"inputhook/internal/native"
	"inputhook/internal/protocol"
	"inputhook/internal/session"
	"inputhook/internal/tray"
)

type sinkFunc func(c event.Category, payload any)

// controller is a capture mode as seen by the tray and the status API
type controller interface {
	Start() error
	Stop() error
	IsRunning() bool
	Status() protocol.StatusPayload
	StatusLine() string
}

// newCapture builds the capture mode selected by cfg. When keys is set it
// sees every key and mouse button transition, whatever the mask.
func newCapture(cfg config.Config, loop *boundary.Loop, factory native.Factory, keys *hotkey.Manager, sink sinkFunc) (controller, error) {
	m, err := cfg.Mask()
	if err != nil {
		return nil, err
	}
	if cfg.Capture.Mode == config.ModeGeneric {
		return &genericCapture{loop: loop, factory: factory, keys: keys, sink: sink, mask: m}, nil
	}
	return newRoutedCapture(loop, factory, keys, sink, m), nil
}

// hotkeyMask lists the categories the hotkey manager needs to track
const hotkeyMask mask.Mask = 1<<event.KeyPressed | 1<<event.KeyReleased |
	1<<event.MousePressed | 1<<event.MouseReleased

// routedCapture registers one callback per slot that intersects the mask,
// plus the key and button slots when hotkeys are tracked
type routedCapture struct {
	hook *dispatch.InputHook
	mask mask.Mask
}

func newRoutedCapture(loop *boundary.Loop, factory native.Factory, keys *hotkey.Manager, sink sinkFunc, m mask.Mask) *routedCapture {
	h := dispatch.New(loop, factory)
	wants := func(s dispatch.Slot) bool { return s.Bits()&m != 0 }

	// forward feeds keys and passes the payload on when the slot was asked for
	forward := func(s dispatch.Slot, c event.Category, payload any) {
		if keys != nil {
			keys.Observe(c, payload)
		}
		if wants(s) {
			sink(c, payload)
		}
	}
	needs := func(s dispatch.Slot) bool {
		return wants(s) || (keys != nil && s.Bits()&hotkeyMask != 0)
	}

	if needs(dispatch.SlotKeyDown) {
		h.OnKeyDown(func(e event.KeyboardEvent) { forward(dispatch.SlotKeyDown, event.KeyPressed, e) })
	}
	if needs(dispatch.SlotKeyUp) {
		h.OnKeyUp(func(e event.KeyboardEvent) { forward(dispatch.SlotKeyUp, event.KeyReleased, e) })
	}
	if needs(dispatch.SlotMouseDown) {
		h.OnMouseDown(func(e event.MouseButtonEvent) { forward(dispatch.SlotMouseDown, event.MousePressed, e) })
	}
	if needs(dispatch.SlotMouseUp) {
		h.OnMouseUp(func(e event.MouseButtonEvent) { forward(dispatch.SlotMouseUp, event.MouseReleased, e) })
	}
	if wants(dispatch.SlotClick) {
		h.OnClick(func(e event.MouseButtonEvent) { sink(event.MouseClicked, e) })
	}
	if wants(dispatch.SlotMouseMove) {
		h.OnMouseMove(func(e event.MouseMoveEvent) { sink(event.MouseMoved, e) })
	}
	if wants(dispatch.SlotWheel) {
		h.OnWheel(func(e event.WheelEvent) { sink(event.MouseWheel, e) })
	}
	return &routedCapture{hook: h, mask: m}
}

func (r *routedCapture) Start() error    { return r.hook.Start() }
func (r *routedCapture) Stop() error     { return r.hook.Stop() }
func (r *routedCapture) IsRunning() bool { return r.hook.IsRunning() }

func (r *routedCapture) Status() protocol.StatusPayload {
	st := r.hook.Stats()
	return protocol.StatusPayload{
		Running:   r.hook.IsRunning(),
		State:     r.hook.State().String(),
		Mask:      r.mask.String(),
		Rejected:  st.Rejected,
		Routed:    st.Routed,
		Delivered: st.Delivered,
		Dropped:   st.Dropped,
	}
}

func (r *routedCapture) StatusLine() string {
	st := r.hook.Stats()
	return tray.Describe(r.hook.State().String(), st.Delivered, st.Dropped)
}

// genericCapture runs a listener that can be restarted from the tray
type genericCapture struct {
	loop    *boundary.Loop
	factory native.Factory
	keys    *hotkey.Manager
	sink    sinkFunc
	mask    mask.Mask

	mu sync.Mutex
	l  *listener.Listener
}

func (g *genericCapture) Start() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.l != nil {
		return session.ErrAlreadyRunning
	}
	requested := g.mask
	if requested == mask.None {
		requested = mask.All
	}
	listen := requested
	if g.keys != nil {
		listen |= hotkeyMask
	}
	l, err := listener.StartListen(g.loop, g.factory, func(r event.Record) {
		if g.keys != nil {
			g.keys.Observe(r.Category, r)
		}
		if requested.Has(r.Category) {
			g.sink(r.Category, r)
		}
	}, &listen)
	if err != nil {
		return err
	}
	g.l = l
	return nil
}

func (g *genericCapture) Stop() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.l == nil {
		return nil
	}
	err := g.l.Stop()
	g.l = nil
	return err
}

func (g *genericCapture) IsRunning() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.l != nil && g.l.IsRunning()
}

func (g *genericCapture) Status() protocol.StatusPayload {
	g.mu.Lock()
	defer g.mu.Unlock()
	st := protocol.StatusPayload{State: session.Stopped.String(), Mask: g.mask.String()}
	if g.l != nil {
		st.Running = g.l.IsRunning()
		st.State = session.Running.String()
		st.Delivered = g.l.Delivered()
		st.Dropped = g.l.Dropped()
	}
	return st
}

func (g *genericCapture) StatusLine() string {
	st := g.Status()
	return tray.Describe(st.State, st.Delivered, st.Dropped)
}
