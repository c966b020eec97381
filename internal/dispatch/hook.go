package dispatch

import (
	"inputhook/internal/boundary"
	"inputhook/internal/event"
	"inputhook/internal/mask"
	"inputhook/internal/native"
	"inputhook/internal/session"
)

// InputHook dispatches native events to typed per-category callbacks.
// Only categories with a registered callback leave the capture thread; the
// event mask is derived from the populated slots.
//
//	h := dispatch.New(loop, native.DefaultFactory())
//	h.OnKeyDown(func(e event.KeyboardEvent) { fmt.Println(e.Key) })
//	h.OnMouseMove(func(e event.MouseMoveEvent) { fmt.Println(e.X, e.Y) })
//	if err := h.Start(); err != nil { ... }
//	defer h.Stop()
type InputHook struct {
	loop       *boundary.Loop
	registry   *Registry
	dispatcher *Dispatcher
	session    *session.Session
}

// New creates a stopped InputHook. Callbacks run on loop; factory builds the
// native capture session on Start.
func New(loop *boundary.Loop, factory native.Factory) *InputHook {
	reg := NewRegistry()
	return &InputHook{
		loop:       loop,
		registry:   reg,
		dispatcher: NewDispatcher(reg),
		session:    session.New("input hook", factory),
	}
}

// OnKeyDown registers fn for key presses, replacing any previous callback
func (h *InputHook) OnKeyDown(fn func(event.KeyboardEvent)) {
	h.registry.SetKeyDown(boundary.NewFunc(h.loop, fn))
}

// OnKeyUp registers fn for key releases
func (h *InputHook) OnKeyUp(fn func(event.KeyboardEvent)) {
	h.registry.SetKeyUp(boundary.NewFunc(h.loop, fn))
}

// OnMouseDown registers fn for mouse button presses
func (h *InputHook) OnMouseDown(fn func(event.MouseButtonEvent)) {
	h.registry.SetMouseDown(boundary.NewFunc(h.loop, fn))
}

// OnMouseUp registers fn for mouse button releases
func (h *InputHook) OnMouseUp(fn func(event.MouseButtonEvent)) {
	h.registry.SetMouseUp(boundary.NewFunc(h.loop, fn))
}

// OnClick registers fn for mouse clicks
func (h *InputHook) OnClick(fn func(event.MouseButtonEvent)) {
	h.registry.SetClick(boundary.NewFunc(h.loop, fn))
}

// OnMouseMove registers fn for mouse movement, dragging included
func (h *InputHook) OnMouseMove(fn func(event.MouseMoveEvent)) {
	h.registry.SetMouseMove(boundary.NewFunc(h.loop, fn))
}

// OnWheel registers fn for wheel events
func (h *InputHook) OnWheel(fn func(event.WheelEvent)) {
	h.registry.SetWheel(boundary.NewFunc(h.loop, fn))
}

func (h *InputHook) OffKeyDown()   { h.registry.Clear(SlotKeyDown) }
func (h *InputHook) OffKeyUp()     { h.registry.Clear(SlotKeyUp) }
func (h *InputHook) OffMouseDown() { h.registry.Clear(SlotMouseDown) }
func (h *InputHook) OffMouseUp()   { h.registry.Clear(SlotMouseUp) }
func (h *InputHook) OffClick()     { h.registry.Clear(SlotClick) }
func (h *InputHook) OffMouseMove() { h.registry.Clear(SlotMouseMove) }
func (h *InputHook) OffWheel()     { h.registry.Clear(SlotWheel) }

// RemoveAllListeners clears every callback
func (h *InputHook) RemoveAllListeners() {
	h.registry.ClearAll()
}

// Start begins capture. It fails with session.ErrAlreadyRunning when capture
// is already active, or with the wrapped native error.
func (h *InputHook) Start() error {
	return h.session.Start(h.dispatcher.Handle)
}

// Stop ends capture. Stopping a stopped hook is a no-op.
func (h *InputHook) Stop() error {
	return h.session.Stop()
}

// IsRunning reports whether capture is active
func (h *InputHook) IsRunning() bool {
	return h.session.IsRunning()
}

// EventMask returns the live aggregate mask
func (h *InputHook) EventMask() mask.Mask {
	return h.registry.Mask()
}

// Stats returns the dispatch counters
func (h *InputHook) Stats() Stats {
	return h.dispatcher.Stats()
}

// State returns the capture session state
func (h *InputHook) State() session.State {
	return h.session.State()
}
