// Package dispatch routes native input events to per-category consumer callbacks.
package dispatch

import (
	"sync"
	"sync/atomic"

	"inputhook/internal/boundary"
	"inputhook/internal/event"
	"inputhook/internal/mask"
)

// Slot names a routable callback registration point
type Slot int

const (
	SlotKeyDown Slot = iota
	SlotKeyUp
	SlotMouseDown
	SlotMouseUp
	SlotClick
	SlotMouseMove
	SlotWheel

	numSlots = 7
)

var slotNames = [numSlots]string{"key-down", "key-up", "mouse-down", "mouse-up", "click", "mouse-move", "wheel"}

func (s Slot) String() string {
	if s >= 0 && int(s) < numSlots {
		return slotNames[s]
	}
	return "unknown"
}

// slotBits is the category mask each slot contributes when populated
var slotBits = [numSlots]mask.Mask{
	SlotKeyDown:   mask.Bit(event.KeyPressed),
	SlotKeyUp:     mask.Bit(event.KeyReleased),
	SlotMouseDown: mask.Bit(event.MousePressed),
	SlotMouseUp:   mask.Bit(event.MouseReleased),
	SlotClick:     mask.Bit(event.MouseClicked),
	SlotMouseMove: mask.MouseMovement,
	SlotWheel:     mask.MouseWheel,
}

// Bits returns the categories routed to s
func (s Slot) Bits() mask.Mask {
	if s >= 0 && int(s) < numSlots {
		return slotBits[s]
	}
	return mask.None
}

// SlotFor returns the slot that receives category c.
// HookEnabled, HookDisabled and KeyTyped have no slot.
func SlotFor(c event.Category) (Slot, bool) {
	switch c {
	case event.KeyPressed:
		return SlotKeyDown, true
	case event.KeyReleased:
		return SlotKeyUp, true
	case event.MousePressed:
		return SlotMouseDown, true
	case event.MouseReleased:
		return SlotMouseUp, true
	case event.MouseClicked:
		return SlotClick, true
	case event.MouseMoved, event.MouseDragged:
		return SlotMouseMove, true
	case event.MouseWheel:
		return SlotWheel, true
	}
	return 0, false
}

// slots holds one optional callback per Slot
type slots struct {
	keyDown   *boundary.Func[event.KeyboardEvent]
	keyUp     *boundary.Func[event.KeyboardEvent]
	mouseDown *boundary.Func[event.MouseButtonEvent]
	mouseUp   *boundary.Func[event.MouseButtonEvent]
	click     *boundary.Func[event.MouseButtonEvent]
	mouseMove *boundary.Func[event.MouseMoveEvent]
	wheel     *boundary.Func[event.WheelEvent]
}

func (s *slots) populated(slot Slot) bool {
	switch slot {
	case SlotKeyDown:
		return s.keyDown != nil
	case SlotKeyUp:
		return s.keyUp != nil
	case SlotMouseDown:
		return s.mouseDown != nil
	case SlotMouseUp:
		return s.mouseUp != nil
	case SlotClick:
		return s.click != nil
	case SlotMouseMove:
		return s.mouseMove != nil
	case SlotWheel:
		return s.wheel != nil
	}
	return false
}

func (s *slots) clear(slot Slot) {
	switch slot {
	case SlotKeyDown:
		s.keyDown = nil
	case SlotKeyUp:
		s.keyUp = nil
	case SlotMouseDown:
		s.mouseDown = nil
	case SlotMouseUp:
		s.mouseUp = nil
	case SlotClick:
		s.click = nil
	case SlotMouseMove:
		s.mouseMove = nil
	case SlotWheel:
		s.wheel = nil
	}
}

func (s *slots) derivedMask() mask.Mask {
	var m mask.Mask
	for slot := Slot(0); slot < numSlots; slot++ {
		if s.populated(slot) {
			m |= slotBits[slot]
		}
	}
	return m
}

// Registry stores the slot callbacks and publishes the mask derived from them.
// The published mask always equals the union of the bits of populated slots.
type Registry struct {
	mu        sync.Mutex
	slots     slots
	published atomic.Uint32
}

// NewRegistry creates an empty registry; its mask is zero
func NewRegistry() *Registry {
	return &Registry{}
}

// update applies fn to the slots and republishes the mask under one lock
func (r *Registry) update(fn func(s *slots)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn(&r.slots)
	r.published.Store(uint32(r.slots.derivedMask()))
}

// SetKeyDown replaces the key-down callback
func (r *Registry) SetKeyDown(f *boundary.Func[event.KeyboardEvent]) {
	r.update(func(s *slots) { s.keyDown = f })
}

// SetKeyUp replaces the key-up callback
func (r *Registry) SetKeyUp(f *boundary.Func[event.KeyboardEvent]) {
	r.update(func(s *slots) { s.keyUp = f })
}

// SetMouseDown replaces the mouse-down callback
func (r *Registry) SetMouseDown(f *boundary.Func[event.MouseButtonEvent]) {
	r.update(func(s *slots) { s.mouseDown = f })
}

// SetMouseUp replaces the mouse-up callback
func (r *Registry) SetMouseUp(f *boundary.Func[event.MouseButtonEvent]) {
	r.update(func(s *slots) { s.mouseUp = f })
}

// SetClick replaces the click callback
func (r *Registry) SetClick(f *boundary.Func[event.MouseButtonEvent]) {
	r.update(func(s *slots) { s.click = f })
}

// SetMouseMove replaces the mouse-move callback (moved and dragged)
func (r *Registry) SetMouseMove(f *boundary.Func[event.MouseMoveEvent]) {
	r.update(func(s *slots) { s.mouseMove = f })
}

// SetWheel replaces the wheel callback
func (r *Registry) SetWheel(f *boundary.Func[event.WheelEvent]) {
	r.update(func(s *slots) { s.wheel = f })
}

// Clear empties one slot. Clearing an empty slot is a no-op.
func (r *Registry) Clear(slot Slot) {
	r.update(func(s *slots) { s.clear(slot) })
}

// ClearAll empties every slot; the mask becomes zero
func (r *Registry) ClearAll() {
	r.update(func(s *slots) { *s = slots{} })
}

// Mask returns the last published mask
func (r *Registry) Mask() mask.Mask {
	return mask.Mask(r.published.Load())
}

// Populated reports whether slot currently has a callback
func (r *Registry) Populated(slot Slot) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.slots.populated(slot)
}
