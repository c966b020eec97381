package dispatch

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"inputhook/internal/boundary"
	"inputhook/internal/event"
	"inputhook/internal/mask"
)

func setSlot(r *Registry, loop *boundary.Loop, slot Slot) {
	switch slot {
	case SlotKeyDown:
		r.SetKeyDown(boundary.NewFunc(loop, func(event.KeyboardEvent) {}))
	case SlotKeyUp:
		r.SetKeyUp(boundary.NewFunc(loop, func(event.KeyboardEvent) {}))
	case SlotMouseDown:
		r.SetMouseDown(boundary.NewFunc(loop, func(event.MouseButtonEvent) {}))
	case SlotMouseUp:
		r.SetMouseUp(boundary.NewFunc(loop, func(event.MouseButtonEvent) {}))
	case SlotClick:
		r.SetClick(boundary.NewFunc(loop, func(event.MouseButtonEvent) {}))
	case SlotMouseMove:
		r.SetMouseMove(boundary.NewFunc(loop, func(event.MouseMoveEvent) {}))
	case SlotWheel:
		r.SetWheel(boundary.NewFunc(loop, func(event.WheelEvent) {}))
	}
}

func TestRegistryEmptyMask(t *testing.T) {
	r := NewRegistry()
	assert.Equal(t, mask.None, r.Mask())
}

func TestRegistryMouseMoveCoversTwoBits(t *testing.T) {
	r := NewRegistry()
	setSlot(r, boundary.NewLoop(1), SlotMouseMove)
	assert.Equal(t, mask.Bit(event.MouseMoved)|mask.Bit(event.MouseDragged), r.Mask())
}

func TestRegistryMaskMatchesPopulatedSlots(t *testing.T) {
	loop := boundary.NewLoop(1)
	r := NewRegistry()
	rng := rand.New(rand.NewSource(1))
	populated := map[Slot]bool{}

	for i := 0; i < 500; i++ {
		slot := Slot(rng.Intn(numSlots))
		switch rng.Intn(5) {
		case 0, 1:
			setSlot(r, loop, slot)
			populated[slot] = true
		case 2, 3:
			r.Clear(slot)
			delete(populated, slot)
		case 4:
			r.ClearAll()
			populated = map[Slot]bool{}
		}

		var want mask.Mask
		for s := range populated {
			want |= s.Bits()
		}
		assert.Equal(t, want, r.Mask(), "step %d", i)
		for s := Slot(0); s < numSlots; s++ {
			assert.Equal(t, populated[s], r.Populated(s))
		}
	}
}

func TestRegistryClearIsIdempotent(t *testing.T) {
	r := NewRegistry()
	loop := boundary.NewLoop(1)
	setSlot(r, loop, SlotWheel)
	setSlot(r, loop, SlotKeyDown)
	r.Clear(SlotWheel)
	r.Clear(SlotWheel)
	assert.Equal(t, mask.Bit(event.KeyPressed), r.Mask())

	r.ClearAll()
	assert.Equal(t, mask.None, r.Mask())
}

func TestSlotFor(t *testing.T) {
	tests := []struct {
		cat  event.Category
		slot Slot
		ok   bool
	}{
		{event.KeyPressed, SlotKeyDown, true},
		{event.KeyReleased, SlotKeyUp, true},
		{event.MousePressed, SlotMouseDown, true},
		{event.MouseReleased, SlotMouseUp, true},
		{event.MouseClicked, SlotClick, true},
		{event.MouseMoved, SlotMouseMove, true},
		{event.MouseDragged, SlotMouseMove, true},
		{event.MouseWheel, SlotWheel, true},
		{event.HookEnabled, 0, false},
		{event.HookDisabled, 0, false},
		{event.KeyTyped, 0, false},
	}
	for _, tt := range tests {
		slot, ok := SlotFor(tt.cat)
		assert.Equal(t, tt.ok, ok, tt.cat.String())
		if tt.ok {
			assert.Equal(t, tt.slot, slot, tt.cat.String())
			assert.True(t, slot.Bits().Has(tt.cat))
		}
	}
}
