package dispatch

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inputhook/internal/boundary"
	"inputhook/internal/event"
	"inputhook/internal/native"
)

func startLoop(t *testing.T, size int) *boundary.Loop {
	t.Helper()
	loop := boundary.NewLoop(size)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	loop.Start(ctx)
	return loop
}

// newTestHook returns an InputHook driven by a synthetic native hook
func newTestHook(t *testing.T, loop *boundary.Loop) (*InputHook, func() *native.Synthetic) {
	t.Helper()
	created := make(chan *native.Synthetic, 4)
	h := New(loop, native.SyntheticFactory(created))
	t.Cleanup(func() { _ = h.Stop() })
	return h, func() *native.Synthetic {
		select {
		case s := <-created:
			return s
		case <-time.After(time.Second):
			t.Fatal("no native hook created")
			return nil
		}
	}
}

func keyEvent(cat event.Category, key event.Key, code uint32) *event.Event {
	return &event.Event{
		Category: cat,
		Time:     time.Unix(1700000000, 0),
		Keyboard: &event.KeyboardData{Key: key, RawCode: code},
	}
}

// drain waits until every invocation queued on loop so far has run
func drain(t *testing.T, loop *boundary.Loop) {
	t.Helper()
	done := make(chan struct{})
	require.Eventually(t, func() bool { return loop.Submit(func() { close(done) }) == nil }, time.Second, time.Millisecond)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("loop did not drain")
	}
}

func TestScenarioOnlyRegisteredCategoriesDelivered(t *testing.T) {
	loop := startLoop(t, 64)
	h, source := newTestHook(t, loop)

	var mu sync.Mutex
	var keys []event.KeyboardEvent
	var moves []event.MouseMoveEvent
	h.OnKeyDown(func(e event.KeyboardEvent) {
		mu.Lock()
		keys = append(keys, e)
		mu.Unlock()
	})
	h.OnMouseMove(func(e event.MouseMoveEvent) {
		mu.Lock()
		moves = append(moves, e)
		mu.Unlock()
	})

	require.NoError(t, h.Start())
	src := source()
	require.NoError(t, src.Feed(
		keyEvent(event.KeyPressed, "KeyA", 65),
		&event.Event{Category: event.MouseMoved, Time: time.Unix(1700000001, 0), Mouse: &event.MouseData{X: 10, Y: 20}},
		&event.Event{Category: event.MouseWheel, Wheel: &event.WheelData{X: 1, Y: 1, Direction: event.ScrollDown, Delta: 1}},
		keyEvent(event.KeyReleased, "KeyA", 65),
	))
	require.NoError(t, src.Sync())
	drain(t, loop)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, keys, 1)
	assert.Equal(t, event.KeyboardEvent{Key: "KeyA", RawCode: 65, Time: 1700000000}, keys[0])
	require.Len(t, moves, 1)
	assert.Equal(t, event.MouseMoveEvent{X: 10, Y: 20, Time: 1700000001}, moves[0])

	// HookEnabled, wheel and key-up were all rejected by the mask
	stats := h.Stats()
	assert.Equal(t, uint64(2), stats.Delivered)
	assert.Equal(t, uint64(2), stats.Routed)
	assert.Equal(t, uint64(3), stats.Rejected)
}

func TestFastRejectSkipsRegistry(t *testing.T) {
	loop := boundary.NewLoop(8)
	reg := NewRegistry()
	d := NewDispatcher(reg)

	invoked := false
	reg.SetWheel(boundary.NewFunc(loop, func(event.WheelEvent) { invoked = true }))

	// Hold the registry lock: a rejected event must not need it
	reg.mu.Lock()
	done := make(chan struct{})
	go func() {
		d.Handle(keyEvent(event.KeyPressed, "KeyA", 65))
		d.Handle(&event.Event{Category: event.MouseMoved, Mouse: &event.MouseData{}})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("rejected event blocked on the registry lock")
	}
	reg.mu.Unlock()

	stats := d.Stats()
	assert.Equal(t, uint64(2), stats.Rejected)
	assert.Equal(t, uint64(0), stats.Routed)
	assert.Equal(t, 0, loop.Pending())
	assert.False(t, invoked)
}

func TestOrderPreservedWithinCategory(t *testing.T) {
	loop := startLoop(t, 1024)
	h, source := newTestHook(t, loop)

	const n = 200
	got := make(chan uint32, n)
	h.OnKeyDown(func(e event.KeyboardEvent) { got <- e.RawCode })
	require.NoError(t, h.Start())
	src := source()

	for i := uint32(1); i <= n; i++ {
		require.NoError(t, src.Emit(keyEvent(event.KeyPressed, "KeyA", i)))
	}
	require.NoError(t, src.Sync())

	for i := uint32(1); i <= n; i++ {
		select {
		case code := <-got:
			require.Equal(t, i, code)
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for event %d", i)
		}
	}
}

func TestReplacedCallbackNeverFires(t *testing.T) {
	loop := startLoop(t, 64)
	h, source := newTestHook(t, loop)

	var mu sync.Mutex
	oldCalls, newCalls := 0, 0
	h.OnClick(func(event.MouseButtonEvent) {
		mu.Lock()
		oldCalls++
		mu.Unlock()
	})
	h.OnClick(func(event.MouseButtonEvent) {
		mu.Lock()
		newCalls++
		mu.Unlock()
	})

	require.NoError(t, h.Start())
	src := source()
	for i := 0; i < 5; i++ {
		require.NoError(t, src.Emit(&event.Event{Category: event.MouseClicked, Mouse: &event.MouseData{X: 1, Y: 2}}))
	}
	require.NoError(t, src.Sync())
	drain(t, loop)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 0, oldCalls)
	assert.Equal(t, 5, newCalls)
}

func recvButton(t *testing.T, got <-chan event.MouseButtonEvent) event.MouseButtonEvent {
	t.Helper()
	select {
	case e := <-got:
		return e
	case <-time.After(time.Second):
		t.Fatal("button event not delivered")
		return event.MouseButtonEvent{}
	}
}

func TestMissingButtonDefaultsToLeft(t *testing.T) {
	loop := startLoop(t, 8)
	h, source := newTestHook(t, loop)

	got := make(chan event.MouseButtonEvent, 2)
	h.OnMouseDown(func(e event.MouseButtonEvent) { got <- e })
	h.OnMouseUp(func(e event.MouseButtonEvent) { got <- e })
	require.NoError(t, h.Start())

	right := event.ButtonRight
	src := source()
	require.NoError(t, src.Feed(
		&event.Event{Category: event.MousePressed, Mouse: &event.MouseData{X: 3, Y: 4}},
		&event.Event{Category: event.MouseReleased, Mouse: &event.MouseData{X: 3, Y: 4, Button: &right}},
	))

	first := recvButton(t, got)
	assert.Equal(t, event.ButtonLeft, first.Button)
	assert.Equal(t, 0.0, first.Time, "zero timestamp normalizes to 0")
	second := recvButton(t, got)
	assert.Equal(t, event.ButtonRight, second.Button)
}

func TestDraggedRoutesToMouseMove(t *testing.T) {
	loop := startLoop(t, 8)
	h, source := newTestHook(t, loop)

	got := make(chan event.MouseMoveEvent, 2)
	h.OnMouseMove(func(e event.MouseMoveEvent) { got <- e })
	require.NoError(t, h.Start())
	require.NoError(t, source().Emit(&event.Event{Category: event.MouseDragged, Mouse: &event.MouseData{X: 7, Y: 8}}))

	select {
	case e := <-got:
		assert.Equal(t, 7.0, e.X)
		assert.Equal(t, 8.0, e.Y)
	case <-time.After(time.Second):
		t.Fatal("dragged event not delivered")
	}
}

func TestWheelPayload(t *testing.T) {
	loop := startLoop(t, 8)
	h, source := newTestHook(t, loop)

	got := make(chan event.WheelEvent, 1)
	h.OnWheel(func(e event.WheelEvent) { got <- e })
	require.NoError(t, h.Start())
	require.NoError(t, source().Emit(&event.Event{
		Category: event.MouseWheel,
		Time:     time.Unix(5, 0),
		Wheel:    &event.WheelData{X: 1, Y: 2, Direction: event.ScrollLeft, Delta: 3},
	}))

	select {
	case e := <-got:
		assert.Equal(t, event.WheelEvent{X: 1, Y: 2, Direction: event.ScrollLeft, Delta: 3, Time: 5}, e)
	case <-time.After(time.Second):
		t.Fatal("wheel event not delivered")
	}
}

func TestMalformedEventIsDropped(t *testing.T) {
	loop := boundary.NewLoop(8)
	reg := NewRegistry()
	reg.SetKeyDown(boundary.NewFunc(loop, func(event.KeyboardEvent) {}))
	d := NewDispatcher(reg)

	d.Handle(&event.Event{Category: event.KeyPressed})
	stats := d.Stats()
	assert.Equal(t, uint64(1), stats.Routed)
	assert.Equal(t, uint64(1), stats.Dropped)
	assert.Equal(t, 0, loop.Pending())
}

func TestUnreachableConsumerDoesNotBreakOthers(t *testing.T) {
	live := startLoop(t, 64)
	dead := boundary.NewLoop(1)
	dead.Close()

	reg := NewRegistry()
	d := NewDispatcher(reg)
	got := make(chan event.MouseMoveEvent, 4)
	reg.SetKeyDown(boundary.NewFunc(dead, func(event.KeyboardEvent) { t.Error("closed loop ran a callback") }))
	reg.SetMouseMove(boundary.NewFunc(live, func(e event.MouseMoveEvent) { got <- e }))

	d.Handle(keyEvent(event.KeyPressed, "KeyA", 65))
	d.Handle(&event.Event{Category: event.MouseMoved, Mouse: &event.MouseData{X: 1, Y: 1}})

	select {
	case <-got:
	case <-time.After(time.Second):
		t.Fatal("live consumer starved")
	}
	stats := d.Stats()
	assert.Equal(t, uint64(1), stats.Dropped)
	assert.Equal(t, uint64(1), stats.Delivered)
}

func TestFullQueueDropsWithoutBlocking(t *testing.T) {
	loop := boundary.NewLoop(1) // never run
	reg := NewRegistry()
	reg.SetKeyDown(boundary.NewFunc(loop, func(event.KeyboardEvent) {}))
	d := NewDispatcher(reg)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			d.Handle(keyEvent(event.KeyPressed, "KeyA", uint32(i)))
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("dispatch blocked on a full queue")
	}
	stats := d.Stats()
	assert.Equal(t, uint64(1), stats.Delivered)
	assert.Equal(t, uint64(9), stats.Dropped)
}

func TestCallbackCanRegisterFromHandler(t *testing.T) {
	loop := startLoop(t, 64)
	h, source := newTestHook(t, loop)

	upSeen := make(chan struct{})
	h.OnKeyDown(func(event.KeyboardEvent) {
		h.OnKeyUp(func(event.KeyboardEvent) { close(upSeen) })
		h.OffKeyDown()
	})
	require.NoError(t, h.Start())
	src := source()

	require.NoError(t, src.Emit(keyEvent(event.KeyPressed, "KeyB", 66)))
	require.Eventually(t, func() bool { return h.registry.Populated(SlotKeyUp) }, time.Second, time.Millisecond)
	require.NoError(t, src.Emit(keyEvent(event.KeyReleased, "KeyB", 66)))

	select {
	case <-upSeen:
	case <-time.After(time.Second):
		t.Fatal("callback registered from a handler never fired")
	}
}

func TestLifecycle(t *testing.T) {
	loop := startLoop(t, 8)
	h, _ := newTestHook(t, loop)

	assert.False(t, h.IsRunning())
	require.NoError(t, h.Stop())
	require.NoError(t, h.Start())
	assert.True(t, h.IsRunning())
	assert.Error(t, h.Start())
	require.NoError(t, h.Stop())
	require.NoError(t, h.Stop())
	assert.False(t, h.IsRunning())
}

func TestRemoveAllListenersZeroesMask(t *testing.T) {
	h := New(boundary.NewLoop(1), native.SyntheticFactory(nil))
	h.OnKeyDown(func(event.KeyboardEvent) {})
	h.OnWheel(func(event.WheelEvent) {})
	h.OnMouseMove(func(event.MouseMoveEvent) {})
	assert.NotZero(t, h.EventMask())

	h.RemoveAllListeners()
	assert.Zero(t, h.EventMask())
}

func TestOffClearsOnlyThatSlot(t *testing.T) {
	h := New(boundary.NewLoop(1), native.SyntheticFactory(nil))
	h.OnKeyDown(func(event.KeyboardEvent) {})
	h.OnKeyUp(func(event.KeyboardEvent) {})
	h.OnMouseDown(func(event.MouseButtonEvent) {})
	h.OnMouseUp(func(event.MouseButtonEvent) {})
	h.OnClick(func(event.MouseButtonEvent) {})
	h.OnMouseMove(func(event.MouseMoveEvent) {})
	h.OnWheel(func(event.WheelEvent) {})
	assert.Equal(t, uint32(0x7EC), uint32(h.EventMask()))

	h.OffKeyDown()
	h.OffKeyUp()
	h.OffMouseDown()
	h.OffMouseUp()
	h.OffClick()
	assert.Equal(t, uint32(0x700), uint32(h.EventMask()))
	h.OffMouseMove()
	assert.Equal(t, uint32(0x400), uint32(h.EventMask()))
	h.OffWheel()
	assert.Zero(t, h.EventMask())
}
