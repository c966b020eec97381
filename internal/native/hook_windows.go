//go:build windows

package native

import (
	"fmt"
	"log"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
	"unsafe"

	"golang.org/x/sys/windows"

	"inputhook/internal/event"
)

var (
	user32                  = windows.NewLazySystemDLL("user32.dll")
	procSetWindowsHookEx    = user32.NewProc("SetWindowsHookExW")
	procCallNextHookEx      = user32.NewProc("CallNextHookEx")
	procUnhookWindowsHookEx = user32.NewProc("UnhookWindowsHookEx")
	procGetMessage          = user32.NewProc("GetMessageW")
	procTranslateMessage    = user32.NewProc("TranslateMessage")
	procDispatchMessage     = user32.NewProc("DispatchMessageW")
	procPostThreadMessage   = user32.NewProc("PostThreadMessageW")
	kernel32                = windows.NewLazySystemDLL("kernel32.dll")
	procGetModuleHandle     = kernel32.NewProc("GetModuleHandleW")
)

const (
	WH_KEYBOARD_LL = 13
	WH_MOUSE_LL    = 14
	WM_QUIT        = 0x0012
	WM_KEYDOWN     = 0x0100
	WM_KEYUP       = 0x0101
	WM_SYSKEYDOWN  = 0x0104
	WM_SYSKEYUP    = 0x0105

	WM_MOUSEMOVE   = 0x0200
	WM_LBUTTONDOWN = 0x0201
	WM_LBUTTONUP   = 0x0202
	WM_RBUTTONDOWN = 0x0204
	WM_RBUTTONUP   = 0x0205
	WM_MBUTTONDOWN = 0x0207
	WM_MBUTTONUP   = 0x0208
	WM_MOUSEWHEEL  = 0x020A
	WM_XBUTTONDOWN = 0x020B
	WM_XBUTTONUP   = 0x020C
	WM_MOUSEHWHEEL = 0x020E

	WHEEL_DELTA = 120
)

type KBDLLHOOKSTRUCT struct {
	VkCode      uint32
	ScanCode    uint32
	Flags       uint32
	Time        uint32
	DwExtraInfo uintptr
}

type MSLLHOOKSTRUCT struct {
	Point       struct{ X, Y int32 }
	MouseData   uint32
	Flags       uint32
	Time        uint32
	DwExtraInfo uintptr
}

type msg struct {
	Hwnd    windows.Handle
	Message uint32
	Wparam  uintptr
	Lparam  uintptr
	Time    uint32
	Pt      struct{ X, Y int32 }
}

// Low-level hook callbacks cannot carry a receiver, so the one installed hook
// is reachable through activeHook while it runs.
var (
	activeMu     sync.Mutex
	activeHook   *windowsHook
	callbackOnce sync.Once
	keyboardCB   uintptr
	mouseCB      uintptr
)

type windowsHook struct {
	mu       sync.Mutex
	running  atomic.Bool
	handler  Handler
	threadID uint32
	exited   chan struct{}

	keyboardHook uintptr
	mouseHook    uintptr

	// Only touched on the capture thread
	buttonsDown int
	pressX      int32
	pressY      int32
}

// NewPlatform returns a hook backed by Windows low-level keyboard and mouse hooks
func NewPlatform() Hook {
	return &windowsHook{}
}

func (w *windowsHook) RunAsync(h Handler) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running.Load() {
		return ErrAlreadyRunning
	}

	activeMu.Lock()
	if activeHook != nil {
		activeMu.Unlock()
		return ErrAlreadyRunning
	}
	activeHook = w
	activeMu.Unlock()

	callbackOnce.Do(func() {
		keyboardCB = windows.NewCallback(keyboardProc)
		mouseCB = windows.NewCallback(mouseProc)
	})

	w.handler = h
	w.exited = make(chan struct{})
	ready := make(chan error, 1)

	// Hooks must be installed on the thread that runs the message loop
	go w.messageLoop(ready)

	if err := <-ready; err != nil {
		activeMu.Lock()
		activeHook = nil
		activeMu.Unlock()
		return err
	}
	w.running.Store(true)
	log.Println("Native: Windows low-level hooks installed")
	return nil
}

func (w *windowsHook) messageLoop(ready chan<- error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(w.exited)

	w.threadID = windows.GetCurrentThreadId()
	hMod, _, _ := procGetModuleHandle.Call(0)

	kb, _, err := procSetWindowsHookEx.Call(WH_KEYBOARD_LL, keyboardCB, hMod, 0)
	if kb == 0 {
		ready <- fmt.Errorf("SetWindowsHookEx keyboard: %v", err)
		return
	}
	ms, _, err := procSetWindowsHookEx.Call(WH_MOUSE_LL, mouseCB, hMod, 0)
	if ms == 0 {
		procUnhookWindowsHookEx.Call(kb)
		ready <- fmt.Errorf("SetWindowsHookEx mouse: %v", err)
		return
	}
	w.keyboardHook, w.mouseHook = kb, ms
	ready <- nil

	w.handler(&event.Event{Category: event.HookEnabled, Time: time.Now()})

	var m msg
	for {
		ret, _, _ := procGetMessage.Call(uintptr(unsafe.Pointer(&m)), 0, 0, 0)
		if int32(ret) <= 0 {
			break
		}
		procTranslateMessage.Call(uintptr(unsafe.Pointer(&m)))
		procDispatchMessage.Call(uintptr(unsafe.Pointer(&m)))
	}

	procUnhookWindowsHookEx.Call(w.keyboardHook)
	procUnhookWindowsHookEx.Call(w.mouseHook)
	w.handler(&event.Event{Category: event.HookDisabled, Time: time.Now()})
}

func (w *windowsHook) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running.Load() {
		return nil
	}
	ret, _, err := procPostThreadMessage.Call(uintptr(w.threadID), WM_QUIT, 0, 0)
	if ret == 0 {
		return fmt.Errorf("PostThreadMessage: %v", err)
	}
	<-w.exited

	w.running.Store(false)
	activeMu.Lock()
	activeHook = nil
	activeMu.Unlock()
	log.Println("Native: Windows low-level hooks removed")
	return nil
}

func (w *windowsHook) IsRunning() bool {
	return w.running.Load()
}

func current() *windowsHook {
	activeMu.Lock()
	defer activeMu.Unlock()
	return activeHook
}

func keyboardProc(nCode int, wParam uintptr, lParam uintptr) uintptr {
	w := current()
	if nCode == 0 && w != nil {
		kbd := (*KBDLLHOOKSTRUCT)(unsafe.Pointer(lParam))
		if cat, ok := keyCategory(wParam); ok {
			w.handler(&event.Event{
				Category: cat,
				Time:     time.Now(),
				Keyboard: &event.KeyboardData{Key: vkToKey(kbd.VkCode), RawCode: kbd.VkCode},
			})
		}
	}
	var hook uintptr
	if w != nil {
		hook = w.keyboardHook
	}
	ret, _, _ := procCallNextHookEx.Call(hook, uintptr(nCode), wParam, lParam)
	return ret
}

func keyCategory(wParam uintptr) (event.Category, bool) {
	switch wParam {
	case WM_KEYDOWN, WM_SYSKEYDOWN:
		return event.KeyPressed, true
	case WM_KEYUP, WM_SYSKEYUP:
		return event.KeyReleased, true
	}
	return 0, false
}

func mouseProc(nCode int, wParam uintptr, lParam uintptr) uintptr {
	w := current()
	if nCode == 0 && w != nil {
		ms := (*MSLLHOOKSTRUCT)(unsafe.Pointer(lParam))
		for _, ev := range w.translateMouse(wParam, ms) {
			w.handler(ev)
		}
	}
	var hook uintptr
	if w != nil {
		hook = w.mouseHook
	}
	ret, _, _ := procCallNextHookEx.Call(hook, uintptr(nCode), wParam, lParam)
	return ret
}

func (w *windowsHook) translateMouse(wParam uintptr, ms *MSLLHOOKSTRUCT) []*event.Event {
	now := time.Now()
	x, y := float64(ms.Point.X), float64(ms.Point.Y)
	button := func(b event.Button) *event.MouseData {
		return &event.MouseData{X: x, Y: y, Button: &b}
	}
	xbutton := func() event.Button {
		if (ms.MouseData >> 16) == 1 {
			return event.Button4
		}
		return event.Button5
	}

	switch wParam {
	case WM_MOUSEMOVE:
		cat := event.MouseMoved
		if w.buttonsDown > 0 {
			cat = event.MouseDragged
		}
		return []*event.Event{{Category: cat, Time: now, Mouse: &event.MouseData{X: x, Y: y}}}

	case WM_LBUTTONDOWN, WM_RBUTTONDOWN, WM_MBUTTONDOWN, WM_XBUTTONDOWN:
		b := event.ButtonLeft
		switch wParam {
		case WM_RBUTTONDOWN:
			b = event.ButtonRight
		case WM_MBUTTONDOWN:
			b = event.ButtonMiddle
		case WM_XBUTTONDOWN:
			b = xbutton()
		}
		w.buttonsDown++
		w.pressX, w.pressY = ms.Point.X, ms.Point.Y
		return []*event.Event{{Category: event.MousePressed, Time: now, Mouse: button(b)}}

	case WM_LBUTTONUP, WM_RBUTTONUP, WM_MBUTTONUP, WM_XBUTTONUP:
		b := event.ButtonLeft
		switch wParam {
		case WM_RBUTTONUP:
			b = event.ButtonRight
		case WM_MBUTTONUP:
			b = event.ButtonMiddle
		case WM_XBUTTONUP:
			b = xbutton()
		}
		if w.buttonsDown > 0 {
			w.buttonsDown--
		}
		evs := []*event.Event{{Category: event.MouseReleased, Time: now, Mouse: button(b)}}
		// A release where the press happened counts as a click
		if ms.Point.X == w.pressX && ms.Point.Y == w.pressY {
			evs = append(evs, &event.Event{Category: event.MouseClicked, Time: now, Mouse: button(b)})
		}
		return evs

	case WM_MOUSEWHEEL, WM_MOUSEHWHEEL:
		delta := int16(ms.MouseData >> 16)
		dir := event.ScrollUp
		if wParam == WM_MOUSEWHEEL {
			if delta < 0 {
				dir = event.ScrollDown
			}
		} else {
			dir = event.ScrollRight
			if delta < 0 {
				dir = event.ScrollLeft
			}
		}
		mag := float64(delta) / WHEEL_DELTA
		if mag < 0 {
			mag = -mag
		}
		return []*event.Event{{
			Category: event.MouseWheel,
			Time:     now,
			Wheel:    &event.WheelData{X: x, Y: y, Direction: dir, Delta: mag},
		}}
	}
	return nil
}
