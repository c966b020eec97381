// Package hotkey matches key and mouse button combinations fed by the input hook.
package hotkey

import (
	"log"
	"strings"
	"sync"

	"inputhook/internal/event"
)

// Manager handles hotkey registration and matching
type Manager struct {
	mu           sync.RWMutex
	hotkeys      []*registeredHotkey
	currentState map[string]bool // map of current keys/buttons pressed
}

type registeredHotkey struct {
	parts    []string // e.g., ["CTRL", "ALT", "MOUSE4"]
	original string
	callback func()
}

// NewManager creates a new hotkey manager
func NewManager() *Manager {
	return &Manager{
		currentState: make(map[string]bool),
	}
}

// Register registers a hotkey string (e.g. "Ctrl+Alt+1", "Mouse2+Mouse3") and a callback.
func (m *Manager) Register(hotkeyStr string, callback func()) (int, error) {
	if hotkeyStr == "" {
		return 0, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	parts := strings.Split(strings.ToUpper(hotkeyStr), "+")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}

	m.hotkeys = append(m.hotkeys, &registeredHotkey{
		parts:    parts,
		original: hotkeyStr,
		callback: callback,
	})

	return len(m.hotkeys) - 1, nil
}

// Clear removes all registered hotkeys
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hotkeys = nil
}

// UpdateState updates the internal state of a key or button and checks for matches.
// Auto-repeated presses of a key that is already down do not re-trigger.
func (m *Manager) UpdateState(key string, isDown bool) {
	m.mu.Lock()
	key = strings.ToUpper(key)
	wasDown := m.currentState[key]
	if isDown {
		m.currentState[key] = true
	} else {
		delete(m.currentState, key)
	}
	m.mu.Unlock()

	if isDown && !wasDown {
		m.checkMatches()
	}
}

func (m *Manager) checkMatches() {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, hk := range m.hotkeys {
		match := true
		// All parts of the hotkey must be in currentState
		for _, part := range hk.parts {
			if !m.currentState[part] {
				match = false
				break
			}
		}

		if match {
			log.Printf("Hotkey triggered: %s", hk.original)
			go hk.callback()
		}
	}
}

// Observe updates key and button state from any delivered payload: a
// generic Record or a routed payload with its category. Other categories
// are ignored.
func (m *Manager) Observe(c event.Category, payload any) {
	var down bool
	switch c {
	case event.KeyPressed, event.MousePressed:
		down = true
	case event.KeyReleased, event.MouseReleased:
	default:
		return
	}

	switch p := payload.(type) {
	case event.KeyboardEvent:
		m.UpdateState(KeyName(p.Key), down)
	case event.MouseButtonEvent:
		m.UpdateState(ButtonName(p.Button), down)
	case event.Record:
		switch {
		case p.Keyboard != nil:
			m.UpdateState(KeyName(p.Keyboard.Key), down)
		case p.Mouse != nil:
			m.UpdateState(ButtonName(p.Mouse.ButtonOrLeft()), down)
		}
	}
}

// KeyName maps a logical key to the name used in hotkey strings
func KeyName(k event.Key) string {
	s := string(k)
	switch {
	case strings.HasPrefix(s, "Control"):
		return "CTRL"
	case strings.HasPrefix(s, "Shift"):
		return "SHIFT"
	case strings.HasPrefix(s, "Alt"):
		return "ALT"
	case strings.HasPrefix(s, "Meta"):
		return "CMD"
	case s == "Escape":
		return "ESC"
	case strings.HasPrefix(s, "Arrow"):
		return strings.ToUpper(strings.TrimPrefix(s, "Arrow"))
	case strings.HasPrefix(s, "Key") && len(s) == 4:
		return s[3:]
	case strings.HasPrefix(s, "Num") && len(s) == 4:
		return s[3:]
	}
	return strings.ToUpper(s)
}

// ButtonName maps a mouse button to the name used in hotkey strings
func ButtonName(b event.Button) string {
	switch b {
	case event.ButtonLeft:
		return "MOUSE1"
	case event.ButtonMiddle:
		return "MOUSE2"
	case event.ButtonRight:
		return "MOUSE3"
	case event.Button4:
		return "MOUSE4"
	case event.Button5:
		return "MOUSE5"
	}
	return "MOUSE0"
}
