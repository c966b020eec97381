// Package event defines the input events produced by the native capture layer
// and the payload records delivered to consumers.
package event

import (
	"math"
	"time"
)

// Category identifies the kind of a native input event.
// The ordinal of each category is its bit index in a mask and must never change.
type Category uint8

const (
	HookEnabled Category = iota
	HookDisabled
	KeyPressed
	KeyReleased
	KeyTyped
	MousePressed
	MouseReleased
	MouseClicked
	MouseMoved
	MouseDragged
	MouseWheel

	// NumCategories is the number of defined categories
	NumCategories = 11
)

var categoryNames = [NumCategories]string{
	"HookEnabled",
	"HookDisabled",
	"KeyPressed",
	"KeyReleased",
	"KeyTyped",
	"MousePressed",
	"MouseReleased",
	"MouseClicked",
	"MouseMoved",
	"MouseDragged",
	"MouseWheel",
}

func (c Category) String() string {
	if int(c) < len(categoryNames) {
		return categoryNames[c]
	}
	return "Unknown"
}

// Valid reports whether c is one of the defined categories.
func (c Category) Valid() bool {
	return int(c) < NumCategories
}

// ParseCategory returns the category with the given name.
func ParseCategory(name string) (Category, bool) {
	for i, n := range categoryNames {
		if n == name {
			return Category(i), true
		}
	}
	return 0, false
}

// MarshalText implements encoding.TextMarshaler
func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (c *Category) UnmarshalText(b []byte) error {
	v, ok := ParseCategory(string(b))
	if !ok {
		return &UnknownNameError{Kind: "category", Name: string(b)}
	}
	*c = v
	return nil
}

// Button is a mouse button
type Button uint8

const (
	ButtonLeft Button = iota
	ButtonRight
	ButtonMiddle
	Button4
	Button5
	ButtonUnknown
)

var buttonNames = [...]string{"Left", "Right", "Middle", "Button4", "Button5", "Unknown"}

func (b Button) String() string {
	if int(b) < len(buttonNames) {
		return buttonNames[b]
	}
	return "Unknown"
}

// MarshalText implements encoding.TextMarshaler
func (b Button) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (b *Button) UnmarshalText(data []byte) error {
	for i, n := range buttonNames {
		if n == string(data) {
			*b = Button(i)
			return nil
		}
	}
	return &UnknownNameError{Kind: "button", Name: string(data)}
}

// ScrollDirection is the direction of a wheel event
type ScrollDirection uint8

const (
	ScrollUp ScrollDirection = iota
	ScrollDown
	ScrollLeft
	ScrollRight
)

var directionNames = [...]string{"Up", "Down", "Left", "Right"}

func (d ScrollDirection) String() string {
	if int(d) < len(directionNames) {
		return directionNames[d]
	}
	return "Unknown"
}

// MarshalText implements encoding.TextMarshaler
func (d ScrollDirection) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (d *ScrollDirection) UnmarshalText(data []byte) error {
	for i, n := range directionNames {
		if n == string(data) {
			*d = ScrollDirection(i)
			return nil
		}
	}
	return &UnknownNameError{Kind: "scroll direction", Name: string(data)}
}

// Key is the logical name of a key as reported by the native layer
// (e.g. "KeyA", "Num1", "ShiftLeft", "Escape").
type Key string

// KeyboardData is the keyboard section of an Event
type KeyboardData struct {
	Key     Key    `json:"key"`
	RawCode uint32 `json:"raw_code"`
}

// MouseData is the mouse section of an Event. Button is nil for pure movement.
type MouseData struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Button *Button `json:"button,omitempty"`
}

// WheelData is the wheel section of an Event
type WheelData struct {
	X         float64         `json:"x"`
	Y         float64         `json:"y"`
	Direction ScrollDirection `json:"direction"`
	Delta     float64         `json:"delta"`
}

// Event is one native input event. It is produced by the capture layer and
// must be treated as read-only by handlers.
type Event struct {
	Category Category      `json:"category"`
	Time     time.Time     `json:"time"`
	Keyboard *KeyboardData `json:"keyboard,omitempty"`
	Mouse    *MouseData    `json:"mouse,omitempty"`
	Wheel    *WheelData    `json:"wheel,omitempty"`
}

// Seconds converts t to seconds since the Unix epoch.
// Zero, pre-epoch and unrepresentable times normalize to 0.
func Seconds(t time.Time) float64 {
	if t.IsZero() || t.Before(epoch) || t.After(maxTime) {
		return 0
	}
	return float64(t.UnixNano()) / float64(time.Second)
}

var (
	epoch   = time.Unix(0, 0)
	maxTime = time.Unix(0, math.MaxInt64)
)

// UnknownNameError is returned when decoding an unknown enum name
type UnknownNameError struct {
	Kind string
	Name string
}

func (e *UnknownNameError) Error() string {
	return "unknown " + e.Kind + ": " + e.Name
}
