// Package mask encodes sets of event categories as bit vectors.
//
// Bit i of a Mask corresponds to event.Category(i). The layout is part of the
// external contract: callers may pass explicit numeric masks.
package mask

import (
	"fmt"
	"strconv"
	"strings"

	"inputhook/internal/event"
)

// Mask is a set of event categories
type Mask uint32

// Predefined masks for common subscription patterns
const (
	None          Mask = 0
	All           Mask = 0x7FF
	Keyboard      Mask = 1<<event.KeyPressed | 1<<event.KeyReleased | 1<<event.KeyTyped
	MouseButtons  Mask = 1<<event.MousePressed | 1<<event.MouseReleased | 1<<event.MouseClicked
	MouseMovement Mask = 1<<event.MouseMoved | 1<<event.MouseDragged
	MouseWheel    Mask = 1 << event.MouseWheel
	MouseAll      Mask = MouseButtons | MouseMovement | MouseWheel
	Lifecycle     Mask = 1<<event.HookEnabled | 1<<event.HookDisabled
)

// Bit returns the single-bit mask for c. Unknown categories map to None.
func Bit(c event.Category) Mask {
	if !c.Valid() {
		return None
	}
	return 1 << c
}

// Union returns the bitwise OR of masks.
func Union(masks ...Mask) Mask {
	var m Mask
	for _, x := range masks {
		m |= x
	}
	return m
}

// Test reports whether c is selected by m.
func Test(m Mask, c event.Category) bool {
	return m&Bit(c) != 0
}

// Has is the method form of Test.
func (m Mask) Has(c event.Category) bool {
	return Test(m, c)
}

// Categories lists the categories selected by m in bit order.
func (m Mask) Categories() []event.Category {
	var out []event.Category
	for c := event.Category(0); c < event.NumCategories; c++ {
		if m.Has(c) {
			out = append(out, c)
		}
	}
	return out
}

func (m Mask) String() string {
	if m == None {
		return "none"
	}
	cats := m.Categories()
	names := make([]string, len(cats))
	for i, c := range cats {
		names[i] = c.String()
	}
	return strings.Join(names, "|")
}

// IsInputPattern reports whether a subscription pattern is keyboard or mouse related.
func IsInputPattern(pattern string) bool {
	return strings.HasPrefix(pattern, "keyboard:") || strings.HasPrefix(pattern, "mouse:")
}

// FromPatterns computes a mask from subscription patterns such as
// "keyboard:*", "mouse:down", "mouse:move" or "mouse:scroll".
// When no pattern is recognized the result is All.
func FromPatterns(patterns []string) Mask {
	var m Mask
	for _, p := range patterns {
		switch {
		case strings.HasPrefix(p, "keyboard:"):
			m |= Keyboard
		case p == "mouse:down" || p == "mouse:up" || p == "mouse:click":
			m |= MouseButtons
		case p == "mouse:move":
			m |= MouseMovement
		case p == "mouse:scroll":
			m |= MouseWheel
		case strings.HasPrefix(p, "mouse:"):
			m |= MouseAll
		}
	}
	if m == None {
		return All
	}
	return m
}

var presets = map[string]Mask{
	"all":            All,
	"none":           None,
	"keyboard":       Keyboard,
	"mouse":          MouseAll,
	"mouse_buttons":  MouseButtons,
	"mouse_movement": MouseMovement,
	"wheel":          MouseWheel,
	"lifecycle":      Lifecycle,
}

// Parse reads a mask from configuration text. Accepted forms are a number
// ("0x1C", "28"), or a "|" or "," separated list of preset names
// ("keyboard|wheel"), category names ("KeyPressed") and patterns ("mouse:move").
func Parse(s string) (Mask, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return None, fmt.Errorf("%w: empty", ErrInvalidMask)
	}
	if n, err := strconv.ParseUint(s, 0, 32); err == nil {
		if Mask(n)&^All != 0 {
			return None, fmt.Errorf("%w: %s has bits outside 0x%X", ErrInvalidMask, s, uint32(All))
		}
		return Mask(n), nil
	}

	var m Mask
	for _, part := range strings.FieldsFunc(s, func(r rune) bool { return r == '|' || r == ',' }) {
		part = strings.TrimSpace(part)
		if p, ok := presets[strings.ToLower(part)]; ok {
			m |= p
			continue
		}
		if c, ok := event.ParseCategory(part); ok {
			m |= Bit(c)
			continue
		}
		if IsInputPattern(part) {
			m |= FromPatterns([]string{part})
			continue
		}
		return None, fmt.Errorf("%w: unknown term %q", ErrInvalidMask, part)
	}
	return m, nil
}
