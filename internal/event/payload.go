package event

// KeyboardEvent is delivered to key-down and key-up consumers
type KeyboardEvent struct {
	Key     Key     `json:"key"`
	RawCode uint32  `json:"raw_code"`
	Time    float64 `json:"time"`
}

// MouseButtonEvent is delivered to mouse-down, mouse-up and click consumers
type MouseButtonEvent struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Button Button  `json:"button"`
	Time   float64 `json:"time"`
}

// MouseMoveEvent is delivered to mouse-move consumers for both moved and dragged events
type MouseMoveEvent struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Time float64 `json:"time"`
}

// WheelEvent is delivered to wheel consumers
type WheelEvent struct {
	X         float64         `json:"x"`
	Y         float64         `json:"y"`
	Direction ScrollDirection `json:"direction"`
	Delta     float64         `json:"delta"`
	Time      float64         `json:"time"`
}

// Record is the generic listener payload: every section of the event with the
// timestamp normalized. Sections are copied so the record never aliases the
// native event.
type Record struct {
	Category Category      `json:"category"`
	Time     float64       `json:"time"`
	Keyboard *KeyboardData `json:"keyboard,omitempty"`
	Mouse    *MouseData    `json:"mouse,omitempty"`
	Wheel    *WheelData    `json:"wheel,omitempty"`
}

// NewRecord builds a Record from ev
func NewRecord(ev *Event) Record {
	r := Record{
		Category: ev.Category,
		Time:     Seconds(ev.Time),
	}
	if ev.Keyboard != nil {
		kb := *ev.Keyboard
		r.Keyboard = &kb
	}
	if ev.Mouse != nil {
		m := *ev.Mouse
		if ev.Mouse.Button != nil {
			b := *ev.Mouse.Button
			m.Button = &b
		}
		r.Mouse = &m
	}
	if ev.Wheel != nil {
		w := *ev.Wheel
		r.Wheel = &w
	}
	return r
}

// ButtonOrLeft returns the event's button, defaulting to ButtonLeft when the
// native layer did not report one.
func (m *MouseData) ButtonOrLeft() Button {
	if m.Button == nil {
		return ButtonLeft
	}
	return *m.Button
}
