package protocol

import (
	"encoding/binary"
	"errors"
	"math"
	"unicode/utf8"

	"inputhook/internal/event"
)

// Header: [category(1)] [seq(4)] [time(8)] = 13 bytes
const FrameHeaderSize = 13

const noButton uint8 = 0xFF

var (
	ErrFrameTooShort   = errors.New("frame: too short")
	ErrUnknownCategory = errors.New("frame: unknown category")
)

// Frame is a compact binary encoding of one event, sent to clients that
// connect with format=binary.
//
// Wire format per category family (big endian, floats as IEEE 754 bits):
//
//	Lifecycle (0-1):  header                                                 = 13 bytes
//	Keyboard  (2-4):  header + rawCode(uint32) + keyLen(uint8) + key         = 18+n bytes
//	Button    (5-7):  header + x(f64) + y(f64) + button(uint8)               = 30 bytes
//	Move      (8-9):  header + x(f64) + y(f64)                               = 29 bytes
//	Wheel     (10):   header + x(f64) + y(f64) + dir(uint8) + delta(f64)     = 38 bytes
type Frame struct {
	Category  event.Category
	Seq       uint32
	Time      float64
	Key       event.Key
	RawCode   uint32
	X         float64
	Y         float64
	Button    uint8 // 0xFF when the event carried no button
	Direction event.ScrollDirection
	Delta     float64
}

// NewFrame builds a frame from any payload delivered to consumers:
// a Record or one of the routed payload types. It returns false for
// unsupported payloads.
func NewFrame(seq uint32, c event.Category, payload any) (*Frame, bool) {
	f := &Frame{Category: c, Seq: seq, Button: noButton}
	switch p := payload.(type) {
	case event.Record:
		f.Category = p.Category
		f.Time = p.Time
		if p.Keyboard != nil {
			f.Key, f.RawCode = p.Keyboard.Key, p.Keyboard.RawCode
		}
		if p.Mouse != nil {
			f.X, f.Y = p.Mouse.X, p.Mouse.Y
			if p.Mouse.Button != nil {
				f.Button = uint8(*p.Mouse.Button)
			}
		}
		if p.Wheel != nil {
			f.X, f.Y = p.Wheel.X, p.Wheel.Y
			f.Direction, f.Delta = p.Wheel.Direction, p.Wheel.Delta
		}
	case event.KeyboardEvent:
		f.Key, f.RawCode, f.Time = p.Key, p.RawCode, p.Time
	case event.MouseButtonEvent:
		f.X, f.Y, f.Button, f.Time = p.X, p.Y, uint8(p.Button), p.Time
	case event.MouseMoveEvent:
		f.X, f.Y, f.Time = p.X, p.Y, p.Time
	case event.WheelEvent:
		f.X, f.Y, f.Time = p.X, p.Y, p.Time
		f.Direction, f.Delta = p.Direction, p.Delta
	default:
		return nil, false
	}
	return f, true
}

func putFloat(b []byte, v float64) {
	binary.BigEndian.PutUint64(b, math.Float64bits(v))
}

func getFloat(b []byte) float64 {
	return math.Float64frombits(binary.BigEndian.Uint64(b))
}

// keyLen is the number of key bytes that fit in a frame, cut back to a rune
// boundary so a truncated key stays valid UTF-8
func keyLen(k event.Key) int {
	n := min(len(k), math.MaxUint8)
	for n > 0 && n < len(k) && !utf8.RuneStart(k[n]) {
		n--
	}
	return n
}

func bodySize(f *Frame) int {
	switch f.Category {
	case event.KeyPressed, event.KeyReleased, event.KeyTyped:
		return 5 + keyLen(f.Key)
	case event.MousePressed, event.MouseReleased, event.MouseClicked:
		return 17
	case event.MouseMoved, event.MouseDragged:
		return 16
	case event.MouseWheel:
		return 25
	}
	return 0
}

// EncodeFrame serializes a Frame to wire format.
func EncodeFrame(f *Frame) []byte {
	buf := make([]byte, FrameHeaderSize+bodySize(f))
	buf[0] = uint8(f.Category)
	binary.BigEndian.PutUint32(buf[1:5], f.Seq)
	putFloat(buf[5:13], f.Time)

	body := buf[FrameHeaderSize:]
	switch f.Category {
	case event.KeyPressed, event.KeyReleased, event.KeyTyped:
		binary.BigEndian.PutUint32(body[0:4], f.RawCode)
		n := len(body) - 5
		body[4] = uint8(n)
		copy(body[5:], f.Key[:n])
	case event.MousePressed, event.MouseReleased, event.MouseClicked:
		putFloat(body[0:8], f.X)
		putFloat(body[8:16], f.Y)
		body[16] = f.Button
	case event.MouseMoved, event.MouseDragged:
		putFloat(body[0:8], f.X)
		putFloat(body[8:16], f.Y)
	case event.MouseWheel:
		putFloat(body[0:8], f.X)
		putFloat(body[8:16], f.Y)
		body[16] = uint8(f.Direction)
		putFloat(body[17:25], f.Delta)
	}
	return buf
}

// DecodeFrame deserializes wire bytes into a Frame.
func DecodeFrame(data []byte) (*Frame, error) {
	if len(data) < FrameHeaderSize {
		return nil, ErrFrameTooShort
	}

	f := &Frame{
		Category: event.Category(data[0]),
		Seq:      binary.BigEndian.Uint32(data[1:5]),
		Time:     getFloat(data[5:13]),
		Button:   noButton,
	}
	if !f.Category.Valid() {
		return nil, ErrUnknownCategory
	}

	body := data[FrameHeaderSize:]
	switch f.Category {
	case event.KeyPressed, event.KeyReleased, event.KeyTyped:
		if len(body) < 5 || len(body) < 5+int(body[4]) {
			return nil, ErrFrameTooShort
		}
		f.RawCode = binary.BigEndian.Uint32(body[0:4])
		f.Key = event.Key(body[5 : 5+int(body[4])])
	case event.MousePressed, event.MouseReleased, event.MouseClicked:
		if len(body) < 17 {
			return nil, ErrFrameTooShort
		}
		f.X, f.Y = getFloat(body[0:8]), getFloat(body[8:16])
		f.Button = body[16]
	case event.MouseMoved, event.MouseDragged:
		if len(body) < 16 {
			return nil, ErrFrameTooShort
		}
		f.X, f.Y = getFloat(body[0:8]), getFloat(body[8:16])
	case event.MouseWheel:
		if len(body) < 25 {
			return nil, ErrFrameTooShort
		}
		f.X, f.Y = getFloat(body[0:8]), getFloat(body[8:16])
		f.Direction = event.ScrollDirection(body[16])
		f.Delta = getFloat(body[17:25])
	}
	return f, nil
}
