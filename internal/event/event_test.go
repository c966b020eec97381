package event

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSecondsNormalization(t *testing.T) {
	assert.Equal(t, 0.0, Seconds(time.Time{}))
	assert.Equal(t, 0.0, Seconds(time.Unix(-10, 0)))
	assert.Equal(t, 0.0, Seconds(time.Date(3000, 1, 1, 0, 0, 0, 0, time.UTC)))
	assert.InDelta(t, 1700000000.25, Seconds(time.Unix(1700000000, 250_000_000)), 1e-6)
}

func TestCategoryNames(t *testing.T) {
	assert.Equal(t, "MouseDragged", MouseDragged.String())
	assert.Equal(t, "Unknown", Category(99).String())

	c, ok := ParseCategory("KeyTyped")
	require.True(t, ok)
	assert.Equal(t, KeyTyped, c)

	_, ok = ParseCategory("KeyTapped")
	assert.False(t, ok)
}

func TestNewRecordCopiesSections(t *testing.T) {
	btn := ButtonRight
	ev := &Event{
		Category: MousePressed,
		Time:     time.Unix(10, 0),
		Mouse:    &MouseData{X: 1, Y: 2, Button: &btn},
	}
	rec := NewRecord(ev)
	require.NotNil(t, rec.Mouse)
	assert.Equal(t, 10.0, rec.Time)
	assert.Equal(t, ButtonRight, *rec.Mouse.Button)

	// Mutating the native event must not leak into the record
	ev.Mouse.X = 100
	*ev.Mouse.Button = ButtonMiddle
	assert.Equal(t, 1.0, rec.Mouse.X)
	assert.Equal(t, ButtonRight, *rec.Mouse.Button)
	assert.Nil(t, rec.Keyboard)
	assert.Nil(t, rec.Wheel)
}

func TestButtonOrLeft(t *testing.T) {
	m := &MouseData{X: 5, Y: 5}
	assert.Equal(t, ButtonLeft, m.ButtonOrLeft())
	b := Button5
	m.Button = &b
	assert.Equal(t, Button5, m.ButtonOrLeft())
}

func TestEventJSON(t *testing.T) {
	data := []byte(`{"category":"MouseWheel","time":"2024-01-02T03:04:05Z","wheel":{"x":3,"y":4,"direction":"Down","delta":120}}`)
	var ev Event
	require.NoError(t, json.Unmarshal(data, &ev))
	assert.Equal(t, MouseWheel, ev.Category)
	require.NotNil(t, ev.Wheel)
	assert.Equal(t, ScrollDown, ev.Wheel.Direction)
	assert.Equal(t, 120.0, ev.Wheel.Delta)

	var bad Event
	err := json.Unmarshal([]byte(`{"category":"Nope"}`), &bad)
	assert.Error(t, err)
}
