package tray

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCapture struct {
	running  bool
	startErr error
	starts   int
	stops    int
}

func (f *fakeCapture) Start() error {
	f.starts++
	if f.startErr != nil {
		return f.startErr
	}
	f.running = true
	return nil
}

func (f *fakeCapture) Stop() error {
	f.stops++
	f.running = false
	return nil
}

func (f *fakeCapture) IsRunning() bool { return f.running }

func TestToggle(t *testing.T) {
	c := &fakeCapture{}
	tr := New("test", c, nil, nil)

	tr.Toggle()
	assert.True(t, c.running)
	tr.Toggle()
	assert.False(t, c.running)
	assert.Equal(t, 1, c.starts)
	assert.Equal(t, 1, c.stops)

	c.startErr = errors.New("no hook")
	tr.Toggle()
	assert.False(t, c.running)
}

func TestStatusLine(t *testing.T) {
	tr := New("test", &fakeCapture{}, nil, nil)
	assert.Equal(t, "Stopped", tr.statusLine(false))
	assert.Equal(t, "Capturing", tr.statusLine(true))

	tr = New("test", &fakeCapture{}, func() string { return Describe("running", 3, 1) }, nil)
	assert.Equal(t, "running: 3 delivered, 1 dropped", tr.statusLine(true))
}

func TestIcon(t *testing.T) {
	on, off := Icon(true), Icon(false)
	require.Len(t, on, 22+40+16*16*4+16*4)
	assert.Equal(t, len(on), len(off))
	assert.NotEqual(t, on, off)

	assert.Equal(t, uint16(1), binary.LittleEndian.Uint16(on[2:4]))
	assert.Equal(t, uint32(len(on)-22), binary.LittleEndian.Uint32(on[14:18]))

	// Corner pixel transparent, center pixel opaque
	pixels := on[22+40:]
	assert.Equal(t, byte(0), pixels[3])
	center := (8*16 + 8) * 4
	assert.Equal(t, byte(0xFF), pixels[center+3])
}
