package network

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inputhook/internal/event"
	"inputhook/internal/protocol"
)

func TestForwardAndReceive(t *testing.T) {
	frames := make(chan *protocol.Frame, 16)
	r := NewUDPReceiver(func(f *protocol.Frame) { frames <- f })
	require.NoError(t, r.Start("127.0.0.1:0"))
	defer r.Stop()

	f, err := NewUDPForwarder([]string{r.Addr().String()})
	require.NoError(t, err)
	defer f.Close()

	f.Publish(event.KeyPressed, event.KeyboardEvent{Key: "KeyA", RawCode: 65, Time: 2})
	f.Publish(event.MouseMoved, event.MouseMoveEvent{X: 4, Y: 5})

	var got []*protocol.Frame
	timeout := time.After(2 * time.Second)
	for len(got) < 2 {
		select {
		case fr := <-frames:
			got = append(got, fr)
		case <-timeout:
			t.Fatalf("received %d frames", len(got))
		}
	}

	// Redundant key copies are discarded
	time.Sleep(50 * time.Millisecond)
	assert.Len(t, frames, 0)

	assert.Equal(t, event.KeyPressed, got[0].Category)
	assert.Equal(t, event.Key("KeyA"), got[0].Key)
	assert.Equal(t, event.MouseMoved, got[1].Category)
	assert.Equal(t, 4.0, got[1].X)
	assert.Equal(t, uint64(2), f.Sent())
}

func TestReceiverExitsWhenConnCloses(t *testing.T) {
	r := NewUDPReceiver(nil)
	require.NoError(t, r.Start("127.0.0.1:0"))
	require.NoError(t, r.conn.Close())

	exited := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(exited)
	}()
	select {
	case <-exited:
	case <-time.After(time.Second):
		t.Fatal("read loop kept running on a closed connection")
	}
	r.Stop()
}

func TestForwarderNeedsTargets(t *testing.T) {
	_, err := NewUDPForwarder(nil)
	assert.Error(t, err)
	_, err = NewUDPForwarder([]string{"not an address"})
	assert.Error(t, err)
}

func TestSeqDedup(t *testing.T) {
	d := newSeqDedup()
	assert.False(t, d.isDuplicate(1))
	assert.True(t, d.isDuplicate(1))

	// Old entries are evicted after a full ring
	for i := uint32(2); i < 2+512; i++ {
		assert.False(t, d.isDuplicate(i))
	}
	assert.False(t, d.isDuplicate(1))
}

func TestRedundancy(t *testing.T) {
	assert.Equal(t, 3, redundancy(event.MouseClicked))
	assert.Equal(t, 2, redundancy(event.MouseWheel))
	assert.Equal(t, 1, redundancy(event.MouseDragged))
}
