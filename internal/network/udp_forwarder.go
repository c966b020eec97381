// Package network forwards dispatched events to other machines as binary UDP frames.
package network

import (
	"fmt"
	"log"
	"net"
	"sync"
	"sync/atomic"

	"inputhook/internal/event"
	"inputhook/internal/protocol"
)

// UDPForwarder sends every published event as a binary frame to a fixed set
// of targets. Button and key frames are sent more than once since UDP has no
// delivery guarantee; receivers discard the copies by sequence number.
type UDPForwarder struct {
	conn    *net.UDPConn
	targets []*net.UDPAddr
	seq     atomic.Uint32
	sent    atomic.Uint64

	closeOnce sync.Once
}

// NewUDPForwarder resolves targets ("host:port") and opens the sending socket.
func NewUDPForwarder(targets []string) (*UDPForwarder, error) {
	if len(targets) == 0 {
		return nil, fmt.Errorf("udp forwarder: no targets")
	}

	addrs := make([]*net.UDPAddr, 0, len(targets))
	for _, t := range targets {
		addr, err := net.ResolveUDPAddr("udp", t)
		if err != nil {
			return nil, fmt.Errorf("udp forwarder: resolve %s: %w", t, err)
		}
		addrs = append(addrs, addr)
	}

	conn, err := net.ListenUDP("udp", &net.UDPAddr{Port: 0})
	if err != nil {
		return nil, err
	}
	// 1 MB write buffer for burst writes
	conn.SetWriteBuffer(1 << 20)

	log.Printf("UDP Forwarder: sending to %v", targets)
	return &UDPForwarder{conn: conn, targets: addrs}, nil
}

// redundancy returns how many copies of a frame of category c are sent
func redundancy(c event.Category) int {
	switch c {
	case event.KeyPressed, event.KeyReleased,
		event.MousePressed, event.MouseReleased, event.MouseClicked:
		return 3
	case event.MouseWheel, event.HookEnabled, event.HookDisabled:
		return 2
	}
	return 1
}

// Publish encodes one event and writes it to every target. It never blocks
// on a slow receiver; write errors are dropped.
func (f *UDPForwarder) Publish(c event.Category, payload any) {
	frame, ok := protocol.NewFrame(f.seq.Add(1), c, payload)
	if !ok {
		return
	}
	data := protocol.EncodeFrame(frame)

	copies := redundancy(frame.Category)
	for _, addr := range f.targets {
		for i := 0; i < copies; i++ {
			if _, err := f.conn.WriteToUDP(data, addr); err != nil {
				break
			}
		}
	}
	f.sent.Add(1)
}

// Sent returns how many events were published
func (f *UDPForwarder) Sent() uint64 {
	return f.sent.Load()
}

// Close shuts down the forwarder.
func (f *UDPForwarder) Close() error {
	var err error
	f.closeOnce.Do(func() { err = f.conn.Close() })
	return err
}
