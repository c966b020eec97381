package network

import (
	"errors"
	"log"
	"net"
	"sync"
	"time"

	"inputhook/internal/protocol"
)

// UDPReceiver listens for frames sent by a UDPForwarder and hands each
// distinct frame to OnFrame.
type UDPReceiver struct {
	conn *net.UDPConn
	done chan struct{}
	wg   sync.WaitGroup

	// OnFrame is called on the receive goroutine for each new frame.
	OnFrame func(f *protocol.Frame)

	// dedup ring buffer for redundant packets
	dedup seqDedup
}

// seqDedup tracks recently seen sequence numbers to discard redundant packets.
// Uses a fixed-size ring buffer, O(1) lookup.
type seqDedup struct {
	ring [512]uint32
	pos  int
	seen map[uint32]struct{}
}

func newSeqDedup() seqDedup {
	return seqDedup{seen: make(map[uint32]struct{}, 512)}
}

func (d *seqDedup) isDuplicate(seq uint32) bool {
	if _, ok := d.seen[seq]; ok {
		return true
	}
	// Evict oldest entry
	old := d.ring[d.pos]
	if old != 0 {
		delete(d.seen, old)
	}
	d.ring[d.pos] = seq
	d.seen[seq] = struct{}{}
	d.pos = (d.pos + 1) % len(d.ring)
	return false
}

// NewUDPReceiver creates a receiver; call Start to bind it.
func NewUDPReceiver(onFrame func(f *protocol.Frame)) *UDPReceiver {
	return &UDPReceiver{
		OnFrame: onFrame,
		done:    make(chan struct{}),
		dedup:   newSeqDedup(),
	}
}

// Start binds addr (e.g. ":18091", "127.0.0.1:0") and begins receiving.
func (r *UDPReceiver) Start(addr string) error {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return err
	}
	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return err
	}
	r.conn = conn

	// Large read buffer for burst receives
	conn.SetReadBuffer(1 << 20) // 1 MB
	log.Printf("UDP Receiver: Listening on %s", conn.LocalAddr())

	r.wg.Add(1)
	go r.readLoop()
	return nil
}

// Addr returns the bound address
func (r *UDPReceiver) Addr() net.Addr {
	return r.conn.LocalAddr()
}

// readLoop reads and dispatches incoming frames.
func (r *UDPReceiver) readLoop() {
	defer r.wg.Done()
	buf := make([]byte, 512)
	for {
		n, _, err := r.conn.ReadFromUDP(buf)
		if err != nil {
			select {
			case <-r.done:
				return
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				log.Printf("UDP Receiver: connection closed: %v", err)
				return
			}
			log.Printf("UDP Receiver: read error: %v", err)
			time.Sleep(10 * time.Millisecond)
			continue
		}

		f, err := protocol.DecodeFrame(buf[:n])
		if err != nil {
			continue
		}

		// Deduplicate redundant packets (same seq number)
		if r.dedup.isDuplicate(f.Seq) {
			continue
		}
		if r.OnFrame != nil {
			r.OnFrame(f)
		}
	}
}

// Stop shuts down the receiver and waits for the receive goroutine.
func (r *UDPReceiver) Stop() {
	close(r.done)
	if r.conn != nil {
		r.conn.Close()
	}
	r.wg.Wait()
}
