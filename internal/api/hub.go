package api

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"inputhook/internal/event"
	"inputhook/internal/protocol"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Allow all origins, viewers are local tools
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 50 * time.Second
	sendBuffer = 256
)

// StatusFunc reports the current capture status
type StatusFunc func() protocol.StatusPayload

// Hub fans dispatched events out to connected WebSocket clients.
// Publish never blocks: a client whose buffer is full is disconnected.
type Hub struct {
	hello  protocol.HelloPayload
	status StatusFunc

	mu      sync.Mutex
	clients map[*client]struct{}
	closed  bool
	seq     atomic.Uint64
}

type outbound struct {
	kind int
	data []byte
}

type client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan outbound
	binary bool
	ip     string
}

// NewHub creates a hub. status may be nil.
func NewHub(hello protocol.HelloPayload, status StatusFunc) *Hub {
	return &Hub{
		hello:   hello,
		status:  status,
		clients: make(map[*client]struct{}),
	}
}

// Clients returns the number of connected clients
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Publish broadcasts one event. payload is a Record or a routed payload.
func (h *Hub) Publish(c event.Category, payload any) {
	seq := h.seq.Add(1)

	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.clients) == 0 {
		return
	}

	var text, frame []byte
	for cl := range h.clients {
		var msg outbound
		if cl.binary {
			if frame == nil {
				f, ok := protocol.NewFrame(uint32(seq), c, payload)
				if !ok {
					continue
				}
				frame = protocol.EncodeFrame(f)
			}
			msg = outbound{websocket.BinaryMessage, frame}
		} else {
			if text == nil {
				var err error
				text, err = json.Marshal(protocol.Message{
					Type:    protocol.TypeEvent,
					Payload: protocol.EventPayload{Seq: seq, Category: c.String(), Data: payload},
				})
				if err != nil {
					log.Printf("WS: Failed to marshal event: %v", err)
					return
				}
			}
			msg = outbound{websocket.TextMessage, text}
		}

		select {
		case cl.send <- msg:
		default:
			log.Printf("WS: Client %s too slow, disconnecting", cl.ip)
			h.removeLocked(cl)
		}
	}
}

func (h *Hub) add(cl *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[cl] = struct{}{}
	log.Printf("WS: New client registered from %s. Total clients: %d", cl.ip, len(h.clients))
	return true
}

func (h *Hub) remove(cl *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(cl)
}

func (h *Hub) removeLocked(cl *client) {
	if _, ok := h.clients[cl]; !ok {
		return
	}
	delete(h.clients, cl)
	close(cl.send)
	log.Printf("WS: Client unregistered from %s. Total clients: %d", cl.ip, len(h.clients))
}

// Close disconnects every client and refuses new ones
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for cl := range h.clients {
		h.removeLocked(cl)
	}
}

func (h *Hub) marshalStatus() []byte {
	var st protocol.StatusPayload
	if h.status != nil {
		st = h.status()
	}
	st.Clients = h.Clients()
	data, _ := json.Marshal(protocol.Message{Type: protocol.TypeStatus, Payload: st})
	return data
}

func (h *Hub) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WS: Failed to upgrade connection: %v", err)
		return
	}

	cl := &client{
		hub:    h,
		conn:   conn,
		send:   make(chan outbound, sendBuffer),
		binary: r.URL.Query().Get("format") == "binary",
		ip:     r.RemoteAddr,
	}

	hello := h.hello
	hello.Format = "json"
	if cl.binary {
		hello.Format = "binary"
	}
	data, _ := json.Marshal(protocol.Message{Type: protocol.TypeHello, Payload: hello})
	cl.send <- outbound{websocket.TextMessage, data}

	if !h.add(cl) {
		conn.Close()
		return
	}

	go cl.writePump()
	go cl.readPump()
}

// readPump handles client requests until the connection drops.
func (c *client) readPump() {
	defer func() {
		c.hub.remove(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(4096)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error { c.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WS: Read error: %v", err)
			}
			return
		}
		c.handleMessage(message)
	}
}

func (c *client) handleMessage(data []byte) {
	var msg protocol.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		log.Printf("WS: Invalid message format: %v", err)
		return
	}

	switch msg.Type {
	case protocol.TypeStatus, protocol.TypePing:
		c.hub.reply(c, c.hub.marshalStatus())
	default:
		log.Printf("WS: Ignoring message type %q from %s", msg.Type, c.ip)
	}
}

func (h *Hub) reply(cl *client, data []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[cl]; !ok {
		return
	}
	select {
	case cl.send <- outbound{websocket.TextMessage, data}:
	default:
	}
}

// writePump writes queued messages and keeps the connection alive.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(message.kind, message.data); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
