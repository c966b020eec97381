// Package protocol defines the messages streamed to remote event viewers.
package protocol

// MessageType defines the type of WebSocket message
type MessageType string

const (
	// TypeHello is sent by the server right after a client connects
	TypeHello MessageType = "hello"

	// TypeEvent carries one dispatched input event
	TypeEvent MessageType = "event"

	// TypeStatus is sent by the client to request capture status, and by the server in reply
	TypeStatus MessageType = "status"

	// TypePing can be used for application-level heartbeats if needed
	TypePing MessageType = "ping"
)

// Message is the generic container for all WebSocket messages
type Message struct {
	Type    MessageType `json:"type"`
	Payload any         `json:"payload,omitempty"`
}

// HelloPayload is the payload for TypeHello
type HelloPayload struct {
	Server  string `json:"server"`
	Version string `json:"version"`
	Mode    string `json:"mode"`
	Format  string `json:"format"` // "json" or "binary"
}

// EventPayload is the payload for TypeEvent
type EventPayload struct {
	Seq      uint64 `json:"seq"`
	Category string `json:"category"`
	Data     any    `json:"data"`
}

// StatusPayload is the payload for TypeStatus replies
type StatusPayload struct {
	Running   bool   `json:"running"`
	State     string `json:"state"`
	Mask      string `json:"mask"`
	Rejected  uint64 `json:"rejected"`
	Routed    uint64 `json:"routed"`
	Delivered uint64 `json:"delivered"`
	Dropped   uint64 `json:"dropped"`
	Clients   int    `json:"clients"`
}
