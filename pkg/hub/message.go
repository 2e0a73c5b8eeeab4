// Package hub fans out game state to browser websocket viewers using a
// single goroutine that owns the viewer set.
//
// A hub carries one of two streams: JSON protocol envelopes for the
// scoreboard (/ws/state) or annotated JPEG frames for the camera overlay
// (/ws/overlay). Viewers only listen.
package hub

import "github.com/gofiber/websocket/v2"

// MessageType selects the websocket frame type a Message is written as.
type MessageType int

const (
	// JSONMessage is an encoded protocol envelope, sent as a text frame
	JSONMessage MessageType = iota
	// BinaryMessage is an overlay JPEG, sent as a binary frame
	BinaryMessage
)

// Message is one pre-encoded payload shared by every viewer of a hub.
// Data is never modified after it is queued.
type Message struct {
	Type MessageType
	Data []byte
}

// NewJSONMessage wraps an encoded envelope.
func NewJSONMessage(data []byte) Message {
	return Message{Type: JSONMessage, Data: data}
}

// NewBinaryMessage wraps an encoded overlay frame.
func NewBinaryMessage(data []byte) Message {
	return Message{Type: BinaryMessage, Data: data}
}

func (m Message) frameType() int {
	if m.Type == BinaryMessage {
		return websocket.BinaryMessage
	}
	return websocket.TextMessage
}
