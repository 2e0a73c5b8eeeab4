// Package protocol defines the websocket messages exchanged between the
// browser and the game server.
package protocol

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/teslashibe/go-tonguetug/pkg/landmark"
)

// MessageType identifies the type of websocket message
type MessageType string

const (
	// Browser → Server messages
	TypeLandmarks MessageType = "landmarks" // Per-frame face landmarks
	TypeReset     MessageType = "reset"     // Reset counters and match
	TypeMode      MessageType = "mode"      // Switch game mode

	// Server → Browser messages
	TypeState  MessageType = "state"  // Scores, states, rope position
	TypeStatus MessageType = "status" // Session status (init errors, stop)
	TypeError  MessageType = "error"  // Rejected request

	// Bidirectional
	TypePing MessageType = "ping" // Health check
	TypePong MessageType = "pong" // Health check response
)

// Message is the base wrapper for all websocket messages
type Message struct {
	Type      MessageType     `json:"type"`
	Timestamp int64           `json:"ts,omitempty"` // Unix milliseconds
	Data      json.RawMessage `json:"data,omitempty"`
}

// NewMessage creates a new message with the current timestamp
func NewMessage(msgType MessageType, data interface{}) (*Message, error) {
	var rawData json.RawMessage
	if data != nil {
		var err error
		rawData, err = json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal message data: %w", err)
		}
	}

	return &Message{
		Type:      msgType,
		Timestamp: time.Now().UnixMilli(),
		Data:      rawData,
	}, nil
}

// ParseData unmarshals the message data into the provided struct
func (m *Message) ParseData(v interface{}) error {
	if m.Data == nil {
		return nil
	}
	return json.Unmarshal(m.Data, v)
}

// Bytes returns the JSON-encoded message
func (m *Message) Bytes() ([]byte, error) {
	return json.Marshal(m)
}

// ParseMessage parses a JSON message from bytes
func ParseMessage(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to parse message: %w", err)
	}
	if msg.Type == "" {
		return nil, fmt.Errorf("failed to parse message: missing type")
	}
	return &msg, nil
}

// =============================================================================
// Browser → Server Message Types
// =============================================================================

// FrameData carries one video frame's face landmarks
type FrameData struct {
	Width     int             `json:"width"`
	Height    int             `json:"height"`
	Faces     []landmark.Face `json:"faces"`
	Timestamp int64           `json:"ts,omitempty"`    // Capture time, unix ms; 0 means arrival time
	Image     string          `json:"image,omitempty"` // Optional base64 JPEG for the debug overlay
}

// ModeData selects a game mode
type ModeData struct {
	Mode string `json:"mode"` // "solo", "challenge", "versus"
}

// =============================================================================
// Server → Browser Message Types
// =============================================================================

// PlayerData is one player's output for a frame
type PlayerData struct {
	ID         string  `json:"id"`
	Count      int     `json:"count"`
	State      string  `json:"state"`
	Transition string  `json:"transition,omitempty"`
	Visible    bool    `json:"visible"`
	RelativeX  float64 `json:"relative_x"`
}

// ScoresData is a pair of side scores
type ScoresData struct {
	Player1 float64 `json:"player1"`
	Player2 float64 `json:"player2"`
}

// StateData is the per-frame output surface
type StateData struct {
	SessionID string       `json:"session_id"`
	Mode      string       `json:"mode"`
	Players   []PlayerData `json:"players"`
	AIScore   *float64     `json:"ai_score,omitempty"` // Absent in versus mode
	Position  float64      `json:"position"`           // Rope position, 0-100
	Winner    string       `json:"winner,omitempty"`
	Ended     bool         `json:"ended"`
	Frozen    *ScoresData  `json:"frozen,omitempty"` // Scores when the match ended
	Frames    uint64       `json:"frames"`
}

// StatusData reports the session's lifecycle
type StatusData struct {
	Running bool   `json:"running"`
	Mode    string `json:"mode"`
	Message string `json:"message,omitempty"` // Persistent error, e.g. source init failure
}

// ErrorData describes a rejected request
type ErrorData struct {
	Message string `json:"message"`
}

// =============================================================================
// Bidirectional Message Types
// =============================================================================

// PingData contains ping information
type PingData struct {
	ID        string `json:"id"`
	Timestamp int64  `json:"ts"`
}

// PongData contains pong response
type PongData struct {
	ID        string `json:"id"`
	PingTS    int64  `json:"ping_ts"`
	PongTS    int64  `json:"pong_ts"`
	LatencyMs int64  `json:"latency_ms"`
}
