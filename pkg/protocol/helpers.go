package protocol

import (
	"encoding/base64"

	"github.com/teslashibe/go-tonguetug/pkg/landmark"
)

// =============================================================================
// Helper functions for creating messages
// =============================================================================

// NewLandmarksMessage creates a landmarks message. jpegData may be nil.
func NewLandmarksMessage(frame landmark.Frame, jpegData []byte) (*Message, error) {
	data := FrameData{
		Width:     frame.Width,
		Height:    frame.Height,
		Faces:     frame.Faces,
		Timestamp: frame.Timestamp,
	}
	if len(jpegData) > 0 {
		data.Image = base64.StdEncoding.EncodeToString(jpegData)
	}
	return NewMessage(TypeLandmarks, data)
}

// NewResetMessage creates a reset request
func NewResetMessage() (*Message, error) {
	return NewMessage(TypeReset, nil)
}

// NewModeMessage creates a mode switch request
func NewModeMessage(mode string) (*Message, error) {
	return NewMessage(TypeMode, ModeData{Mode: mode})
}

// NewStateMessage creates a state message
func NewStateMessage(state StateData) (*Message, error) {
	return NewMessage(TypeState, state)
}

// NewStatusMessage creates a status message
func NewStatusMessage(running bool, mode, message string) (*Message, error) {
	return NewMessage(TypeStatus, StatusData{
		Running: running,
		Mode:    mode,
		Message: message,
	})
}

// NewErrorMessage creates an error message
func NewErrorMessage(message string) (*Message, error) {
	return NewMessage(TypeError, ErrorData{Message: message})
}

// NewPingMessage creates a ping message
func NewPingMessage(id string) (*Message, error) {
	return NewMessage(TypePing, PingData{
		ID:        id,
		Timestamp: 0, // Will be set by NewMessage
	})
}

// NewPongMessage creates a pong response message
func NewPongMessage(id string, pingTS, pongTS int64) (*Message, error) {
	return NewMessage(TypePong, PongData{
		ID:        id,
		PingTS:    pingTS,
		PongTS:    pongTS,
		LatencyMs: pongTS - pingTS,
	})
}

// =============================================================================
// Helper functions for parsing messages
// =============================================================================

// GetFrameData extracts landmark data from a message
func (m *Message) GetFrameData() (*FrameData, error) {
	var data FrameData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// Frame converts the wire data to a landmark frame. A zero timestamp is
// replaced with the message timestamp.
func (f *FrameData) Frame(fallbackTS int64) landmark.Frame {
	ts := f.Timestamp
	if ts == 0 {
		ts = fallbackTS
	}
	return landmark.Frame{
		Width:     f.Width,
		Height:    f.Height,
		Faces:     f.Faces,
		Timestamp: ts,
	}
}

// DecodeImage decodes the base64 image, returning nil if there is none
func (f *FrameData) DecodeImage() ([]byte, error) {
	if f.Image == "" {
		return nil, nil
	}
	return base64.StdEncoding.DecodeString(f.Image)
}

// GetModeData extracts mode data from a message
func (m *Message) GetModeData() (*ModeData, error) {
	var data ModeData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetStateData extracts state data from a message
func (m *Message) GetStateData() (*StateData, error) {
	var data StateData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetStatusData extracts status data from a message
func (m *Message) GetStatusData() (*StatusData, error) {
	var data StatusData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetErrorData extracts error data from a message
func (m *Message) GetErrorData() (*ErrorData, error) {
	var data ErrorData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetPingData extracts ping data from a message
func (m *Message) GetPingData() (*PingData, error) {
	var data PingData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetPongData extracts pong data from a message
func (m *Message) GetPongData() (*PongData, error) {
	var data PongData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}
