package ingest

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gorilla/websocket"

	"github.com/teslashibe/go-tonguetug/pkg/landmark"
	"github.com/teslashibe/go-tonguetug/pkg/protocol"
)

func startServer(t *testing.T, h *Hub, port string) *websocket.Conn {
	t.Helper()
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	h.RegisterRoutes(app)

	go app.Listen(":" + port)
	t.Cleanup(func() { app.Shutdown() })
	time.Sleep(100 * time.Millisecond)

	ws, _, err := websocket.DefaultDialer.Dial("ws://localhost:"+port+"/ws/landmarks/browser-1", nil)
	if err != nil {
		t.Fatalf("WebSocket dial error: %v", err)
	}
	t.Cleanup(func() { ws.Close() })
	return ws
}

func send(t *testing.T, ws *websocket.Conn, msg *protocol.Message) {
	t.Helper()
	data, err := msg.Bytes()
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}
	if err := ws.WriteMessage(websocket.TextMessage, data); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func read(t *testing.T, ws *websocket.Conn) *protocol.Message {
	t.Helper()
	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := ws.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	msg, err := protocol.ParseMessage(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return msg
}

func TestNewHub(t *testing.T) {
	h := NewHub()
	if h.ConnectionCount() != 0 {
		t.Error("ConnectionCount should be 0 initially")
	}
	stats := h.GetStats()
	if stats.MessagesReceived != 0 || stats.FramesReceived != 0 {
		t.Errorf("stats = %+v, want zero", stats)
	}
	if len(h.GetConnectionInfos()) != 0 {
		t.Error("GetConnectionInfos should be empty initially")
	}
}

func TestFrameCallback(t *testing.T) {
	h := NewHub()

	var mu sync.Mutex
	var got []Frame
	h.OnFrame(func(f Frame) {
		mu.Lock()
		got = append(got, f)
		mu.Unlock()
	})

	ws := startServer(t, h, "18101")

	face := landmark.SyntheticFace(landmark.DefaultSyntheticMouth())
	msg, _ := protocol.NewLandmarksMessage(landmark.Frame{Width: 640, Height: 480, Faces: []landmark.Face{face}}, []byte{0xFF, 0xD8})
	send(t, ws, msg)

	deadline := time.Now().Add(2 * time.Second)
	for {
		mu.Lock()
		n := len(got)
		mu.Unlock()
		if n > 0 || time.Now().After(deadline) {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 1 {
		t.Fatalf("frames received = %d, want 1", len(got))
	}
	f := got[0]
	if f.ConnID != "browser-1" {
		t.Errorf("ConnID = %q, want browser-1", f.ConnID)
	}
	if f.Frame.Timestamp != msg.Timestamp {
		t.Errorf("Timestamp = %d, want message ts %d", f.Frame.Timestamp, msg.Timestamp)
	}
	if len(f.Frame.Faces) != 1 || len(f.Image) != 2 {
		t.Errorf("faces = %d image = %d bytes", len(f.Frame.Faces), len(f.Image))
	}
}

func TestInvalidFrameRejected(t *testing.T) {
	h := NewHub()
	var called atomic.Bool
	h.OnFrame(func(Frame) { called.Store(true) })

	ws := startServer(t, h, "18102")

	msg, _ := protocol.NewLandmarksMessage(landmark.Frame{Width: 0, Height: 480}, nil)
	send(t, ws, msg)

	reply := read(t, ws)
	if reply.Type != protocol.TypeError {
		t.Fatalf("reply type = %s, want error", reply.Type)
	}
	if called.Load() {
		t.Error("OnFrame must not be called for an invalid frame")
	}
	if h.GetStats().FramesRejected != 1 {
		t.Errorf("FramesRejected = %d, want 1", h.GetStats().FramesRejected)
	}
}

func TestModeAndReset(t *testing.T) {
	h := NewHub()
	resets := make(chan string, 1)
	h.OnReset(func(id string) { resets <- id })
	h.OnMode(func(id, mode string) error {
		if mode != "versus" {
			return errors.New("unknown game mode")
		}
		return nil
	})

	ws := startServer(t, h, "18103")

	reset, _ := protocol.NewResetMessage()
	send(t, ws, reset)
	select {
	case id := <-resets:
		if id != "browser-1" {
			t.Errorf("reset from %q", id)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("reset callback not called")
	}

	bad, _ := protocol.NewModeMessage("doubles")
	send(t, ws, bad)
	reply := read(t, ws)
	ed, _ := reply.GetErrorData()
	if reply.Type != protocol.TypeError || !strings.Contains(ed.Message, "unknown") {
		t.Errorf("reply = %s %+v", reply.Type, ed)
	}
}

func TestPingPong(t *testing.T) {
	h := NewHub()
	ws := startServer(t, h, "18104")

	ping, _ := protocol.NewPingMessage("p1")
	send(t, ws, ping)

	reply := read(t, ws)
	if reply.Type != protocol.TypePong {
		t.Fatalf("Type = %s, want pong", reply.Type)
	}
	pd, _ := reply.GetPongData()
	if pd.ID != "p1" {
		t.Errorf("pong ID = %q, want p1", pd.ID)
	}
}

func TestUnknownAndMalformedMessages(t *testing.T) {
	h := NewHub()
	ws := startServer(t, h, "18105")

	ws.WriteMessage(websocket.TextMessage, []byte("not json"))
	if reply := read(t, ws); reply.Type != protocol.TypeError {
		t.Errorf("malformed reply = %s, want error", reply.Type)
	}

	ws.WriteMessage(websocket.TextMessage, []byte(`{"type":"teleport"}`))
	if reply := read(t, ws); reply.Type != protocol.TypeError {
		t.Errorf("unknown type reply = %s, want error", reply.Type)
	}

	if h.GetStats().MessagesReceived != 2 {
		t.Errorf("MessagesReceived = %d, want 2", h.GetStats().MessagesReceived)
	}
}

func TestConnectionTracking(t *testing.T) {
	h := NewHub()
	ws := startServer(t, h, "18106")

	time.Sleep(50 * time.Millisecond)
	if h.ConnectionCount() != 1 {
		t.Fatalf("ConnectionCount = %d, want 1", h.ConnectionCount())
	}
	infos := h.GetConnectionInfos()
	if len(infos) != 1 || infos[0].ID != "browser-1" {
		t.Errorf("infos = %+v", infos)
	}

	ws.Close()
	time.Sleep(100 * time.Millisecond)
	if h.ConnectionCount() != 0 {
		t.Errorf("ConnectionCount = %d, want 0 after disconnect", h.ConnectionCount())
	}
}

func TestAPIRoutes(t *testing.T) {
	h := NewHub()
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	h.RegisterRoutes(app)
	h.RegisterAPIRoutes(app.Group("/api"))

	tests := []struct {
		path string
		want string
	}{
		{"/api/producers/", "producers"},
		{"/api/producers/stats", "frames_received"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest("GET", tt.path, nil))
			if err != nil {
				t.Fatalf("Request error: %v", err)
			}
			if resp.StatusCode != 200 {
				t.Errorf("Status = %d, want 200", resp.StatusCode)
			}
			body, _ := io.ReadAll(resp.Body)
			if !strings.Contains(string(body), tt.want) {
				t.Errorf("body %s missing %q", body, tt.want)
			}
		})
	}

	resp, err := app.Test(httptest.NewRequest("GET", "/ws/landmarks", nil))
	if err != nil {
		t.Fatalf("Request error: %v", err)
	}
	if resp.StatusCode != fiber.StatusUpgradeRequired {
		t.Errorf("plain GET on websocket route = %d, want 426", resp.StatusCode)
	}
}
