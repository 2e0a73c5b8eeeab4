// Package ingest accepts landmark frames and control messages from browsers
// over the /ws/landmarks websocket.
package ingest

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/teslashibe/go-tonguetug/internal/log"
	"github.com/teslashibe/go-tonguetug/pkg/landmark"
	"github.com/teslashibe/go-tonguetug/pkg/protocol"
)

// maxMessageSize bounds one inbound message: two full face meshes plus an optional JPEG.
const maxMessageSize = 2 * 1024 * 1024

// Connection is one connected landmark producer
type Connection struct {
	ID        string
	Conn      *websocket.Conn
	Connected time.Time
	LastSeen  time.Time

	mu sync.Mutex
}

// Send writes a message to the connection
func (c *Connection) Send(msg *protocol.Message) error {
	data, err := msg.Bytes()
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Conn.WriteMessage(websocket.TextMessage, data)
}

// Frame is a decoded landmarks message
type Frame struct {
	ConnID string
	Frame  landmark.Frame
	Image  []byte // JPEG, when the browser attached one
}

// Hub manages landmark producer connections
type Hub struct {
	mu     sync.RWMutex
	conns  map[string]*Connection
	logger *slog.Logger

	// Callbacks
	onFrame func(Frame)
	onReset func(connID string)
	onMode  func(connID string, mode string) error

	// Stats
	messagesReceived atomic.Uint64
	messagesSent     atomic.Uint64
	framesReceived   atomic.Uint64
	framesRejected   atomic.Uint64
}

// NewHub creates a new ingest hub
func NewHub() *Hub {
	return &Hub{
		conns:  make(map[string]*Connection),
		logger: log.Component("ingest"),
	}
}

// OnFrame sets the callback for valid landmark frames
func (h *Hub) OnFrame(callback func(Frame)) {
	h.mu.Lock()
	h.onFrame = callback
	h.mu.Unlock()
}

// OnReset sets the callback for reset requests
func (h *Hub) OnReset(callback func(connID string)) {
	h.mu.Lock()
	h.onReset = callback
	h.mu.Unlock()
}

// OnMode sets the callback for mode switch requests. A returned error is
// sent back to the requester.
func (h *Hub) OnMode(callback func(connID string, mode string) error) {
	h.mu.Lock()
	h.onMode = callback
	h.mu.Unlock()
}

// RegisterRoutes registers the ingest websocket on a Fiber app
func (h *Hub) RegisterRoutes(app *fiber.App) {
	app.Use("/ws/landmarks", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	handler := websocket.New(h.handleConn, websocket.Config{
		ReadBufferSize: 64 * 1024,
	})
	app.Get("/ws/landmarks", handler)
	app.Get("/ws/landmarks/:id", handler)
}

func (h *Hub) handleConn(c *websocket.Conn) {
	id := c.Params("id")
	if id == "" {
		id = uuid.NewString()
	}

	conn := &Connection{
		ID:        id,
		Conn:      c,
		Connected: time.Now(),
		LastSeen:  time.Now(),
	}

	h.mu.Lock()
	h.conns[id] = conn
	count := len(h.conns)
	h.mu.Unlock()
	h.logger.Info("producer connected", "conn", id, "total", count)

	defer func() {
		h.mu.Lock()
		delete(h.conns, id)
		count := len(h.conns)
		h.mu.Unlock()
		h.logger.Info("producer disconnected", "conn", id, "total", count)
	}()

	c.SetReadLimit(maxMessageSize)
	for {
		_, data, err := c.ReadMessage()
		if err != nil {
			h.logger.Debug("read ended", "conn", id, "error", err)
			return
		}

		conn.mu.Lock()
		conn.LastSeen = time.Now()
		conn.mu.Unlock()

		h.messagesReceived.Add(1)
		h.handleMessage(conn, data)
	}
}

func (h *Hub) handleMessage(conn *Connection, data []byte) {
	msg, err := protocol.ParseMessage(data)
	if err != nil {
		h.logger.Warn("parse error", "conn", conn.ID, "error", err)
		h.reply(conn, errorMessage(err.Error()))
		return
	}

	h.mu.RLock()
	frameCb := h.onFrame
	resetCb := h.onReset
	modeCb := h.onMode
	h.mu.RUnlock()

	switch msg.Type {
	case protocol.TypeLandmarks:
		h.framesReceived.Add(1)
		fd, err := msg.GetFrameData()
		if err != nil {
			h.reject(conn, err)
			return
		}
		frame := fd.Frame(msg.Timestamp)
		if err := frame.Validate(); err != nil {
			h.reject(conn, err)
			return
		}
		img, err := fd.DecodeImage()
		if err != nil {
			h.reject(conn, err)
			return
		}
		if frameCb != nil {
			frameCb(Frame{ConnID: conn.ID, Frame: frame, Image: img})
		}

	case protocol.TypeReset:
		if resetCb != nil {
			resetCb(conn.ID)
		}

	case protocol.TypeMode:
		md, err := msg.GetModeData()
		if err != nil {
			h.reply(conn, errorMessage(err.Error()))
			return
		}
		if modeCb != nil {
			if err := modeCb(conn.ID, md.Mode); err != nil {
				h.reply(conn, errorMessage(err.Error()))
			}
		}

	case protocol.TypePing:
		var id string
		if pd, err := msg.GetPingData(); err == nil {
			id = pd.ID
		}
		pong, err := protocol.NewPongMessage(id, msg.Timestamp, time.Now().UnixMilli())
		if err == nil {
			h.reply(conn, pong)
		}

	default:
		h.reply(conn, errorMessage("unsupported message type "+string(msg.Type)))
	}
}

func (h *Hub) reject(conn *Connection, err error) {
	h.framesRejected.Add(1)
	h.logger.Debug("frame rejected", "conn", conn.ID, "error", err)
	h.reply(conn, errorMessage(err.Error()))
}

func (h *Hub) reply(conn *Connection, msg *protocol.Message) {
	if msg == nil {
		return
	}
	h.messagesSent.Add(1)
	if err := conn.Send(msg); err != nil {
		h.logger.Debug("send failed", "conn", conn.ID, "error", err)
	}
}

func errorMessage(text string) *protocol.Message {
	msg, err := protocol.NewErrorMessage(text)
	if err != nil {
		return nil
	}
	return msg
}

// Broadcast sends a message to every producer, e.g. a status change
func (h *Hub) Broadcast(msg *protocol.Message) {
	h.mu.RLock()
	conns := make([]*Connection, 0, len(h.conns))
	for _, c := range h.conns {
		conns = append(conns, c)
	}
	h.mu.RUnlock()

	for _, c := range conns {
		h.reply(c, msg)
	}
}

// ConnectionCount returns the number of connected producers
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// Stats contains ingest statistics
type Stats struct {
	Connections      int    `json:"connections"`
	MessagesReceived uint64 `json:"messages_received"`
	MessagesSent     uint64 `json:"messages_sent"`
	FramesReceived   uint64 `json:"frames_received"`
	FramesRejected   uint64 `json:"frames_rejected"`
}

// GetStats returns ingest statistics
func (h *Hub) GetStats() Stats {
	return Stats{
		Connections:      h.ConnectionCount(),
		MessagesReceived: h.messagesReceived.Load(),
		MessagesSent:     h.messagesSent.Load(),
		FramesReceived:   h.framesReceived.Load(),
		FramesRejected:   h.framesRejected.Load(),
	}
}

// ConnectionInfo describes a connected producer
type ConnectionInfo struct {
	ID        string    `json:"id"`
	Connected time.Time `json:"connected"`
	LastSeen  time.Time `json:"last_seen"`
}

// GetConnectionInfos returns info about all producers
func (h *Hub) GetConnectionInfos() []ConnectionInfo {
	h.mu.RLock()
	defer h.mu.RUnlock()

	infos := make([]ConnectionInfo, 0, len(h.conns))
	for _, c := range h.conns {
		c.mu.Lock()
		infos = append(infos, ConnectionInfo{
			ID:        c.ID,
			Connected: c.Connected,
			LastSeen:  c.LastSeen,
		})
		c.mu.Unlock()
	}
	return infos
}

// RegisterAPIRoutes registers producer inspection routes
func (h *Hub) RegisterAPIRoutes(api fiber.Router) {
	producers := api.Group("/producers")

	producers.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"producers": h.GetConnectionInfos(),
			"count":     h.ConnectionCount(),
		})
	})

	producers.Get("/stats", func(c *fiber.Ctx) error {
		return c.JSON(h.GetStats())
	})
}
