// Package feed is the producer side of the game server: it streams landmark
// frames over the ingest websocket and drives the REST control API.
package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/teslashibe/go-tonguetug/internal/httpc"
	"github.com/teslashibe/go-tonguetug/internal/log"
	"github.com/teslashibe/go-tonguetug/pkg/game"
	"github.com/teslashibe/go-tonguetug/pkg/landmark"
	"github.com/teslashibe/go-tonguetug/pkg/protocol"
	"github.com/teslashibe/go-tonguetug/pkg/web"
)

// ErrNotConnected is returned by senders before Connect or after Close.
var ErrNotConnected = errors.New("feed: not connected")

const (
	writeWait        = 5 * time.Second
	handshakeTimeout = 10 * time.Second
)

// Client streams frames to one game server
type Client struct {
	baseURL string // http(s)://host:port
	id      string
	http    *http.Client
	logger  *slog.Logger

	ws        *websocket.Conn
	wsMu      sync.Mutex
	connected atomic.Bool
	done      chan struct{}

	// Callbacks, set before Connect
	OnError func(message string)
	OnPong  func(rtt time.Duration)
}

// NewClient creates a client for the server at baseURL using producer id.
// An empty id lets the server assign one.
func NewClient(baseURL, id string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		id:      id,
		http:    httpc.Client,
		logger:  log.Component("feed").With("server", baseURL),
	}
}

// WebSocketURL returns the ingest endpoint for this client.
func (c *Client) WebSocketURL() (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("feed: parse server url: %w", err)
	}
	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("feed: unsupported scheme %q", u.Scheme)
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws/landmarks"
	if c.id != "" {
		u.Path += "/" + url.PathEscape(c.id)
	}
	return u.String(), nil
}

// Connect dials the ingest websocket and starts reading server replies.
func (c *Client) Connect(ctx context.Context) error {
	wsURL, err := c.WebSocketURL()
	if err != nil {
		return err
	}

	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	ws, _, err := dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("feed: connect %s: %w", wsURL, err)
	}

	c.wsMu.Lock()
	c.ws = ws
	c.done = make(chan struct{})
	c.wsMu.Unlock()
	c.connected.Store(true)

	go c.handleMessages(ws, c.done)

	c.logger.Info("connected", "url", wsURL)
	return nil
}

// IsConnected reports whether the websocket is up.
func (c *Client) IsConnected() bool {
	return c.connected.Load()
}

// SendFrame sends one landmark frame, with an optional JPEG for the overlay.
func (c *Client) SendFrame(frame landmark.Frame, jpeg []byte) error {
	msg, err := protocol.NewLandmarksMessage(frame, jpeg)
	if err != nil {
		return err
	}
	return c.send(msg)
}

// SendReset asks the server to zero every score.
func (c *Client) SendReset() error {
	msg, err := protocol.NewResetMessage()
	if err != nil {
		return err
	}
	return c.send(msg)
}

// SendMode asks the server to switch game mode.
func (c *Client) SendMode(mode string) error {
	msg, err := protocol.NewModeMessage(mode)
	if err != nil {
		return err
	}
	return c.send(msg)
}

// Ping sends a ping; OnPong receives the round trip time.
func (c *Client) Ping(id string) error {
	msg, err := protocol.NewPingMessage(id)
	if err != nil {
		return err
	}
	return c.send(msg)
}

func (c *Client) send(msg *protocol.Message) error {
	data, err := msg.Bytes()
	if err != nil {
		return err
	}

	c.wsMu.Lock()
	defer c.wsMu.Unlock()
	if c.ws == nil || !c.connected.Load() {
		return ErrNotConnected
	}
	c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return c.ws.WriteMessage(websocket.TextMessage, data)
}

// handleMessages reads replies until the connection drops
func (c *Client) handleMessages(ws *websocket.Conn, done chan struct{}) {
	defer close(done)
	defer c.connected.Store(false)

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			c.logger.Debug("read ended", "error", err)
			return
		}

		msg, err := protocol.ParseMessage(data)
		if err != nil {
			c.logger.Warn("bad message from server", "error", err)
			continue
		}

		switch msg.Type {
		case protocol.TypeError:
			ed, err := msg.GetErrorData()
			if err != nil {
				continue
			}
			c.logger.Warn("server error", "message", ed.Message)
			if c.OnError != nil {
				c.OnError(ed.Message)
			}
		case protocol.TypePong:
			pd, err := msg.GetPongData()
			if err != nil {
				continue
			}
			rtt := time.Since(time.UnixMilli(pd.PingTS))
			if c.OnPong != nil {
				c.OnPong(rtt)
			}
		}
	}
}

// Close shuts the websocket and waits for the reader to exit.
func (c *Client) Close() error {
	c.wsMu.Lock()
	ws, done := c.ws, c.done
	c.ws = nil
	c.wsMu.Unlock()
	if ws == nil {
		return nil
	}

	c.connected.Store(false)
	ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait))
	err := ws.Close()
	<-done
	return err
}

// Status fetches the runner status and game state.
func (c *Client) Status(ctx context.Context) (*web.StatusResponse, error) {
	var status web.StatusResponse
	if err := httpc.DoJSON(ctx, c.http, http.MethodGet, c.baseURL+"/api/status", nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// Reset zeroes every score through the REST API.
func (c *Client) Reset(ctx context.Context) (*game.Snapshot, error) {
	var snap game.Snapshot
	if err := httpc.DoJSON(ctx, c.http, http.MethodPost, c.baseURL+"/api/reset", nil, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// SetMode switches game mode through the REST API.
func (c *Client) SetMode(ctx context.Context, mode string) (*game.Snapshot, error) {
	var snap game.Snapshot
	u := c.baseURL + "/api/mode/" + url.PathEscape(mode)
	if err := httpc.DoJSON(ctx, c.http, http.MethodPost, u, nil, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// Stop halts frame processing on the server.
func (c *Client) Stop(ctx context.Context) error {
	return httpc.DoJSON(ctx, c.http, http.MethodPost, c.baseURL+"/api/stop", nil, nil)
}
