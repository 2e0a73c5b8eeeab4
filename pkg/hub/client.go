package hub

import (
	"time"

	"github.com/gofiber/websocket/v2"
)

const (
	// viewerSendBuffer holds about one second of state updates at the
	// runner's ~30 fps. A viewer that falls further behind is dropped and
	// reconnects to a fresh welcome snapshot.
	viewerSendBuffer = 32

	// viewerReadLimit bounds inbound frames. Viewers send nothing but
	// close and pong control frames.
	viewerReadLimit = 512

	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10 // Must be less than pongWait
)

// Viewer is one browser connection to a hub. Only writePump writes to conn.
type Viewer struct {
	hub  *Hub
	conn *websocket.Conn
	send chan Message
}

// NewViewer registers a connection with the hub. If the hub has stopped,
// the viewer's Run returns as soon as the socket closes.
func NewViewer(hub *Hub, conn *websocket.Conn) *Viewer {
	v := &Viewer{
		hub:  hub,
		conn: conn,
		send: make(chan Message, viewerSendBuffer),
	}
	select {
	case hub.register <- v:
	case <-hub.done:
		close(v.send)
	}
	return v
}

// Run serves the viewer until the connection closes. Call it from the
// websocket handler; fiber releases the conn when the handler returns.
func (v *Viewer) Run() {
	go v.writePump()
	v.listen()
}

// listen discards inbound data; reading is what surfaces pongs and disconnects.
func (v *Viewer) listen() {
	defer func() {
		select {
		case v.hub.unregister <- v:
		case <-v.hub.done:
		}
		v.conn.Close()
	}()

	v.conn.SetReadLimit(viewerReadLimit)
	v.conn.SetReadDeadline(time.Now().Add(pongWait))
	v.conn.SetPongHandler(func(string) error {
		return v.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := v.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writePump drains send until the hub closes it, pinging while idle.
func (v *Viewer) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		v.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-v.send:
			v.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				v.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := v.conn.WriteMessage(msg.frameType(), msg.Data); err != nil {
				return
			}

		case <-ticker.C:
			v.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := v.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
