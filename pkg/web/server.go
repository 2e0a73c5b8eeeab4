// Package web serves the game over HTTP: the REST control API, the live
// state and overlay websockets, the landmark ingest websocket and metrics.
package web

import (
	"context"
	"log/slog"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-tonguetug/internal/log"
	"github.com/teslashibe/go-tonguetug/pkg/game"
	"github.com/teslashibe/go-tonguetug/pkg/hub"
	"github.com/teslashibe/go-tonguetug/pkg/ingest"
	"github.com/teslashibe/go-tonguetug/pkg/observe"
	"github.com/teslashibe/go-tonguetug/pkg/protocol"
)

// Server is the game's HTTP front end
type Server struct {
	app     *fiber.App
	port    string
	logger  *slog.Logger
	session *game.Session
	metrics *observe.Metrics

	// Landmark producers
	ingest *ingest.Hub

	// Viewers
	stateHub   *hub.Hub
	overlayHub *hub.Hub

	status   game.Status
	statusMu sync.RWMutex

	// Stop callback, set by the command that owns the runner
	OnStop func()
}

// NewServer creates the server for a session. metrics may be nil.
func NewServer(port string, session *game.Session, metrics *observe.Metrics) *Server {
	s := &Server{
		port:       port,
		logger:     log.Component("web"),
		session:    session,
		metrics:    metrics,
		ingest:     ingest.NewHub(),
		stateHub:   hub.New("state"),
		overlayHub: hub.New("overlay"),
		status:     game.Status{Mode: session.Mode()},
	}

	s.stateHub.OnWelcome(s.welcome)
	s.stateHub.OnCount(s.countClients("state"))
	s.overlayHub.OnCount(s.countClients("overlay"))

	s.ingest.OnReset(func(connID string) {
		s.logger.Info("reset requested", "conn", connID)
		s.reset()
	})
	s.ingest.OnMode(func(connID, mode string) error {
		s.logger.Info("mode change requested", "conn", connID, "mode", mode)
		return s.setMode(mode)
	})

	app := fiber.New(fiber.Config{
		AppName:               "Tongue Tug",
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Next: func(c *fiber.Ctx) bool {
			// Skip scrapes and health probes
			return c.Path() == "/metrics" || c.Path() == "/healthz"
		},
	}))
	app.Use(cors.New())

	app.Get("/healthz", s.handleHealth)
	app.Get("/metrics", observe.Handler())

	// API routes
	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Post("/reset", s.handleReset)
	api.Post("/mode/:mode", s.handleMode)
	api.Get("/tuning", s.handleGetTuning)
	api.Put("/tuning", s.handleSetTuning)
	api.Post("/stop", s.handleStop)
	s.ingest.RegisterAPIRoutes(api)

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	s.ingest.RegisterRoutes(app)
	app.Get("/ws/state", websocket.New(func(c *websocket.Conn) {
		hub.NewViewer(s.stateHub, c).Run()
	}))
	app.Get("/ws/overlay", websocket.New(func(c *websocket.Conn) {
		hub.NewViewer(s.overlayHub, c).Run()
	}))

	s.app = app
	return s
}

// App exposes the Fiber app, mainly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Ingest returns the landmark producer hub so frames can be routed to a runner.
func (s *Server) Ingest() *ingest.Hub {
	return s.ingest
}

// Start runs the viewer hubs until ctx is done and serves HTTP until Shutdown.
func (s *Server) Start(ctx context.Context) error {
	go s.stateHub.Run(ctx)
	go s.overlayHub.Run(ctx)

	s.logger.Info("listening", "url", "http://localhost:"+s.port)
	return s.app.Listen(":" + s.port)
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// PublishState broadcasts a snapshot to state viewers.
func (s *Server) PublishState(snap game.Snapshot) {
	msg, err := protocol.NewStateMessage(snap.StateData())
	if err != nil {
		s.logger.Warn("encode state", "error", err)
		return
	}
	if err := s.stateHub.BroadcastMessage(msg); err != nil {
		s.logger.Warn("broadcast state", "error", err)
	}
}

// PublishStatus records the runner status and broadcasts it to state viewers
// and landmark producers.
func (s *Server) PublishStatus(st game.Status) {
	s.statusMu.Lock()
	s.status = st
	s.statusMu.Unlock()

	msg, err := protocol.NewStatusMessage(st.Running, string(st.Mode), st.Message)
	if err != nil {
		s.logger.Warn("encode status", "error", err)
		return
	}
	if err := s.stateHub.BroadcastMessage(msg); err != nil {
		s.logger.Warn("broadcast status", "error", err)
	}
	s.ingest.Broadcast(msg)
}

// PublishOverlay sends an annotated JPEG frame to overlay viewers.
func (s *Server) PublishOverlay(jpeg []byte) {
	s.overlayHub.BroadcastBinary(jpeg)
}

// Status returns the last runner status seen.
func (s *Server) Status() game.Status {
	s.statusMu.RLock()
	defer s.statusMu.RUnlock()
	return s.status
}

func (s *Server) welcome() (hub.Message, bool) {
	msg, err := protocol.NewStateMessage(s.session.Snapshot().StateData())
	if err != nil {
		return hub.Message{}, false
	}
	data, err := msg.Bytes()
	if err != nil {
		return hub.Message{}, false
	}
	return hub.NewJSONMessage(data), true
}

func (s *Server) countClients(endpoint string) func(int) {
	return func(delta int) {
		if s.metrics != nil {
			s.metrics.ClientConnected(context.Background(), endpoint, int64(delta))
		}
	}
}

func (s *Server) reset() game.Snapshot {
	s.session.Reset()
	snap := s.session.Snapshot()
	s.PublishState(snap)
	return snap
}

func (s *Server) setMode(mode string) error {
	if err := s.session.SetMode(mode); err != nil {
		return err
	}

	s.statusMu.Lock()
	s.status.Mode = s.session.Mode()
	s.statusMu.Unlock()

	s.PublishState(s.session.Snapshot())
	return nil
}
