package web

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/teslashibe/go-tonguetug/pkg/game"
	"github.com/teslashibe/go-tonguetug/pkg/tracking"
)

// StatusResponse is the body of GET /api/status
type StatusResponse struct {
	Status    game.Status   `json:"status"`
	State     game.Snapshot `json:"state"`
	Producers int           `json:"producers"`
	Viewers   int           `json:"viewers"`
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"session": s.session.ID(),
	})
}

// handleStatus returns the runner status and current game state
func (s *Server) handleStatus(c *fiber.Ctx) error {
	return c.JSON(StatusResponse{
		Status:    s.Status(),
		State:     s.session.Snapshot(),
		Producers: s.ingest.ConnectionCount(),
		Viewers:   s.stateHub.ViewerCount(),
	})
}

// handleReset zeroes every score and restarts the match
func (s *Server) handleReset(c *fiber.Ctx) error {
	return c.JSON(s.reset())
}

// handleMode switches game mode; scores start over
func (s *Server) handleMode(c *fiber.Ctx) error {
	if err := s.setMode(c.Params("mode")); err != nil {
		status := fiber.StatusInternalServerError
		if errors.Is(err, game.ErrUnknownMode) {
			status = fiber.StatusBadRequest
		}
		return c.Status(status).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(s.session.Snapshot())
}

func (s *Server) handleGetTuning(c *fiber.Ctx) error {
	return c.JSON(s.session.Tuning())
}

// handleSetTuning applies the non-zero fields of the body and returns the result
func (s *Server) handleSetTuning(c *fiber.Ctx) error {
	var params tracking.TuningParams
	if err := c.BodyParser(&params); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid tuning body: " + err.Error(),
		})
	}
	return c.JSON(s.session.SetTuning(params))
}

// handleStop halts frame processing; scores stay readable
func (s *Server) handleStop(c *fiber.Ctx) error {
	if s.OnStop == nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "stop not configured",
		})
	}
	s.OnStop()
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"stopped": true,
	})
}
