// Package game runs tug-of-war sessions: per-player perception pipelines,
// the AI opponent, the match evaluator and the frame loop that feeds them.
package game

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/teslashibe/go-tonguetug/internal/log"
	"github.com/teslashibe/go-tonguetug/pkg/landmark"
	"github.com/teslashibe/go-tonguetug/pkg/match"
	"github.com/teslashibe/go-tonguetug/pkg/observe"
	"github.com/teslashibe/go-tonguetug/pkg/opponent"
	"github.com/teslashibe/go-tonguetug/pkg/players"
	"github.com/teslashibe/go-tonguetug/pkg/protocol"
	"github.com/teslashibe/go-tonguetug/pkg/tracking"
	"github.com/teslashibe/go-tonguetug/pkg/tracking/detection"
)

// Options configures a session. Zero values use the defaults.
type Options struct {
	Mode      Mode
	Tracking  *tracking.Config       // Overrides the mode preset when set
	Tuning    *tracking.TuningParams // Applied on top of every mode's preset
	Estimator detection.EstimatorConfig
	Rate      opponent.RateConfig
	Pull      opponent.PullConfig

	// RandSource seeds the rate-based opponent. Nil seeds from the runtime.
	RandSource rand.Source

	Metrics *observe.Metrics
	Logger  *slog.Logger
	Now     func() time.Time
}

// pipeline is one tracked player.
type pipeline struct {
	id         players.ID
	perception *tracking.Perception
}

// Session owns all state for one play session. It is safe for concurrent use.
type Session struct {
	mu     sync.Mutex
	id     string
	opts   Options
	logger *slog.Logger

	mode      Mode
	pipelines []pipeline
	opponent  opponent.Opponent
	match     *match.Evaluator
	tuning    *tracking.TuningParams

	running bool
	lastAt  time.Time
	frames  uint64
}

// NewSession creates a session in the given mode. An empty mode means solo.
func NewSession(opts Options) (*Session, error) {
	if opts.Mode == "" {
		opts.Mode = ModeSolo
	}
	mode, err := ParseMode(string(opts.Mode))
	if err != nil {
		return nil, err
	}
	if opts.Logger == nil {
		opts.Logger = log.Component("game")
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	s := &Session{
		id:     uuid.NewString(),
		opts:   opts,
		logger: opts.Logger,
		match:  match.NewEvaluator(),
		tuning: opts.Tuning,
	}
	s.build(mode)
	return s, nil
}

// ID returns the session's unique identifier.
func (s *Session) ID() string {
	return s.id
}

// Mode returns the current mode.
func (s *Session) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// build creates fresh per-player state for a mode. Caller holds mu.
func (s *Session) build(mode Mode) {
	cfg := mode.TrackingConfig()
	if s.opts.Tracking != nil {
		cfg = *s.opts.Tracking
	}

	s.mode = mode
	s.pipelines = s.pipelines[:0]
	ids := []players.ID{players.Player1, players.Player2}
	for i := 0; i < mode.Players(); i++ {
		p := tracking.NewPerception(cfg, detection.NewEstimator(s.opts.Estimator))
		if s.tuning != nil {
			p.SetTuningParams(*s.tuning)
		}
		s.pipelines = append(s.pipelines, pipeline{id: ids[i], perception: p})
	}

	switch mode.Opponent() {
	case opponent.KindRate:
		s.opponent = opponent.NewRate(s.opts.Rate, s.opts.RandSource)
	case opponent.KindPull:
		s.opponent = opponent.NewPull(s.opts.Pull)
	default:
		s.opponent = nil
	}

	s.match.Reset()
	s.lastAt = time.Time{}
}

// Start marks the session live and starts the opponent.
func (s *Session) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = true
	if s.opponent != nil {
		s.opponent.Start()
	}
}

// Stop halts the opponent. Counters are left as they are.
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
	if s.opponent != nil {
		s.opponent.Stop()
	}
}

// Running reports whether the session is between Start and Stop.
func (s *Session) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// SetMode discards all per-player state and rebuilds it for mode.
func (s *Session) SetMode(name string) error {
	mode, err := ParseMode(name)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.opponent != nil {
		s.opponent.Stop()
	}
	s.build(mode)
	if s.running && s.opponent != nil {
		s.opponent.Start()
	}
	s.logger.Info("mode changed", "session", s.id, "mode", mode)
	return nil
}

// Reset zeros every counter, tracker, the opponent and the match.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.pipelines {
		p.perception.Reset()
	}
	if s.opponent != nil {
		s.opponent.Reset()
	}
	s.match.Reset()
	s.lastAt = time.Time{}
	s.logger.Info("session reset", "session", s.id)
}

// Tuning returns the current tracking parameters.
func (s *Session) Tuning() tracking.TuningParams {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pipelines[0].perception.GetTuningParams()
}

// SetTuning applies params to every player. Changes survive mode switches.
func (s *Session) SetTuning(params tracking.TuningParams) tracking.TuningParams {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range s.pipelines {
		p.perception.SetTuningParams(params)
	}
	applied := s.pipelines[0].perception.GetTuningParams()
	s.tuning = &applied
	s.logger.Info("tuning updated", "session", s.id, "params", applied)
	return applied
}

// ProcessFrame runs one frame through every player's pipeline, then updates
// the opponent and the match. Players run concurrently; each player's own
// updates are serialized.
func (s *Session) ProcessFrame(ctx context.Context, frame landmark.Frame) (Snapshot, error) {
	if err := frame.Validate(); err != nil {
		s.recordError(ctx, "invalid_frame")
		return Snapshot{}, err
	}
	start := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	at := s.opts.Now()
	if frame.Timestamp > 0 {
		at = time.UnixMilli(frame.Timestamp)
	}
	// The session clock never runs backward
	if at.Before(s.lastAt) {
		at = s.lastAt
	}

	assignment := players.Assign(frame.Faces, frame.Width)
	readings := make([]tracking.Reading, len(s.pipelines))

	g, gctx := errgroup.WithContext(ctx)
	for i, p := range s.pipelines {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			readings[i] = p.perception.Process(assignment.Face(p.id), frame.Width, frame.Height, at)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.recordError(ctx, "canceled")
		return Snapshot{}, err
	}

	for i, r := range readings {
		if r.Result.Transition == tracking.NoTransition {
			continue
		}
		id := s.pipelines[i].id
		s.logger.Debug("point scored", "player", id, "count", r.Result.Count, "transition", r.Result.Transition)
		if s.opts.Metrics != nil {
			s.opts.Metrics.RecordPoint(ctx, string(id), string(r.Result.Transition))
		}
	}

	var dt time.Duration
	if !s.lastAt.IsZero() && at.After(s.lastAt) {
		dt = at.Sub(s.lastAt)
	}
	s.lastAt = at
	if s.opponent != nil {
		s.opponent.Update(float64(s.pipelines[0].perception.Count()), dt)
	}

	s.frames++
	snap := s.snapshotLocked(readings)

	if s.opts.Metrics != nil {
		s.opts.Metrics.RecordFrame(ctx, string(s.mode), time.Since(start))
	}
	return snap, nil
}

func (s *Session) recordError(ctx context.Context, reason string) {
	if s.opts.Metrics != nil {
		s.opts.Metrics.RecordFrameError(ctx, reason)
	}
}

// PlayerSnapshot is one player's output.
type PlayerSnapshot struct {
	ID         players.ID          `json:"id"`
	Count      int                 `json:"count"`
	State      tracking.State      `json:"state"`
	Transition tracking.Transition `json:"transition,omitempty"` // Set on the frame that scored
	Visible    bool                `json:"visible"`
	RelativeX  float64             `json:"relative_x"`
}

// Snapshot is the session's output surface.
type Snapshot struct {
	SessionID string           `json:"session_id"`
	Mode      Mode             `json:"mode"`
	Players   []PlayerSnapshot `json:"players"`
	AIScore   *float64         `json:"ai_score,omitempty"`
	Match     match.Outcome    `json:"match"`
	Frames    uint64           `json:"frames"`
}

// Snapshot returns the current output without processing a frame.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked(nil)
}

// snapshotLocked builds the output. readings, when set, carry this frame's transitions.
func (s *Session) snapshotLocked(readings []tracking.Reading) Snapshot {
	snap := Snapshot{
		SessionID: s.id,
		Mode:      s.mode,
		Players:   make([]PlayerSnapshot, 0, len(s.pipelines)),
		Frames:    s.frames,
	}

	for i, p := range s.pipelines {
		ps := PlayerSnapshot{
			ID:    p.id,
			Count: p.perception.Count(),
			State: p.perception.State(),
		}
		if readings != nil {
			ps.Transition = readings[i].Result.Transition
		}
		if pos := p.perception.Position(); pos != nil {
			ps.Visible = pos.IsVisible
			ps.RelativeX = pos.RelativeX
		}
		snap.Players = append(snap.Players, ps)
	}

	p1 := float64(snap.Players[0].Count)
	var p2 float64
	if s.opponent != nil {
		ai := s.opponent.Score()
		snap.AIScore = &ai
		p2 = ai
	} else if len(snap.Players) > 1 {
		p2 = float64(snap.Players[1].Count)
	}

	if readings != nil {
		snap.Match = s.match.Evaluate(p1, p2)
	} else {
		snap.Match = s.match.Peek(p1, p2)
	}
	return snap
}

// StateData converts the snapshot to its wire form.
func (s Snapshot) StateData() protocol.StateData {
	data := protocol.StateData{
		SessionID: s.SessionID,
		Mode:      string(s.Mode),
		Players:   make([]protocol.PlayerData, 0, len(s.Players)),
		AIScore:   s.AIScore,
		Position:  s.Match.Position,
		Winner:    string(s.Match.Winner),
		Ended:     s.Match.Ended,
		Frames:    s.Frames,
	}
	for _, p := range s.Players {
		data.Players = append(data.Players, protocol.PlayerData{
			ID:         string(p.ID),
			Count:      p.Count,
			State:      string(p.State),
			Transition: string(p.Transition),
			Visible:    p.Visible,
			RelativeX:  p.RelativeX,
		})
	}
	if s.Match.Frozen != nil {
		data.Frozen = &protocol.ScoresData{
			Player1: s.Match.Frozen.Player1,
			Player2: s.Match.Frozen.Player2,
		}
	}
	return data
}
