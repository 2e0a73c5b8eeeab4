package game

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/teslashibe/go-tonguetug/internal/log"
	"github.com/teslashibe/go-tonguetug/pkg/observe"
)

// Status describes the runner's lifecycle for the UI.
type Status struct {
	Running bool   `json:"running"`
	Mode    Mode   `json:"mode"`
	Message string `json:"message,omitempty"` // Kept until the next run starts
}

// Runner is the frame loop: it pulls frames from a Source into a Session.
type Runner struct {
	session *Session
	metrics *observe.Metrics
	logger  *slog.Logger

	mu      sync.Mutex
	status  Status
	cancel  context.CancelFunc
	skipped uint64

	// Callbacks
	onState  func(Snapshot)
	onStatus func(Status)
}

// NewRunner creates a frame loop for session. metrics may be nil.
func NewRunner(session *Session, metrics *observe.Metrics) *Runner {
	return &Runner{
		session: session,
		metrics: metrics,
		logger:  log.Component("runner"),
		status:  Status{Mode: session.Mode()},
	}
}

// OnState sets the callback invoked after each processed frame.
func (r *Runner) OnState(callback func(Snapshot)) {
	r.mu.Lock()
	r.onState = callback
	r.mu.Unlock()
}

// OnStatus sets the callback invoked when the status changes.
func (r *Runner) OnStatus(callback func(Status)) {
	r.mu.Lock()
	r.onStatus = callback
	r.mu.Unlock()
}

// Status returns the current status.
func (r *Runner) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	st := r.status
	st.Mode = r.session.Mode()
	return st
}

// Skipped returns how many frames were dropped because of errors.
func (r *Runner) Skipped() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.skipped
}

// Run starts src and processes frames until ctx is canceled, Stop is called,
// or the source is exhausted. A source that fails to start ends the run with
// ErrSourceInit; per-frame errors are logged and skipped.
// Stopping closes the source and halts the opponent but keeps all scores.
func (r *Runner) Run(ctx context.Context, src Source) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	r.mu.Lock()
	if r.cancel != nil {
		r.mu.Unlock()
		return ErrRunning
	}
	r.cancel = cancel
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.cancel = nil
		r.mu.Unlock()
	}()

	if err := src.Start(ctx); err != nil {
		err = fmt.Errorf("%w: %w", ErrSourceInit, err)
		r.logger.Error("landmark source failed", "error", err)
		r.setStatus(Status{Running: false, Message: err.Error()})
		return err
	}
	defer func() {
		if err := src.Close(); err != nil {
			r.logger.Warn("close landmark source", "error", err)
		}
	}()

	r.session.Start()
	defer r.session.Stop()

	if r.metrics != nil {
		r.metrics.ActiveSessions.Add(ctx, 1)
		defer r.metrics.ActiveSessions.Add(context.WithoutCancel(ctx), -1)
	}

	r.setStatus(Status{Running: true})
	defer r.setStatus(Status{Running: false})
	r.logger.Info("frame loop started", "session", r.session.ID(), "mode", r.session.Mode())

	for {
		frame, err := src.Next(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, io.EOF) || errors.Is(err, ErrStopped) {
				r.logger.Info("frame loop stopped", "session", r.session.ID(), "reason", stopReason(ctx, err))
				return nil
			}
			r.skip(ctx, "source", err)
			continue
		}

		snap, err := r.session.ProcessFrame(ctx, frame)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			r.skip(ctx, "process", err)
			continue
		}

		r.mu.Lock()
		cb := r.onState
		r.mu.Unlock()
		if cb != nil {
			cb(snap)
		}
	}
}

// Stop cancels a running loop. It does not wait for Run to return.
func (r *Runner) Stop() {
	r.mu.Lock()
	cancel := r.cancel
	r.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (r *Runner) skip(ctx context.Context, stage string, err error) {
	r.mu.Lock()
	r.skipped++
	r.mu.Unlock()

	r.logger.Warn("frame skipped", "stage", stage, "error", err)
	if r.metrics != nil && stage == "source" {
		r.metrics.RecordFrameError(ctx, "source")
	}
}

func (r *Runner) setStatus(st Status) {
	st.Mode = r.session.Mode()

	r.mu.Lock()
	r.status = st
	cb := r.onStatus
	r.mu.Unlock()

	if cb != nil {
		cb(st)
	}
}

func stopReason(ctx context.Context, err error) string {
	switch {
	case ctx.Err() != nil:
		return "canceled"
	case errors.Is(err, io.EOF):
		return "end of recording"
	default:
		return "source closed"
	}
}
