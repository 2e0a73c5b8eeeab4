// Package tracking smooths per-frame tongue detections and counts
// left-right sweeps into score events.
package tracking

import (
	"sync"
	"time"

	"github.com/teslashibe/go-tonguetug/pkg/tracking/detection"
)

// TrackedPosition is a player's smoothed horizontal tongue position
type TrackedPosition struct {
	RelativeX  float64 `json:"relative_x"` // Weighted average over the window
	RawX       float64 `json:"raw_x"`      // Latest accepted reading
	Confidence float64 `json:"confidence"` // Latest accepted confidence
	IsVisible  bool    `json:"is_visible"`
}

type sample struct {
	relativeX  float64
	confidence float64
	at         time.Time
}

// Tracker keeps a rolling, confidence-weighted window of tongue positions
// for one player.
type Tracker struct {
	mu      sync.Mutex
	config  Config
	history []sample // oldest first, at most SmoothingWindow entries
	current *TrackedPosition
	now     func() time.Time
}

// NewTracker creates a tracker. Zero config fields fall back to DefaultConfig.
func NewTracker(config Config) *Tracker {
	config = config.withDefaults()
	return &Tracker{
		config:  config,
		history: make([]sample, 0, config.SmoothingWindow),
		now:     time.Now,
	}
}

// Update incorporates a detection and returns the smoothed position.
//
// A nil detection, one below MinConfidence, or one without the tongue out
// is rejected: the previous position is returned unchanged, marked not
// visible. It is nil if nothing has been accepted since the last reset.
func (t *Tracker) Update(det *detection.Detection) *TrackedPosition {
	t.mu.Lock()
	defer t.mu.Unlock()

	if det == nil || !det.TongueOut || det.Confidence < t.config.MinConfidence {
		if t.current == nil {
			return nil
		}
		t.current.IsVisible = false
		pos := *t.current
		return &pos
	}

	if len(t.history) >= t.config.SmoothingWindow {
		// FIFO eviction of the oldest entries
		t.history = append(t.history[:0], t.history[len(t.history)-t.config.SmoothingWindow+1:]...)
	}
	t.history = append(t.history, sample{
		relativeX:  det.Position.RelativeX,
		confidence: det.Confidence,
		at:         t.now(),
	})

	t.current = &TrackedPosition{
		RelativeX:  t.weightedAverage(det.Position.RelativeX),
		RawX:       det.Position.RelativeX,
		Confidence: det.Confidence,
		IsVisible:  true,
	}
	pos := *t.current
	return &pos
}

// weightedAverage weights entry i (0 = oldest) by (i+1) * confidence.
func (t *Tracker) weightedAverage(fallback float64) float64 {
	var sum, weights float64
	for i, s := range t.history {
		w := float64(i+1) * s.confidence
		sum += s.relativeX * w
		weights += w
	}
	if weights == 0 {
		return fallback
	}
	return sum / weights
}

// Current returns a copy of the current position, or nil.
func (t *Tracker) Current() *TrackedPosition {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.current == nil {
		return nil
	}
	pos := *t.current
	return &pos
}

// HistoryLen returns how many samples are in the window.
func (t *Tracker) HistoryLen() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.history)
}

// Reset clears the window and the current position.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.history = t.history[:0]
	t.current = nil
}

// setConfig swaps the configuration, trimming history if the window shrank.
func (t *Tracker) setConfig(config Config) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.config = config.withDefaults()
	if over := len(t.history) - t.config.SmoothingWindow; over > 0 {
		t.history = append(t.history[:0], t.history[over:]...)
	}
}
