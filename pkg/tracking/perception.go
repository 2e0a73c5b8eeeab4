package tracking

import (
	"sync"
	"time"

	"github.com/teslashibe/go-tonguetug/pkg/landmark"
	"github.com/teslashibe/go-tonguetug/pkg/tracking/detection"
)

// Reading is everything one frame produced for one player
type Reading struct {
	Region    *detection.MouthRegion `json:"region,omitempty"`
	Detection *detection.Detection   `json:"detection,omitempty"`
	Position  *TrackedPosition       `json:"position,omitempty"`
	Result    Result                 `json:"result"`
}

// Perception runs one player's pipeline: mouth extraction, detection,
// smoothing and counting. Calls to Process are serialized so a player's
// state is never updated out of order.
type Perception struct {
	mu       sync.Mutex
	detector detection.Detector
	tracker  *Tracker
	counter  *Counter

	consecutiveMisses int
}

// NewPerception creates a pipeline. A nil detector uses the landmark estimator.
func NewPerception(config Config, detector detection.Detector) *Perception {
	if detector == nil {
		detector = detection.NewEstimator(detection.DefaultEstimatorConfig())
	}
	return &Perception{
		detector: detector,
		tracker:  NewTracker(config),
		counter:  NewCounter(config),
	}
}

// Process runs one frame. A nil face is absent input: the tracker keeps its
// last position, the counter drops to CENTER and nothing is scored.
func (p *Perception) Process(face landmark.Face, width, height int, at time.Time) Reading {
	p.mu.Lock()
	defer p.mu.Unlock()

	var r Reading
	if len(face) > 0 {
		r.Region = detection.ExtractMouth(face, width, height)
	}
	if r.Region != nil {
		r.Detection = p.detector.Detect(r.Region)
	}

	r.Position = p.tracker.Update(r.Detection)
	r.Result = p.counter.ObserveAt(at, r.Position)

	if r.Position == nil || !r.Position.IsVisible {
		p.consecutiveMisses++
	} else {
		p.consecutiveMisses = 0
	}
	return r
}

// GetConsecutiveMisses returns how many frames in a row had no visible tongue
func (p *Perception) GetConsecutiveMisses() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.consecutiveMisses
}

// Count returns the player's score.
func (p *Perception) Count() int {
	return p.counter.Count()
}

// State returns the player's current classification.
func (p *Perception) State() State {
	return p.counter.State()
}

// LastTransition returns the sweep direction of the player's latest point.
func (p *Perception) LastTransition() Transition {
	return p.counter.LastTransition()
}

// Position returns the player's smoothed position, or nil.
func (p *Perception) Position() *TrackedPosition {
	return p.tracker.Current()
}

// Reset clears the tracker and the counter.
func (p *Perception) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tracker.Reset()
	p.counter.Reset()
	p.consecutiveMisses = 0
}
