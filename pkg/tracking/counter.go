package tracking

import (
	"sync"
	"time"
)

// State is a classified tongue position
type State string

const (
	Left   State = "LEFT"
	Center State = "CENTER"
	Right  State = "RIGHT"
)

// Transition names the sweep that produced a point
type Transition string

const (
	NoTransition Transition = ""
	LeftToRight  Transition = "LEFT_TO_RIGHT"
	RightToLeft  Transition = "RIGHT_TO_LEFT"
)

// Result is the counter's output for one update
type Result struct {
	Count      int        `json:"count"`
	State      State      `json:"state"`
	Transition Transition `json:"transition,omitempty"` // Set only on the update that scored
}

// Counter classifies positions into LEFT / CENTER / RIGHT and scores one point
// each time both sides are seen within TimeWindow, in either order.
type Counter struct {
	mu     sync.Mutex
	config Config
	now    func() time.Time

	state          State
	leftAt         *time.Time
	rightAt        *time.Time
	count          int
	lastTransition Transition

	// Optional debounce
	holdState  State
	holdFrames int
}

// NewCounter creates a counter. Zero config fields fall back to DefaultConfig.
func NewCounter(config Config) *Counter {
	return &Counter{
		config: config.withDefaults(),
		now:    time.Now,
		state:  Center,
	}
}

// Update classifies relativeX at the current time.
func (c *Counter) Update(relativeX float64, tongueOut bool) Result {
	return c.UpdateAt(c.now(), relativeX, tongueOut)
}

// Observe feeds a smoothed position. A nil or invisible position is absent input.
func (c *Counter) Observe(pos *TrackedPosition) Result {
	return c.ObserveAt(c.now(), pos)
}

// ObserveAt is Observe with an explicit timestamp.
func (c *Counter) ObserveAt(at time.Time, pos *TrackedPosition) Result {
	if pos == nil || !pos.IsVisible {
		return c.UpdateAt(at, 0, false)
	}
	return c.UpdateAt(at, pos.RelativeX, true)
}

// UpdateAt classifies relativeX at time at.
//
// While the tongue is not out both pending sides are cleared and the state
// is forced to CENTER. A point requires a LEFT and a RIGHT no more than
// TimeWindow apart; scoring clears both sides so one sweep counts once.
func (c *Counter) UpdateAt(at time.Time, relativeX float64, tongueOut bool) Result {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !tongueOut {
		c.leftAt, c.rightAt = nil, nil
		c.state = Center
		c.holdState, c.holdFrames = Center, 0
		return Result{Count: c.count, State: c.state}
	}

	c.state = c.classify(relativeX)
	transition := NoTransition

	switch c.hold(c.state) {
	case Left:
		t := at
		c.leftAt = &t
		if c.rightAt != nil && c.within(at, *c.rightAt) {
			transition = c.score(RightToLeft)
		}
	case Right:
		t := at
		c.rightAt = &t
		if c.leftAt != nil && c.within(at, *c.leftAt) {
			transition = c.score(LeftToRight)
		}
	}

	// A stale single side must never pair with a future event
	if c.leftAt != nil && !c.within(at, *c.leftAt) {
		c.leftAt = nil
	}
	if c.rightAt != nil && !c.within(at, *c.rightAt) {
		c.rightAt = nil
	}

	return Result{Count: c.count, State: c.state, Transition: transition}
}

// within reports whether a and b are no more than TimeWindow apart, in either order.
func (c *Counter) within(a, b time.Time) bool {
	gap := a.Sub(b)
	if gap < 0 {
		gap = -gap
	}
	return gap <= c.config.TimeWindow
}

func (c *Counter) classify(relativeX float64) State {
	switch {
	case relativeX < c.config.LeftThreshold:
		return Left
	case relativeX > c.config.RightThreshold:
		return Right
	default:
		return Center
	}
}

// hold returns the side to record this frame. With MinHoldFrames <= 1 every
// classification is accepted; otherwise a side must repeat that many frames.
func (c *Counter) hold(s State) State {
	if c.config.MinHoldFrames <= 1 {
		return s
	}
	if s == c.holdState {
		c.holdFrames++
	} else {
		c.holdState, c.holdFrames = s, 1
	}
	if c.holdFrames >= c.config.MinHoldFrames {
		return s
	}
	return Center
}

func (c *Counter) score(t Transition) Transition {
	c.count++
	c.lastTransition = t
	c.leftAt, c.rightAt = nil, nil
	return t
}

// Count returns the number of points scored since the last reset.
func (c *Counter) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.count
}

// State returns the most recent classification.
func (c *Counter) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// LastTransition returns the transition of the most recent point.
func (c *Counter) LastTransition() Transition {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastTransition
}

// Reset zeros the count and clears all pending state.
func (c *Counter) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = Center
	c.leftAt, c.rightAt = nil, nil
	c.count = 0
	c.lastTransition = NoTransition
	c.holdState, c.holdFrames = Center, 0
}

func (c *Counter) setConfig(config Config) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.config = config.withDefaults()
}
