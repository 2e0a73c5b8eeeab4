package opponent

import (
	"math"
	"sync"
	"time"
)

// PullConfig holds the pull-based opponent's parameters.
type PullConfig struct {
	BasePullStrength     float64       // Points per pull when not behind
	BasePullInterval     time.Duration // Time between pulls when not behind
	MaxPullMultiplier    float64       // Cap on the strength multiplier
	MaxIntervalReduction float64       // Cap on the fractional interval reduction (0-1)
	StrengthScale        float64       // Deficit that adds 1x to the multiplier
	ReductionScale       float64       // Deficit that removes the full interval
}

// DefaultPullConfig returns the production defaults.
func DefaultPullConfig() PullConfig {
	return PullConfig{
		BasePullStrength:     1,
		BasePullInterval:     time.Second,
		MaxPullMultiplier:    3,
		MaxIntervalReduction: 0.5,
		StrengthScale:        5,
		ReductionScale:       20,
	}
}

func (c PullConfig) withDefaults() PullConfig {
	def := DefaultPullConfig()
	if c.BasePullStrength <= 0 {
		c.BasePullStrength = def.BasePullStrength
	}
	if c.BasePullInterval <= 0 {
		c.BasePullInterval = def.BasePullInterval
	}
	if c.MaxPullMultiplier < 1 {
		c.MaxPullMultiplier = def.MaxPullMultiplier
	}
	if c.MaxIntervalReduction <= 0 || c.MaxIntervalReduction >= 1 {
		c.MaxIntervalReduction = def.MaxIntervalReduction
	}
	if c.StrengthScale <= 0 {
		c.StrengthScale = def.StrengthScale
	}
	if c.ReductionScale <= 0 {
		c.ReductionScale = def.ReductionScale
	}
	return c
}

// Adapt returns the pull strength and interval for a given deficit
// (player score minus opponent score). Non-positive deficits get the base values.
func (c PullConfig) Adapt(deficit float64) (float64, time.Duration) {
	if deficit <= 0 {
		return c.BasePullStrength, c.BasePullInterval
	}
	mult := math.Min(1+deficit/c.StrengthScale, c.MaxPullMultiplier)
	reduction := math.Min(deficit/c.ReductionScale, c.MaxIntervalReduction)
	return c.BasePullStrength * mult, time.Duration(float64(c.BasePullInterval) * (1 - reduction))
}

// PullEvent describes one pull, for callbacks.
type PullEvent struct {
	Strength float64
	Next     time.Duration
	Score    float64
}

// Pull scores on its own timer and adapts to how far behind it is.
type Pull struct {
	mu     sync.Mutex
	config PullConfig

	score     float64
	userScore float64
	timer     *time.Timer
	gen       uint64 // bumped on Stop/Reset so stale timer callbacks do nothing
	running   bool

	// OnPull is called after each pull, outside the lock.
	OnPull func(PullEvent)
}

// NewPull creates a pull-based opponent. Call Start to begin pulling.
func NewPull(cfg PullConfig) *Pull {
	return &Pull{config: cfg.withDefaults()}
}

// Config returns the effective configuration.
func (p *Pull) Config() PullConfig {
	return p.config
}

// Start schedules the first pull. Calling Start on a running opponent does nothing.
func (p *Pull) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return
	}
	p.running = true
	p.schedule(p.config.BasePullInterval)
}

// schedule arms the timer. Caller holds mu.
func (p *Pull) schedule(d time.Duration) {
	gen := p.gen
	p.timer = time.AfterFunc(d, func() { p.pull(gen) })
}

func (p *Pull) pull(gen uint64) {
	p.mu.Lock()
	if !p.running || gen != p.gen {
		p.mu.Unlock()
		return
	}
	strength, next := p.config.Adapt(p.userScore - p.score)
	p.score += strength
	p.schedule(next)
	ev := PullEvent{Strength: strength, Next: next, Score: p.score}
	cb := p.OnPull
	p.mu.Unlock()

	if cb != nil {
		cb(ev)
	}
}

// Update records the player's score. Pull timing is not frame-driven so dt is unused.
func (p *Pull) Update(userScore float64, _ time.Duration) {
	p.mu.Lock()
	p.userScore = userScore
	p.mu.Unlock()
}

// Score returns the opponent's score.
func (p *Pull) Score() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.score
}

// Running reports whether the pull timer is active.
func (p *Pull) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// Reset zeros both scores and clears the pending pull.
// A running opponent restarts from the base interval.
func (p *Pull) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cancel()
	p.score = 0
	p.userScore = 0
	if p.running {
		p.schedule(p.config.BasePullInterval)
	}
}

// Stop cancels the pending pull. The opponent can be restarted with Start.
func (p *Pull) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cancel()
	p.running = false
}

// cancel stops the timer and invalidates any callback already in flight. Caller holds mu.
func (p *Pull) cancel() {
	p.gen++
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
}
