package opponent

import (
	"math/rand/v2"
	"sync"
	"time"
)

// RateConfig holds the rate-based opponent's parameters.
type RateConfig struct {
	BaseRate      float64       // Points per increment
	Randomness    float64       // Relative jitter on each interval, in (0, 1); zero uses the default
	MinInterval   time.Duration // Lower bound of the base interval draw
	MaxInterval   time.Duration // Upper bound of the base interval draw; never exceeded
	IntervalFloor time.Duration // Shortest interval at any difficulty
}

// DefaultRateConfig returns the production defaults.
func DefaultRateConfig() RateConfig {
	return RateConfig{
		BaseRate:      1,
		Randomness:    0.2,
		MinInterval:   600 * time.Millisecond,
		MaxInterval:   1200 * time.Millisecond,
		IntervalFloor: 100 * time.Millisecond,
	}
}

func (c RateConfig) withDefaults() RateConfig {
	def := DefaultRateConfig()
	if c.BaseRate <= 0 {
		c.BaseRate = def.BaseRate
	}
	if c.Randomness <= 0 || c.Randomness >= 1 {
		c.Randomness = def.Randomness
	}
	if c.MinInterval <= 0 {
		c.MinInterval = def.MinInterval
	}
	if c.MaxInterval <= 0 {
		c.MaxInterval = def.MaxInterval
	}
	if c.MaxInterval < c.MinInterval {
		c.MaxInterval = c.MinInterval
	}
	if c.IntervalFloor <= 0 {
		c.IntervalFloor = def.IntervalFloor
	}
	if c.IntervalFloor > c.MaxInterval {
		c.IntervalFloor = c.MaxInterval
	}
	return c
}

// Rate scores at randomized intervals that shorten as the player's score grows.
type Rate struct {
	mu     sync.Mutex
	config RateConfig
	rng    *rand.Rand

	score      float64
	difficulty float64
	elapsed    time.Duration
	target     time.Duration
	stopped    bool
}

// NewRate creates a rate-based opponent. A nil src seeds from the runtime.
func NewRate(cfg RateConfig, src rand.Source) *Rate {
	if src == nil {
		src = rand.NewPCG(rand.Uint64(), rand.Uint64())
	}
	r := &Rate{
		config:     cfg.withDefaults(),
		rng:        rand.New(src),
		difficulty: 1,
	}
	r.target = r.drawInterval()
	return r
}

// Difficulty returns 1 + (userScore/50)*0.5 for the given player score.
func Difficulty(userScore float64) float64 {
	return 1 + (userScore/50)*0.5
}

// Update advances the opponent by dt.
func (r *Rate) Update(userScore float64, dt time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stopped || dt <= 0 {
		return
	}

	r.difficulty = Difficulty(userScore)
	r.elapsed += dt
	if r.elapsed >= r.target {
		r.score += r.config.BaseRate
		r.elapsed = 0
		r.target = r.drawInterval()
	}
}

// drawInterval picks the next target interval for the current difficulty.
func (r *Rate) drawInterval() time.Duration {
	span := float64(r.config.MaxInterval - r.config.MinInterval)
	base := float64(r.config.MinInterval) + r.rng.Float64()*span
	jitter := 1 + (r.rng.Float64()*2-1)*r.config.Randomness

	d := time.Duration(base / r.difficulty * jitter)
	if d < r.config.IntervalFloor {
		d = r.config.IntervalFloor
	}
	if d > r.config.MaxInterval {
		d = r.config.MaxInterval
	}
	return d
}

// Score returns the opponent's score.
func (r *Rate) Score() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.score
}

// CurrentDifficulty returns the multiplier used for the latest update.
func (r *Rate) CurrentDifficulty() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.difficulty
}

// TargetInterval returns the interval the opponent is currently waiting out.
func (r *Rate) TargetInterval() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.target
}

// Reset zeros the score and restarts timing at base difficulty.
// A stopped opponent stays stopped.
func (r *Rate) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.score = 0
	r.elapsed = 0
	r.difficulty = 1
	r.target = r.drawInterval()
}

// Start resumes a stopped opponent. A new Rate is already running.
func (r *Rate) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopped = false
}

// Stop freezes the opponent until Start.
func (r *Rate) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopped = true
}
