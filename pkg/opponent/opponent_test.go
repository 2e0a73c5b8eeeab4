package opponent

import (
	"math"
	"math/rand/v2"
	"sync/atomic"
	"testing"
	"time"
)

var (
	_ Opponent = (*Rate)(nil)
	_ Opponent = (*Pull)(nil)
)

func seeded(seed uint64) rand.Source {
	return rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)
}

func TestDifficulty(t *testing.T) {
	tests := []struct {
		score float64
		want  float64
	}{
		{0, 1},
		{50, 1.5},
		{100, 2},
	}
	for _, tt := range tests {
		if got := Difficulty(tt.score); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("Difficulty(%v) = %v, want %v", tt.score, got, tt.want)
		}
	}
}

func TestRateScoresWithinMaxInterval(t *testing.T) {
	for seed := uint64(0); seed < 50; seed++ {
		r := NewRate(DefaultRateConfig(), seeded(seed))
		limit := DefaultRateConfig().MaxInterval
		step := 16 * time.Millisecond

		var elapsed time.Duration
		for elapsed < limit {
			r.Update(0, step)
			elapsed += step
		}
		if r.Score() < 1 {
			t.Fatalf("seed %d: score %v after %v, want >= 1", seed, r.Score(), elapsed)
		}
	}
}

func TestRateIntervalBounds(t *testing.T) {
	cfg := DefaultRateConfig()
	r := NewRate(cfg, seeded(7))

	for _, score := range []float64{0, 25, 100, 1000} {
		for i := 0; i < 200; i++ {
			r.Update(score, cfg.MaxInterval)
			got := r.TargetInterval()
			if got < cfg.IntervalFloor || got > cfg.MaxInterval {
				t.Fatalf("score %v: interval %v outside [%v, %v]", score, got, cfg.IntervalFloor, cfg.MaxInterval)
			}
		}
	}
}

func TestRateHarderWhenPlayerLeads(t *testing.T) {
	run := func(userScore float64) float64 {
		r := NewRate(DefaultRateConfig(), seeded(42))
		for i := 0; i < 60*60; i++ { // one minute at 60fps
			r.Update(userScore, time.Second/60)
		}
		return r.Score()
	}

	easy, hard := run(0), run(100)
	if hard <= easy {
		t.Errorf("score at userScore=100 (%v) should exceed score at 0 (%v)", hard, easy)
	}

	r := NewRate(DefaultRateConfig(), seeded(1))
	r.Update(100, time.Millisecond)
	if d := r.CurrentDifficulty(); math.Abs(d-2) > 1e-9 {
		t.Errorf("CurrentDifficulty = %v, want 2", d)
	}
}

func TestRateResetAndStop(t *testing.T) {
	cfg := DefaultRateConfig()
	r := NewRate(cfg, seeded(3))
	r.Update(0, cfg.MaxInterval)
	if r.Score() == 0 {
		t.Fatal("expected a point before reset")
	}

	r.Reset()
	if r.Score() != 0 {
		t.Errorf("Score after Reset = %v, want 0", r.Score())
	}

	r.Stop()
	r.Update(0, 10*cfg.MaxInterval)
	r.Reset()
	r.Update(0, 10*cfg.MaxInterval)
	if r.Score() != 0 {
		t.Errorf("Score after Stop = %v, want 0", r.Score())
	}

	r.Start()
	r.Update(0, cfg.MaxInterval)
	if r.Score() != cfg.BaseRate {
		t.Errorf("Score after Start = %v, want %v", r.Score(), cfg.BaseRate)
	}
}

func TestRateConfigDefaults(t *testing.T) {
	got := RateConfig{}.withDefaults()
	if got != DefaultRateConfig() {
		t.Errorf("withDefaults() = %+v, want %+v", got, DefaultRateConfig())
	}

	swapped := RateConfig{MinInterval: time.Second, MaxInterval: 500 * time.Millisecond}.withDefaults()
	if swapped.MaxInterval < swapped.MinInterval {
		t.Errorf("MaxInterval %v < MinInterval %v", swapped.MaxInterval, swapped.MinInterval)
	}
}

func TestRateZeroRandomnessKeepsJitter(t *testing.T) {
	cfg := DefaultRateConfig()
	cfg.Randomness = 0
	if got := cfg.withDefaults().Randomness; got != DefaultRateConfig().Randomness {
		t.Fatalf("Randomness = %v, want %v", got, DefaultRateConfig().Randomness)
	}

	// Same seed, same effective config: both opponents score in lockstep.
	zero := NewRate(cfg, seeded(7))
	def := NewRate(DefaultRateConfig(), seeded(7))
	for i := 0; i < 200; i++ {
		zero.Update(0, 50*time.Millisecond)
		def.Update(0, 50*time.Millisecond)
		if zero.Score() != def.Score() {
			t.Fatalf("step %d: score %v, want %v", i, zero.Score(), def.Score())
		}
	}
}

func TestPullAdapt(t *testing.T) {
	cfg := DefaultPullConfig()
	tests := []struct {
		name         string
		deficit      float64
		wantStrength float64
		wantInterval time.Duration
	}{
		{"ahead", -10, 1, time.Second},
		{"level", 0, 1, time.Second},
		{"behind by 5", 5, 2, 750 * time.Millisecond},
		{"behind by 10", 10, 3, 500 * time.Millisecond},
		{"capped", 100, 3, 500 * time.Millisecond},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, d := cfg.Adapt(tt.deficit)
			if math.Abs(s-tt.wantStrength) > 1e-9 {
				t.Errorf("strength = %v, want %v", s, tt.wantStrength)
			}
			if d != tt.wantInterval {
				t.Errorf("interval = %v, want %v", d, tt.wantInterval)
			}
		})
	}
}

func TestPullScoresOnTimer(t *testing.T) {
	p := NewPull(PullConfig{BasePullInterval: 10 * time.Millisecond})
	var pulls atomic.Int32
	p.OnPull = func(PullEvent) { pulls.Add(1) }

	p.Update(0, 0)
	if p.Score() != 0 {
		t.Fatal("pull opponent should not score before Start")
	}

	p.Start()
	defer p.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for p.Score() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if p.Score() < 2 {
		t.Fatalf("Score = %v after timeout, want >= 2", p.Score())
	}
	if pulls.Load() < 2 {
		t.Errorf("OnPull called %d times, want >= 2", pulls.Load())
	}
}

func TestPullStopCancelsTimer(t *testing.T) {
	p := NewPull(PullConfig{BasePullInterval: 5 * time.Millisecond})
	p.Start()
	time.Sleep(30 * time.Millisecond)
	p.Stop()

	frozen := p.Score()
	time.Sleep(50 * time.Millisecond)
	if got := p.Score(); got != frozen {
		t.Errorf("Score changed after Stop: %v -> %v", frozen, got)
	}
	if p.Running() {
		t.Error("Running() = true after Stop")
	}
}

func TestPullReset(t *testing.T) {
	p := NewPull(PullConfig{BasePullInterval: time.Hour})
	p.Start()
	defer p.Stop()

	p.Update(12, 0)
	p.Reset()
	if p.Score() != 0 {
		t.Errorf("Score after Reset = %v, want 0", p.Score())
	}
	if !p.Running() {
		t.Error("Reset should keep a running opponent running")
	}

	p.Stop()
	p.Reset()
	if p.Running() {
		t.Error("Reset should not restart a stopped opponent")
	}
}
