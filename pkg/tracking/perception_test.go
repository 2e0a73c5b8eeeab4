package tracking

import (
	"testing"
	"time"

	"github.com/teslashibe/go-tonguetug/pkg/landmark"
)

const (
	frameW = 1000
	frameH = 1000
)

func mouthFace(shift float64) landmark.Face {
	m := landmark.DefaultSyntheticMouth()
	m.Opening = 0.09 // ratio ~0.64, confidence ~0.69
	m.Shift = shift
	return landmark.SyntheticFace(m)
}

func TestPerception_SweepScores(t *testing.T) {
	p := NewPerception(DefaultConfig(), nil)
	start := time.UnixMilli(0)

	// Several frames left, then several right, 33ms apart.
	frame := 0
	for i := 0; i < 5; i++ {
		p.Process(mouthFace(-0.02), frameW, frameH, start.Add(time.Duration(frame)*33*time.Millisecond))
		frame++
	}
	if p.State() != Left {
		t.Fatalf("State = %s, want LEFT", p.State())
	}

	var scored bool
	for i := 0; i < 5; i++ {
		r := p.Process(mouthFace(0.02), frameW, frameH, start.Add(time.Duration(frame)*33*time.Millisecond))
		frame++
		if r.Result.Transition == LeftToRight {
			scored = true
		}
	}
	if !scored {
		t.Error("expected a LEFT_TO_RIGHT point once smoothing crossed over")
	}
	if p.Count() != 1 {
		t.Errorf("Count = %d, want 1", p.Count())
	}
}

func TestPerception_AbsentFaceForcesCenter(t *testing.T) {
	p := NewPerception(DefaultConfig(), nil)
	now := time.UnixMilli(0)

	p.Process(mouthFace(-0.02), frameW, frameH, now)
	r := p.Process(nil, frameW, frameH, now.Add(33*time.Millisecond))

	if r.Result.State != Center {
		t.Errorf("State = %s, want CENTER", r.Result.State)
	}
	if r.Position == nil || r.Position.IsVisible {
		t.Errorf("expected the previous position marked invisible, got %+v", r.Position)
	}
	if p.GetConsecutiveMisses() != 1 {
		t.Errorf("ConsecutiveMisses = %d, want 1", p.GetConsecutiveMisses())
	}
}

func TestPerception_ClosedMouthIsAbsent(t *testing.T) {
	p := NewPerception(DefaultConfig(), nil)
	m := landmark.DefaultSyntheticMouth()
	m.Opening = 0.01
	m.Shift = -0.02

	r := p.Process(landmark.SyntheticFace(m), frameW, frameH, time.UnixMilli(0))
	if r.Region == nil {
		t.Fatal("mouth region should still be extracted")
	}
	if r.Detection != nil {
		t.Errorf("closed mouth produced a detection: %+v", r.Detection)
	}
	if r.Result.State != Center {
		t.Errorf("State = %s, want CENTER", r.Result.State)
	}
}

func TestPerception_Reset(t *testing.T) {
	p := NewPerception(DefaultConfig(), nil)
	now := time.UnixMilli(0)
	p.Process(mouthFace(-0.02), frameW, frameH, now)
	p.Process(mouthFace(0.02), frameW, frameH, now.Add(30*time.Millisecond))
	p.Process(mouthFace(0.02), frameW, frameH, now.Add(60*time.Millisecond))
	p.Process(mouthFace(0.02), frameW, frameH, now.Add(90*time.Millisecond))

	p.Reset()
	if p.Count() != 0 || p.Position() != nil || p.State() != Center {
		t.Errorf("Reset left state behind: count=%d pos=%+v state=%s", p.Count(), p.Position(), p.State())
	}
}

func TestPerception_Tuning(t *testing.T) {
	p := NewPerception(DefaultConfig(), nil)

	p.SetTuningParams(TuningParams{
		LeftThreshold:  -0.01,
		RightThreshold: 0.01,
		TimeWindowMs:   500,
		MinConfidence:  2, // clamped
	})

	got := p.GetTuningParams()
	if got.LeftThreshold != -0.01 || got.RightThreshold != 0.01 {
		t.Errorf("thresholds not applied: %+v", got)
	}
	if got.TimeWindowMs != 500 {
		t.Errorf("TimeWindowMs = %d, want 500", got.TimeWindowMs)
	}
	if got.MinConfidence != 1 {
		t.Errorf("MinConfidence = %v, want clamped to 1", got.MinConfidence)
	}
	if got.SmoothingWindow != 5 {
		t.Errorf("zero SmoothingWindow should be ignored, got %d", got.SmoothingWindow)
	}

	// Wrong-signed thresholds are ignored.
	p.SetTuningParams(TuningParams{LeftThreshold: 0.5, RightThreshold: -0.5})
	if got := p.GetTuningParams(); got.LeftThreshold != -0.01 || got.RightThreshold != 0.01 {
		t.Errorf("wrong-signed thresholds applied: %+v", got)
	}
}
