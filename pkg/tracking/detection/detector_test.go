package detection

import (
	"math"
	"testing"

	"github.com/teslashibe/go-tonguetug/pkg/landmark"
)

const (
	imgW = 1000
	imgH = 1000
)

func near(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestExtractMouth_Geometry(t *testing.T) {
	face := landmark.SyntheticFace(landmark.DefaultSyntheticMouth())

	region := ExtractMouth(face, imgW, imgH)
	if region == nil {
		t.Fatal("ExtractMouth returned nil")
	}

	// Outer lips span x 400-600, y 600-700; 20% padding on each axis.
	tests := []struct {
		name      string
		got, want float64
	}{
		{"box x", region.Box.X, 360},
		{"box y", region.Box.Y, 580},
		{"box width", region.Box.Width, 280},
		{"box height", region.Box.Height, 140},
		{"center x", region.Center.X, 500},
		{"center y", region.Center.Y, 650},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if !near(tc.got, tc.want, 1e-6) {
				t.Errorf("got %.4f, want %.4f", tc.got, tc.want)
			}
		})
	}

	if len(region.Outer) != len(landmark.OuterLip) {
		t.Errorf("Outer: got %d points, want %d", len(region.Outer), len(landmark.OuterLip))
	}
	if len(region.Inner) != len(landmark.InnerLip) {
		t.Errorf("Inner: got %d points, want %d", len(region.Inner), len(landmark.InnerLip))
	}
}

func TestExtractMouth_ClampedToImage(t *testing.T) {
	m := landmark.DefaultSyntheticMouth()
	m.CenterX = 0.05 // outer lips start at -0.05
	face := landmark.SyntheticFace(m)

	region := ExtractMouth(face, imgW, imgH)
	if region == nil {
		t.Fatal("ExtractMouth returned nil")
	}
	if region.Box.X != 0 {
		t.Errorf("Box.X = %.2f, want 0 (clamped)", region.Box.X)
	}
	// Center uses raw extents, so it is not clamped.
	if !near(region.Center.X, 50, 1e-6) {
		t.Errorf("Center.X = %.2f, want 50", region.Center.X)
	}
}

func TestExtractMouth_EmptyFace(t *testing.T) {
	if region := ExtractMouth(nil, imgW, imgH); region != nil {
		t.Errorf("expected nil region for empty face, got %+v", region)
	}
}

func TestEstimator_CenteredOpenMouth(t *testing.T) {
	region := ExtractMouth(landmark.SyntheticFace(landmark.DefaultSyntheticMouth()), imgW, imgH)
	det := NewEstimator(DefaultEstimatorConfig()).Detect(region)
	if det == nil {
		t.Fatal("expected detection for open mouth")
	}

	if !det.TongueOut {
		t.Error("TongueOut should be true")
	}
	// Opening 60px over a 140px box.
	if !near(det.OpeningRatio, 60.0/140.0, 1e-9) {
		t.Errorf("OpeningRatio = %.4f, want %.4f", det.OpeningRatio, 60.0/140.0)
	}
	if !near(det.Confidence, (60.0/140.0-0.3)*2, 1e-9) {
		t.Errorf("Confidence = %.4f", det.Confidence)
	}
	if !near(det.Position.RelativeX, 0, 1e-9) {
		t.Errorf("RelativeX = %.6f, want 0", det.Position.RelativeX)
	}
}

func TestEstimator_ShiftedRightIsPositiveAndAmplified(t *testing.T) {
	m := landmark.DefaultSyntheticMouth()
	m.Shift = 0.014 // 14px right of center
	region := ExtractMouth(landmark.SyntheticFace(m), imgW, imgH)

	det := NewEstimator(DefaultEstimatorConfig()).Detect(region)
	if det == nil {
		t.Fatal("expected detection")
	}

	raw := 14.0 / 280.0
	openness := math.Hypot(100, 60) / 280.0
	want := raw * (1 + openness*3)

	if !near(det.MouthOpenness, openness, 1e-9) {
		t.Errorf("MouthOpenness = %.6f, want %.6f", det.MouthOpenness, openness)
	}
	if !near(det.Position.RelativeX, want, 1e-9) {
		t.Errorf("RelativeX = %.6f, want %.6f", det.Position.RelativeX, want)
	}
	if det.Position.RelativeX <= raw {
		t.Error("RelativeX should be amplified beyond the raw offset")
	}
}

func TestEstimator_ShiftedLeftIsNegative(t *testing.T) {
	m := landmark.DefaultSyntheticMouth()
	m.Shift = -0.01
	det := NewEstimator(EstimatorConfig{}).Detect(ExtractMouth(landmark.SyntheticFace(m), imgW, imgH))
	if det == nil {
		t.Fatal("expected detection")
	}
	if det.Position.RelativeX >= 0 {
		t.Errorf("RelativeX = %.6f, want negative", det.Position.RelativeX)
	}
}

func TestEstimator_ClosedMouthReturnsNil(t *testing.T) {
	m := landmark.DefaultSyntheticMouth()
	m.Opening = 0.02 // 20px / 140px = 0.14 < 0.30
	region := ExtractMouth(landmark.SyntheticFace(m), imgW, imgH)

	if det := NewEstimator(DefaultEstimatorConfig()).Detect(region); det != nil {
		t.Errorf("expected nil detection for closed mouth, got %+v", det)
	}
}

func TestEstimator_ConfidenceSaturates(t *testing.T) {
	tests := []struct {
		name    string
		ratio   float64
		want    float64
		tongued bool
	}{
		{"below threshold", 0.29, 0, false},
		{"just above threshold", 0.35, 0.1, true},
		{"midway", 0.55, 0.5, true},
		{"saturation point", 0.80, 1, true},
		{"beyond saturation", 0.95, 1, true},
	}

	e := NewEstimator(DefaultEstimatorConfig())
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			region := &MouthRegion{
				Box:    Rect{X: 0, Y: 0, Width: 100, Height: 100},
				Center: landmark.Point{X: 50, Y: 50},
				Inner: []landmark.Point{
					{X: 40, Y: 50 - tc.ratio*50},
					{X: 60, Y: 50 + tc.ratio*50},
				},
			}
			det := e.Detect(region)
			if !tc.tongued {
				if det != nil {
					t.Fatalf("expected nil, got %+v", det)
				}
				return
			}
			if det == nil {
				t.Fatal("expected detection")
			}
			if !near(det.Confidence, tc.want, 1e-9) {
				t.Errorf("Confidence = %.4f, want %.4f", det.Confidence, tc.want)
			}
		})
	}
}

func TestEstimator_NoInnerLandmarks(t *testing.T) {
	region := &MouthRegion{Box: Rect{Width: 100, Height: 100}}
	if det := NewEstimator(DefaultEstimatorConfig()).Detect(region); det != nil {
		t.Errorf("expected nil, got %+v", det)
	}
	if det := NewEstimator(DefaultEstimatorConfig()).Detect(nil); det != nil {
		t.Errorf("expected nil for nil region, got %+v", det)
	}
}

func TestDefaultEstimatorConfig(t *testing.T) {
	cfg := DefaultEstimatorConfig()
	if cfg.OpeningThreshold != 0.30 {
		t.Errorf("OpeningThreshold = %v, want 0.30", cfg.OpeningThreshold)
	}
	if got := NewEstimator(EstimatorConfig{}).Config(); got != cfg {
		t.Errorf("zero config should fall back to defaults, got %+v", got)
	}
}
