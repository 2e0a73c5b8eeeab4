package detection

import "math"

// EstimatorConfig holds the empirically chosen constants of the landmark estimator.
type EstimatorConfig struct {
	OpeningThreshold  float64 // Opening ratio at which the tongue counts as out
	ConfidenceSlope   float64 // Confidence gained per unit of opening ratio above the threshold
	AmplificationGain float64 // relativeX is scaled by (1 + openness*gain)
}

// DefaultEstimatorConfig returns the tuned production constants.
func DefaultEstimatorConfig() EstimatorConfig {
	return EstimatorConfig{
		OpeningThreshold:  0.30,
		ConfidenceSlope:   2.0, // saturates at ratio 0.80
		AmplificationGain: 3.0,
	}
}

// Estimator is the landmark-based Detector.
type Estimator struct {
	config EstimatorConfig
}

// NewEstimator creates an estimator. Zero fields fall back to the defaults.
func NewEstimator(cfg EstimatorConfig) *Estimator {
	def := DefaultEstimatorConfig()
	if cfg.OpeningThreshold <= 0 {
		cfg.OpeningThreshold = def.OpeningThreshold
	}
	if cfg.ConfidenceSlope <= 0 {
		cfg.ConfidenceSlope = def.ConfidenceSlope
	}
	if cfg.AmplificationGain <= 0 {
		cfg.AmplificationGain = def.AmplificationGain
	}
	return &Estimator{config: cfg}
}

// Config returns the estimator's constants.
func (e *Estimator) Config() EstimatorConfig {
	return e.config
}

// Detect estimates the tongue position from the inner lip opening.
// Returns nil when there are no inner landmarks or the mouth is not open enough.
func (e *Estimator) Detect(region *MouthRegion) *Detection {
	if region == nil || len(region.Inner) == 0 || region.Box.Height <= 0 || region.Box.Width <= 0 {
		return nil
	}

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	var sumX, sumY float64
	for _, p := range region.Inner {
		minX = math.Min(minX, p.X)
		maxX = math.Max(maxX, p.X)
		minY = math.Min(minY, p.Y)
		maxY = math.Max(maxY, p.Y)
		sumX += p.X
		sumY += p.Y
	}

	openingRatio := (maxY - minY) / region.Box.Height
	if openingRatio < e.config.OpeningThreshold {
		return nil
	}

	n := float64(len(region.Inner))
	avgX, avgY := sumX/n, sumY/n

	openness := math.Hypot(maxX-minX, maxY-minY) / math.Max(region.Box.Width, region.Box.Height)

	relativeX := (avgX - region.Center.X) / region.Box.Width
	relativeY := (avgY - region.Center.Y) / region.Box.Height

	confidence := clamp((openingRatio-e.config.OpeningThreshold)*e.config.ConfidenceSlope, 0, 1)

	return &Detection{
		Position: Position{
			X:         avgX,
			Y:         avgY,
			RelativeX: relativeX * (1 + openness*e.config.AmplificationGain),
			RelativeY: relativeY,
		},
		Confidence:    confidence,
		MouthOpenness: openness,
		OpeningRatio:  openingRatio,
		TongueOut:     true,
	}
}
