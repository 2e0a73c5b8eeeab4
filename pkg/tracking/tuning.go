package tracking

import "time"

// TuningParams holds the real-time adjustable tracking parameters.
// These can be modified via the tuning API without restarting a session.
type TuningParams struct {
	SmoothingWindow int     `json:"smoothing_window"` // Frames in the weighted average
	MinConfidence   float64 `json:"min_confidence"`   // Confidence floor (0, 1]; 0 leaves it unchanged
	LeftThreshold   float64 `json:"left_threshold"`   // Negative
	RightThreshold  float64 `json:"right_threshold"`  // Positive
	TimeWindowMs    int     `json:"time_window_ms"`   // Alternation window
	MinHoldFrames   int     `json:"min_hold_frames"`  // Debounce (<= 1 disables)
}

// GetTuningParams returns the pipeline's current parameters.
func (p *Perception) GetTuningParams() TuningParams {
	p.counter.mu.Lock()
	cfg := p.counter.config
	p.counter.mu.Unlock()
	return paramsFromConfig(cfg)
}

// SetTuningParams updates parameters at runtime.
// Only non-zero values are applied; thresholds must keep their sign.
func (p *Perception) SetTuningParams(params TuningParams) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.counter.mu.Lock()
	cfg := p.counter.config
	p.counter.mu.Unlock()

	cfg = params.apply(cfg)
	p.tracker.setConfig(cfg)
	p.counter.setConfig(cfg)
}

func (params TuningParams) apply(cfg Config) Config {
	if params.SmoothingWindow > 0 {
		cfg.SmoothingWindow = params.SmoothingWindow
	}
	if params.MinConfidence > 0 {
		cfg.MinConfidence = clamp(params.MinConfidence, 0.0, 1.0)
	}
	if params.LeftThreshold < 0 {
		cfg.LeftThreshold = params.LeftThreshold
	}
	if params.RightThreshold > 0 {
		cfg.RightThreshold = params.RightThreshold
	}
	if params.TimeWindowMs > 0 {
		cfg.TimeWindow = time.Duration(params.TimeWindowMs) * time.Millisecond
	}
	if params.MinHoldFrames > 0 {
		cfg.MinHoldFrames = params.MinHoldFrames
	}
	return cfg
}

func paramsFromConfig(cfg Config) TuningParams {
	return TuningParams{
		SmoothingWindow: cfg.SmoothingWindow,
		MinConfidence:   cfg.MinConfidence,
		LeftThreshold:   cfg.LeftThreshold,
		RightThreshold:  cfg.RightThreshold,
		TimeWindowMs:    int(cfg.TimeWindow / time.Millisecond),
		MinHoldFrames:   cfg.MinHoldFrames,
	}
}

// clamp limits a value to a range
func clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
