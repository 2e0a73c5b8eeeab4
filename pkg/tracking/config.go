package tracking

import "time"

// Config holds all tunable parameters for one player's tongue tracking
type Config struct {
	// Smoothing
	SmoothingWindow int     // Frames kept for the weighted average
	MinConfidence   float64 // Detections below this are treated as not visible; 0 uses the default

	// Classification (smaller magnitudes = more sensitive)
	LeftThreshold  float64 // relativeX below this is LEFT
	RightThreshold float64 // relativeX above this is RIGHT

	// Counting
	TimeWindow    time.Duration // LEFT and RIGHT must both land inside this window
	MinHoldFrames int           // Consecutive frames before a side is accepted (<= 1 disables)
}

// DefaultConfig returns the recommended configuration for single-player play
func DefaultConfig() Config {
	return Config{
		SmoothingWindow: 5,
		MinConfidence:   0.3,

		LeftThreshold:  -0.0005,
		RightThreshold: 0.0005,

		TimeWindow:    time.Second,
		MinHoldFrames: 0,
	}
}

// SensitiveConfig returns a configuration that reacts to very small movements
func SensitiveConfig() Config {
	cfg := DefaultConfig()
	cfg.LeftThreshold = -0.0003
	cfg.RightThreshold = 0.0003
	return cfg
}

// StrictConfig returns a configuration for two players sharing one camera,
// where each face is smaller and noisier
func StrictConfig() Config {
	cfg := DefaultConfig()
	cfg.LeftThreshold = -0.001
	cfg.RightThreshold = 0.001
	return cfg
}

// withDefaults fills zero fields from DefaultConfig.
// Thresholds keep their sign; a zero threshold is replaced.
func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.SmoothingWindow <= 0 {
		c.SmoothingWindow = def.SmoothingWindow
	}
	if c.MinConfidence <= 0 {
		c.MinConfidence = def.MinConfidence
	}
	if c.LeftThreshold == 0 {
		c.LeftThreshold = def.LeftThreshold
	}
	if c.RightThreshold == 0 {
		c.RightThreshold = def.RightThreshold
	}
	if c.TimeWindow <= 0 {
		c.TimeWindow = def.TimeWindow
	}
	return c
}
