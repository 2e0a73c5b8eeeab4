package detection

import (
	"math"

	"github.com/teslashibe/go-tonguetug/pkg/landmark"
)

// MouthPadding is the fraction of the outer-lip extent added on each axis.
const MouthPadding = 0.2

// ExtractMouth builds the mouth region for one face in an image of the given size.
// Returns nil if the face has no outer lip landmarks.
func ExtractMouth(face landmark.Face, width, height int) *MouthRegion {
	outer := face.Pixels(landmark.OuterLip, width, height)
	if len(outer) == 0 {
		return nil
	}
	inner := face.Pixels(landmark.InnerLip, width, height)

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range outer {
		minX = math.Min(minX, p.X)
		maxX = math.Max(maxX, p.X)
		minY = math.Min(minY, p.Y)
		maxY = math.Max(maxY, p.Y)
	}

	padX := (maxX - minX) * MouthPadding
	padY := (maxY - minY) * MouthPadding

	left := clamp(minX-padX, 0, float64(width))
	right := clamp(maxX+padX, 0, float64(width))
	top := clamp(minY-padY, 0, float64(height))
	bottom := clamp(maxY+padY, 0, float64(height))

	return &MouthRegion{
		Box: Rect{
			X:      left,
			Y:      top,
			Width:  right - left,
			Height: bottom - top,
		},
		Center: landmark.Point{
			X: (minX + maxX) / 2,
			Y: (minY + maxY) / 2,
		},
		Inner: inner,
		Outer: outer,
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
