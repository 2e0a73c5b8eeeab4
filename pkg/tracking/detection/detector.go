// Package detection turns one face's landmarks into a tongue position reading.
//
// The pipeline is purely geometric: the mouth region is cut out of the
// FaceMesh lip contours and the inner-lip opening is used as a proxy for
// a visible tongue. No trained tongue model is required.
package detection

import "github.com/teslashibe/go-tonguetug/pkg/landmark"

// Rect is an axis-aligned box in pixel space.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Right returns the x coordinate of the right edge.
func (r Rect) Right() float64 { return r.X + r.Width }

// Bottom returns the y coordinate of the bottom edge.
func (r Rect) Bottom() float64 { return r.Y + r.Height }

// MouthRegion is the mouth geometry derived from one face in one frame.
// It is immutable once built.
type MouthRegion struct {
	Box    Rect             `json:"bounding_box"` // Padded, clamped outer-lip box
	Center landmark.Point   `json:"center"`       // Midpoint of the unpadded outer extents
	Inner  []landmark.Point `json:"inner"`        // Inner lip points
	Outer  []landmark.Point `json:"outer"`        // Outer lip points
}

// Position is where the inner mouth centroid sits.
type Position struct {
	X         float64 `json:"x"`          // Centroid x, pixels
	Y         float64 `json:"y"`          // Centroid y, pixels
	RelativeX float64 `json:"relative_x"` // Amplified, width-normalized offset (negative = left)
	RelativeY float64 `json:"relative_y"` // Height-normalized offset (negative = up)
}

// Detection is one frame's tongue reading for one face.
type Detection struct {
	Position      Position `json:"position"`
	Confidence    float64  `json:"confidence"`     // 0-1
	MouthOpenness float64  `json:"mouth_openness"` // Inner spread relative to the mouth box
	OpeningRatio  float64  `json:"opening_ratio"`  // Inner height / mouth box height
	TongueOut     bool     `json:"tongue_out"`
}

// Detector produces a Detection from a mouth region.
// A nil result means nothing usable was seen this frame; it is not an error.
type Detector interface {
	Detect(region *MouthRegion) *Detection
}
