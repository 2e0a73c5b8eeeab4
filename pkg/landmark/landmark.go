// Package landmark defines the per-frame face landmark input produced by the
// browser-side face mesh detector.
package landmark

import (
	"errors"
	"fmt"
)

// FaceMeshSize is the number of points in a MediaPipe FaceMesh result
// (468 mesh points plus 10 iris points).
const FaceMeshSize = 478

// Landmark is one point in normalized (0-1) image coordinates.
type Landmark struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Z          float64 `json:"z,omitempty"`          // Relative depth
	Visibility float64 `json:"visibility,omitempty"` // Per-point confidence
}

// Point is a position in pixel space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Face is one face's landmark set. Indexing is stable across frames.
type Face []Landmark

// Frame is everything the landmark source produced for one video frame.
type Frame struct {
	Width     int    `json:"width"`  // Image width in pixels
	Height    int    `json:"height"` // Image height in pixels
	Faces     []Face `json:"faces"`  // 0, 1 or 2 faces
	Timestamp int64  `json:"ts"`     // Capture time, unix milliseconds
}

// ErrInvalidFrame is returned by Validate for frames the pipeline cannot use.
var ErrInvalidFrame = errors.New("invalid landmark frame")

// Validate checks image dimensions and face count.
// An empty face list is valid: it means nobody is in view.
func (f Frame) Validate() error {
	if f.Width <= 0 || f.Height <= 0 {
		return fmt.Errorf("%w: image size %dx%d", ErrInvalidFrame, f.Width, f.Height)
	}
	if len(f.Faces) > 2 {
		return fmt.Errorf("%w: %d faces (max 2)", ErrInvalidFrame, len(f.Faces))
	}
	return nil
}

// ToPixel converts a normalized landmark to pixel coordinates.
func (l Landmark) ToPixel(width, height int) Point {
	return Point{X: l.X * float64(width), Y: l.Y * float64(height)}
}

// Pixels returns the pixel positions of the given indices.
// Indices outside the face are skipped.
func (f Face) Pixels(indices []int, width, height int) []Point {
	pts := make([]Point, 0, len(indices))
	for _, idx := range indices {
		if idx < 0 || idx >= len(f) {
			continue
		}
		pts = append(pts, f[idx].ToPixel(width, height))
	}
	return pts
}

// CenterX returns the mean pixel x of the given indices, and false if none exist.
func (f Face) CenterX(indices []int, width int) (float64, bool) {
	var sum float64
	n := 0
	for _, idx := range indices {
		if idx < 0 || idx >= len(f) {
			continue
		}
		sum += f[idx].X * float64(width)
		n++
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}
