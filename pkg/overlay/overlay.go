package overlay

import (
	"errors"
	"fmt"
	"image"
	"sync"

	"gocv.io/x/gocv"

	"github.com/teslashibe/go-tonguetug/pkg/game"
	"github.com/teslashibe/go-tonguetug/pkg/landmark"
)

// ErrEmptyImage is returned when the JPEG decodes to nothing
var ErrEmptyImage = errors.New("empty image")

// DefaultQuality is the JPEG quality of annotated frames
const DefaultQuality = 70

// Renderer draws layouts onto JPEG frames
type Renderer struct {
	quality int
	mu      sync.Mutex // OpenCV calls are serialized
}

// NewRenderer creates a renderer. quality <= 0 uses DefaultQuality.
func NewRenderer(quality int) *Renderer {
	if quality <= 0 || quality > 100 {
		quality = DefaultQuality
	}
	return &Renderer{quality: quality}
}

// Render decodes jpeg, draws the mouth regions and scores, and re-encodes it.
func (r *Renderer) Render(jpeg []byte, frame landmark.Frame, snap game.Snapshot) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	img, err := gocv.IMDecode(jpeg, gocv.IMReadColor)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	defer img.Close()

	if img.Empty() {
		return nil, ErrEmptyImage
	}

	layout := Plan(frame, img.Cols(), img.Rows(), snap)
	draw(&img, layout)

	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, img, []int{gocv.IMWriteJpegQuality, r.quality})
	if err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}
	defer buf.Close()

	out := make([]byte, buf.Len())
	copy(out, buf.GetBytes())
	return out, nil
}

func draw(img *gocv.Mat, layout Layout) {
	for _, b := range layout.Boxes {
		gocv.Rectangle(img, b.Rect, b.Color, 2)
		for _, pt := range b.Inner {
			gocv.Circle(img, pt, 2, b.Color, -1)
		}
		gocv.PutText(img, b.Label, image.Pt(b.Rect.Min.X, b.Rect.Min.Y-6),
			gocv.FontHersheySimplex, 0.5, b.Color, 1)
	}
	gocv.PutText(img, layout.Header, image.Pt(10, 24), gocv.FontHersheySimplex, 0.7, colorText, 2)
}
