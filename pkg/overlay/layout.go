// Package overlay annotates camera frames with each player's mouth region
// and score for the debug view.
package overlay

import (
	"fmt"
	"image"
	"image/color"

	"github.com/teslashibe/go-tonguetug/pkg/game"
	"github.com/teslashibe/go-tonguetug/pkg/landmark"
	"github.com/teslashibe/go-tonguetug/pkg/players"
	"github.com/teslashibe/go-tonguetug/pkg/tracking"
	"github.com/teslashibe/go-tonguetug/pkg/tracking/detection"
)

// Colors per classified state (RGBA; gocv converts to BGR)
var (
	colorLeft   = color.RGBA{R: 66, G: 133, B: 244, A: 255}
	colorRight  = color.RGBA{R: 234, G: 67, B: 53, A: 255}
	colorCenter = color.RGBA{R: 200, G: 200, B: 200, A: 255}
	colorText   = color.RGBA{R: 255, G: 255, B: 255, A: 255}
)

// Box is one annotated mouth region
type Box struct {
	Player players.ID
	Rect   image.Rectangle
	Inner  []image.Point
	Color  color.RGBA
	Label  string
}

// Layout is everything drawn on one frame
type Layout struct {
	Boxes  []Box
	Header string
}

// Plan computes the annotations for a frame of the given pixel size.
// Players without a face in the frame get no box.
func Plan(frame landmark.Frame, width, height int, snap game.Snapshot) Layout {
	assignment := players.Assign(frame.Faces, width)

	var layout Layout
	for _, p := range snap.Players {
		region := detection.ExtractMouth(assignment.Face(p.ID), width, height)
		if region == nil {
			continue
		}

		b := Box{
			Player: p.ID,
			Rect: image.Rect(
				int(region.Box.X), int(region.Box.Y),
				int(region.Box.Right()), int(region.Box.Bottom()),
			),
			Color: stateColor(p.State),
			Label: fmt.Sprintf("%s %d %s", shortName(p.ID), p.Count, p.State),
		}
		for _, pt := range region.Inner {
			b.Inner = append(b.Inner, image.Pt(int(pt.X), int(pt.Y)))
		}
		layout.Boxes = append(layout.Boxes, b)
	}

	layout.Header = header(snap)
	return layout
}

func stateColor(s tracking.State) color.RGBA {
	switch s {
	case tracking.Left:
		return colorLeft
	case tracking.Right:
		return colorRight
	}
	return colorCenter
}

func shortName(id players.ID) string {
	if id == players.Player2 {
		return "P2"
	}
	return "P1"
}

func header(snap game.Snapshot) string {
	h := fmt.Sprintf("%s  rope %.0f", snap.Mode, snap.Match.Position)
	if snap.AIScore != nil {
		h += fmt.Sprintf("  AI %.0f", *snap.AIScore)
	}
	if snap.Match.Ended {
		h += "  winner " + string(snap.Match.Winner)
	}
	return h
}
