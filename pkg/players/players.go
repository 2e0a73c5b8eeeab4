// Package players maps the faces in a camera frame to in-game players.
//
// Assignment is positional only: faces are ordered by their horizontal
// center every frame and no identity is carried between frames. When one
// face briefly drops out, whoever remains becomes Player 1 until two faces
// are visible again.
package players

import (
	"sort"

	"github.com/teslashibe/go-tonguetug/pkg/landmark"
)

// ID identifies an in-game side.
type ID string

const (
	Player1 ID = "player1" // Left side of the game screen
	Player2 ID = "player2" // Right side of the game screen
)

// Assignment is the per-frame face for each player. A nil face means absent.
type Assignment struct {
	Player1 landmark.Face
	Player2 landmark.Face
}

// Face returns the face assigned to id.
func (a Assignment) Face(id ID) landmark.Face {
	if id == Player2 {
		return a.Player2
	}
	return a.Player1
}

type placedFace struct {
	face    landmark.Face
	centerX float64
}

// Assign orders faces by camera-space center and maps them to players.
//
// The displayed video is mirrored, so the rightmost face in camera space
// appears on the left of the screen and is Player 1; the leftmost face is
// Player 2. With fewer than two faces the only face (if any) is Player 1.
func Assign(faces []landmark.Face, width int) Assignment {
	placed := make([]placedFace, 0, len(faces))
	for _, f := range faces {
		if len(f) == 0 {
			continue
		}
		cx, ok := f.CenterX(landmark.FaceCenter, width)
		if !ok {
			continue
		}
		placed = append(placed, placedFace{face: f, centerX: cx})
	}

	switch len(placed) {
	case 0:
		return Assignment{}
	case 1:
		return Assignment{Player1: placed[0].face}
	}

	sort.SliceStable(placed, func(i, j int) bool {
		return placed[i].centerX < placed[j].centerX
	})
	return Assignment{
		Player1: placed[len(placed)-1].face,
		Player2: placed[0].face,
	}
}
