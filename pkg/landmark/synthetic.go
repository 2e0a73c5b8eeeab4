package landmark

// SyntheticMouth describes a face mesh with a controllable mouth, in normalized units.
// It is used by the demo feed and by tests.
type SyntheticMouth struct {
	CenterX, CenterY float64 // Mouth center
	Width, Height    float64 // Outer lip extent
	InnerWidth       float64 // Inner lip horizontal extent
	Opening          float64 // Inner lip vertical extent
	Shift            float64 // Horizontal offset of the inner lip from the mouth center
}

// DefaultSyntheticMouth is a wide-open mouth centered in the image.
func DefaultSyntheticMouth() SyntheticMouth {
	return SyntheticMouth{
		CenterX:    0.5,
		CenterY:    0.65,
		Width:      0.2,
		Height:     0.1,
		InnerWidth: 0.1,
		Opening:    0.06,
	}
}

// SyntheticFace builds a full-size face mesh around the given mouth.
// Non-lip points collapse onto the face outline so the face center tracks CenterX.
func SyntheticFace(m SyntheticMouth) Face {
	face := make(Face, FaceMeshSize)
	for i := range face {
		face[i] = Landmark{X: m.CenterX, Y: m.CenterY, Visibility: 1}
	}

	face[FaceLeftEdge] = Landmark{X: m.CenterX - m.Width, Y: m.CenterY - m.Height*2, Visibility: 1}
	face[FaceRightEdge] = Landmark{X: m.CenterX + m.Width, Y: m.CenterY - m.Height*2, Visibility: 1}
	face[ForeheadTop] = Landmark{X: m.CenterX, Y: m.CenterY - m.Height*5, Visibility: 1}
	face[ChinBottom] = Landmark{X: m.CenterX, Y: m.CenterY + m.Height*2, Visibility: 1}
	face[NoseTip] = Landmark{X: m.CenterX, Y: m.CenterY - m.Height*2, Visibility: 1}

	placeRows(face, OuterLip, m.CenterX, m.CenterY, m.Width, m.Height)
	placeRows(face, InnerLip, m.CenterX+m.Shift, m.CenterY, m.InnerWidth, m.Opening)
	return face
}

// placeRows spreads the first half of indices along the top edge of a box
// and the second half along the bottom edge.
func placeRows(face Face, indices []int, cx, cy, w, h float64) {
	half := len(indices) / 2
	for row, idxs := range [][]int{indices[:half], indices[half:]} {
		y := cy - h/2
		if row == 1 {
			y = cy + h/2
		}
		for i, idx := range idxs {
			x := cx
			if len(idxs) > 1 {
				x = cx - w/2 + w*float64(i)/float64(len(idxs)-1)
			}
			face[idx] = Landmark{X: x, Y: y, Visibility: 1}
		}
	}
}
