package landmark

// MediaPipe FaceMesh landmark indices used by the pipeline.
// See: https://github.com/google-ai-edge/mediapipe/blob/master/mediapipe/modules/face_geometry/data/canonical_face_model_uv_visualization.png

// OuterLip is the 12-point outer lip contour.
var OuterLip = []int{61, 146, 91, 181, 84, 17, 314, 405, 321, 375, 291, 0}

// InnerLip is the inner lip contour (the mouth opening).
var InnerLip = []int{78, 95, 88, 178, 87, 14, 317, 402, 318, 324, 308, 191, 80, 81, 82, 13, 312, 311, 310, 415}

// Face outline and nose points used to locate a face horizontally.
const (
	FaceLeftEdge  = 234
	FaceRightEdge = 454
	NoseTip       = 1
	ForeheadTop   = 10
	ChinBottom    = 152
)

// FaceCenter is the subset averaged to find a face's horizontal center.
var FaceCenter = []int{FaceLeftEdge, FaceRightEdge, NoseTip, ForeheadTop, ChinBottom}
