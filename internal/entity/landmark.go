package entity

const (
	EyePoints      = 6
	MouthPoints    = 20
	MinNosePoints  = 4
	LandmarkPoints = 68
)

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// LandmarkSet holds the contour groups of one detected face. Point order
// inside each group follows the detector's canonical contour order.
type LandmarkSet struct {
	LeftEye  []Point `json:"left_eye"`
	RightEye []Point `json:"right_eye"`
	Mouth    []Point `json:"mouth"`
	Nose     []Point `json:"nose"`
}

// LandmarksFromPositions splits a 68-point iBUG layout into contour groups.
// The eye naming follows the face-api getters: LeftEye is 36-41 and
// RightEye is 42-47. A set of any other size yields empty groups so the
// metric engine degrades each signal instead of indexing out of range.
func LandmarksFromPositions(positions []Point) LandmarkSet {
	if len(positions) != LandmarkPoints {
		return LandmarkSet{}
	}

	return LandmarkSet{
		Nose:     clonePoints(positions[27:36]),
		LeftEye:  clonePoints(positions[36:42]),
		RightEye: clonePoints(positions[42:48]),
		Mouth:    clonePoints(positions[48:68]),
	}
}

func (l LandmarkSet) IsEmpty() bool {
	return len(l.LeftEye) == 0 && len(l.RightEye) == 0 && len(l.Mouth) == 0 && len(l.Nose) == 0
}

func clonePoints(src []Point) []Point {
	dst := make([]Point, len(src))
	copy(dst, src)
	return dst
}
