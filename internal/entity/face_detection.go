package entity

// FaceDetectionRequest is the envelope sent to the AI face service for one tick.
type FaceDetectionRequest struct {
	Detector string                 `json:"detector"`
	Options  map[string]interface{} `json:"options,omitempty"`
	With     []string               `json:"with"`
	Width    int                    `json:"width"`
	Height   int                    `json:"height"`
	Format   string                 `json:"format"`
	Image    string                 `json:"image"`
}

// FaceDetectionResponse is the AI face service reply. Face is nil when no
// face was found.
type FaceDetectionResponse struct {
	Face  *FacePayload `json:"face"`
	Error string       `json:"error,omitempty"`
}

type FacePayload struct {
	Landmarks         LandmarkPayload        `json:"landmarks"`
	Expressions       map[string]interface{} `json:"expressions"`
	Age               float64                `json:"age"`
	Gender            string                 `json:"gender"`
	GenderProbability float64                `json:"gender_probability,omitempty"`
	Score             float64                `json:"score,omitempty"`
	Box               *Box                   `json:"box,omitempty"`
}

// LandmarkPayload carries either the flat 68-point positions, the named
// contour groups, or both. Named groups win when present.
type LandmarkPayload struct {
	Positions []Point `json:"positions,omitempty"`
	LeftEye   []Point `json:"left_eye,omitempty"`
	RightEye  []Point `json:"right_eye,omitempty"`
	Mouth     []Point `json:"mouth,omitempty"`
	Nose      []Point `json:"nose,omitempty"`
}

func (p LandmarkPayload) LandmarkSet() LandmarkSet {
	named := LandmarkSet{
		LeftEye:  p.LeftEye,
		RightEye: p.RightEye,
		Mouth:    p.Mouth,
		Nose:     p.Nose,
	}
	if !named.IsEmpty() {
		return named
	}
	return LandmarksFromPositions(p.Positions)
}
