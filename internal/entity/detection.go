package entity

type Box struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type Detection struct {
	Landmarks         LandmarkSet        `json:"landmarks"`
	Expressions       map[string]float64 `json:"expressions"`
	Age               float64            `json:"age"`
	Gender            string             `json:"gender"`
	GenderProbability float64            `json:"gender_probability,omitempty"`
	Score             float64            `json:"score,omitempty"`
	Box               *Box               `json:"box,omitempty"`
}

// DetectionResult is either Absent or Present(Detection). The detection is
// only reachable through Face, so every consumer has to handle both cases.
type DetectionResult struct {
	present   bool
	detection Detection
}

func Absent() DetectionResult {
	return DetectionResult{}
}

func Present(d Detection) DetectionResult {
	return DetectionResult{present: true, detection: d}
}

func (r DetectionResult) Face() (Detection, bool) {
	return r.detection, r.present
}

type DetectorOptions struct {
	Detector string                 `json:"detector"`
	Options  map[string]interface{} `json:"options,omitempty"`
}
