package facemetric

const (
	DefaultSmileThreshold     = 0.5
	DefaultEyeAspectThreshold = 0.27
	DefaultMouthOpenThreshold = 0.3
	// DefaultHeadPoseDelta is in detector pixels.
	DefaultHeadPoseDelta = 10.0
)

type Thresholds struct {
	Smile          float64 `json:"smile" yaml:"smile" validate:"gt=0,lte=1"`
	EyeAspectRatio float64 `json:"eye_aspect_ratio" yaml:"eye_aspect_ratio" validate:"gt=0"`
	MouthOpen      float64 `json:"mouth_open" yaml:"mouth_open" validate:"gt=0"`
	HeadPoseDelta  float64 `json:"head_pose_delta" yaml:"head_pose_delta" validate:"gt=0"`
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		Smile:          DefaultSmileThreshold,
		EyeAspectRatio: DefaultEyeAspectThreshold,
		MouthOpen:      DefaultMouthOpenThreshold,
		HeadPoseDelta:  DefaultHeadPoseDelta,
	}
}

// Merge returns t with every zero field replaced by the matching field of base.
func (t Thresholds) Merge(base Thresholds) Thresholds {
	if t.Smile == 0 {
		t.Smile = base.Smile
	}
	if t.EyeAspectRatio == 0 {
		t.EyeAspectRatio = base.EyeAspectRatio
	}
	if t.MouthOpen == 0 {
		t.MouthOpen = base.MouthOpen
	}
	if t.HeadPoseDelta == 0 {
		t.HeadPoseDelta = base.HeadPoseDelta
	}
	return t
}
