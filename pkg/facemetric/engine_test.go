package facemetric

import (
	"testing"

	"FaceSignal/internal/entity"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// openEye is a 6-point contour whose vertical gaps are half the horizontal
// span, giving an aspect ratio of 0.5.
func openEye(x float64) []entity.Point {
	return []entity.Point{
		{X: x, Y: 10},
		{X: x + 3, Y: 7.5},
		{X: x + 7, Y: 7.5},
		{X: x + 10, Y: 10},
		{X: x + 7, Y: 12.5},
		{X: x + 3, Y: 12.5},
	}
}

func closedEye(x float64) []entity.Point {
	eye := openEye(x)
	for i := range eye {
		eye[i].Y = 10
	}
	return eye
}

// mouthWithGap builds a 20-point contour with corners 40 apart and an inner
// lip gap of the given height.
func mouthWithGap(gap float64) []entity.Point {
	mouth := make([]entity.Point, entity.MouthPoints)
	for i := range mouth {
		mouth[i] = entity.Point{X: 100 + float64(i), Y: 200}
	}
	mouth[12] = entity.Point{X: 100, Y: 200}
	mouth[16] = entity.Point{X: 140, Y: 200}
	mouth[13] = entity.Point{X: 120, Y: 200 - gap/2}
	mouth[19] = entity.Point{X: 120, Y: 200 + gap/2}
	return mouth
}

func noseWithDelta(dx, dy float64) []entity.Point {
	return []entity.Point{
		{X: 50 + dx, Y: 50 + dy},
		{X: 50, Y: 60},
		{X: 50, Y: 70},
		{X: 50, Y: 50},
	}
}

func newTestEngine() (*Engine, *test.Hook) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	return New(logger, DefaultThresholds()), hook
}

func fullDetection() entity.Detection {
	return entity.Detection{
		Landmarks: entity.LandmarkSet{
			LeftEye:  openEye(0),
			RightEye: openEye(30),
			Mouth:    mouthWithGap(20),
			Nose:     noseWithDelta(0, 0),
		},
		Expressions: map[string]float64{"happy": 0.87, "neutral": 0.13},
		Age:         31.6,
		Gender:      "female",
	}
}

func TestSmile(t *testing.T) {
	engine, _ := newTestEngine()

	tests := []struct {
		name        string
		expressions map[string]float64
		want        string
	}{
		{name: "clear smile", expressions: map[string]float64{"happy": 0.87}, want: "Smiling: 87.0%"},
		{name: "one decimal", expressions: map[string]float64{"happy": 0.5234}, want: "Smiling: 52.3%"},
		{name: "formatted without pre-rounding", expressions: map[string]float64{"happy": 0.5125}, want: "Smiling: 51.2%"},
		{name: "formatted without pre-rounding upper", expressions: map[string]float64{"happy": 0.5135}, want: "Smiling: 51.3%"},
		{name: "boundary is not smiling", expressions: map[string]float64{"happy": 0.5}, want: "No smile detected"},
		{name: "just above boundary", expressions: map[string]float64{"happy": 0.501}, want: "Smiling: 50.1%"},
		{name: "missing happy", expressions: map[string]float64{"sad": 0.9}, want: "No smile detected"},
		{name: "nil expressions", expressions: nil, want: "No smile detected"},
		{name: "certain", expressions: map[string]float64{"happy": 1}, want: "Smiling: 100.0%"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, engine.Smile(tt.expressions))
		})
	}
}

func TestEyeAspectRatio(t *testing.T) {
	ear, err := EyeAspectRatio(openEye(0))
	require.NoError(t, err)
	assert.InDelta(t, 0.5, ear, 1e-9)

	ear, err = EyeAspectRatio(closedEye(0))
	require.NoError(t, err)
	assert.Equal(t, 0.0, ear)

	_, err = EyeAspectRatio(openEye(0)[:4])
	assert.ErrorIs(t, err, ErrMalformedContour)

	degenerate := openEye(0)
	degenerate[3] = degenerate[0]
	_, err = EyeAspectRatio(degenerate)
	assert.ErrorIs(t, err, ErrDegenerateContour)
}

func TestBlink(t *testing.T) {
	engine, _ := newTestEngine()

	assert.Equal(t, "Eyes closed", engine.Blink(closedEye(0), closedEye(30)))
	assert.Equal(t, "Eyes open", engine.Blink(closedEye(0), openEye(30)))
	assert.Equal(t, "Eyes open", engine.Blink(openEye(0), closedEye(30)))
	assert.Equal(t, "Eyes open", engine.Blink(openEye(0), openEye(30)))
}

func TestBlinkThresholdIsStrict(t *testing.T) {
	engine := New(nil, Thresholds{EyeAspectRatio: 0.5})

	// Both ratios are exactly 0.5, which is not below the threshold.
	assert.Equal(t, "Eyes open", engine.Blink(openEye(0), openEye(30)))
}

func TestBlinkMalformedContour(t *testing.T) {
	engine, hook := newTestEngine()

	got := engine.Blink(openEye(0)[:4], openEye(30))

	assert.Equal(t, "No face detected", got)
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
	assert.Equal(t, "blink", hook.LastEntry().Data["signal"])
}

func TestMouth(t *testing.T) {
	engine, _ := newTestEngine()

	assert.Equal(t, "Mouth open", engine.Mouth(mouthWithGap(20)))
	assert.Equal(t, "Mouth closed", engine.Mouth(mouthWithGap(4)))
	assert.Equal(t, "No face detected", engine.Mouth(mouthWithGap(20)[:12]))
}

func TestMouthRatioAtThresholdIsClosed(t *testing.T) {
	engine := New(nil, Thresholds{MouthOpen: 0.25})

	ratio, err := MouthOpenness(mouthWithGap(10))
	require.NoError(t, err)
	require.Equal(t, 0.25, ratio)

	assert.Equal(t, "Mouth closed", engine.Mouth(mouthWithGap(10)))
}

func TestHeadPose(t *testing.T) {
	engine, _ := newTestEngine()

	tests := []struct {
		dx, dy float64
		want   string
	}{
		{dx: 15, dy: 15, want: "Head tilted left"},
		{dx: -15, dy: 15, want: "Head tilted right"},
		{dx: 0, dy: 15, want: "Head tilted down"},
		{dx: 0, dy: -15, want: "Head tilted up"},
		{dx: 0, dy: 0, want: "Head position normal"},
		{dx: 10, dy: -10, want: "Head position normal"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, engine.HeadPose(noseWithDelta(tt.dx, tt.dy)), "dx=%v dy=%v", tt.dx, tt.dy)
	}

	assert.Equal(t, "No face detected", engine.HeadPose(noseWithDelta(0, 0)[:3]))
}

func TestAgeGender(t *testing.T) {
	engine, _ := newTestEngine()

	assert.Equal(t, "Age: 32, Gender: female", engine.AgeGender(31.6, "female"))
	assert.Equal(t, "Age: 31, Gender: male", engine.AgeGender(31.4, "male"))
	assert.Equal(t, "Age: N/A, Gender: N/A", engine.AgeGender(-1, "male"))
	assert.Equal(t, "Age: N/A, Gender: N/A", engine.AgeGender(20, ""))
}

func TestEvaluateAbsentFace(t *testing.T) {
	engine, _ := newTestEngine()

	got := engine.Evaluate(entity.Absent())

	assert.Equal(t, entity.SignalSet{
		Smile:     "No face detected",
		Blink:     "No face detected",
		Mouth:     "No face detected",
		HeadPose:  "No face detected",
		AgeGender: "Age: N/A, Gender: N/A",
	}, got)
}

func TestEvaluatePresentFace(t *testing.T) {
	engine, _ := newTestEngine()

	got := engine.Evaluate(entity.Present(fullDetection()))

	assert.Equal(t, entity.SignalSet{
		Smile:     "Smiling: 87.0%",
		Blink:     "Eyes open",
		Mouth:     "Mouth open",
		HeadPose:  "Head position normal",
		AgeGender: "Age: 32, Gender: female",
	}, got)
}

func TestEvaluateIsIdempotent(t *testing.T) {
	engine, _ := newTestEngine()
	result := entity.Present(fullDetection())

	assert.Equal(t, engine.Evaluate(result), engine.Evaluate(result))
}

func TestEvaluateMalformedEyeOnlyAffectsBlink(t *testing.T) {
	engine, _ := newTestEngine()
	detection := fullDetection()
	detection.Landmarks.LeftEye = detection.Landmarks.LeftEye[:4]

	got := engine.Evaluate(entity.Present(detection))

	assert.Equal(t, "No face detected", got.Blink)
	assert.Equal(t, "Mouth open", got.Mouth)
	assert.Equal(t, "Smiling: 87.0%", got.Smile)
}

func TestEvaluateShortPositionSetDegradesGeometry(t *testing.T) {
	engine, hook := newTestEngine()
	detection := fullDetection()
	detection.Landmarks = entity.LandmarksFromPositions(make([]entity.Point, 10))

	got := engine.Evaluate(entity.Present(detection))

	assert.Equal(t, entity.SignalSet{
		Smile:     "Smiling: 87.0%",
		Blink:     "No face detected",
		Mouth:     "No face detected",
		HeadPose:  "No face detected",
		AgeGender: "Age: 32, Gender: female",
	}, got)
	assert.NotEmpty(t, hook.AllEntries())
}

func TestNewFillsMissingThresholds(t *testing.T) {
	engine := New(nil, Thresholds{Smile: 0.7})

	assert.Equal(t, Thresholds{
		Smile:          0.7,
		EyeAspectRatio: DefaultEyeAspectThreshold,
		MouthOpen:      DefaultMouthOpenThreshold,
		HeadPoseDelta:  DefaultHeadPoseDelta,
	}, engine.Thresholds())
}
