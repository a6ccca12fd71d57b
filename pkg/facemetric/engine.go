package facemetric

import (
	"fmt"
	"math"

	"FaceSignal/internal/entity"
	"github.com/sirupsen/logrus"
)

const happyExpression = "happy"

type Engine struct {
	thresholds Thresholds
	log        logrus.FieldLogger
}

func New(log logrus.FieldLogger, thresholds Thresholds) *Engine {
	return &Engine{
		thresholds: thresholds.Merge(DefaultThresholds()),
		log:        log,
	}
}

func (e *Engine) Thresholds() Thresholds {
	return e.thresholds
}

// Evaluate computes all five signals. An absent face short-circuits to the
// no-face defaults.
func (e *Engine) Evaluate(result entity.DetectionResult) entity.SignalSet {
	face, ok := result.Face()
	if !ok {
		return entity.NoFaceSignals()
	}

	return entity.SignalSet{
		Smile:     e.Smile(face.Expressions),
		Blink:     e.Blink(face.Landmarks.LeftEye, face.Landmarks.RightEye),
		Mouth:     e.Mouth(face.Landmarks.Mouth),
		HeadPose:  e.HeadPose(face.Landmarks.Nose),
		AgeGender: e.AgeGender(face.Age, face.Gender),
	}
}

func (e *Engine) Smile(expressions map[string]float64) string {
	happy := expressions[happyExpression]
	if happy > e.thresholds.Smile {
		return fmt.Sprintf("Smiling: %.1f%%", happy*100)
	}
	return entity.NoSmileDetected
}

// Blink reports closed eyes only when both eye aspect ratios are below the
// threshold, so a single occluded or jittery eye does not flip the signal.
func (e *Engine) Blink(leftEye, rightEye []entity.Point) string {
	left, err := EyeAspectRatio(leftEye)
	if err != nil {
		e.diagnostic("blink", "left_eye", err)
		return entity.NoFaceDetected
	}

	right, err := EyeAspectRatio(rightEye)
	if err != nil {
		e.diagnostic("blink", "right_eye", err)
		return entity.NoFaceDetected
	}

	if left < e.thresholds.EyeAspectRatio && right < e.thresholds.EyeAspectRatio {
		return entity.EyesClosed
	}
	return entity.EyesOpen
}

func (e *Engine) Mouth(mouth []entity.Point) string {
	ratio, err := MouthOpenness(mouth)
	if err != nil {
		e.diagnostic("mouth", "mouth", err)
		return entity.NoFaceDetected
	}

	if ratio > e.thresholds.MouthOpen {
		return entity.MouthOpen
	}
	return entity.MouthClosed
}

// HeadPose checks the horizontal delta before the vertical one; the first
// matching direction wins.
func (e *Engine) HeadPose(nose []entity.Point) string {
	dx, dy, err := HeadPoseDelta(nose)
	if err != nil {
		e.diagnostic("head_pose", "nose", err)
		return entity.NoFaceDetected
	}

	limit := e.thresholds.HeadPoseDelta
	switch {
	case dx > limit:
		return entity.HeadTiltedLeft
	case dx < -limit:
		return entity.HeadTiltedRight
	case dy > limit:
		return entity.HeadTiltedDown
	case dy < -limit:
		return entity.HeadTiltedUp
	default:
		return entity.HeadPositionNorm
	}
}

func (e *Engine) AgeGender(age float64, gender string) string {
	if math.IsNaN(age) || math.IsInf(age, 0) || age < 0 || gender == "" {
		e.diagnostic("age_gender", "classifier", fmt.Errorf("unusable estimate age=%v gender=%q", age, gender))
		return entity.NoAgeGender
	}
	return fmt.Sprintf("Age: %d, Gender: %s", int(math.Round(age)), gender)
}

func (e *Engine) diagnostic(signal, contour string, err error) {
	if e.log == nil {
		return
	}
	e.log.WithFields(logrus.Fields{
		"signal":  signal,
		"contour": contour,
	}).WithError(err).Warn("Malformed detection, signal falls back to no-face default")
}
