package entity

import (
	"sync/atomic"
	"time"
)

const (
	NoFaceDetected   = "No face detected"
	NoAgeGender      = "Age: N/A, Gender: N/A"
	NoSmileDetected  = "No smile detected"
	EyesOpen         = "Eyes open"
	EyesClosed       = "Eyes closed"
	MouthOpen        = "Mouth open"
	MouthClosed      = "Mouth closed"
	HeadTiltedLeft   = "Head tilted left"
	HeadTiltedRight  = "Head tilted right"
	HeadTiltedDown   = "Head tilted down"
	HeadTiltedUp     = "Head tilted up"
	HeadPositionNorm = "Head position normal"
)

type SignalSet struct {
	Smile     string `json:"smile"`
	Blink     string `json:"blink"`
	Mouth     string `json:"mouth"`
	HeadPose  string `json:"head_pose"`
	AgeGender string `json:"age_gender"`
}

// NoFaceSignals is the set produced for a tick without a detected face.
func NoFaceSignals() SignalSet {
	return SignalSet{
		Smile:     NoFaceDetected,
		Blink:     NoFaceDetected,
		Mouth:     NoFaceDetected,
		HeadPose:  NoFaceDetected,
		AgeGender: NoAgeGender,
	}
}

// InitialSignals is shown before the first tick completes.
func InitialSignals() SignalSet {
	return SignalSet{
		Smile:     NoFaceDetected,
		Blink:     EyesOpen,
		Mouth:     MouthClosed,
		HeadPose:  HeadPositionNorm,
		AgeGender: NoAgeGender,
	}
}

type SignalUpdate struct {
	TickID      string    `json:"tick_id"`
	At          time.Time `json:"at"`
	FacePresent bool      `json:"face_present"`
	Signals     SignalSet `json:"signals"`
}

// SignalState is the single-writer holder of the latest SignalUpdate.
// Store swaps the whole value, so readers never observe a partial set.
type SignalState struct {
	current atomic.Pointer[SignalUpdate]
}

func NewSignalState() *SignalState {
	s := &SignalState{}
	s.current.Store(&SignalUpdate{Signals: InitialSignals()})
	return s
}

func (s *SignalState) Store(update SignalUpdate) {
	s.current.Store(&update)
}

func (s *SignalState) Load() SignalUpdate {
	return *s.current.Load()
}

func (s *SignalState) Signals() SignalSet {
	return s.current.Load().Signals
}
