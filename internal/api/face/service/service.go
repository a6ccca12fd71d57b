package faceService

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"FaceSignal/internal/api/face"
	"FaceSignal/internal/entity"
	"FaceSignal/pkg/camera"
	"FaceSignal/pkg/facemetric"
	"FaceSignal/pkg/s3"
	"FaceSignal/pkg/scheduler"
	"FaceSignal/pkg/utils"
	"github.com/sirupsen/logrus"
)

const (
	DefaultInterval        = 200 * time.Millisecond
	DefaultDetectorTimeout = 2 * time.Second
	sinkTimeout            = time.Second
)

// Detector is the black-box face detector. A nil error with an Absent
// result means the frame simply had no face.
type Detector interface {
	DetectFace(ctx context.Context, frame *entity.Frame, opts entity.DetectorOptions) (entity.DetectionResult, error)
}

// Sink receives every SignalUpdate after it is stored.
type Sink interface {
	Publish(ctx context.Context, update entity.SignalUpdate) error
}

type ISamplerService interface {
	Start(ctx context.Context) error
	Stop() error
	Tick(ctx context.Context) face.TickOutcome
	Signals() entity.SignalSet
	Latest() entity.SignalUpdate
	Subscribe() *entity.SignalState
	Status() face.StatusResponse
	CaptureSnapshot(ctx context.Context, upload bool) (*entity.Snapshot, error)
	IngestFrame(data []byte) error
}

type Config struct {
	Interval        time.Duration          `validate:"gt=0"`
	DetectorTimeout time.Duration          `validate:"gt=0"`
	Detector        entity.DetectorOptions `validate:"-"`
}

type samplerService struct {
	log       *logrus.Logger
	cfg       Config
	source    camera.Source
	detector  Detector
	engine    *facemetric.Engine
	state     *entity.SignalState
	snapshots s3.ItfS3
	utils     utils.IUtils
	sinks     []Sink

	mu     sync.Mutex
	task   *scheduler.Task
	active atomic.Bool

	outcomes   map[face.TickOutcome]*atomic.Uint64
	lastTickAt atomic.Int64
}

// NewSamplerService wires the sampling loop. snapshots may be nil, in which
// case snapshot uploads are refused.
func NewSamplerService(
	log *logrus.Logger,
	cfg Config,
	source camera.Source,
	detector Detector,
	engine *facemetric.Engine,
	snapshots s3.ItfS3,
	utils utils.IUtils,
	sinks ...Sink,
) ISamplerService {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.DetectorTimeout <= 0 {
		cfg.DetectorTimeout = DefaultDetectorTimeout
	}

	outcomes := make(map[face.TickOutcome]*atomic.Uint64, len(face.TickOutcomes))
	for _, o := range face.TickOutcomes {
		outcomes[o] = &atomic.Uint64{}
	}

	return &samplerService{
		log:       log,
		cfg:       cfg,
		source:    source,
		detector:  detector,
		engine:    engine,
		state:     entity.NewSignalState(),
		snapshots: snapshots,
		utils:     utils,
		sinks:     sinks,
		outcomes:  outcomes,
	}
}
