package face

import (
	"time"

	"FaceSignal/internal/entity"
	"FaceSignal/pkg/facemetric"
)

type TickOutcome string

const (
	TickInvalidFrame  TickOutcome = "invalid_frame"
	TickNoFace        TickOutcome = "no_face"
	TickDetectorError TickOutcome = "detector_error"
	TickFace          TickOutcome = "face"
)

var TickOutcomes = []TickOutcome{TickInvalidFrame, TickNoFace, TickDetectorError, TickFace}

type SnapshotRequest struct {
	Upload bool `json:"upload"`
}

type SnapshotResponse struct {
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	MimeType string `json:"mime_type"`
	DataURL  string `json:"data_url"`
	Location string `json:"location,omitempty"`
}

type SignalsResponse struct {
	entity.SignalUpdate
}

type StatusResponse struct {
	Capturing  bool                   `json:"capturing"`
	Interval   string                 `json:"interval"`
	Detector   string                 `json:"detector"`
	Width      int                    `json:"width"`
	Height     int                    `json:"height"`
	Ticks      map[TickOutcome]uint64 `json:"ticks"`
	Overruns   uint64                 `json:"overruns"`
	LastTickAt *time.Time             `json:"last_tick_at,omitempty"`
	Thresholds facemetric.Thresholds  `json:"thresholds"`
}

type CaptureResponse struct {
	Capturing bool   `json:"capturing"`
	Message   string `json:"message"`
}
