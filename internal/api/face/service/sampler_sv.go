package faceService

import (
	"context"
	"fmt"
	"time"

	"FaceSignal/internal/api/face"
	"FaceSignal/internal/entity"
	"FaceSignal/pkg/log"
	"FaceSignal/pkg/scheduler"
)

// Start opens the frame source and begins sampling. The loop outlives ctx's
// cancellation; only Stop ends it.
func (s *samplerService) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.task != nil {
		s.log.Debug("Video capture already active")
		return nil
	}

	loopCtx := context.WithoutCancel(ctx)

	if err := s.source.Start(loopCtx); err != nil {
		s.log.WithError(err).Error("Failed to start video capture")
		return fmt.Errorf("%w: %v", face.ErrCaptureUnavailable, err)
	}

	s.active.Store(true)

	task, err := scheduler.Every(loopCtx, s.cfg.Interval, s.tickIfActive)
	if err != nil {
		s.active.Store(false)
		if stopErr := s.source.Stop(); stopErr != nil {
			s.log.WithError(stopErr).Warn("Failed to stop video capture")
		}
		return fmt.Errorf("failed to schedule sampler: %w", err)
	}
	s.task = task

	s.log.WithFields(log.Fields{
		"interval": s.cfg.Interval.String(),
		"detector": s.cfg.Detector.Detector,
	}).Info("Video capture started")

	return nil
}

// Stop cancels the loop, waits for an in-flight tick, then releases the
// source. Calling it while stopped is a no-op.
func (s *samplerService) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.task == nil {
		return nil
	}

	s.active.Store(false)
	s.task.Stop()
	s.task = nil

	if err := s.source.Stop(); err != nil {
		s.log.WithError(err).Warn("Failed to stop video capture")
		return err
	}

	s.log.Info("Video capture stopped")
	return nil
}

func (s *samplerService) tickIfActive(ctx context.Context) {
	if !s.active.Load() {
		return
	}
	s.Tick(ctx)
}

// Tick runs one sampling cycle: read the frame, run the detector, derive the
// signals and publish them.
func (s *samplerService) Tick(ctx context.Context) face.TickOutcome {
	now := time.Now()
	s.lastTickAt.Store(now.UnixNano())

	frame, ok := s.source.Frame()
	if !ok || !frame.HasValidDimensions() {
		width, height := s.source.Dimensions()
		s.log.WithFields(log.Fields{
			"width":  width,
			"height": height,
		}).Warn("video dimensions are invalid")
		return s.count(face.TickInvalidFrame)
	}

	detectCtx, cancel := context.WithTimeout(ctx, s.cfg.DetectorTimeout)
	result, err := s.detector.DetectFace(detectCtx, frame, s.cfg.Detector)
	cancel()

	outcome := face.TickFace
	if err != nil {
		s.log.WithError(err).WithField("seq", frame.Seq).Error("Face detection failed")
		result = entity.Absent()
		outcome = face.TickDetectorError
	} else if _, present := result.Face(); !present {
		outcome = face.TickNoFace
	}

	tickID, err := s.utils.NewULIDFromTimestamp(now)
	if err != nil {
		s.log.WithError(err).Warn("Failed to generate tick id")
	}

	update := entity.SignalUpdate{
		TickID:      tickID,
		At:          now,
		FacePresent: outcome == face.TickFace,
		Signals:     s.engine.Evaluate(result),
	}
	s.state.Store(update)
	s.publish(ctx, update)

	return s.count(outcome)
}

func (s *samplerService) publish(ctx context.Context, update entity.SignalUpdate) {
	for _, sink := range s.sinks {
		sinkCtx, cancel := context.WithTimeout(ctx, sinkTimeout)
		if err := sink.Publish(sinkCtx, update); err != nil {
			s.log.WithError(err).WithField("tick_id", update.TickID).Warn("Failed to publish signal update")
		}
		cancel()
	}
}

func (s *samplerService) count(outcome face.TickOutcome) face.TickOutcome {
	s.outcomes[outcome].Add(1)
	return outcome
}

func (s *samplerService) Signals() entity.SignalSet {
	return s.state.Signals()
}

func (s *samplerService) Latest() entity.SignalUpdate {
	return s.state.Load()
}

func (s *samplerService) Subscribe() *entity.SignalState {
	return s.state
}

func (s *samplerService) Status() face.StatusResponse {
	s.mu.Lock()
	var overruns uint64
	if s.task != nil {
		overruns = s.task.Overruns()
	}
	s.mu.Unlock()

	ticks := make(map[face.TickOutcome]uint64, len(s.outcomes))
	for outcome, counter := range s.outcomes {
		ticks[outcome] = counter.Load()
	}

	width, height := s.source.Dimensions()

	status := face.StatusResponse{
		Capturing:  s.active.Load(),
		Interval:   s.cfg.Interval.String(),
		Detector:   s.cfg.Detector.Detector,
		Width:      width,
		Height:     height,
		Ticks:      ticks,
		Overruns:   overruns,
		Thresholds: s.engine.Thresholds(),
	}

	if last := s.lastTickAt.Load(); last != 0 {
		at := time.Unix(0, last)
		status.LastTickAt = &at
	}

	return status
}
