package faceService

import (
	"context"
	"fmt"

	"FaceSignal/internal/api/face"
	"FaceSignal/internal/entity"
	"FaceSignal/pkg/camera"
	"FaceSignal/pkg/log"
)

const snapshotMimeType = "image/png"

func (s *samplerService) CaptureSnapshot(ctx context.Context, upload bool) (*entity.Snapshot, error) {
	frame, ok := s.source.Frame()
	if !ok || !frame.HasValidDimensions() {
		s.log.Warn("cannot capture frame: video dimensions are invalid")
		return nil, face.ErrInvalidFrame
	}

	data, err := s.utils.EncodeSnapshotPNG(frame)
	if err != nil {
		s.log.WithError(err).WithField("format", frame.Format).Error("Failed to encode snapshot")
		return nil, face.ErrInternalServerError
	}

	snapshot := &entity.Snapshot{
		Width:    frame.Width,
		Height:   frame.Height,
		MimeType: snapshotMimeType,
		Data:     data,
		DataURL:  s.utils.ToDataURL(snapshotMimeType, data),
	}

	if !upload {
		return snapshot, nil
	}

	if s.snapshots == nil {
		return nil, face.ErrSnapshotStorage
	}

	key, err := s.snapshots.UploadSnapshot(ctx, fmt.Sprintf("snapshot-%d.png", frame.Seq), data, snapshotMimeType)
	if err != nil {
		s.log.WithError(err).Error("Failed to upload snapshot")
		return nil, face.ErrInternalServerError
	}

	location, err := s.snapshots.PresignUrl(key)
	if err != nil {
		s.log.WithError(err).WithField("key", key).Error("Failed to presign snapshot")
		return nil, face.ErrInternalServerError
	}
	snapshot.Location = location

	s.log.WithFields(log.Fields{
		"key":    key,
		"width":  snapshot.Width,
		"height": snapshot.Height,
	}).Info("Snapshot uploaded")

	return snapshot, nil
}

// IngestFrame hands a streamed JPEG/PNG frame to sources that accept pushed
// frames.
func (s *samplerService) IngestFrame(data []byte) error {
	publisher, ok := s.source.(camera.Publisher)
	if !ok {
		return face.ErrIngestUnsupported
	}
	if !s.active.Load() {
		return face.ErrCaptureInactive
	}

	width, height, format, err := s.utils.DecodeFrameHeader(data)
	if err != nil {
		s.log.WithError(err).Debug("Dropping undecodable frame")
		return fmt.Errorf("%w: %v", face.ErrUnsupportedFrame, err)
	}

	publisher.Publish(&entity.Frame{
		Width:  width,
		Height: height,
		Format: format,
		Data:   data,
	})

	return nil
}
