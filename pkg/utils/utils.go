package utils

import (
	"bytes"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"time"

	"FaceSignal/internal/entity"
	"github.com/oklog/ulid/v2"
)

var (
	ErrEmptyFrame       = errors.New("frame has no image data")
	ErrFrameTooLarge    = errors.New("frame size exceeds limit")
	ErrUnsupportedImage = errors.New("frame is not a jpeg or png image")
)

type IUtils interface {
	NewULIDFromTimestamp(t time.Time) (string, error)
	DecodeFrameHeader(data []byte) (width, height int, format string, err error)
	EncodeSnapshotPNG(frame *entity.Frame) ([]byte, error)
	ToDataURL(mimeType string, data []byte) string
}

type utils struct {
	maxFrameSize int
}

func New() IUtils {
	return &utils{
		maxFrameSize: 5 * 1024 * 1024,
	}
}

func (u *utils) NewULIDFromTimestamp(t time.Time) (string, error) {
	ms := ulid.Timestamp(t)
	entropy := ulid.Monotonic(rand.Reader, 0)

	id, err := ulid.New(ms, entropy)
	if err != nil {
		return "", err
	}

	return id.String(), nil
}

// DecodeFrameHeader reads only the image header of a streamed frame.
func (u *utils) DecodeFrameHeader(data []byte) (int, int, string, error) {
	if len(data) == 0 {
		return 0, 0, "", ErrEmptyFrame
	}
	if len(data) > u.maxFrameSize {
		return 0, 0, "", ErrFrameTooLarge
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, "", fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}

	switch format {
	case entity.FrameFormatJPEG, entity.FrameFormatPNG:
	default:
		return 0, 0, "", ErrUnsupportedImage
	}

	return cfg.Width, cfg.Height, format, nil
}

func (u *utils) EncodeSnapshotPNG(frame *entity.Frame) ([]byte, error) {
	if frame == nil || len(frame.Data) == 0 {
		return nil, ErrEmptyFrame
	}

	var (
		img image.Image
		err error
	)

	switch frame.Format {
	case entity.FrameFormatPNG:
		// Already PNG, no re-encode.
		return frame.Data, nil
	case entity.FrameFormatRGBA:
		if len(frame.Data) != frame.Width*frame.Height*4 {
			return nil, fmt.Errorf("rgba frame has %d bytes, want %d", len(frame.Data), frame.Width*frame.Height*4)
		}
		img = &image.RGBA{
			Pix:    frame.Data,
			Stride: frame.Width * 4,
			Rect:   image.Rect(0, 0, frame.Width, frame.Height),
		}
	case entity.FrameFormatJPEG:
		img, err = jpeg.Decode(bytes.NewReader(frame.Data))
	default:
		img, _, err = image.Decode(bytes.NewReader(frame.Data))
	}
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func (u *utils) ToDataURL(mimeType string, data []byte) string {
	return fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(data))
}
