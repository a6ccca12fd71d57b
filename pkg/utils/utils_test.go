package utils

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"
	"time"

	"FaceSignal/internal/entity"
	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	return img
}

func encodeJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, testImage(w, h), nil))
	return buf.Bytes()
}

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, testImage(w, h)))
	return buf.Bytes()
}

func TestNewULIDFromTimestamp(t *testing.T) {
	u := New()
	now := time.Now()

	id, err := u.NewULIDFromTimestamp(now)
	require.NoError(t, err)

	parsed, err := ulid.Parse(id)
	require.NoError(t, err)
	assert.Equal(t, ulid.Timestamp(now), parsed.Time())
}

func TestDecodeFrameHeader(t *testing.T) {
	u := New()

	w, h, format, err := u.DecodeFrameHeader(encodeJPEG(t, 32, 24))
	require.NoError(t, err)
	assert.Equal(t, 32, w)
	assert.Equal(t, 24, h)
	assert.Equal(t, entity.FrameFormatJPEG, format)

	w, h, format, err = u.DecodeFrameHeader(encodePNG(t, 8, 6))
	require.NoError(t, err)
	assert.Equal(t, 8, w)
	assert.Equal(t, 6, h)
	assert.Equal(t, entity.FrameFormatPNG, format)
}

func TestDecodeFrameHeader_Rejects(t *testing.T) {
	u := New()

	_, _, _, err := u.DecodeFrameHeader(nil)
	assert.ErrorIs(t, err, ErrEmptyFrame)

	_, _, _, err = u.DecodeFrameHeader([]byte("definitely not an image"))
	assert.ErrorIs(t, err, ErrUnsupportedImage)

	_, _, _, err = u.DecodeFrameHeader(make([]byte, 6*1024*1024))
	assert.ErrorIs(t, err, ErrFrameTooLarge)
}

func TestEncodeSnapshotPNG(t *testing.T) {
	u := New()

	cases := []struct {
		name  string
		frame *entity.Frame
	}{
		{"jpeg", &entity.Frame{Width: 16, Height: 12, Format: entity.FrameFormatJPEG, Data: encodeJPEG(t, 16, 12)}},
		{"png", &entity.Frame{Width: 16, Height: 12, Format: entity.FrameFormatPNG, Data: encodePNG(t, 16, 12)}},
		{"rgba", &entity.Frame{Width: 16, Height: 12, Format: entity.FrameFormatRGBA, Data: testImage(16, 12).Pix}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			data, err := u.EncodeSnapshotPNG(tc.frame)
			require.NoError(t, err)

			img, err := png.Decode(bytes.NewReader(data))
			require.NoError(t, err)
			assert.Equal(t, 16, img.Bounds().Dx())
			assert.Equal(t, 12, img.Bounds().Dy())
		})
	}
}

func TestEncodeSnapshotPNG_Errors(t *testing.T) {
	u := New()

	_, err := u.EncodeSnapshotPNG(nil)
	assert.ErrorIs(t, err, ErrEmptyFrame)

	_, err = u.EncodeSnapshotPNG(&entity.Frame{Width: 4, Height: 4, Format: entity.FrameFormatRGBA, Data: []byte{1, 2, 3}})
	assert.Error(t, err)

	_, err = u.EncodeSnapshotPNG(&entity.Frame{Width: 4, Height: 4, Format: entity.FrameFormatJPEG, Data: []byte("garbage")})
	assert.Error(t, err)
}

func TestToDataURL(t *testing.T) {
	u := New()

	url := u.ToDataURL("image/png", []byte{0x89, 0x50})
	assert.True(t, strings.HasPrefix(url, "data:image/png;base64,"))
	assert.Equal(t, "data:image/png;base64,iVA=", url)
}
