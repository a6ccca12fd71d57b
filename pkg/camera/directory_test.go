package camera

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePNG(t *testing.T, fn string, w, h int) {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	require.NoError(t, os.WriteFile(fn, buf.Bytes(), 0o644))
}

func TestDirectoryPublishesSettledImages(t *testing.T) {
	dir := t.TempDir()

	src, err := NewSource("directory", "path", dir, "settle", "20ms")
	require.NoError(t, err)
	require.NoError(t, src.Start(context.Background()))
	defer src.Stop()

	writePNG(t, filepath.Join(dir, "FACE_SNAP_0001.png"), 32, 24)

	assert.Eventually(t, func() bool {
		w, h := src.Dimensions()
		return w == 32 && h == 24
	}, 2*time.Second, 10*time.Millisecond)

	frame, ok := src.Frame()
	require.True(t, ok)
	assert.Equal(t, "png", frame.Format)
}

func TestDirectoryIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()

	src, err := NewSource("directory", "path", dir, "settle", "10ms")
	require.NoError(t, err)
	require.NoError(t, src.Start(context.Background()))
	defer src.Stop()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hello"), 0o644))
	time.Sleep(100 * time.Millisecond)

	_, ok := src.Frame()
	assert.False(t, ok)
}

func TestDirectoryStartFailsOnMissingPath(t *testing.T) {
	src, err := NewSource("directory", "path", filepath.Join(t.TempDir(), "missing"))
	require.NoError(t, err)

	assert.Error(t, src.Start(context.Background()))
}

func TestDirectoryStopClearsFrame(t *testing.T) {
	dir := t.TempDir()

	src, err := NewSource("directory", "path", dir, "settle", "10ms")
	require.NoError(t, err)
	require.NoError(t, src.Start(context.Background()))

	writePNG(t, filepath.Join(dir, "frame.png"), 8, 8)
	require.Eventually(t, func() bool {
		_, ok := src.Frame()
		return ok
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, src.Stop())

	w, h := src.Dimensions()
	assert.Zero(t, w)
	assert.Zero(t, h)
}
