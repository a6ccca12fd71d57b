// Package camera provides the video frame sources the sampler polls.
//
// A Source exposes the frame currently on screen, the way a video element
// does: reading it does not consume it, and a newer frame simply replaces
// the old one. After Stop a source reports zero dimensions so late readers
// see an invalid frame instead of stale data.
package camera

import (
	"context"
	"errors"
	"sync"

	"FaceSignal/internal/entity"
)

var (
	ErrUnsupportedSourceDriver = errors.New("unsupported frame source driver")
	ErrSourceAlreadyStarted    = errors.New("frame source already started")
)

type Source interface {
	// Start begins frame production. Device or permission failures are
	// returned here and nowhere else.
	Start(ctx context.Context) error
	// Stop halts frame production. Safe to call more than once.
	Stop() error
	// Dimensions of the current frame, (0, 0) when there is none.
	Dimensions() (width, height int)
	// Frame returns the current frame without consuming it.
	Frame() (*entity.Frame, bool)
}

// Publisher is implemented by sources that accept frames pushed from outside,
// such as a browser streaming its camera over a websocket.
type Publisher interface {
	Publish(frame *entity.Frame)
}

type SourceFactory func(args ...interface{}) (Source, error)

var (
	sourceFactories     map[string]SourceFactory
	sourceFactoriesOnce sync.Once
)

// RegisterSourceFactory makes a driver available to NewSource. Drivers call
// it from init.
func RegisterSourceFactory(name string, fty SourceFactory) {
	sourceFactoriesOnce.Do(func() {
		sourceFactories = make(map[string]SourceFactory)
	})
	sourceFactories[name] = fty
}

// NewSource builds a source by driver name. args are key/value pairs,
// e.g. NewSource("directory", "path", "/srv/snapshots", "logger", log).
func NewSource(name string, args ...interface{}) (Source, error) {
	fty, ok := sourceFactories[name]
	if !ok {
		return nil, ErrUnsupportedSourceDriver
	}

	return fty(args...)
}
