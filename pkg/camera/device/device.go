// Package device registers the "device" frame source, a local camera read
// through OpenCV. Import it for its side effect.
package device

import (
	"context"
	"fmt"
	"sync"
	"time"

	"FaceSignal/internal/entity"
	"FaceSignal/pkg/camera"
	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
)

type DeviceOption struct {
	DeviceID int
	// ReadBackoff is the pause after a failed read before trying again.
	ReadBackoff time.Duration
}

func NewDeviceOption() *DeviceOption {
	return &DeviceOption{
		ReadBackoff: 100 * time.Millisecond,
	}
}

// Device captures frames from a local camera through OpenCV and keeps the
// latest one JPEG-encoded.
type Device struct {
	opt     *DeviceOption
	log     logrus.FieldLogger
	mailbox *camera.Mailbox

	mu      sync.Mutex
	capture *gocv.VideoCapture
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func NewDevice(opt *DeviceOption, logger logrus.FieldLogger) *Device {
	logger = camera.DefaultLogger(logger)
	return &Device{
		opt:     opt,
		log:     logger.WithField("source", "device"),
		mailbox: camera.NewMailbox(logger),
	}
}

func newDeviceSource(args ...interface{}) (camera.Source, error) {
	var logger logrus.FieldLogger
	opt := NewDeviceOption()

	if err := camera.Setopt(map[string]camera.OptSetter{
		"device_id":    camera.ToInt(&opt.DeviceID),
		"read_backoff": camera.ToDuration(&opt.ReadBackoff),
		"logger":       camera.ToLogger(&logger),
	})(args...); err != nil {
		return nil, err
	}

	return NewDevice(opt, logger), nil
}

func (d *Device) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.capture != nil {
		return camera.ErrSourceAlreadyStarted
	}

	capture, err := gocv.OpenVideoCapture(d.opt.DeviceID)
	if err != nil {
		return fmt.Errorf("failed to open video device %d: %w", d.opt.DeviceID, err)
	}
	if !capture.IsOpened() {
		capture.Close()
		return fmt.Errorf("video device %d is not available", d.opt.DeviceID)
	}

	if err := d.mailbox.Start(ctx); err != nil {
		capture.Close()
		return err
	}

	loopCtx, cancel := context.WithCancel(ctx)
	d.capture = capture
	d.cancel = cancel

	d.wg.Add(1)
	go d.readLoop(loopCtx, capture)

	d.log.WithField("device_id", d.opt.DeviceID).Info("video device opened")
	return nil
}

func (d *Device) Stop() error {
	d.mu.Lock()
	if d.capture == nil {
		d.mu.Unlock()
		return nil
	}
	d.cancel()
	capture := d.capture
	d.capture = nil
	d.mu.Unlock()

	d.wg.Wait()
	d.mailbox.Stop()

	d.log.Debug("video device closed")
	return capture.Close()
}

func (d *Device) Dimensions() (int, int) {
	return d.mailbox.Dimensions()
}

func (d *Device) Frame() (*entity.Frame, bool) {
	return d.mailbox.Frame()
}

func (d *Device) readLoop(ctx context.Context, capture *gocv.VideoCapture) {
	defer d.wg.Done()

	mat := gocv.NewMat()
	defer mat.Close()

	for ctx.Err() == nil {
		if ok := capture.Read(&mat); !ok || mat.Empty() {
			d.log.Debug("empty read from video device")
			select {
			case <-ctx.Done():
				return
			case <-time.After(d.opt.ReadBackoff):
			}
			continue
		}

		buf, err := gocv.IMEncode(gocv.JPEGFileExt, mat)
		if err != nil {
			d.log.WithError(err).Warn("failed to encode frame")
			continue
		}
		data := make([]byte, len(buf.GetBytes()))
		copy(data, buf.GetBytes())
		buf.Close()

		d.mailbox.Publish(&entity.Frame{
			Timestamp: time.Now(),
			Width:     mat.Cols(),
			Height:    mat.Rows(),
			Format:    entity.FrameFormatJPEG,
			Data:      data,
		})
	}
}

func init() {
	camera.RegisterSourceFactory("device", newDeviceSource)
}
