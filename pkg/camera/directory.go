package camera

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"FaceSignal/internal/entity"
	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

type DirectoryOption struct {
	Path string
	// Settle is how long a file must stay unchanged before it is read,
	// since cameras write snapshots in several chunks.
	Settle time.Duration
}

func NewDirectoryOption() *DirectoryOption {
	return &DirectoryOption{
		Settle: 150 * time.Millisecond,
	}
}

// Directory publishes image files that a camera drops into a watched
// directory. Only the newest settled file is kept.
type Directory struct {
	opt     *DirectoryOption
	log     logrus.FieldLogger
	mailbox *Mailbox

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	pending map[string]*time.Timer
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func NewDirectory(opt *DirectoryOption, logger logrus.FieldLogger) *Directory {
	logger = DefaultLogger(logger)
	return &Directory{
		opt:     opt,
		log:     logger.WithField("source", "directory"),
		mailbox: NewMailbox(logger),
		pending: make(map[string]*time.Timer),
	}
}

func newDirectorySource(args ...interface{}) (Source, error) {
	var logger logrus.FieldLogger
	opt := NewDirectoryOption()

	if err := Setopt(map[string]OptSetter{
		"path":   ToString(&opt.Path),
		"settle": ToDuration(&opt.Settle),
		"logger": ToLogger(&logger),
	})(args...); err != nil {
		return nil, err
	}

	if opt.Path == "" {
		return nil, fmt.Errorf("directory source requires a path")
	}

	return NewDirectory(opt, logger), nil
}

func (d *Directory) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.watcher != nil {
		return ErrSourceAlreadyStarted
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(d.opt.Path); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", d.opt.Path, err)
	}

	if err := d.mailbox.Start(ctx); err != nil {
		watcher.Close()
		return err
	}

	loopCtx, cancel := context.WithCancel(ctx)
	d.watcher = watcher
	d.cancel = cancel

	d.wg.Add(1)
	go d.watchLoop(loopCtx, watcher)

	d.log.WithField("path", d.opt.Path).Info("watching directory for frames")
	return nil
}

func (d *Directory) Stop() error {
	d.mu.Lock()
	if d.watcher == nil {
		d.mu.Unlock()
		return nil
	}

	d.cancel()
	err := d.watcher.Close()
	d.watcher = nil
	for fn, timer := range d.pending {
		timer.Stop()
		delete(d.pending, fn)
	}
	d.mu.Unlock()

	d.wg.Wait()
	d.mailbox.Stop()

	d.log.Debug("directory source stopped")
	return err
}

func (d *Directory) Dimensions() (int, int) {
	return d.mailbox.Dimensions()
}

func (d *Directory) Frame() (*entity.Frame, bool) {
	return d.mailbox.Frame()
}

func (d *Directory) Stats() MailboxStats {
	return d.mailbox.Stats()
}

func (d *Directory) watchLoop(ctx context.Context, watcher *fsnotify.Watcher) {
	defer d.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Has(fsnotify.Create) || event.Has(fsnotify.Write) {
				d.touch(ctx, event.Name)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			d.log.WithError(err).Warn("receive fswatcher error")
		}
	}
}

// touch restarts the settle timer of fn; the file is read once it has not
// been written to for opt.Settle.
func (d *Directory) touch(ctx context.Context, fn string) {
	if !isImageFile(fn) {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if timer, ok := d.pending[fn]; ok {
		timer.Reset(d.opt.Settle)
		return
	}

	d.pending[fn] = time.AfterFunc(d.opt.Settle, func() {
		d.mu.Lock()
		delete(d.pending, fn)
		d.mu.Unlock()

		if ctx.Err() != nil {
			return
		}
		d.load(fn)
	})
}

func (d *Directory) load(fn string) {
	logger := d.log.WithField("file", fn)

	buf, err := os.ReadFile(fn)
	if err != nil {
		logger.WithError(err).Debug("failed to read file")
		return
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(buf))
	if err != nil {
		logger.WithError(err).Warn("failed to decode frame header")
		return
	}

	d.mailbox.Publish(&entity.Frame{
		Timestamp: time.Now(),
		Width:     cfg.Width,
		Height:    cfg.Height,
		Format:    format,
		Data:      buf,
	})
	logger.Debug("frame loaded")
}

func isImageFile(fn string) bool {
	switch strings.ToLower(filepath.Ext(fn)) {
	case ".jpg", ".jpeg", ".png":
		return true
	default:
		return false
	}
}

func init() {
	RegisterSourceFactory("directory", newDirectorySource)
}
