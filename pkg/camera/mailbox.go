package camera

import (
	"context"
	"sync"
	"time"

	"FaceSignal/internal/entity"
	"github.com/sirupsen/logrus"
)

type MailboxStats struct {
	Published uint64 `json:"published"`
	Dropped   uint64 `json:"dropped"`
	Rejected  uint64 `json:"rejected"`
}

// Mailbox is a single-slot, latest-frame-only source. Publishing overwrites
// the current frame; a frame replaced before anyone read it counts as dropped.
type Mailbox struct {
	log logrus.FieldLogger

	mu     sync.RWMutex
	frame  *entity.Frame
	read   bool
	active bool
	seq    uint64
	stats  MailboxStats
}

func NewMailbox(logger logrus.FieldLogger) *Mailbox {
	return &Mailbox{log: DefaultLogger(logger)}
}

func newMailboxSource(args ...interface{}) (Source, error) {
	var logger logrus.FieldLogger

	if err := Setopt(map[string]OptSetter{
		"logger": ToLogger(&logger),
	})(args...); err != nil {
		return nil, err
	}

	return NewMailbox(logger), nil
}

func (m *Mailbox) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active {
		return ErrSourceAlreadyStarted
	}
	m.active = true
	m.log.Debug("mailbox source started")

	return nil
}

func (m *Mailbox) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.active {
		return nil
	}
	m.active = false
	m.frame = nil
	m.log.Debug("mailbox source stopped")

	return nil
}

func (m *Mailbox) Publish(frame *entity.Frame) {
	if frame == nil {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.active {
		m.stats.Rejected++
		return
	}

	if m.frame != nil && !m.read {
		m.stats.Dropped++
	}

	m.seq++
	published := *frame
	published.Seq = m.seq
	if published.Timestamp.IsZero() {
		published.Timestamp = time.Now()
	}

	m.frame = &published
	m.read = false
	m.stats.Published++
}

func (m *Mailbox) Dimensions() (int, int) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.frame == nil {
		return 0, 0
	}
	return m.frame.Width, m.frame.Height
}

func (m *Mailbox) Frame() (*entity.Frame, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.frame == nil {
		return nil, false
	}
	m.read = true
	return m.frame, true
}

func (m *Mailbox) Stats() MailboxStats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.stats
}

func init() {
	RegisterSourceFactory("mailbox", newMailboxSource)
}
