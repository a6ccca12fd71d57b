// Package scheduler runs a function at a fixed period on a single goroutine.
//
// Ticks are serialized: a tick never starts while the previous one is still
// running. A tick that overruns the period absorbs the ticks it missed, and
// at most one catch-up tick follows it.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

var ErrInvalidPeriod = errors.New("scheduler period must be positive")

type Task struct {
	period time.Duration
	cancel context.CancelFunc
	done   chan struct{}

	ticks    atomic.Uint64
	overruns atomic.Uint64

	stopOnce sync.Once
}

// Every starts calling fn every period until ctx is done or Stop is called.
// The context passed to fn is cancelled when the task stops.
func Every(ctx context.Context, period time.Duration, fn func(ctx context.Context)) (*Task, error) {
	if period <= 0 {
		return nil, ErrInvalidPeriod
	}

	ctx, cancel := context.WithCancel(ctx)
	t := &Task{
		period: period,
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go t.run(ctx, fn)

	return t, nil
}

func (t *Task) run(ctx context.Context, fn func(ctx context.Context)) {
	defer close(t.done)

	ticker := time.NewTicker(t.period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// select picks randomly when both are ready
			if ctx.Err() != nil {
				return
			}

			start := time.Now()
			fn(ctx)
			t.ticks.Add(1)

			if time.Since(start) > t.period {
				t.overruns.Add(1)
			}
		}
	}
}

// Stop cancels the task and waits for an in-flight tick to return.
func (t *Task) Stop() {
	t.stopOnce.Do(t.cancel)
	<-t.done
}

func (t *Task) Done() <-chan struct{} {
	return t.done
}

func (t *Task) Ticks() uint64 {
	return t.ticks.Load()
}

// Overruns counts ticks that took longer than the period.
func (t *Task) Overruns() uint64 {
	return t.overruns.Load()
}
