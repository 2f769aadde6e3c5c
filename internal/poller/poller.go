// Package poller runs a task on a fixed interval for the lifetime of a
// session.
package poller

import (
	"context"
	"sync"
	"time"

	"github.com/naveenspark/haven/internal/boundary"
	"github.com/naveenspark/haven/internal/logger"
)

// DefaultInterval is how often unread counts are re-synced.
const DefaultInterval = 30 * time.Second

// Task is one poll. A returned error is logged; it never stops the poller.
type Task func(ctx context.Context) error

// Refresher owns at most one running timer.
type Refresher struct {
	name     string
	interval time.Duration
	task     Task
	logger   logger.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	trigger chan struct{}
}

// New creates a stopped Refresher.
func New(name string, interval time.Duration, task Task, log logger.Logger) *Refresher {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Refresher{
		name:     name,
		interval: interval,
		task:     task,
		logger:   log.With(logger.String("task", name)),
		trigger:  make(chan struct{}, 1),
	}
}

// Start runs the task once immediately and then on every tick until Stop
// or ctx is done. Any timer from an earlier Start is stopped first, so a
// re-login never leaves two pollers running.
func (r *Refresher) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	r.mu.Lock()
	prevCancel, prevDone := r.cancel, r.done
	r.cancel, r.done = cancel, done
	r.mu.Unlock()

	if prevCancel != nil {
		prevCancel()
		<-prevDone
	}

	go func() {
		defer close(done)
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()

		r.run(ctx)
		for {
			select {
			case <-ticker.C:
				r.run(ctx)
			case <-r.trigger:
				r.logger.Debug("manual poll triggered")
				r.run(ctx)
			case <-ctx.Done():
				return
			}
		}
	}()
	r.logger.Info("poller started", logger.Duration("interval", r.interval))
}

// Stop cancels the timer and waits for an in-progress poll to return.
// It is a no-op when not running. Stop must not be called from the task.
func (r *Refresher) Stop() {
	r.mu.Lock()
	cancel, done := r.cancel, r.done
	r.cancel, r.done = nil, nil
	r.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	r.logger.Info("poller stopped")
}

// Running reports whether a timer is active.
func (r *Refresher) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cancel != nil
}

// Trigger requests a poll ahead of the next tick. Requests made while one
// is already queued are merged.
func (r *Refresher) Trigger() {
	select {
	case r.trigger <- struct{}{}:
	default:
	}
}

func (r *Refresher) run(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	err := boundary.Run(r.name, r.logger, func() error { return r.task(ctx) })
	if err != nil && ctx.Err() == nil {
		r.logger.Warn("poll failed", logger.Error(err))
	}
}
