// Package dispatch provides the single execution context that owns all list
// and entry state. Work from other goroutines is posted onto it.
package dispatch

import (
	"context"
	"log/slog"
	"sync"
)

// Loop runs posted functions one at a time on the goroutine that calls Run.
type Loop struct {
	queue    chan func()
	done     chan struct{}
	stopOnce sync.Once
	logger   *slog.Logger
}

func NewLoop(buffer int, logger *slog.Logger) *Loop {
	return &Loop{
		queue:  make(chan func(), buffer),
		done:   make(chan struct{}),
		logger: logger.With("component", "dispatch"),
	}
}

// Post queues fn for execution on the loop. It reports false, without
// running fn, once the loop has stopped.
func (l *Loop) Post(fn func()) bool {
	select {
	case <-l.done:
		return false
	default:
	}

	select {
	case l.queue <- fn:
		return true
	case <-l.done:
		return false
	}
}

// Do runs fn on the loop and waits for it to finish.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	if !l.Post(func() {
		defer close(finished)
		fn()
	}) {
		return context.Canceled
	}

	select {
	case <-finished:
		return nil
	case <-l.done:
		return context.Canceled
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run executes posted functions until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	l.logger.Info("dispatch loop started")

	for {
		select {
		case <-ctx.Done():
			l.stop()
			l.logger.Info("dispatch loop stopped")
			return ctx.Err()
		case fn := <-l.queue:
			l.run(fn)
		}
	}
}

// Done is closed once the loop has stopped.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

func (l *Loop) stop() {
	l.stopOnce.Do(func() { close(l.done) })
}

func (l *Loop) run(fn func()) {
	defer func() {
		if p := recover(); p != nil {
			l.logger.Error("posted function panicked", "panic", p)
		}
	}()
	fn()
}
