package logstream

import (
	"context"
	"errors"
	"sync"
)

// ErrLoopStopped is returned by Call after Run has returned.
var ErrLoopStopped = errors.New("event loop stopped")

// Loop runs posted tasks one at a time on the goroutine that calls Run. It
// is the owner goroutine for a Controller outside the TUI.
type Loop struct {
	tasks chan func()
	done  chan struct{}
	once  sync.Once
}

// NewLoop returns a loop buffering up to buffer posted tasks.
func NewLoop(buffer int) *Loop {
	if buffer < 0 {
		buffer = 0
	}
	return &Loop{
		tasks: make(chan func(), buffer),
		done:  make(chan struct{}),
	}
}

// Post queues fn, blocking while the buffer is full. It reports false once
// the loop has stopped.
func (l *Loop) Post(fn func()) bool {
	select {
	case <-l.done:
		return false
	default:
	}
	select {
	case <-l.done:
		return false
	case l.tasks <- fn:
		return true
	}
}

// Call runs fn on the loop and waits for it to finish.
func (l *Loop) Call(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	if !l.Post(func() { fn(); close(finished) }) {
		return ErrLoopStopped
	}
	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run executes tasks until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	defer l.once.Do(func() { close(l.done) })
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case fn := <-l.tasks:
			fn()
		}
	}
}
