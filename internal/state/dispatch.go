package state

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Dispatcher runs state mutations on its designated context
type Dispatcher interface {
	Dispatch(fn func())
}

// Inline runs every func immediately on the caller's goroutine
type Inline struct{}

func (Inline) Dispatch(fn func()) { fn() }

// Loop is a single goroutine that runs dispatched funcs in FIFO order.
// Once Run has stopped, Dispatch falls back to running funcs inline.
type Loop struct {
	queue  chan func()
	logger *slog.Logger

	// mu is held shared by Dispatch and exclusively by stop, so no send
	// can land in the queue after the final drain has begun.
	mu       sync.RWMutex
	closed   bool
	stopOnce sync.Once
	stopped  chan struct{}
}

// NewLoop creates a loop with room for buffer queued funcs
func NewLoop(buffer int, logger *slog.Logger) *Loop {
	if logger == nil {
		logger = slog.Default()
	}
	if buffer < 1 {
		buffer = 1
	}
	return &Loop{
		queue:   make(chan func(), buffer),
		logger:  logger,
		stopped: make(chan struct{}),
	}
}

// Dispatch queues fn. It blocks while the queue is full.
func (l *Loop) Dispatch(fn func()) {
	l.mu.RLock()
	if l.closed {
		l.mu.RUnlock()
		fn()
		return
	}
	select {
	case l.queue <- fn:
		l.mu.RUnlock()
		return
	case <-l.stopped:
	}
	l.mu.RUnlock()
	fn()
}

// Run executes queued funcs until ctx is cancelled, then drains what is
// already queued.
func (l *Loop) Run(ctx context.Context) error {
	for {
		select {
		case fn := <-l.queue:
			l.run(fn)
		case <-ctx.Done():
			l.stop()
			for {
				select {
				case fn := <-l.queue:
					l.run(fn)
				default:
					return ctx.Err()
				}
			}
		}
	}
}

// stop releases senders blocked on a full queue, then waits for in-flight
// sends to finish before marking the loop closed.
func (l *Loop) stop() {
	l.stopOnce.Do(func() { close(l.stopped) })
	l.mu.Lock()
	l.closed = true
	l.mu.Unlock()
}

// Serve implements suture.Service
func (l *Loop) Serve(ctx context.Context) error {
	return l.Run(ctx)
}

func (l *Loop) String() string {
	return "state-loop"
}

func (l *Loop) run(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("state mutation panicked", "panic", fmt.Sprint(r))
		}
	}()
	fn()
}

// DispatchWait dispatches fn on d and blocks until it has run or ctx is done
func DispatchWait(ctx context.Context, d Dispatcher, fn func()) error {
	done := make(chan struct{})
	d.Dispatch(func() {
		defer close(done)
		fn()
	})
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		select {
		case <-done:
			return nil
		default:
			return ctx.Err()
		}
	}
}
