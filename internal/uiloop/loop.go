// Package uiloop provides the UI-affinity executor and the cancellable
// periodic timer used by the bridge.
//
// Every host callback and every poll tick runs as a task on one Loop, so
// components driven from it need no locking and observe events strictly in
// arrival order.
package uiloop

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

var (
	// ErrClosed is returned when submitting to a closed loop.
	ErrClosed = errors.New("ui loop is closed")

	// ErrQueueFull is returned by Submit when the queue has no room.
	ErrQueueFull = errors.New("ui loop queue full")
)

// Executor accepts tasks for the UI-affinity context.
type Executor interface {
	// Submit queues task without waiting for it to run.
	Submit(task func()) error
}

// PanicHandler is called with the recovered value when a task panics.
type PanicHandler func(recovered any)

type job struct {
	fn   func()
	done chan error
}

// Loop is a single-consumer task queue. Run must be called on the goroutine
// that owns the UI context; Submit and Do may be called from anywhere.
type Loop struct {
	queue   chan *job
	done    chan struct{}
	closed  atomic.Bool
	onPanic PanicHandler

	closeOnce sync.Once
}

// NewLoop creates a loop with the given queue capacity.
func NewLoop(queueSize int, onPanic PanicHandler) *Loop {
	if queueSize <= 0 {
		queueSize = 256
	}
	return &Loop{
		queue:   make(chan *job, queueSize),
		done:    make(chan struct{}),
		onPanic: onPanic,
	}
}

// Run processes tasks until ctx is cancelled or Close is called. Either way
// the loop ends up closed; tasks still queued are discarded and their
// waiters receive an error.
func (l *Loop) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			l.Close()
			l.drain(ctx.Err())
			return
		case <-l.done:
			l.drain(ErrClosed)
			return
		case j := <-l.queue:
			l.finish(j, l.runJob(j))
		}
	}
}

// runJob runs a single task with panic recovery.
func (l *Loop) runJob(j *job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("ui task panic: %v", r)
			if l.onPanic != nil {
				l.onPanic(r)
			}
		}
	}()
	j.fn()
	return nil
}

func (l *Loop) finish(j *job, err error) {
	if j.done == nil {
		return
	}
	j.done <- err
	close(j.done)
}

func (l *Loop) drain(err error) {
	for {
		select {
		case j := <-l.queue:
			l.finish(j, err)
		default:
			return
		}
	}
}

// Submit queues task without blocking.
func (l *Loop) Submit(task func()) error {
	if l.closed.Load() {
		return ErrClosed
	}
	select {
	case <-l.done:
		return ErrClosed
	case l.queue <- &job{fn: task}:
		return nil
	default:
		return ErrQueueFull
	}
}

// Do queues task and waits for it to run.
func (l *Loop) Do(ctx context.Context, task func()) error {
	if l.closed.Load() {
		return ErrClosed
	}

	j := &job{fn: task, done: make(chan error, 1)}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-l.done:
		return ErrClosed
	case l.queue <- j:
	}

	select {
	case <-ctx.Done():
		// Already queued; it still runs but we stop waiting.
		return ctx.Err()
	case <-l.done:
		return ErrClosed
	case err, ok := <-j.done:
		if !ok {
			return ErrClosed
		}
		return err
	}
}

// Close stops the loop. Queued tasks are not run.
func (l *Loop) Close() {
	l.closeOnce.Do(func() {
		l.closed.Store(true)
		close(l.done)
	})
}

// IsClosed reports whether Close was called.
func (l *Loop) IsClosed() bool {
	return l.closed.Load()
}

// Inline runs tasks synchronously on the caller's goroutine. Tests and
// hosts that already serialize their callbacks use it.
type Inline struct{}

// Submit runs task immediately.
func (Inline) Submit(task func()) error {
	task()
	return nil
}
