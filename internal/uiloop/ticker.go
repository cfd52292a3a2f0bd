package uiloop

import (
	"sync"
	"sync/atomic"
	"time"
)

// Ticker fires a task on an Executor after an initial delay and then at a
// fixed interval. A tick is skipped while the previous one is still queued,
// so a slow UI context never accumulates a backlog of ticks.
type Ticker struct {
	firstDelay time.Duration
	interval   time.Duration
	exec       Executor
	task       func()
	onError    func(error)

	pending atomic.Bool
	fired   atomic.Uint64
	skipped atomic.Uint64

	mu      sync.Mutex
	stop    chan struct{}
	stopped chan struct{}
}

// NewTicker creates a stopped ticker. onError, if non-nil, receives
// submission failures.
func NewTicker(exec Executor, firstDelay, interval time.Duration, task func(), onError func(error)) *Ticker {
	return &Ticker{
		firstDelay: firstDelay,
		interval:   interval,
		exec:       exec,
		task:       task,
		onError:    onError,
	}
}

// Start begins scheduling. Calling Start on a running ticker is a no-op.
func (t *Ticker) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.stop != nil {
		return
	}
	t.stop = make(chan struct{})
	t.stopped = make(chan struct{})
	go t.run(t.stop, t.stopped)
}

// Stop cancels scheduling and waits for the timer goroutine to exit. A tick
// already handed to the executor may still run. Stop is idempotent.
func (t *Ticker) Stop() {
	t.mu.Lock()
	stop, stopped := t.stop, t.stopped
	t.stop, t.stopped = nil, nil
	t.mu.Unlock()

	if stop == nil {
		return
	}
	close(stop)
	<-stopped
}

// Running reports whether the ticker is scheduling ticks.
func (t *Ticker) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stop != nil
}

// Fired returns how many ticks were handed to the executor.
func (t *Ticker) Fired() uint64 { return t.fired.Load() }

// Skipped returns how many ticks were dropped because the previous one had
// not run yet.
func (t *Ticker) Skipped() uint64 { return t.skipped.Load() }

func (t *Ticker) run(stop <-chan struct{}, stopped chan<- struct{}) {
	defer close(stopped)

	timer := time.NewTimer(t.firstDelay)
	defer timer.Stop()

	select {
	case <-stop:
		return
	case <-timer.C:
		t.fire()
	}

	if t.interval <= 0 {
		return
	}
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			t.fire()
		}
	}
}

func (t *Ticker) fire() {
	if !t.pending.CompareAndSwap(false, true) {
		t.skipped.Add(1)
		return
	}
	err := t.exec.Submit(func() {
		t.pending.Store(false)
		t.task()
	})
	if err != nil {
		t.pending.Store(false)
		if t.onError != nil {
			t.onError(err)
		}
		return
	}
	t.fired.Add(1)
}
