package focus

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/dshills/keybridge/internal/logging"
	"github.com/dshills/keybridge/internal/uiloop"
)

// Default cadence.
const (
	DefaultPollInterval   = 500 * time.Millisecond
	DefaultInitialDelay   = 1000 * time.Millisecond
	DefaultCommandTimeout = 2 * time.Second
)

// Signal is the UI runtime's "wants text input" flag. Reads are snapshots
// that may be up to one poll interval stale.
type Signal interface {
	WantsTextInput() (bool, error)
}

// Keyboard is the host's virtual keyboard. Show and Hide are called on the
// UI-affinity executor; done must be called exactly once, from any
// goroutine, when the host finished (or failed) the command.
type Keyboard interface {
	Show(done func(error))
	Hide(done func(error))
}

// Stats counts synchronizer activity.
type Stats struct {
	Ticks          uint64
	Shows          uint64
	Hides          uint64
	CommandErrors  uint64
	QueryFailures  uint64
	StaleCompletes uint64
}

// Synchronizer reconciles the runtime's text-input intent with the host
// keyboard. It samples the signal on every tick and issues at most one
// command per tick, and never while a command is in flight.
type Synchronizer struct {
	signal   Signal
	keyboard Keyboard
	exec     uiloop.Executor
	logger   *logging.Logger
	now      func() time.Time

	interval       time.Duration
	initialDelay   time.Duration
	commandTimeout time.Duration
	onTransition   func(Transition)

	ticker *uiloop.Ticker

	// state, issuedAt and cmdID are owned by the UI-affinity executor.
	state    State
	issuedAt time.Time
	cmdID    uint64

	torndown  atomic.Bool
	published atomic.Int32
	stats     struct {
		ticks, shows, hides, cmdErrors, queryFailures, stale atomic.Uint64
	}
}

// Option configures a Synchronizer.
type Option func(*Synchronizer)

// WithPollInterval sets the tick interval.
func WithPollInterval(d time.Duration) Option {
	return func(s *Synchronizer) {
		s.interval = d
	}
}

// WithInitialDelay sets the delay before the first tick.
func WithInitialDelay(d time.Duration) Option {
	return func(s *Synchronizer) {
		s.initialDelay = d
	}
}

// WithCommandTimeout sets how long a command may stay in flight before the
// synchronizer gives up on it and retries.
func WithCommandTimeout(d time.Duration) Option {
	return func(s *Synchronizer) {
		s.commandTimeout = d
	}
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(s *Synchronizer) {
		s.logger = l
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Synchronizer) {
		s.now = now
	}
}

// WithTransitionHook observes every state change.
func WithTransitionHook(fn func(Transition)) Option {
	return func(s *Synchronizer) {
		s.onTransition = fn
	}
}

// NewSynchronizer creates a synchronizer in StateHidden. Ticks and command
// completions run on exec.
func NewSynchronizer(signal Signal, keyboard Keyboard, exec uiloop.Executor, opts ...Option) *Synchronizer {
	s := &Synchronizer{
		signal:         signal,
		keyboard:       keyboard,
		exec:           exec,
		now:            time.Now,
		interval:       DefaultPollInterval,
		initialDelay:   DefaultInitialDelay,
		commandTimeout: DefaultCommandTimeout,
		state:          StateHidden,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logging.OrDiscard(s.logger).WithComponent("focus")
	s.ticker = uiloop.NewTicker(exec, s.initialDelay, s.interval, s.Tick, func(err error) {
		s.logger.Warn("tick not scheduled: %v", err)
	})
	return s
}

// Start begins polling after the initial delay.
func (s *Synchronizer) Start() {
	s.logger.Debug("polling every %s after %s", s.interval, s.initialDelay)
	s.ticker.Start()
}

// Stop is teardown: no further ticks are scheduled and no final command is
// issued. A command already in flight may still complete on the host; its
// completion is ignored.
func (s *Synchronizer) Stop() {
	s.torndown.Store(true)
	s.ticker.Stop()
}

// State returns the current state. Safe from any goroutine.
func (s *Synchronizer) State() State {
	return State(s.published.Load())
}

// Stats returns a snapshot of the counters. Safe from any goroutine.
func (s *Synchronizer) Stats() Stats {
	return Stats{
		Ticks:          s.stats.ticks.Load(),
		Shows:          s.stats.shows.Load(),
		Hides:          s.stats.hides.Load(),
		CommandErrors:  s.stats.cmdErrors.Load(),
		QueryFailures:  s.stats.queryFailures.Load(),
		StaleCompletes: s.stats.stale.Load(),
	}
}

// Tick samples the signal once and advances the state machine. It must run
// on the UI-affinity executor; the ticker schedules it there.
func (s *Synchronizer) Tick() {
	if s.torndown.Load() {
		return
	}
	s.stats.ticks.Add(1)

	want := s.query()

	switch s.state {
	case StateHidden:
		if want {
			s.issue(CommandShow)
		}
	case StateVisible:
		if !want {
			s.issue(CommandHide)
		}
	case StateShowing, StateHiding:
		s.checkTimeout()
	}
}

// query reads the signal, treating any failure as false.
func (s *Synchronizer) query() (want bool) {
	defer func() {
		if r := recover(); r != nil {
			s.stats.queryFailures.Add(1)
			s.logger.Warn("%v: panic: %v", ErrQueryFailed, r)
			want = false
		}
	}()

	want, err := s.signal.WantsTextInput()
	if err != nil {
		s.stats.queryFailures.Add(1)
		s.logger.Warn("%v: %v", ErrQueryFailed, err)
		return false
	}
	return want
}

// issue moves to the in-flight state and hands the command to the host.
func (s *Synchronizer) issue(cmd Command) {
	s.cmdID++
	id := s.cmdID
	s.issuedAt = s.now()

	switch cmd {
	case CommandShow:
		s.stats.shows.Add(1)
		s.transition(StateShowing, "text input wanted")
	case CommandHide:
		s.stats.hides.Add(1)
		s.transition(StateHiding, "text input no longer wanted")
	}

	done := func(err error) {
		if subErr := s.exec.Submit(func() { s.complete(id, cmd, err) }); subErr != nil {
			s.logger.Warn("dropping %s completion: %v", cmd, subErr)
		}
	}

	func() {
		defer func() {
			if r := recover(); r != nil {
				s.complete(id, cmd, fmt.Errorf("host panic: %v", r))
			}
		}()
		switch cmd {
		case CommandShow:
			s.keyboard.Show(done)
		case CommandHide:
			s.keyboard.Hide(done)
		}
	}()
}

// complete applies a command result. Results for superseded commands and
// results arriving after teardown are ignored.
func (s *Synchronizer) complete(id uint64, cmd Command, err error) {
	if s.torndown.Load() || id != s.cmdID || !s.state.InFlight() {
		s.stats.stale.Add(1)
		return
	}

	if err != nil {
		s.stats.cmdErrors.Add(1)
		s.logger.Warn("%v; will retry", &CommandError{Command: cmd, Err: err})
		s.transition(preCommandState(cmd), "command failed")
		return
	}

	switch cmd {
	case CommandShow:
		s.transition(StateVisible, "show completed")
	case CommandHide:
		s.transition(StateHidden, "hide completed")
	}
}

// checkTimeout abandons a command the host never completed.
func (s *Synchronizer) checkTimeout() {
	if s.commandTimeout <= 0 || s.now().Sub(s.issuedAt) < s.commandTimeout {
		return
	}
	cmd := CommandShow
	if s.state == StateHiding {
		cmd = CommandHide
	}
	s.stats.cmdErrors.Add(1)
	s.logger.Warn("%v; will retry", &CommandError{Command: cmd, Err: ErrCommandTimeout})
	// Bump the id so a late completion is treated as stale.
	s.cmdID++
	s.transition(preCommandState(cmd), "command timed out")
}

func preCommandState(cmd Command) State {
	if cmd == CommandShow {
		return StateHidden
	}
	return StateVisible
}

func (s *Synchronizer) transition(to State, reason string) {
	from := s.state
	s.state = to
	s.published.Store(int32(to))
	s.logger.Debug("%s -> %s (%s)", from, to, reason)
	if s.onTransition != nil {
		s.onTransition(Transition{From: from, To: to, Reason: reason})
	}
}
