package focus

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/keybridge/internal/uiloop"
)

// scriptedSignal returns readings in order, then repeats the last one.
type scriptedSignal struct {
	mu       sync.Mutex
	readings []bool
	errs     []error
	i        int
}

func (s *scriptedSignal) WantsTextInput() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := min(s.i, len(s.readings)-1)
	s.i++
	var err error
	if idx < len(s.errs) {
		err = s.errs[idx]
	}
	return s.readings[idx], err
}

// fakeKeyboard completes commands immediately unless hold is set.
type fakeKeyboard struct {
	mu       sync.Mutex
	commands []Command
	fail     error
	hold     bool
	pending  []func(error)
}

func (k *fakeKeyboard) Show(done func(error)) { k.run(CommandShow, done) }
func (k *fakeKeyboard) Hide(done func(error)) { k.run(CommandHide, done) }

func (k *fakeKeyboard) run(cmd Command, done func(error)) {
	k.mu.Lock()
	k.commands = append(k.commands, cmd)
	hold, fail := k.hold, k.fail
	if hold {
		k.pending = append(k.pending, done)
	}
	k.mu.Unlock()
	if !hold {
		done(fail)
	}
}

func (k *fakeKeyboard) releaseAll(err error) {
	k.mu.Lock()
	pending := k.pending
	k.pending = nil
	k.mu.Unlock()
	for _, done := range pending {
		done(err)
	}
}

func (k *fakeKeyboard) issued() []Command {
	k.mu.Lock()
	defer k.mu.Unlock()
	return append([]Command(nil), k.commands...)
}

func newTestSync(readings []bool, kb *fakeKeyboard, opts ...Option) *Synchronizer {
	return NewSynchronizer(&scriptedSignal{readings: readings}, kb, uiloop.Inline{}, opts...)
}

func TestTick_ShowThenHide(t *testing.T) {
	kb := &fakeKeyboard{}
	s := newTestSync([]bool{false, true, true, false}, kb)

	var perTick []int
	for _i := 0; _i < 4; _i++ {
		before := len(kb.issued())
		s.Tick()
		perTick = append(perTick, len(kb.issued())-before)
	}

	assert.Equal(t, []Command{CommandShow, CommandHide}, kb.issued())
	for _, n := range perTick {
		assert.LessOrEqual(t, n, 1, "at most one command per tick")
	}
	assert.Equal(t, StateHidden, s.State())
}

func TestTick_NeverDoubleIssues(t *testing.T) {
	kb := &fakeKeyboard{}
	s := newTestSync([]bool{true, true, true}, kb)

	for _i := 0; _i < 3; _i++ {
		s.Tick()
	}

	assert.Equal(t, []Command{CommandShow}, kb.issued())
	assert.Equal(t, StateVisible, s.State())
}

func TestTick_InFlightSuppressesCommands(t *testing.T) {
	kb := &fakeKeyboard{hold: true}
	s := newTestSync([]bool{true, false, true, false}, kb, WithCommandTimeout(0))

	s.Tick()
	assert.Equal(t, StateShowing, s.State())
	s.Tick()
	s.Tick()
	assert.Equal(t, []Command{CommandShow}, kb.issued())

	kb.releaseAll(nil)
	assert.Equal(t, StateVisible, s.State())

	s.Tick()
	assert.Equal(t, StateHiding, s.State())
	assert.Equal(t, []Command{CommandShow, CommandHide}, kb.issued())
}

func TestTick_CommandFailureRetriesNextTick(t *testing.T) {
	kb := &fakeKeyboard{fail: errors.New("no window token")}
	s := newTestSync([]bool{true}, kb)

	s.Tick()
	assert.Equal(t, StateHidden, s.State(), "failed show returns to pre-command state")

	kb.mu.Lock()
	kb.fail = nil
	kb.mu.Unlock()

	s.Tick()
	assert.Equal(t, StateVisible, s.State())
	assert.Equal(t, []Command{CommandShow, CommandShow}, kb.issued())
	assert.Equal(t, uint64(1), s.Stats().CommandErrors)
}

func TestTick_HideFailureStaysVisible(t *testing.T) {
	kb := &fakeKeyboard{}
	s := newTestSync([]bool{true, false}, kb)
	s.Tick()
	require.Equal(t, StateVisible, s.State())

	kb.fail = errors.New("busy")
	s.Tick()
	assert.Equal(t, StateVisible, s.State())
}

func TestTick_QueryFailureTreatedAsFalse(t *testing.T) {
	kb := &fakeKeyboard{}
	sig := &scriptedSignal{
		readings: []bool{true, true},
		errs:     []error{nil, errors.New("runtime not ready")},
	}
	s := NewSynchronizer(sig, kb, uiloop.Inline{})

	s.Tick()
	require.Equal(t, StateVisible, s.State())

	s.Tick()
	assert.Equal(t, StateHidden, s.State(), "failed read counts as false")
	assert.Equal(t, uint64(1), s.Stats().QueryFailures)
}

type panickingSignal struct{}

func (panickingSignal) WantsTextInput() (bool, error) { panic("context lost") }

func TestTick_QueryPanicNotFatal(t *testing.T) {
	kb := &fakeKeyboard{}
	s := NewSynchronizer(panickingSignal{}, kb, uiloop.Inline{})

	assert.NotPanics(t, s.Tick)
	assert.Equal(t, StateHidden, s.State())
	assert.Empty(t, kb.issued())
	assert.Equal(t, uint64(1), s.Stats().QueryFailures)
}

func TestTick_CommandTimeout(t *testing.T) {
	now := time.Unix(1000, 0)
	kb := &fakeKeyboard{hold: true}
	s := newTestSync([]bool{true}, kb,
		WithCommandTimeout(time.Second),
		WithClock(func() time.Time { return now }),
	)

	s.Tick()
	require.Equal(t, StateShowing, s.State())

	now = now.Add(500 * time.Millisecond)
	s.Tick()
	assert.Equal(t, StateShowing, s.State())

	now = now.Add(time.Second)
	s.Tick()
	assert.Equal(t, StateHidden, s.State())

	// The abandoned command's late completion is ignored.
	kb.releaseAll(nil)
	assert.Equal(t, StateHidden, s.State())
	assert.Equal(t, uint64(1), s.Stats().StaleCompletes)

	kb.mu.Lock()
	kb.hold = false
	kb.mu.Unlock()
	s.Tick()
	assert.Equal(t, StateVisible, s.State())
}

func TestStop_NoFurtherTicksOrCommands(t *testing.T) {
	kb := &fakeKeyboard{hold: true}
	var transitions []Transition
	s := newTestSync([]bool{true, false}, kb, WithTransitionHook(func(tr Transition) {
		transitions = append(transitions, tr)
	}))

	s.Tick()
	s.Stop()
	s.Tick()
	kb.releaseAll(nil)

	assert.Equal(t, []Command{CommandShow}, kb.issued(), "no final command on teardown")
	assert.Equal(t, StateShowing, s.State())
	require.Len(t, transitions, 1)
	assert.Equal(t, Transition{From: StateHidden, To: StateShowing, Reason: "text input wanted"}, transitions[0])
}

func TestStart_TicksOnLoop(t *testing.T) {
	loop := uiloop.NewLoop(16, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go loop.Run(ctx)
	defer loop.Close()

	kb := &fakeKeyboard{}
	s := NewSynchronizer(&scriptedSignal{readings: []bool{true}}, kb, loop,
		WithInitialDelay(5*time.Millisecond),
		WithPollInterval(5*time.Millisecond),
	)
	s.Start()
	defer s.Stop()

	assert.Eventually(t, func() bool { return s.State() == StateVisible }, time.Second, 5*time.Millisecond)
	assert.Eventually(t, func() bool { return s.Stats().Ticks >= 3 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []Command{CommandShow}, kb.issued())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "Hidden", StateHidden.String())
	assert.Equal(t, "Hiding", StateHiding.String())
	assert.True(t, StateShowing.InFlight())
	assert.False(t, StateVisible.InFlight())
	assert.Equal(t, "show", CommandShow.String())
}
