package uiruntime

import (
	"fmt"
	"sync"

	"github.com/dshills/keybridge/internal/geometry"
	"github.com/dshills/keybridge/internal/input/key"
)

// CallKind identifies a recorded push.
type CallKind uint8

const (
	// CallKey is a PushKeyEvent.
	CallKey CallKind = iota + 1
	// CallText is a PushTextInput.
	CallText
	// CallInsets is a PushInsets.
	CallInsets
	// CallDensity is a PushDensity.
	CallDensity
)

func (k CallKind) String() string {
	switch k {
	case CallKey:
		return "key"
	case CallText:
		return "text"
	case CallInsets:
		return "insets"
	case CallDensity:
		return "density"
	default:
		return fmt.Sprintf("CallKind(%d)", uint8(k))
	}
}

// Call is one recorded push. Only the fields for Kind are set.
type Call struct {
	Kind      CallKind
	Code      key.Code
	Action    key.Action
	Modifiers key.Modifier
	Text      string
	Insets    geometry.InsetRect
	Density   float64
}

func (c Call) String() string {
	switch c.Kind {
	case CallKey:
		return fmt.Sprintf("key %s %s %s", c.Code.Name(), c.Action, c.Modifiers)
	case CallText:
		return fmt.Sprintf("text %q", c.Text)
	case CallInsets:
		return "insets " + c.Insets.String()
	case CallDensity:
		return fmt.Sprintf("density %.2f", c.Density)
	}
	return c.Kind.String()
}

// Recorder is a Runtime that records every push. It is safe for concurrent
// use.
type Recorder struct {
	mu        sync.Mutex
	calls     []Call
	wantsText bool
	queryErr  error
	failures  map[CallKind]error
	onPush    func(Call)
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{failures: make(map[CallKind]error)}
}

// OnPush registers fn to observe every successful push. fn runs outside the
// recorder's lock.
func (r *Recorder) OnPush(fn func(Call)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onPush = fn
}

// SetWantsTextInput sets the value reported by WantsTextInput.
func (r *Recorder) SetWantsTextInput(want bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.wantsText = want
}

// ToggleWantsTextInput flips the text-input flag and returns the new value.
func (r *Recorder) ToggleWantsTextInput() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.wantsText = !r.wantsText
	return r.wantsText
}

// SetQueryError makes WantsTextInput fail with err until cleared with nil.
func (r *Recorder) SetQueryError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queryErr = err
}

// FailPushes makes pushes of kind fail with err; nil clears it.
func (r *Recorder) FailPushes(kind CallKind, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err == nil {
		delete(r.failures, kind)
		return
	}
	r.failures[kind] = err
}

// PushKeyEvent implements Runtime.
func (r *Recorder) PushKeyEvent(code key.Code, action key.Action, mods key.Modifier) error {
	return r.record(Call{Kind: CallKey, Code: code, Action: action, Modifiers: mods})
}

// PushTextInput implements Runtime.
func (r *Recorder) PushTextInput(text string) error {
	return r.record(Call{Kind: CallText, Text: text})
}

// PushInsets implements Runtime.
func (r *Recorder) PushInsets(rect geometry.InsetRect) error {
	return r.record(Call{Kind: CallInsets, Insets: rect})
}

// PushDensity implements Runtime.
func (r *Recorder) PushDensity(density float64) error {
	return r.record(Call{Kind: CallDensity, Density: density})
}

// WantsTextInput implements Runtime.
func (r *Recorder) WantsTextInput() (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.queryErr != nil {
		return false, r.queryErr
	}
	return r.wantsText, nil
}

func (r *Recorder) record(c Call) error {
	r.mu.Lock()
	if err := r.failures[c.Kind]; err != nil {
		r.mu.Unlock()
		return err
	}
	r.calls = append(r.calls, c)
	onPush := r.onPush
	r.mu.Unlock()

	if onPush != nil {
		onPush(c)
	}
	return nil
}

// Calls returns a copy of every recorded push in order.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}

// CallsOf returns the recorded pushes of one kind.
func (r *Recorder) CallsOf(kind CallKind) []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Call
	for _, c := range r.calls {
		if c.Kind == kind {
			out = append(out, c)
		}
	}
	return out
}

// Text concatenates every pushed text input.
func (r *Recorder) Text() string {
	var s string
	for _, c := range r.CallsOf(CallText) {
		s += c.Text
	}
	return s
}

// LastInsets returns the most recent insets push.
func (r *Recorder) LastInsets() (geometry.InsetRect, bool) {
	calls := r.CallsOf(CallInsets)
	if len(calls) == 0 {
		return geometry.InsetRect{}, false
	}
	return calls[len(calls)-1].Insets, true
}

// LastDensity returns the most recent density push.
func (r *Recorder) LastDensity() (float64, bool) {
	calls := r.CallsOf(CallDensity)
	if len(calls) == 0 {
		return 0, false
	}
	return calls[len(calls)-1].Density, true
}

// Reset forgets recorded calls. Flags and failures are kept.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = nil
}

var _ Runtime = (*Recorder)(nil)
