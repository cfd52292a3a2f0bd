package input

import (
	"errors"
	"time"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/dshills/keybridge/internal/input/key"
	"github.com/dshills/keybridge/internal/logging"
)

// Sink is the UI runtime's event intake.
type Sink interface {
	// PushKeyEvent delivers a key press or release.
	PushKeyEvent(code key.Code, action key.Action, mods key.Modifier) error

	// PushTextInput delivers committed text.
	PushTextInput(text string) error
}

// Observer receives every canonical event after it was handed to the sink.
type Observer func(ev key.InputEvent)

// Normalizer converts raw host notifications into the canonical event
// stream. It is not safe for concurrent use: all Submit calls must come
// from the UI-affinity executor.
type Normalizer struct {
	sink      Sink
	logger    *logging.Logger
	metrics   *Metrics
	observers []Observer

	// seq is the sequence number of the last emitted event.
	seq uint64
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(n *Normalizer) {
		n.logger = l
	}
}

// WithMetrics sets the metrics tracker.
func WithMetrics(m *Metrics) Option {
	return func(n *Normalizer) {
		n.metrics = m
	}
}

// WithObserver registers an observer of the canonical stream.
func WithObserver(o Observer) Option {
	return func(n *Normalizer) {
		n.observers = append(n.observers, o)
	}
}

// NewNormalizer creates a normalizer delivering to sink.
func NewNormalizer(sink Sink, opts ...Option) *Normalizer {
	n := &Normalizer{sink: sink}
	for _, opt := range opts {
		opt(n)
	}
	if n.metrics == nil {
		n.metrics = NewMetrics()
	}
	n.logger = logging.OrDiscard(n.logger).WithComponent("input")
	return n
}

// Metrics returns the normalizer's counters.
func (n *Normalizer) Metrics() *Metrics {
	return n.metrics
}

// Sequence returns the sequence number of the last emitted event.
func (n *Normalizer) Sequence() uint64 {
	return n.seq
}

// Submit translates one raw host notification. It returns false when the
// host should apply its default handling (system media keys and keys the
// normalizer does not model); true means the event was consumed, including
// events dropped as malformed.
func (n *Normalizer) Submit(raw key.RawEvent) bool {
	start := time.Now()
	defer func() { n.metrics.RecordLatency(time.Since(start)) }()

	if raw.Code.IsSystemMedia() {
		n.metrics.RecordDeclined()
		return false
	}

	events, handled, err := n.translate(raw)
	if err != nil {
		n.drop(raw, err)
		return true
	}
	if !handled {
		n.metrics.RecordDeclined()
		return false
	}

	for _, ev := range events {
		n.emit(ev)
	}
	return true
}

// translate builds the canonical events for raw without sequence numbers.
func (n *Normalizer) translate(raw key.RawEvent) ([]key.InputEvent, bool, error) {
	mods := key.FromMetaState(raw.MetaState)

	switch raw.Action {
	case key.ActionDown:
		if raw.Code == key.CodeUnknown {
			if raw.Unicode == 0 {
				return nil, true, ErrNoKeyIdentity
			}
			if !utf8.ValidRune(raw.Unicode) {
				return nil, true, ErrInvalidScalar
			}
			if !displayable(raw.Unicode) {
				return nil, true, ErrNotDisplayable
			}
			// A scalar without a physical key is plain text.
			return []key.InputEvent{textCommit(key.CodeUnknown, mods, raw.Unicode)}, true, nil
		}
		events := []key.InputEvent{{Kind: key.KindKeyDown, KeyCode: raw.Code, Modifiers: mods}}
		if raw.Unicode != 0 {
			if !utf8.ValidRune(raw.Unicode) {
				return nil, true, ErrInvalidScalar
			}
			if displayable(raw.Unicode) {
				events = append(events, textCommit(raw.Code, mods, raw.Unicode))
			}
		}
		return events, true, nil

	case key.ActionUp:
		if raw.Code == key.CodeUnknown {
			return nil, true, ErrNoKeyIdentity
		}
		return []key.InputEvent{{Kind: key.KindKeyUp, KeyCode: raw.Code, Modifiers: mods}}, true, nil

	case key.ActionMultiple:
		if !raw.IsTextBatch() {
			// Repeated physical keys are left to the host.
			return nil, false, nil
		}
		return composedText(raw.Characters, mods)

	default:
		return nil, true, ErrUnknownAction
	}
}

// composedText splits an IME or predictive-input batch into one TextCommit
// per displayable scalar of its NFC form, in host order. Control characters
// are skipped.
func composedText(text string, mods key.Modifier) ([]key.InputEvent, bool, error) {
	if text == "" {
		return nil, true, ErrEmptyText
	}
	if !utf8.ValidString(text) {
		return nil, true, ErrInvalidUTF8
	}
	text = norm.NFC.String(text)

	events := make([]key.InputEvent, 0, utf8.RuneCountInString(text))
	for _, r := range text {
		if displayable(r) {
			events = append(events, textCommit(key.CodeUnknown, mods, r))
		}
	}
	if len(events) == 0 {
		return nil, true, ErrEmptyText
	}
	return events, true, nil
}

func textCommit(code key.Code, mods key.Modifier, r rune) key.InputEvent {
	return key.InputEvent{Kind: key.KindTextCommit, KeyCode: code, Modifiers: mods, Codepoint: r}
}

// displayable reports whether a key's scalar should be committed as text.
// Control characters (enter, tab, backspace) reach the runtime as keys only.
func displayable(r rune) bool {
	return !unicode.IsControl(r) && unicode.IsGraphic(r)
}

// emit stamps ev with the next sequence number and delivers it.
func (n *Normalizer) emit(ev key.InputEvent) {
	next := n.seq + 1
	if next <= n.seq {
		n.drop(key.RawEvent{Code: ev.KeyCode}, ErrOutOfSequence)
		return
	}
	n.seq = next
	ev.Sequence = next

	var err error
	switch ev.Kind {
	case key.KindKeyDown:
		err = n.push(func() error { return n.sink.PushKeyEvent(ev.KeyCode, key.ActionDown, ev.Modifiers) })
		n.metrics.RecordKeyEvent()
	case key.KindKeyUp:
		err = n.push(func() error { return n.sink.PushKeyEvent(ev.KeyCode, key.ActionUp, ev.Modifiers) })
		n.metrics.RecordKeyEvent()
	case key.KindTextCommit:
		err = n.push(func() error { return n.sink.PushTextInput(string(ev.Codepoint)) })
		n.metrics.RecordTextCommit()
	}
	if err != nil {
		n.metrics.RecordPushFailure()
		n.logger.Warn("runtime rejected %s: %v", ev, err)
	} else {
		n.logger.Debug("delivered %s", ev)
	}

	for _, o := range n.observers {
		o(ev)
	}
}

// push calls fn and converts a panic inside the runtime intake into an error.
func (n *Normalizer) push(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.New("runtime intake panicked")
			n.logger.Error("runtime intake panic: %v", r)
		}
	}()
	return fn()
}

func (n *Normalizer) drop(raw key.RawEvent, err error) {
	n.metrics.RecordDropped()
	terr := &TranslationError{Raw: raw, Err: err}
	n.logger.Warn("dropping event: %v", terr)
}
