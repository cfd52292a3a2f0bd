package key

import (
	"fmt"
	"strings"
	"time"
	"unicode"
)

// Action is the host action carried on a raw key notification.
type Action uint8

const (
	// ActionDown is a key press.
	ActionDown Action = iota
	// ActionUp is a key release.
	ActionUp
	// ActionMultiple carries repeated keys or a batch of composed text.
	ActionMultiple
)

// String returns the action name.
func (a Action) String() string {
	switch a {
	case ActionDown:
		return "Down"
	case ActionUp:
		return "Up"
	case ActionMultiple:
		return "Multiple"
	default:
		return fmt.Sprintf("Action(%d)", uint8(a))
	}
}

// RawEvent is a key or text notification exactly as the host delivered it.
type RawEvent struct {
	// Action is the host action.
	Action Action

	// Code is the host key code. CodeUnknown for pure text batches.
	Code Code

	// MetaState is the host modifier word.
	MetaState uint32

	// Unicode is the displayable scalar the key produces, or 0.
	Unicode rune

	// Characters is the composed text for ActionMultiple with CodeUnknown.
	Characters string

	// Timestamp is when the host observed the event.
	Timestamp time.Time
}

// IsTextBatch reports whether the host delivered composed text rather
// than a physical keystroke.
func (r RawEvent) IsTextBatch() bool {
	return r.Action == ActionMultiple && r.Code == CodeUnknown
}

// String renders the raw event for logs.
func (r RawEvent) String() string {
	if r.IsTextBatch() {
		return fmt.Sprintf("text(%q)", r.Characters)
	}
	return fmt.Sprintf("%s %s meta=%#x unicode=%U", r.Code.Name(), r.Action, r.MetaState, r.Unicode)
}

// Kind classifies a canonical event.
type Kind uint8

const (
	// KindKeyDown is a key press.
	KindKeyDown Kind = iota + 1
	// KindKeyUp is a key release.
	KindKeyUp
	// KindTextCommit is one committed unicode scalar.
	KindTextCommit
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindKeyDown:
		return "KeyDown"
	case KindKeyUp:
		return "KeyUp"
	case KindTextCommit:
		return "TextCommit"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// InputEvent is one record of the canonical event stream.
type InputEvent struct {
	// Kind is the event kind.
	Kind Kind

	// KeyCode identifies the physical key. CodeUnknown for text that was
	// not produced by a single keystroke.
	KeyCode Code

	// Modifiers contains the active modifier keys.
	Modifiers Modifier

	// Codepoint is the committed scalar for KindTextCommit, otherwise 0.
	Codepoint rune

	// Sequence strictly increases along the stream.
	Sequence uint64
}

// HasKeyCode reports whether the event carries a physical key.
func (e InputEvent) HasKeyCode() bool {
	return e.KeyCode != CodeUnknown
}

// HasCodepoint reports whether the event carries a committed scalar.
func (e InputEvent) HasCodepoint() bool {
	return e.Kind == KindTextCommit && e.Codepoint != 0
}

// IsPrintable reports whether the committed scalar is printable.
func (e InputEvent) IsPrintable() bool {
	return e.HasCodepoint() && unicode.IsPrint(e.Codepoint)
}

// String returns a compact representation like "#3 KeyDown C-A" or "#4 TextCommit 'a'".
func (e InputEvent) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "#%d %s", e.Sequence, e.Kind)
	if e.Kind == KindTextCommit {
		fmt.Fprintf(&b, " %q", e.Codepoint)
		return b.String()
	}
	b.WriteByte(' ')
	if !e.Modifiers.IsEmpty() {
		b.WriteString(e.Modifiers.String())
		b.WriteByte('+')
	}
	b.WriteString(e.KeyCode.Name())
	return b.String()
}
