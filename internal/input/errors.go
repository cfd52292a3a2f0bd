package input

import (
	"errors"
	"fmt"

	"github.com/dshills/keybridge/internal/input/key"
)

// Reasons a raw event cannot be translated.
var (
	ErrNoKeyIdentity = errors.New("key event has neither key code nor unicode scalar")
	ErrEmptyText     = errors.New("composed text batch is empty")
	ErrInvalidUTF8   = errors.New("composed text is not valid UTF-8")
	ErrUnknownAction = errors.New("unknown key action")
	ErrOutOfSequence = errors.New("event sequence would not increase")
	ErrInvalidScalar = errors.New("unicode scalar is not valid")

	ErrNotDisplayable = errors.New("unicode scalar without key code is not displayable")
)

// TranslationError reports a raw host event that could not be turned into
// canonical events. The event is dropped and the stream continues.
type TranslationError struct {
	Raw key.RawEvent
	Err error
}

func (e *TranslationError) Error() string {
	return fmt.Sprintf("translate %s: %v", e.Raw, e.Err)
}

func (e *TranslationError) Unwrap() error {
	return e.Err
}
