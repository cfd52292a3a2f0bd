package focus

import (
	"errors"
	"fmt"
)

var (
	// ErrQueryFailed marks a failed read of the runtime's text-input signal.
	// The tick treats the signal as false.
	ErrQueryFailed = errors.New("text input query failed")

	// ErrCommandTimeout is reported when a host command never completed.
	ErrCommandTimeout = errors.New("keyboard command timed out")
)

// CommandError reports a failed show or hide command. The synchronizer
// returns to the pre-command state and retries on the next tick.
type CommandError struct {
	Command Command
	Err     error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("keyboard %s: %v", e.Command, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}
