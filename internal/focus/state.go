package focus

import "fmt"

// State is the virtual keyboard state as tracked by the synchronizer.
type State int32

const (
	// StateHidden means the keyboard is hidden and no command is in flight.
	StateHidden State = iota
	// StateShowing means a show command is in flight.
	StateShowing
	// StateVisible means the keyboard is shown and no command is in flight.
	StateVisible
	// StateHiding means a hide command is in flight.
	StateHiding
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateHidden:
		return "Hidden"
	case StateShowing:
		return "Showing"
	case StateVisible:
		return "Visible"
	case StateHiding:
		return "Hiding"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// InFlight reports whether a command is outstanding in s.
func (s State) InFlight() bool {
	return s == StateShowing || s == StateHiding
}

// Command is a host keyboard command.
type Command uint8

const (
	// CommandShow asks the host to show the virtual keyboard.
	CommandShow Command = iota + 1
	// CommandHide asks the host to hide the virtual keyboard.
	CommandHide
)

// String returns the command name.
func (c Command) String() string {
	switch c {
	case CommandShow:
		return "show"
	case CommandHide:
		return "hide"
	default:
		return fmt.Sprintf("Command(%d)", uint8(c))
	}
}

// Transition records one state change.
type Transition struct {
	From, To State
	Reason   string
}
