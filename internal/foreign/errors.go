package foreign

import (
	"errors"
	"fmt"
)

var (
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("foreign runtime is closed")

	// ErrModuleNotFound means no source or file provides the module.
	ErrModuleNotFound = errors.New("module not found")

	// ErrSymbolNotFound means the module has no such symbol.
	ErrSymbolNotFound = errors.New("symbol not found")

	// ErrNotCallable means the symbol cannot construct an object.
	ErrNotCallable = errors.New("symbol is not constructible")

	// ErrForeignHandle is returned when a handle from another runtime is
	// passed as an argument.
	ErrForeignHandle = errors.New("handle belongs to another runtime")
)

// InvalidNameError reports a qualified name without a module segment or
// with an empty segment.
type InvalidNameError struct {
	Name string
}

func (e *InvalidNameError) Error() string {
	return fmt.Sprintf("invalid qualified name %q: want module.symbol", e.Name)
}

// Stage identifies where instantiation failed.
type Stage string

// Instantiation stages.
const (
	StageModule  Stage = "module"
	StageSymbol  Stage = "symbol"
	StageConvert Stage = "convert"
	StageCall    Stage = "call"
)

// InstantiationError is the single error kind for every resolution or call
// failure. Message carries the runtime's diagnostic text.
type InstantiationError struct {
	Name    string
	Stage   Stage
	Message string
	Err     error
}

func (e *InstantiationError) Error() string {
	return fmt.Sprintf("instantiate %s: %s: %s", e.Name, e.Stage, e.Message)
}

func (e *InstantiationError) Unwrap() error {
	return e.Err
}
