// Package uiruntime defines the contract between the bridge and the native
// immediate-mode UI runtime, and a recording runtime used by tests and the
// terminal demo.
package uiruntime

import (
	"github.com/dshills/keybridge/internal/geometry"
	"github.com/dshills/keybridge/internal/input"
)

// Runtime is everything the bridge pushes into or polls from the UI
// runtime. Implementations are called from the UI-affinity executor, but
// WantsTextInput may race with the runtime's own render loop and returns a
// snapshot.
type Runtime interface {
	input.Sink
	geometry.Sink

	// WantsTextInput reports whether a text field currently has focus.
	WantsTextInput() (bool, error)
}
