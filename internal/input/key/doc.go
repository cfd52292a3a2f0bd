// Package key provides the host-facing and runtime-facing key event types.
//
// The package defines:
//
//   - Code: a host key code, numbered like the host platform's key table
//   - Modifier: the modifier bitset carried on every canonical event
//   - RawEvent: one key or text notification exactly as the host delivered it
//   - InputEvent: one record of the canonical, sequenced event stream
//
// # Host meta state
//
// Hosts report modifiers as a meta-state word. FromMetaState folds the
// left/right variants into the four canonical modifiers:
//
//	mods := key.FromMetaState(key.MetaShiftOn | key.MetaCtrlLeftOn)
//	mods.HasShift() // true
//	mods.HasCtrl()  // true
//
// # Canonical events
//
// InputEvent is transient: the normalizer builds one per accepted host
// notification, stamps it with the next stream sequence number, and hands
// it to the UI runtime. Nothing retains it afterwards.
package key
