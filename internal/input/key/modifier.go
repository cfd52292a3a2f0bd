package key

import "strings"

// Modifier represents keyboard modifier keys.
type Modifier uint8

const (
	// ModNone indicates no modifiers.
	ModNone Modifier = 0

	// ModShift indicates the Shift key.
	ModShift Modifier = 1 << (iota - 1)

	// ModCtrl indicates the Control key.
	ModCtrl

	// ModAlt indicates the Alt key.
	ModAlt

	// ModMeta indicates the Meta key.
	ModMeta
)

// Host meta-state bits. Values follow the host platform's key event
// meta-state word.
const (
	MetaShiftOn      uint32 = 0x01
	MetaAltOn        uint32 = 0x02
	MetaAltLeftOn    uint32 = 0x10
	MetaAltRightOn   uint32 = 0x20
	MetaShiftLeftOn  uint32 = 0x40
	MetaShiftRightOn uint32 = 0x80
	MetaCtrlOn       uint32 = 0x1000
	MetaCtrlLeftOn   uint32 = 0x2000
	MetaCtrlRightOn  uint32 = 0x4000
	MetaMetaOn       uint32 = 0x10000
	MetaMetaLeftOn   uint32 = 0x20000
	MetaMetaRightOn  uint32 = 0x40000
)

// FromMetaState converts a host meta-state word into a Modifier.
// Unknown bits (caps lock, num lock, function, sym) are ignored.
func FromMetaState(meta uint32) Modifier {
	var m Modifier
	if meta&(MetaShiftOn|MetaShiftLeftOn|MetaShiftRightOn) != 0 {
		m |= ModShift
	}
	if meta&(MetaCtrlOn|MetaCtrlLeftOn|MetaCtrlRightOn) != 0 {
		m |= ModCtrl
	}
	if meta&(MetaAltOn|MetaAltLeftOn|MetaAltRightOn) != 0 {
		m |= ModAlt
	}
	if meta&(MetaMetaOn|MetaMetaLeftOn|MetaMetaRightOn) != 0 {
		m |= ModMeta
	}
	return m
}

// MetaState converts m back into the generic host meta-state bits.
func (m Modifier) MetaState() uint32 {
	var meta uint32
	if m.HasShift() {
		meta |= MetaShiftOn
	}
	if m.HasCtrl() {
		meta |= MetaCtrlOn
	}
	if m.HasAlt() {
		meta |= MetaAltOn
	}
	if m.HasMeta() {
		meta |= MetaMetaOn
	}
	return meta
}

// Has returns true if m contains the specified modifier.
func (m Modifier) Has(mod Modifier) bool {
	return m&mod != 0
}

// HasShift returns true if Shift is pressed.
func (m Modifier) HasShift() bool { return m.Has(ModShift) }

// HasCtrl returns true if Control is pressed.
func (m Modifier) HasCtrl() bool { return m.Has(ModCtrl) }

// HasAlt returns true if Alt is pressed.
func (m Modifier) HasAlt() bool { return m.Has(ModAlt) }

// HasMeta returns true if Meta is pressed.
func (m Modifier) HasMeta() bool { return m.Has(ModMeta) }

// With returns a new Modifier with the specified modifier added.
func (m Modifier) With(mod Modifier) Modifier {
	return m | mod
}

// Without returns a new Modifier with the specified modifier removed.
func (m Modifier) Without(mod Modifier) Modifier {
	return m &^ mod
}

// IsEmpty returns true if no modifiers are set.
func (m Modifier) IsEmpty() bool {
	return m == ModNone
}

// String returns a human-readable representation like "Ctrl+Alt".
func (m Modifier) String() string {
	if m == ModNone {
		return ""
	}

	var parts []string
	if m.HasCtrl() {
		parts = append(parts, "Ctrl")
	}
	if m.HasAlt() {
		parts = append(parts, "Alt")
	}
	if m.HasShift() {
		parts = append(parts, "Shift")
	}
	if m.HasMeta() {
		parts = append(parts, "Meta")
	}
	return strings.Join(parts, "+")
}
