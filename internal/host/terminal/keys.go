package terminal

import (
	"unicode"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/keybridge/internal/input/key"
)

// specialKeys maps tcell's named keys to host codes.
var specialKeys = map[tcell.Key]key.Code{
	tcell.KeyEnter:      key.CodeEnter,
	tcell.KeyTab:        key.CodeTab,
	tcell.KeyBackspace:  key.CodeDel,
	tcell.KeyBackspace2: key.CodeDel,
	tcell.KeyDelete:     key.CodeForwardDel,
	tcell.KeyEscape:     key.CodeEscape,
	tcell.KeyUp:         key.CodeDpadUp,
	tcell.KeyDown:       key.CodeDpadDown,
	tcell.KeyLeft:       key.CodeDpadLeft,
	tcell.KeyRight:      key.CodeDpadRight,
	tcell.KeyHome:       key.CodeMoveHome,
	tcell.KeyEnd:        key.CodeMoveEnd,
	tcell.KeyPgUp:       key.CodePageUp,
	tcell.KeyPgDn:       key.CodePageDown,
	tcell.KeyInsert:     key.CodeInsert,
}

// modifiers converts tcell modifiers into a modifier set.
func modifiers(m tcell.ModMask) key.Modifier {
	var out key.Modifier
	if m&tcell.ModShift != 0 {
		out |= key.ModShift
	}
	if m&tcell.ModCtrl != 0 {
		out |= key.ModCtrl
	}
	if m&tcell.ModAlt != 0 {
		out |= key.ModAlt
	}
	if m&tcell.ModMeta != 0 {
		out |= key.ModMeta
	}
	return out
}

// translateKey turns one terminal keystroke into the press and release a
// physical keyboard would have produced. Terminals never report releases,
// so the release is synthesized. Characters with no host code yield only a
// press carrying the scalar. Keys with neither yield nothing.
func translateKey(ev *tcell.EventKey) []key.RawEvent {
	mods := modifiers(ev.Modifiers())
	var code key.Code
	var scalar rune

	switch k := ev.Key(); {
	case k == tcell.KeyRune:
		r := ev.Rune()
		code = key.CodeForRune(r)
		if unicode.IsUpper(r) {
			mods |= key.ModShift
		}
		if !mods.HasCtrl() && !mods.HasAlt() && !mods.HasMeta() {
			scalar = r
		}
		if code == key.CodeUnknown && scalar == 0 {
			return nil
		}
	case k >= tcell.KeyCtrlA && k <= tcell.KeyCtrlZ && k != tcell.KeyTab && k != tcell.KeyEnter && k != tcell.KeyBackspace:
		code = key.CodeA + key.Code(k-tcell.KeyCtrlA)
		mods |= key.ModCtrl
	case k >= tcell.KeyF1 && k <= tcell.KeyF12:
		code = key.CodeF1 + key.Code(k-tcell.KeyF1)
	default:
		c, known := specialKeys[k]
		if !known {
			return nil
		}
		code = c
	}

	meta := mods.MetaState()
	events := []key.RawEvent{{Action: key.ActionDown, Code: code, MetaState: meta, Unicode: scalar, Timestamp: ev.When()}}
	if code != key.CodeUnknown {
		events = append(events, key.RawEvent{Action: key.ActionUp, Code: code, MetaState: meta, Timestamp: ev.When()})
	}
	return events
}

// pasteRune returns the text a key contributes to a bracketed paste.
func pasteRune(ev *tcell.EventKey) (rune, bool) {
	switch ev.Key() {
	case tcell.KeyRune:
		return ev.Rune(), true
	case tcell.KeyEnter:
		return '\n', true
	case tcell.KeyTab:
		return '\t', true
	}
	return 0, false
}
