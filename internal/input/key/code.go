package key

import "fmt"

// Code is a host key code. Values mirror the host platform's key table so
// hosts can pass their native codes straight through.
type Code int32

// Host key codes.
const (
	CodeUnknown   Code = 0
	CodeHome      Code = 3
	CodeBack      Code = 4
	Code0         Code = 7
	Code9         Code = 16
	CodeDpadUp    Code = 19
	CodeDpadDown  Code = 20
	CodeDpadLeft  Code = 21
	CodeDpadRight Code = 22
	CodeVolumeUp  Code = 24
	CodeVolumeDn  Code = 25
	CodePower     Code = 26
	CodeA         Code = 29
	CodeZ         Code = 54
	CodeComma     Code = 55
	CodePeriod    Code = 56
	CodeAltLeft   Code = 57
	CodeAltRight  Code = 58
	CodeShiftL    Code = 59
	CodeShiftR    Code = 60
	CodeTab       Code = 61
	CodeSpace     Code = 62
	CodeEnter     Code = 66
	CodeDel       Code = 67
	CodeMinus     Code = 69
	CodeEquals    Code = 70

	CodeMediaPlayPause   Code = 85
	CodeMediaStop        Code = 86
	CodeMediaNext        Code = 87
	CodeMediaPrevious    Code = 88
	CodeMediaRewind      Code = 89
	CodeMediaFastForward Code = 90
	CodeMicMute          Code = 91

	CodePageUp     Code = 92
	CodePageDown   Code = 93
	CodeEscape     Code = 111
	CodeForwardDel Code = 112
	CodeCtrlLeft   Code = 113
	CodeCtrlRight  Code = 114
	CodeMetaLeft   Code = 117
	CodeMetaRight  Code = 118
	CodeMoveHome   Code = 122
	CodeMoveEnd    Code = 123
	CodeInsert     Code = 124

	CodeMediaPlay  Code = 126
	CodeMediaPause Code = 127

	CodeF1  Code = 131
	CodeF12 Code = 142

	CodeVolumeMute Code = 164
)

var codeNames = map[Code]string{
	CodeUnknown:          "Unknown",
	CodeHome:             "Home",
	CodeBack:             "Back",
	CodeDpadUp:           "Up",
	CodeDpadDown:         "Down",
	CodeDpadLeft:         "Left",
	CodeDpadRight:        "Right",
	CodeVolumeUp:         "VolumeUp",
	CodeVolumeDn:         "VolumeDown",
	CodePower:            "Power",
	CodeComma:            "Comma",
	CodePeriod:           "Period",
	CodeAltLeft:          "AltLeft",
	CodeAltRight:         "AltRight",
	CodeShiftL:           "ShiftLeft",
	CodeShiftR:           "ShiftRight",
	CodeTab:              "Tab",
	CodeSpace:            "Space",
	CodeEnter:            "Enter",
	CodeDel:              "Backspace",
	CodeMinus:            "Minus",
	CodeEquals:           "Equals",
	CodeMediaPlayPause:   "MediaPlayPause",
	CodeMediaStop:        "MediaStop",
	CodeMediaNext:        "MediaNext",
	CodeMediaPrevious:    "MediaPrevious",
	CodeMediaRewind:      "MediaRewind",
	CodeMediaFastForward: "MediaFastForward",
	CodeMicMute:          "MicMute",
	CodePageUp:           "PageUp",
	CodePageDown:         "PageDown",
	CodeEscape:           "Escape",
	CodeForwardDel:       "Delete",
	CodeCtrlLeft:         "CtrlLeft",
	CodeCtrlRight:        "CtrlRight",
	CodeMetaLeft:         "MetaLeft",
	CodeMetaRight:        "MetaRight",
	CodeMoveHome:         "MoveHome",
	CodeMoveEnd:          "End",
	CodeInsert:           "Insert",
	CodeMediaPlay:        "MediaPlay",
	CodeMediaPause:       "MediaPause",
	CodeVolumeMute:       "VolumeMute",
}

// Name returns a human-readable name for the code.
func (c Code) Name() string {
	switch {
	case c >= CodeA && c <= CodeZ:
		return string(rune('A' + (c - CodeA)))
	case c >= Code0 && c <= Code9:
		return string(rune('0' + (c - Code0)))
	case c >= CodeF1 && c <= CodeF12:
		return fmt.Sprintf("F%d", c-CodeF1+1)
	}
	if name, ok := codeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("Code(%d)", int32(c))
}

// String implements fmt.Stringer.
func (c Code) String() string {
	return c.Name()
}

// IsSystemMedia reports whether c is a volume or media transport key.
// Those keys belong to the host and are never normalized.
func (c Code) IsSystemMedia() bool {
	switch c {
	case CodeVolumeUp, CodeVolumeDn, CodeVolumeMute, CodeMicMute,
		CodeMediaPlayPause, CodeMediaStop, CodeMediaNext, CodeMediaPrevious,
		CodeMediaRewind, CodeMediaFastForward, CodeMediaPlay, CodeMediaPause:
		return true
	}
	return false
}

// IsModifier reports whether c is itself a modifier key.
func (c Code) IsModifier() bool {
	switch c {
	case CodeAltLeft, CodeAltRight, CodeShiftL, CodeShiftR,
		CodeCtrlLeft, CodeCtrlRight, CodeMetaLeft, CodeMetaRight:
		return true
	}
	return false
}

// CodeForRune returns the host code a plain keyboard would use to type r,
// or CodeUnknown. Hosts that only deliver characters (terminals) use this
// to give the runtime a key identity.
func CodeForRune(r rune) Code {
	switch {
	case r >= 'a' && r <= 'z':
		return CodeA + Code(r-'a')
	case r >= 'A' && r <= 'Z':
		return CodeA + Code(r-'A')
	case r >= '0' && r <= '9':
		return Code0 + Code(r-'0')
	}
	switch r {
	case ' ':
		return CodeSpace
	case ',':
		return CodeComma
	case '.':
		return CodePeriod
	case '-':
		return CodeMinus
	case '=':
		return CodeEquals
	case '\t':
		return CodeTab
	case '\r', '\n':
		return CodeEnter
	}
	return CodeUnknown
}
