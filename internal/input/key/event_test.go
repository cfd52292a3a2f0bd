package key

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeName(t *testing.T) {
	tests := []struct {
		code Code
		want string
	}{
		{CodeA, "A"},
		{CodeZ, "Z"},
		{Code0, "0"},
		{Code9, "9"},
		{CodeF1, "F1"},
		{CodeF12, "F12"},
		{CodeEnter, "Enter"},
		{CodeDel, "Backspace"},
		{CodeVolumeMute, "VolumeMute"},
		{Code(999), "Code(999)"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.code.Name())
	}
}

func TestCodeIsSystemMedia(t *testing.T) {
	for _, c := range []Code{CodeVolumeUp, CodeVolumeDn, CodeVolumeMute, CodeMediaPlayPause, CodeMediaNext} {
		assert.True(t, c.IsSystemMedia(), c.Name())
	}
	for _, c := range []Code{CodeA, CodeBack, CodeEnter, CodeUnknown, CodePower} {
		assert.False(t, c.IsSystemMedia(), c.Name())
	}
}

func TestCodeForRune(t *testing.T) {
	assert.Equal(t, CodeA, CodeForRune('a'))
	assert.Equal(t, CodeA+2, CodeForRune('C'))
	assert.Equal(t, Code0+5, CodeForRune('5'))
	assert.Equal(t, CodeSpace, CodeForRune(' '))
	assert.Equal(t, CodeUnknown, CodeForRune('é'))
}

func TestRawEventIsTextBatch(t *testing.T) {
	assert.True(t, RawEvent{Action: ActionMultiple, Characters: "hi"}.IsTextBatch())
	assert.False(t, RawEvent{Action: ActionMultiple, Code: CodeA}.IsTextBatch())
	assert.False(t, RawEvent{Action: ActionDown}.IsTextBatch())
}

func TestInputEventString(t *testing.T) {
	down := InputEvent{Kind: KindKeyDown, KeyCode: CodeA, Modifiers: ModCtrl, Sequence: 3}
	assert.Equal(t, "#3 KeyDown Ctrl+A", down.String())
	assert.False(t, down.HasCodepoint())
	assert.True(t, down.HasKeyCode())

	text := InputEvent{Kind: KindTextCommit, Codepoint: 'a', Sequence: 4}
	assert.Equal(t, "#4 TextCommit 'a'", text.String())
	assert.True(t, text.HasCodepoint())
	assert.True(t, text.IsPrintable())
}
