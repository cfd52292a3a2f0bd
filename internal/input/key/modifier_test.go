package key

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestModifierBits(t *testing.T) {
	assert.Equal(t, Modifier(1), ModShift)
	assert.Equal(t, Modifier(2), ModCtrl)
	assert.Equal(t, Modifier(4), ModAlt)
	assert.Equal(t, Modifier(8), ModMeta)
}

func TestModifierHas(t *testing.T) {
	tests := []struct {
		mod    Modifier
		check  Modifier
		expect bool
	}{
		{ModNone, ModCtrl, false},
		{ModCtrl, ModCtrl, true},
		{ModCtrl | ModAlt, ModAlt, true},
		{ModCtrl | ModAlt, ModShift, false},
		{ModCtrl | ModAlt | ModShift | ModMeta, ModMeta, true},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expect, tt.mod.Has(tt.check), "Modifier(%d).Has(%d)", tt.mod, tt.check)
	}
}

func TestModifierWithWithout(t *testing.T) {
	mod := ModNone.With(ModCtrl).With(ModAlt)
	assert.True(t, mod.HasCtrl())
	assert.True(t, mod.HasAlt())

	mod = mod.Without(ModAlt)
	assert.False(t, mod.HasAlt())
	assert.True(t, mod.HasCtrl())
	assert.False(t, mod.IsEmpty())
}

func TestModifierString(t *testing.T) {
	tests := []struct {
		mod  Modifier
		want string
	}{
		{ModNone, ""},
		{ModCtrl, "Ctrl"},
		{ModShift | ModCtrl, "Ctrl+Shift"},
		{ModCtrl | ModAlt | ModShift | ModMeta, "Ctrl+Alt+Shift+Meta"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.mod.String())
	}
}

func TestFromMetaState(t *testing.T) {
	tests := []struct {
		name string
		meta uint32
		want Modifier
	}{
		{"none", 0, ModNone},
		{"shift generic", MetaShiftOn, ModShift},
		{"shift right only", MetaShiftRightOn, ModShift},
		{"ctrl left", MetaCtrlOn | MetaCtrlLeftOn, ModCtrl},
		{"alt right", MetaAltRightOn, ModAlt},
		{"meta", MetaMetaLeftOn, ModMeta},
		{"caps lock ignored", 0x100000, ModNone},
		{"all", MetaShiftOn | MetaCtrlOn | MetaAltOn | MetaMetaOn, ModShift | ModCtrl | ModAlt | ModMeta},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FromMetaState(tt.meta))
		})
	}
}

func TestMetaStateRoundTrip(t *testing.T) {
	for m := ModNone; m <= ModShift|ModCtrl|ModAlt|ModMeta; m++ {
		assert.Equal(t, m, FromMetaState(m.MetaState()))
	}
}
