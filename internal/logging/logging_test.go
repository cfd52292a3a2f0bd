package logging

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestLogger(buf *bytes.Buffer, level Level) *Logger {
	l := New(Config{Level: level, Output: buf, Prefix: "test"})
	l.sink.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	return l
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", LevelDebug},
		{"DEBUG", LevelDebug},
		{"warning", LevelWarn},
		{" error ", LevelError},
		{"bogus", LevelInfo},
		{"", LevelInfo},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseLevel(tt.in), tt.in)
	}
}

func TestLogger_FiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	l := newTestLogger(&buf, LevelWarn)

	l.Debug("hidden")
	l.Info("hidden")
	l.Warn("shown %d", 1)

	assert.Equal(t, "2026-01-02T03:04:05.000 [WARN] test: shown 1\n", buf.String())
}

func TestLogger_FieldsSortedAndInherited(t *testing.T) {
	var buf bytes.Buffer
	root := newTestLogger(&buf, LevelDebug)
	child := root.WithComponent("focus").WithField("b", 2).WithField("a", 1)

	child.Info("tick")

	assert.True(t, strings.HasSuffix(buf.String(), "tick {a=1, b=2, component=focus}\n"), buf.String())
}

func TestLogger_SetLevelAffectsChildren(t *testing.T) {
	var buf bytes.Buffer
	root := newTestLogger(&buf, LevelInfo)
	child := root.WithComponent("geometry")

	child.Debug("before")
	root.SetLevel(LevelDebug)
	child.Debug("after")

	assert.NotContains(t, buf.String(), "before")
	assert.Contains(t, buf.String(), "after")
	assert.True(t, child.Enabled(LevelDebug))
}

func TestDiscard(t *testing.T) {
	l := OrDiscard(nil)
	assert.False(t, l.Enabled(LevelError))
	l.Error("nothing happens")
}
