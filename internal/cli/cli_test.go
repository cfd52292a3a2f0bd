package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/keybridge/internal/config"
	"github.com/dshills/keybridge/internal/foreign"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand(BuildInfo{Version: "1.2.3", Commit: "abc123", Date: "today"})
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "keybridge 1.2.3")
	assert.Contains(t, out, "abc123")
}

func TestConfig_PrintsEffectiveSettings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keybridge.toml")
	require.NoError(t, os.WriteFile(path, []byte("[geometry]\ntop_buffer = 12\n"), 0o644))

	out, err := execute(t, "config", "--config", path, "--log-level", "debug")
	require.NoError(t, err)

	cfg := config.Default()
	require.NoError(t, toml.Unmarshal([]byte(out), cfg))
	assert.Equal(t, 12, cfg.Geometry.TopBuffer)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, config.Default().Focus, cfg.Focus)
}

func TestConfig_InvalidLogLevel(t *testing.T) {
	_, err := execute(t, "config", "--log-level", "loud")
	assert.ErrorIs(t, err, config.ErrValidationFailed)
}

func TestInstantiate(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "ui"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ui", "widgets.lua"), []byte(`
local M = {}
local Button = {}
Button.__index = Button
function Button.new(label, width)
  return setmetatable({ label = label, width = width }, Button)
end
function Button:describe()
  return self.label .. ":" .. self.width
end
M.Button = Button
return M
`), 0o644))

	out, err := execute(t, "instantiate", "ui.widgets.Button", "OK", "120", "--module-path", dir)
	require.NoError(t, err)
	assert.JSONEq(t, `{"label":"OK","width":120}`, out)

	out, err = execute(t, "instantiate", "ui.widgets.Button", "OK", "120", "--module-path", dir, "--call", "describe")
	require.NoError(t, err)
	assert.JSONEq(t, `["OK:120"]`, out)

	_, err = execute(t, "instantiate", "ui.widgets.Slider", "--module-path", dir)
	var instErr *foreign.InstantiationError
	require.ErrorAs(t, err, &instErr)
	assert.Equal(t, foreign.StageSymbol, instErr.Stage)

	_, err = execute(t, "instantiate", "Button")
	var nameErr *foreign.InvalidNameError
	assert.ErrorAs(t, err, &nameErr)
}

func TestParseArg(t *testing.T) {
	assert.Equal(t, int64(42), parseArg("42"))
	assert.Equal(t, 1.5, parseArg("1.5"))
	assert.Equal(t, true, parseArg("true"))
	assert.Equal(t, "t", parseArg("t"))
	assert.Equal(t, "hello", parseArg("hello"))
}

func TestLastRunes(t *testing.T) {
	assert.Equal(t, "abc", lastRunes("abc", 5))
	assert.Equal(t, "éf", lastRunes("abcdéf", 2))
}
