package foreign

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const shapesSource = `
local M = {}

function M.Point(x, y)
  return { x = x, y = y }
end

local Counter = {}
Counter.__index = Counter

function Counter.new(start)
  return setmetatable({ n = start or 0 }, Counter)
end

function Counter:add(k)
  self.n = self.n + k
  return self.n
end

function Counter:fail()
  error("counter broke")
end

M.Counter = Counter

M.Callable = setmetatable({}, { __call = function(_, v) return { v = v } end })

function M.Boom() error("kaboom") end
function M.Nothing() end
function M.Refuse() return nil, "not today" end
function M.Spin() while true do end end
function M.Wrap(other) return { inner = other } end

function M.Sum(list)
  local s = 0
  for _, v in ipairs(list) do s = s + v end
  return { total = s }
end

function M.Named(opts)
  return { label = opts.label, size = opts.size }
end

M.version = 3

return M
`

func newTestBridge(t *testing.T, opts ...Option) *Bridge {
	t.Helper()
	b, err := New(opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })
	require.NoError(t, b.RegisterModule("shapes", shapesSource))
	return b
}

func requireStage(t *testing.T, err error, stage Stage) *InstantiationError {
	t.Helper()
	var instErr *InstantiationError
	require.True(t, errors.As(err, &instErr), "want *InstantiationError, got %T: %v", err, err)
	assert.Equal(t, stage, instErr.Stage)
	return instErr
}

func TestInstantiate_ModuleOnlyIsInvalidName(t *testing.T) {
	b := newTestBridge(t)

	h, err := b.Instantiate(context.Background(), "moduleonly")
	assert.Nil(t, h)
	var nameErr *InvalidNameError
	require.True(t, errors.As(err, &nameErr))
	assert.Equal(t, "moduleonly", nameErr.Name)
}

func TestInstantiate_MissingModule(t *testing.T) {
	b := newTestBridge(t, WithModulePath(t.TempDir()))

	h, err := b.Instantiate(context.Background(), "pkg.sub.MissingType", 1, 2)
	assert.Nil(t, h)
	instErr := requireStage(t, err, StageModule)
	assert.Equal(t, "pkg.sub.MissingType", instErr.Name)
	assert.ErrorIs(t, err, ErrModuleNotFound)
	assert.Contains(t, instErr.Message, "pkg.sub")
}

func TestInstantiate_MissingSymbol(t *testing.T) {
	b := newTestBridge(t)

	_, err := b.Instantiate(context.Background(), "shapes.Hexagon")
	instErr := requireStage(t, err, StageSymbol)
	assert.ErrorIs(t, err, ErrSymbolNotFound)
	assert.Contains(t, instErr.Message, "Point", "lists what the module exports")
}

func TestInstantiate_NotConstructible(t *testing.T) {
	b := newTestBridge(t)

	_, err := b.Instantiate(context.Background(), "shapes.version")
	requireStage(t, err, StageSymbol)
	assert.ErrorIs(t, err, ErrNotCallable)
}

func TestInstantiate_Function(t *testing.T) {
	b := newTestBridge(t)

	h, err := b.Instantiate(context.Background(), "shapes.Point", 1, 2.5)
	require.NoError(t, err)
	assert.Equal(t, "shapes.Point", h.Name())
	assert.Equal(t, "table", h.Kind())

	v, err := h.Value()
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"x": int64(1), "y": 2.5}, v)
}

func TestInstantiate_TableWithNew(t *testing.T) {
	b := newTestBridge(t)
	ctx := context.Background()

	h, err := b.Instantiate(ctx, "shapes.Counter", 5)
	require.NoError(t, err)

	out, err := h.Call(ctx, "add", 2)
	require.NoError(t, err)
	assert.Equal(t, []any{int64(7)}, out)

	n, err := h.Field("n")
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)
}

func TestInstantiate_CallableTable(t *testing.T) {
	b := newTestBridge(t)

	h, err := b.Instantiate(context.Background(), "shapes.Callable", "hello")
	require.NoError(t, err)
	v, err := h.Value()
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"v": "hello"}, v)
}

func TestInstantiate_CallFailures(t *testing.T) {
	b := newTestBridge(t)

	tests := []struct {
		name    string
		message string
	}{
		{name: "shapes.Boom", message: "kaboom"},
		{name: "shapes.Nothing", message: "constructor returned nil"},
		{name: "shapes.Refuse", message: "not today"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := b.Instantiate(context.Background(), tt.name)
			assert.Nil(t, h)
			instErr := requireStage(t, err, StageCall)
			assert.Contains(t, instErr.Message, tt.message)
		})
	}

	// The runtime stays usable after failures.
	_, err := b.Instantiate(context.Background(), "shapes.Point", 0, 0)
	assert.NoError(t, err)
}

func TestInstantiate_CallTimeout(t *testing.T) {
	b := newTestBridge(t, WithCallTimeout(50*time.Millisecond))

	_, err := b.Instantiate(context.Background(), "shapes.Spin")
	requireStage(t, err, StageCall)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	_, err = b.Instantiate(context.Background(), "shapes.Point", 1, 1)
	assert.NoError(t, err)
}

func TestInstantiate_CancelledContext(t *testing.T) {
	b := newTestBridge(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := b.Instantiate(ctx, "shapes.Point", 1, 1)
	requireStage(t, err, StageModule)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestInstantiate_ModuleLoadTimeout(t *testing.T) {
	b := newTestBridge(t, WithCallTimeout(100*time.Millisecond))
	require.NoError(t, b.RegisterModule("pkg.spin", "while true do end\nreturn {}"))

	errs := make(chan error, 1)
	go func() {
		_, err := b.Instantiate(context.Background(), "pkg.spin.T")
		errs <- err
	}()

	select {
	case err := <-errs:
		requireStage(t, err, StageModule)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	case <-time.After(2 * time.Second):
		t.Fatal("Instantiate did not honour the call timeout while loading")
	}

	// The lock is released and other modules still load.
	_, err := b.Instantiate(context.Background(), "shapes.Point", 1, 1)
	assert.NoError(t, err)
}

func TestInstantiate_HandleArguments(t *testing.T) {
	b := newTestBridge(t)
	ctx := context.Background()

	counter, err := b.Instantiate(ctx, "shapes.Counter", 1)
	require.NoError(t, err)

	wrapper, err := b.Instantiate(ctx, "shapes.Wrap", counter)
	require.NoError(t, err)

	inner, err := wrapper.Field("inner")
	require.NoError(t, err)
	innerHandle, ok := inner.(*Handle)
	require.True(t, ok, "table fields come back as handles")

	out, err := innerHandle.Call(ctx, "add", 10)
	require.NoError(t, err)
	assert.Equal(t, []any{int64(11)}, out)

	// Same object on both sides.
	n, err := counter.Field("n")
	require.NoError(t, err)
	assert.Equal(t, int64(11), n)
}

func TestInstantiate_CollectionArguments(t *testing.T) {
	b := newTestBridge(t)
	ctx := context.Background()

	h, err := b.Instantiate(ctx, "shapes.Sum", []int{1, 2, 3})
	require.NoError(t, err)
	total, err := h.Field("total")
	require.NoError(t, err)
	assert.Equal(t, int64(6), total)

	h, err = b.Instantiate(ctx, "shapes.Named", map[string]any{"label": "ok", "size": uint8(4)})
	require.NoError(t, err)
	v, err := h.Value()
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"label": "ok", "size": int64(4)}, v)
}

func TestInstantiate_UnsupportedArgument(t *testing.T) {
	b := newTestBridge(t)

	_, err := b.Instantiate(context.Background(), "shapes.Point", make(chan int))
	instErr := requireStage(t, err, StageConvert)
	assert.Contains(t, instErr.Message, "argument 1")

	_, err = b.Instantiate(context.Background(), "shapes.Named", map[int]string{1: "x"})
	requireStage(t, err, StageConvert)
}

func TestInstantiate_HandleFromAnotherBridge(t *testing.T) {
	a := newTestBridge(t)
	b := newTestBridge(t)
	ctx := context.Background()

	h, err := a.Instantiate(ctx, "shapes.Counter", 0)
	require.NoError(t, err)

	_, err = b.Instantiate(ctx, "shapes.Wrap", h)
	requireStage(t, err, StageConvert)
	assert.ErrorIs(t, err, ErrForeignHandle)
}

func TestInstantiate_ModulePath(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "widgets"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "widgets", "slider.lua"), []byte(`
local shapes = require("shapes")
return {
  Slider = function(lo, hi)
    return { lo = lo, hi = hi, origin = shapes.Point(lo, 0) }
  end,
}
`), 0o644))

	b := newTestBridge(t, WithModulePath(dir))
	h, err := b.Instantiate(context.Background(), "widgets.slider.Slider", 0, 100)
	require.NoError(t, err)

	v, err := h.Value()
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"lo":     int64(0),
		"hi":     int64(100),
		"origin": map[string]any{"x": int64(0), "y": int64(0)},
	}, v)
}

func TestInstantiate_ModuleErrors(t *testing.T) {
	b := newTestBridge(t)
	require.NoError(t, b.RegisterModule("broken", `return {`))
	require.NoError(t, b.RegisterModule("raises", `error("module init failed")`))
	require.NoError(t, b.RegisterModule("cycle.a", `return require("cycle.b")`))
	require.NoError(t, b.RegisterModule("cycle.b", `return require("cycle.a")`))

	for _, name := range []string{"broken.X", "raises.X", "cycle.a.X"} {
		t.Run(name, func(t *testing.T) {
			_, err := b.Instantiate(context.Background(), name)
			requireStage(t, err, StageModule)
		})
	}
}

func TestSandbox_NoFileOrOSAccess(t *testing.T) {
	b := newTestBridge(t)
	require.NoError(t, b.RegisterModule("escape", `
return {
  Probe = function()
    return { io = io == nil, os = os == nil, dofile = dofile == nil, load = load == nil }
  end,
}
`))

	h, err := b.Instantiate(context.Background(), "escape.Probe")
	require.NoError(t, err)
	v, err := h.Value()
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"io": true, "os": true, "dofile": true, "load": true}, v)
}

func TestHandle_CallErrors(t *testing.T) {
	b := newTestBridge(t)
	ctx := context.Background()

	h, err := b.Instantiate(ctx, "shapes.Counter", 0)
	require.NoError(t, err)

	_, err = h.Call(ctx, "fail")
	instErr := requireStage(t, err, StageCall)
	assert.Contains(t, instErr.Message, "counter broke")

	_, err = h.Call(ctx, "missing")
	requireStage(t, err, StageSymbol)
}

func TestClose(t *testing.T) {
	b, err := New()
	require.NoError(t, err)
	require.NoError(t, b.RegisterModule("shapes", shapesSource))

	h, err := b.Instantiate(context.Background(), "shapes.Point", 1, 2)
	require.NoError(t, err)

	require.NoError(t, b.Close())
	require.NoError(t, b.Close())

	_, err = b.Instantiate(context.Background(), "shapes.Point", 1, 2)
	assert.ErrorIs(t, err, ErrClosed)
	_, err = h.Value()
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, b.RegisterModule("x", "return {}"), ErrClosed)
}

func TestInstantiate_Concurrent(t *testing.T) {
	b := newTestBridge(t)

	var wg sync.WaitGroup
	errs := make(chan error, 32)
	for i := 0; i < 32; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			h, err := b.Instantiate(context.Background(), "shapes.Counter", i)
			if err != nil {
				errs <- err
				return
			}
			if _, err := h.Call(context.Background(), "add", 1); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}

func TestNew_RejectsBadStackSize(t *testing.T) {
	_, err := New(WithCallStackSize(0))
	assert.Error(t, err)
}
