package foreign

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	lua "github.com/yuin/gopher-lua"
)

// removedGlobals can load code behind the loader's back.
var removedGlobals = []string{"dofile", "loadfile", "load", "loadstring", "module"}

// newSandboxedState opens the safe libraries only.
func newSandboxedState(callStackSize int) *lua.LState {
	L := lua.NewState(lua.Options{
		SkipOpenLibs:  true,
		CallStackSize: callStackSize,
	})
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
	for _, name := range removedGlobals {
		L.SetGlobal(name, lua.LNil)
	}
	return L
}

// loader resolves module names to module values and caches them. It is
// only used while the owning Bridge holds its lock.
type loader struct {
	L       *lua.LState
	root    string
	sources map[string]string
	loaded  map[string]lua.LValue
	loading map[string]bool
}

func newLoader(L *lua.LState, root string) *loader {
	ld := &loader{
		L:       L,
		root:    root,
		sources: make(map[string]string),
		loaded:  make(map[string]lua.LValue),
		loading: make(map[string]bool),
	}
	L.SetGlobal("require", L.NewFunction(ld.require))
	return ld
}

// require is the Lua-visible require.
func (ld *loader) require(L *lua.LState) int {
	name := L.CheckString(1)
	mod, err := ld.load(name)
	if err != nil {
		L.RaiseError("%s", err.Error())
		return 0
	}
	L.Push(mod)
	return 1
}

// load returns the module value, running its chunk on first use.
func (ld *loader) load(module string) (lua.LValue, error) {
	if mod, ok := ld.loaded[module]; ok {
		return mod, nil
	}
	if ld.loading[module] {
		return nil, fmt.Errorf("module %q: circular require", module)
	}

	fn, err := ld.compile(module)
	if err != nil {
		return nil, err
	}

	ld.loading[module] = true
	defer delete(ld.loading, module)

	ld.L.Push(fn)
	if err := ld.L.PCall(0, 1, nil); err != nil {
		return nil, fmt.Errorf("module %q: %s", module, luaMessage(err))
	}
	mod := ld.L.Get(-1)
	ld.L.Pop(1)
	if mod == lua.LNil {
		mod = lua.LTrue
	}
	ld.loaded[module] = mod
	return mod, nil
}

// compile finds and parses the module chunk.
func (ld *loader) compile(module string) (*lua.LFunction, error) {
	chunk := moduleFile(module)
	if src, ok := ld.sources[module]; ok {
		fn, err := ld.L.Load(strings.NewReader(src), chunk)
		if err != nil {
			return nil, fmt.Errorf("module %q: %s", module, luaMessage(err))
		}
		return fn, nil
	}

	if ld.root == "" {
		return nil, fmt.Errorf("%w: %q", ErrModuleNotFound, module)
	}
	path := filepath.Join(ld.root, filepath.FromSlash(chunk))
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %q (looked for %s)", ErrModuleNotFound, module, path)
	}
	if err != nil {
		return nil, fmt.Errorf("module %q: %w", module, err)
	}
	defer f.Close()

	fn, err := ld.L.Load(f, path)
	if err != nil {
		return nil, fmt.Errorf("module %q: %s", module, luaMessage(err))
	}
	return fn, nil
}

// luaMessage extracts the diagnostic text from a gopher-lua error.
func luaMessage(err error) string {
	var apiErr *lua.ApiError
	if errors.As(err, &apiErr) && apiErr.Object != nil {
		return apiErr.Object.String()
	}
	return err.Error()
}
