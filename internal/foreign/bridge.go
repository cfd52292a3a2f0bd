package foreign

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/keybridge/internal/logging"
)

// Defaults for a new Bridge.
const (
	DefaultCallTimeout   = 5 * time.Second
	DefaultCallStackSize = 256
)

// Bridge owns one embedded Lua runtime and instantiates objects in it.
// Calls are serialized; a Bridge may be used from any goroutine.
type Bridge struct {
	mu     sync.Mutex
	state  *lua.LState
	loader *loader
	closed bool
	nextID uint64

	modulePath    string
	callTimeout   time.Duration
	callStackSize int
	logger        *logging.Logger
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithModulePath sets the directory searched for module files.
func WithModulePath(dir string) Option {
	return func(b *Bridge) {
		b.modulePath = dir
	}
}

// WithCallTimeout bounds each call into the runtime. Zero disables the
// bound; the caller's context still applies.
func WithCallTimeout(d time.Duration) Option {
	return func(b *Bridge) {
		b.callTimeout = d
	}
}

// WithCallStackSize sets the Lua call stack depth.
func WithCallStackSize(n int) Option {
	return func(b *Bridge) {
		b.callStackSize = n
	}
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(b *Bridge) {
		b.logger = l
	}
}

// New creates a Bridge with a fresh sandboxed runtime.
func New(opts ...Option) (*Bridge, error) {
	b := &Bridge{
		callTimeout:   DefaultCallTimeout,
		callStackSize: DefaultCallStackSize,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.callStackSize <= 0 {
		return nil, fmt.Errorf("call stack size must be positive, got %d", b.callStackSize)
	}
	b.logger = logging.OrDiscard(b.logger).WithComponent("foreign")
	b.state = newSandboxedState(b.callStackSize)
	b.loader = newLoader(b.state, b.modulePath)
	return b, nil
}

// RegisterModule provides Lua source for module, taking precedence over
// the module path. Registering a module that was already loaded does not
// reload it.
func (b *Bridge) RegisterModule(module, source string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrClosed
	}
	b.loader.sources[module] = source
	return nil
}

// Instantiate resolves name to a module symbol, calls it with args and
// returns a handle to the result. Failures are *InvalidNameError or
// *InstantiationError; no handle is returned with an error.
func (b *Bridge) Instantiate(ctx context.Context, name string, args ...any) (*Handle, error) {
	qn, err := ParseName(name)
	if err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, &InstantiationError{Name: name, Stage: StageModule, Message: ErrClosed.Error(), Err: ErrClosed}
	}

	ctx, release := b.bindContext(ctx)
	defer release()
	if err := ctx.Err(); err != nil {
		return nil, b.fail(name, StageModule, err)
	}

	mod, err := b.loader.load(qn.Module)
	if err != nil {
		b.resetStack()
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = fmt.Errorf("%v: %w", err, ctxErr)
		}
		return nil, b.fail(name, StageModule, err)
	}

	ctor, err := b.resolve(qn, mod)
	if err != nil {
		return nil, b.fail(name, StageSymbol, err)
	}

	largs, err := b.convertArgs(args)
	if err != nil {
		return nil, b.fail(name, StageConvert, err)
	}

	rets, err := b.call(ctx, ctor, largs, 2)
	if err != nil {
		return nil, b.fail(name, StageCall, err)
	}
	obj := rets[0]
	if obj == lua.LNil {
		msg := "constructor returned nil"
		if s, ok := rets[1].(lua.LString); ok {
			msg = string(s)
		}
		return nil, b.fail(name, StageCall, errors.New(msg))
	}

	b.nextID++
	h := &Handle{id: b.nextID, name: qn.String(), value: obj, owner: b}
	b.logger.Debug("instantiated %s as #%d (%s)", h.name, h.id, obj.Type())
	return h, nil
}

// Close tears the runtime down. Handles become unusable.
func (b *Bridge) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true
	b.state.Close()
	return nil
}

// resolve finds the constructible value for qn.Symbol in mod.
func (b *Bridge) resolve(qn QualifiedName, mod lua.LValue) (lua.LValue, error) {
	tbl, ok := mod.(*lua.LTable)
	if !ok {
		return nil, fmt.Errorf("%w: module %s is a %s, not a table", ErrSymbolNotFound, qn.Module, mod.Type())
	}
	sym := b.state.GetField(tbl, qn.Symbol)
	switch v := sym.(type) {
	case *lua.LNilType:
		return nil, fmt.Errorf("%w: %s has no %q (exports %v)", ErrSymbolNotFound, qn.Module, qn.Symbol, fieldNames(tbl))
	case *lua.LFunction:
		return v, nil
	case *lua.LTable:
		if b.state.GetMetaField(v, "__call") != lua.LNil {
			return v, nil
		}
		if fn, ok := b.state.GetField(v, "new").(*lua.LFunction); ok {
			return fn, nil
		}
	}
	return nil, fmt.Errorf("%w: %s is a %s", ErrNotCallable, qn, sym.Type())
}

func (b *Bridge) convertArgs(args []any) ([]lua.LValue, error) {
	out := make([]lua.LValue, len(args))
	for i, a := range args {
		lv, err := b.toLua(a)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i+1, err)
		}
		out[i] = lv
	}
	return out, nil
}

// bindContext applies the call timeout to ctx and installs it on the Lua
// state. Everything run before release shares that deadline, module chunks
// included.
func (b *Bridge) bindContext(ctx context.Context) (context.Context, func()) {
	cancel := context.CancelFunc(func() {})
	if b.callTimeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, b.callTimeout)
	}
	b.state.SetContext(ctx)
	return ctx, func() {
		b.state.RemoveContext()
		cancel()
	}
}

// call runs fn on the state. ctx must be the one installed by bindContext.
// nret may be lua.MultRet.
func (b *Bridge) call(ctx context.Context, fn lua.LValue, args []lua.LValue, nret int) (rets []lua.LValue, err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	top := b.state.GetTop()
	defer func() {
		if r := recover(); r != nil {
			b.state.SetTop(top)
			rets, err = nil, fmt.Errorf("runtime panic: %v", r)
		}
	}()

	b.state.Push(fn)
	for _, a := range args {
		b.state.Push(a)
	}
	if err := b.state.PCall(len(args), nret, nil); err != nil {
		b.state.SetTop(top)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("%s: %w", luaMessage(err), ctxErr)
		}
		return nil, errors.New(luaMessage(err))
	}

	n := b.state.GetTop() - top
	rets = make([]lua.LValue, n)
	for i := 0; i < n; i++ {
		rets[i] = b.state.Get(top + i + 1)
	}
	b.state.SetTop(top)
	return rets, nil
}

func (b *Bridge) resetStack() {
	b.state.SetTop(0)
}

// fail builds the uniform error and logs it.
func (b *Bridge) fail(name string, stage Stage, err error) error {
	b.logger.Debug("instantiate %s failed at %s: %v", name, stage, err)
	return &InstantiationError{Name: name, Stage: stage, Message: err.Error(), Err: err}
}
