package foreign

import (
	"context"
	"fmt"

	lua "github.com/yuin/gopher-lua"
)

// Handle refers to an object living in a Bridge's runtime. It can be passed
// back into Instantiate or Call as an argument.
type Handle struct {
	id    uint64
	name  string
	value lua.LValue
	owner *Bridge
}

// ID is unique per Bridge.
func (h *Handle) ID() uint64 { return h.id }

// Name is the qualified name that produced the object, or the method that
// returned it.
func (h *Handle) Name() string { return h.name }

// Kind is the runtime type name of the object.
func (h *Handle) Kind() string { return h.value.Type().String() }

func (h *Handle) String() string {
	return fmt.Sprintf("%s#%d", h.name, h.id)
}

// Value converts the object into plain Go data.
func (h *Handle) Value() (any, error) {
	b := h.owner
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, ErrClosed
	}
	return fromLua(h.value), nil
}

// Field reads one field of the object, following __index.
func (h *Handle) Field(name string) (any, error) {
	b := h.owner
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, ErrClosed
	}
	if h.value.Type() != lua.LTTable && h.value.Type() != lua.LTUserData {
		return nil, fmt.Errorf("%s has no fields", h)
	}
	return b.wrap(h.name+Separator+name, b.state.GetField(h.value, name)), nil
}

// Call invokes method on the object with the object as receiver. Scalar
// results are converted to Go values; tables, functions and userdata come
// back as handles. Failures are *InstantiationError with StageCall.
func (h *Handle) Call(ctx context.Context, method string, args ...any) ([]any, error) {
	b := h.owner
	b.mu.Lock()
	defer b.mu.Unlock()

	label := h.name + ":" + method
	if b.closed {
		return nil, &InstantiationError{Name: label, Stage: StageCall, Message: ErrClosed.Error(), Err: ErrClosed}
	}

	if h.value.Type() != lua.LTTable && h.value.Type() != lua.LTUserData {
		return nil, b.fail(label, StageSymbol, fmt.Errorf("%w: %s has no methods", ErrSymbolNotFound, h))
	}
	fn := b.state.GetField(h.value, method)
	if fn == lua.LNil {
		return nil, b.fail(label, StageSymbol, fmt.Errorf("%w: %s", ErrSymbolNotFound, label))
	}

	largs, err := b.convertArgs(append([]any{h}, args...))
	if err != nil {
		return nil, b.fail(label, StageConvert, err)
	}

	ctx, release := b.bindContext(ctx)
	defer release()
	rets, err := b.call(ctx, fn, largs, lua.MultRet)
	if err != nil {
		return nil, b.fail(label, StageCall, err)
	}

	out := make([]any, len(rets))
	for i, r := range rets {
		out[i] = b.wrap(label, r)
	}
	return out, nil
}

// wrap converts scalars and keeps reference values as handles.
func (b *Bridge) wrap(name string, lv lua.LValue) any {
	switch lv.Type() {
	case lua.LTTable, lua.LTFunction, lua.LTUserData:
		b.nextID++
		return &Handle{id: b.nextID, name: name, value: lv, owner: b}
	}
	return fromLua(lv)
}
