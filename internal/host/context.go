// Package host defines the explicit handle through which the bridge reaches
// the current host screen. The handle is passed in at construction; nothing
// in the bridge keeps a global reference to the host.
package host

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/dshills/keybridge/internal/focus"
	"github.com/dshills/keybridge/internal/geometry"
	"github.com/dshills/keybridge/internal/uiloop"
)

var (
	// ErrDetached is returned by keyboard commands after Detach.
	ErrDetached = errors.New("host context detached")

	// ErrNoKeyboard means the context has no keyboard.
	ErrNoKeyboard = errors.New("host context has no keyboard")

	// ErrNoGeometry means the context has neither geometry host variant.
	ErrNoGeometry = errors.New("host context has no geometry host")
)

// Context is a handle to one host screen. A host creates it when its screen
// comes up and calls Detach when the screen goes away.
type Context struct {
	name     string
	keyboard focus.Keyboard
	typed    geometry.TypedHost
	legacy   geometry.LegacyHost
	exec     uiloop.Executor
	detached atomic.Bool
}

// Option configures a Context.
type Option func(*Context)

// WithTypedGeometry sets the host's typed-insets API.
func WithTypedGeometry(h geometry.TypedHost) Option {
	return func(c *Context) {
		c.typed = h
	}
}

// WithLegacyGeometry sets the host's visible-frame API.
func WithLegacyGeometry(h geometry.LegacyHost) Option {
	return func(c *Context) {
		c.legacy = h
	}
}

// WithExecutor makes the bridge run on the host's own UI-affinity executor
// instead of creating one.
func WithExecutor(e uiloop.Executor) Option {
	return func(c *Context) {
		c.exec = e
	}
}

// NewContext creates a handle. A keyboard and at least one geometry
// variant are required.
func NewContext(name string, keyboard focus.Keyboard, opts ...Option) (*Context, error) {
	c := &Context{name: name, keyboard: keyboard}
	for _, opt := range opts {
		opt(c)
	}
	if c.keyboard == nil {
		return nil, fmt.Errorf("host %q: %w", name, ErrNoKeyboard)
	}
	if c.typed == nil && c.legacy == nil {
		return nil, fmt.Errorf("host %q: %w", name, ErrNoGeometry)
	}
	return c, nil
}

// Name identifies the host in logs.
func (c *Context) Name() string { return c.name }

// Executor returns the host's executor, or nil.
func (c *Context) Executor() uiloop.Executor { return c.exec }

// Keyboard returns the host keyboard. Commands issued after Detach fail
// with ErrDetached without reaching the host.
func (c *Context) Keyboard() focus.Keyboard {
	return detachableKeyboard{ctx: c}
}

// GeometrySource picks the geometry variant. Typed geometry wins unless
// preferLegacy is set or the host lacks it.
func (c *Context) GeometrySource(preferLegacy bool) geometry.Source {
	if c.legacy != nil && (preferLegacy || c.typed == nil) {
		return geometry.NewLegacySource(c.legacy)
	}
	return geometry.NewTypedSource(c.typed)
}

// Detach marks the screen as gone.
func (c *Context) Detach() {
	c.detached.Store(true)
}

// Detached reports whether Detach was called.
func (c *Context) Detached() bool {
	return c.detached.Load()
}

type detachableKeyboard struct {
	ctx *Context
}

func (k detachableKeyboard) Show(done func(error)) {
	if k.ctx.Detached() {
		done(ErrDetached)
		return
	}
	k.ctx.keyboard.Show(done)
}

func (k detachableKeyboard) Hide(done func(error)) {
	if k.ctx.Detached() {
		done(ErrDetached)
		return
	}
	k.ctx.keyboard.Hide(done)
}
