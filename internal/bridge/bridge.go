// Package bridge wires the input normalizer, keyboard synchronizer,
// geometry publisher and foreign runtime to one host context and one UI
// runtime.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/dshills/keybridge/internal/config"
	"github.com/dshills/keybridge/internal/focus"
	"github.com/dshills/keybridge/internal/foreign"
	"github.com/dshills/keybridge/internal/geometry"
	"github.com/dshills/keybridge/internal/host"
	"github.com/dshills/keybridge/internal/input"
	"github.com/dshills/keybridge/internal/input/key"
	"github.com/dshills/keybridge/internal/logging"
	"github.com/dshills/keybridge/internal/uiloop"
	"github.com/dshills/keybridge/internal/uiruntime"
)

var (
	// ErrNotStarted is returned before Start.
	ErrNotStarted = errors.New("bridge not started")

	// ErrStopped is returned after Stop.
	ErrStopped = errors.New("bridge stopped")
)

// DefaultQueueSize is the capacity of the bridge-owned UI loop.
const DefaultQueueSize = 256

// Stats is a snapshot of bridge activity.
type Stats struct {
	Session  string
	Input    input.MetricsSnapshot
	Focus    focus.Stats
	Geometry geometry.InsetRect
}

// Bridge connects one host context to one UI runtime.
type Bridge struct {
	session string
	host    *host.Context
	runtime uiruntime.Runtime
	logger  *logging.Logger

	// loop is nil when the host supplies its own executor.
	loop *uiloop.Loop
	exec uiloop.Executor

	normalizer *input.Normalizer
	metrics    *input.Metrics
	keyboard   *focus.Synchronizer
	publisher  *geometry.Publisher
	recheck    *uiloop.Ticker
	foreign    *foreign.Bridge

	cfg     atomic.Pointer[config.Config]
	started atomic.Bool
	stopped atomic.Bool
	stopMu  sync.Mutex
}

// Option configures a Bridge.
type Option func(*options)

type options struct {
	logger    *logging.Logger
	foreign   *foreign.Bridge
	queueSize int
	observer  input.Observer
	onFocus   func(focus.Transition)
}

// WithLogger sets the root logger. Its level follows ApplyConfig.
func WithLogger(l *logging.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithForeign uses an existing foreign runtime instead of creating one.
// The bridge closes it on Stop.
func WithForeign(f *foreign.Bridge) Option {
	return func(o *options) {
		o.foreign = f
	}
}

// WithQueueSize sets the capacity of the bridge-owned UI loop.
func WithQueueSize(n int) Option {
	return func(o *options) {
		o.queueSize = n
	}
}

// WithEventObserver receives every canonical input event.
func WithEventObserver(fn input.Observer) Option {
	return func(o *options) {
		o.observer = fn
	}
}

// WithFocusObserver receives every keyboard state transition.
func WithFocusObserver(fn func(focus.Transition)) Option {
	return func(o *options) {
		o.onFocus = fn
	}
}

// New builds every component from hostCtx and cfg. Nothing runs until
// Start.
func New(hostCtx *host.Context, rt uiruntime.Runtime, cfg *config.Config, opts ...Option) (*Bridge, error) {
	if hostCtx == nil {
		return nil, errors.New("bridge: nil host context")
	}
	if rt == nil {
		return nil, errors.New("bridge: nil runtime")
	}
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := options{queueSize: DefaultQueueSize}
	for _, opt := range opts {
		opt(&o)
	}

	b := &Bridge{
		session: uuid.NewString(),
		host:    hostCtx,
		runtime: rt,
		metrics: input.NewMetrics(),
	}
	root := logging.OrDiscard(o.logger)
	root.SetLevel(logging.ParseLevel(cfg.Logging.Level))
	b.logger = root.WithFields(map[string]any{"session": b.session, "host": hostCtx.Name()})

	b.exec = hostCtx.Executor()
	if b.exec == nil {
		b.loop = uiloop.NewLoop(o.queueSize, func(r any) {
			b.logger.WithComponent("uiloop").Error("task panic: %v", r)
		})
		b.exec = b.loop
	}

	inputOpts := []input.Option{input.WithLogger(b.logger), input.WithMetrics(b.metrics)}
	if o.observer != nil {
		inputOpts = append(inputOpts, input.WithObserver(o.observer))
	}
	b.normalizer = input.NewNormalizer(rt, inputOpts...)

	focusOpts := []focus.Option{
		focus.WithLogger(b.logger),
		focus.WithPollInterval(cfg.Focus.PollInterval.Std()),
		focus.WithInitialDelay(cfg.Focus.InitialDelay.Std()),
		focus.WithCommandTimeout(cfg.Focus.CommandTimeout.Std()),
	}
	if o.onFocus != nil {
		focusOpts = append(focusOpts, focus.WithTransitionHook(o.onFocus))
	}
	b.keyboard = focus.NewSynchronizer(rt, hostCtx.Keyboard(), b.exec, focusOpts...)

	source := hostCtx.GeometrySource(cfg.Geometry.Legacy)
	b.publisher = geometry.NewPublisher(rt,
		geometry.WithSource(source),
		geometry.WithTopBuffer(cfg.Geometry.TopBuffer),
		geometry.WithPublisherLogger(b.logger),
	)
	if cfg.Geometry.RecheckInterval > 0 {
		b.recheck = uiloop.NewTicker(b.exec, cfg.Geometry.RecheckDelay.Std(), cfg.Geometry.RecheckInterval.Std(),
			b.refreshGeometry,
			func(err error) { b.logger.Warn("geometry recheck not scheduled: %v", err) },
		)
	}

	b.foreign = o.foreign
	if b.foreign == nil {
		f, err := foreign.New(
			foreign.WithModulePath(cfg.Foreign.ModulePath),
			foreign.WithCallTimeout(cfg.Foreign.CallTimeout.Std()),
			foreign.WithCallStackSize(cfg.Foreign.CallStackSize),
			foreign.WithLogger(b.logger),
		)
		if err != nil {
			return nil, fmt.Errorf("foreign runtime: %w", err)
		}
		b.foreign = f
	}

	b.cfg.Store(cfg.Clone())
	b.logger.Info("bridge created with %s geometry", source.Name())
	return b, nil
}

// Session is the id carried in every log line of this bridge.
func (b *Bridge) Session() string { return b.session }

// Start runs the UI loop (when the bridge owns it), publishes the initial
// geometry and starts polling the runtime's text-input flag. ctx bounds
// the bridge-owned loop.
func (b *Bridge) Start(ctx context.Context) error {
	if b.stopped.Load() {
		return ErrStopped
	}
	if !b.started.CompareAndSwap(false, true) {
		return nil
	}
	if b.loop != nil {
		go b.loop.Run(ctx)
	}
	if err := b.exec.Submit(b.refreshGeometry); err != nil {
		b.logger.Warn("initial geometry not scheduled: %v", err)
	}
	b.keyboard.Start()
	if b.recheck != nil {
		b.recheck.Start()
	}
	b.logger.Info("bridge started")
	return nil
}

// Stop is teardown. Polling stops without a final keyboard command, the
// foreign runtime is closed and a bridge-owned loop is shut down. Stop is
// idempotent.
func (b *Bridge) Stop() {
	b.stopMu.Lock()
	defer b.stopMu.Unlock()

	if !b.stopped.CompareAndSwap(false, true) {
		return
	}
	b.keyboard.Stop()
	if b.recheck != nil {
		b.recheck.Stop()
	}
	if err := b.foreign.Close(); err != nil {
		b.logger.Warn("closing foreign runtime: %v", err)
	}
	if b.loop != nil {
		b.loop.Close()
	}
	b.logger.Info("bridge stopped")
}

// SubmitKey normalizes one host key notification and reports whether it
// was handled. When the host supplies its own executor, SubmitKey must be
// called on it; otherwise it may be called from any goroutine and runs on
// the bridge loop.
func (b *Bridge) SubmitKey(raw key.RawEvent) bool {
	var handled bool
	if err := b.onUI(func() { handled = b.normalizer.Submit(raw) }); err != nil {
		b.logger.Debug("key %s not delivered: %v", raw, err)
		return false
	}
	return handled
}

// OnGeometryChanged re-reads the host geometry and publishes it. The same
// executor rule as SubmitKey applies.
func (b *Bridge) OnGeometryChanged() {
	if err := b.onUI(b.refreshGeometry); err != nil {
		b.logger.Debug("geometry change not delivered: %v", err)
	}
}

// Instantiate creates an object in the foreign runtime. Errors are
// *foreign.InvalidNameError or *foreign.InstantiationError.
func (b *Bridge) Instantiate(ctx context.Context, name string, args ...any) (*foreign.Handle, error) {
	return b.foreign.Instantiate(ctx, name, args...)
}

// Foreign exposes the foreign runtime, for registering module sources.
func (b *Bridge) Foreign() *foreign.Bridge { return b.foreign }

// FocusState is the keyboard state as the synchronizer last saw it.
func (b *Bridge) FocusState() focus.State { return b.keyboard.State() }

// Config returns the settings currently in effect.
func (b *Bridge) Config() *config.Config { return b.cfg.Load().Clone() }

// ApplyConfig applies a reloaded config. The log level and geometry top
// buffer change immediately, republishing geometry; other settings need a
// new bridge and are only logged.
func (b *Bridge) ApplyConfig(cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	prev := b.cfg.Load()

	b.logger.SetLevel(logging.ParseLevel(cfg.Logging.Level))
	if cfg.Geometry.TopBuffer != prev.Geometry.TopBuffer {
		err := b.onUI(func() {
			b.publisher.SetTopBuffer(cfg.Geometry.TopBuffer)
			if _, ok := b.publisher.Current(); ok {
				b.refreshGeometry()
			}
		})
		if err != nil {
			return err
		}
	}
	if cfg.Focus != prev.Focus || cfg.Foreign != prev.Foreign || cfg.Geometry.Legacy != prev.Geometry.Legacy ||
		cfg.Geometry.RecheckDelay != prev.Geometry.RecheckDelay || cfg.Geometry.RecheckInterval != prev.Geometry.RecheckInterval {
		b.logger.Info("timing, geometry source and foreign settings apply on restart")
	}

	b.cfg.Store(cfg.Clone())
	b.logger.Debug("config applied")
	return nil
}

// Stats returns a snapshot of bridge activity.
func (b *Bridge) Stats() Stats {
	s := Stats{
		Session: b.session,
		Input:   b.metrics.Snapshot(),
		Focus:   b.keyboard.Stats(),
	}
	_ = b.onUI(func() { s.Geometry, _ = b.publisher.Current() })
	return s
}

func (b *Bridge) refreshGeometry() {
	if err := b.publisher.Refresh(); err != nil {
		b.logger.Debug("geometry refresh: %v", err)
	}
}

// onUI runs fn on the UI-affinity context and waits for it.
func (b *Bridge) onUI(fn func()) error {
	if b.stopped.Load() {
		return ErrStopped
	}
	if b.loop == nil {
		fn()
		return nil
	}
	if !b.started.Load() {
		return ErrNotStarted
	}
	return b.loop.Do(context.Background(), fn)
}
