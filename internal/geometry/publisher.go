package geometry

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/dshills/keybridge/internal/logging"
)

// Sink is the UI runtime's geometry intake.
type Sink interface {
	// PushInsets replaces the runtime's safe-area insets.
	PushInsets(r InsetRect) error

	// PushDensity replaces the runtime's display density.
	PushDensity(density float64) error
}

// Publisher normalizes host geometry reports into one InsetRect and pushes
// it to the runtime on every change notification. Like the normalizer it
// runs only on the UI-affinity executor and has no internal locking.
type Publisher struct {
	sink      Sink
	source    Source
	logger    *logging.Logger
	topBuffer int

	current  InsetRect
	haveLast bool
	viewport Size
}

// PublisherOption configures a Publisher.
type PublisherOption func(*Publisher)

// WithSource sets the source read by Refresh.
func WithSource(s Source) PublisherOption {
	return func(p *Publisher) {
		p.source = s
	}
}

// WithTopBuffer adds a fixed safety margin to the top edge.
func WithTopBuffer(px int) PublisherOption {
	return func(p *Publisher) {
		p.topBuffer = max(px, 0)
	}
}

// WithPublisherLogger sets the logger.
func WithPublisherLogger(l *logging.Logger) PublisherOption {
	return func(p *Publisher) {
		p.logger = l
	}
}

// NewPublisher creates a publisher pushing to sink.
func NewPublisher(sink Sink, opts ...PublisherOption) *Publisher {
	p := &Publisher{sink: sink}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = logging.OrDiscard(p.logger).WithComponent("geometry")
	return p
}

// SetTopBuffer changes the top safety margin for subsequent publishes.
func (p *Publisher) SetTopBuffer(px int) {
	p.topBuffer = max(px, 0)
}

// TopBuffer returns the current top safety margin.
func (p *Publisher) TopBuffer() int {
	return p.topBuffer
}

// Current returns the last published rect and whether one was published.
func (p *Publisher) Current() (InsetRect, bool) {
	return p.current, p.haveLast
}

// Refresh reads the configured source and publishes. When the source has
// no data the last known rect is republished.
func (p *Publisher) Refresh() error {
	if p.source == nil {
		return ErrNoSource
	}
	snap, err := p.source.Snapshot()
	if err != nil {
		return p.republish(err)
	}
	return p.OnGeometryChanged(snap)
}

// OnGeometryChanged normalizes snap and publishes the result, even when it
// equals the previous value. Each edge is the maximum over every category
// reporting that edge. A missing density keeps the previous density.
func (p *Publisher) OnGeometryChanged(snap Snapshot) error {
	edges := p.normalize(snap.Insets)
	edges.Top += p.topBuffer

	if snap.Viewport.Width > 0 && snap.Viewport.Height > 0 {
		p.viewport = snap.Viewport
	}

	rect := InsetRect{
		Top:         edges.Top,
		Bottom:      edges.Bottom,
		Left:        edges.Left,
		Right:       edges.Right,
		Density:     p.current.Density,
		Orientation: OrientationOf(p.viewport.Width, p.viewport.Height),
	}

	switch d := snap.Density; {
	case d > 0 && !math.IsInf(d, 0):
		rect.Density = d
	case d != 0:
		p.logger.Warn("ignoring invalid density %v", d)
	}

	p.current = rect
	p.haveLast = true
	return p.push(rect)
}

// normalize folds all categories into one Edges by per-edge maximum.
// Categories are visited in sorted order so logs are stable.
func (p *Publisher) normalize(insets map[Category]Edges) Edges {
	cats := make([]string, 0, len(insets))
	for c := range insets {
		cats = append(cats, string(c))
	}
	sort.Strings(cats)

	var out Edges
	for _, c := range cats {
		e, changed := insets[Category(c)].clamped()
		if changed {
			p.logger.Warn("clamped negative %s inset %+v", c, insets[Category(c)])
		}
		out = out.Max(e)
	}
	return out
}

// republish pushes the last known rect after a source failure.
func (p *Publisher) republish(cause error) error {
	if !p.haveLast {
		p.logger.Warn("no geometry to publish yet: %v", cause)
		return cause
	}
	p.logger.Debug("source unavailable, republishing last known: %v", cause)
	return p.push(p.current)
}

// push sends rect and, once any density is known, the density. A density
// of zero is never pushed.
func (p *Publisher) push(rect InsetRect) error {
	var errs []error
	if err := p.sink.PushInsets(rect); err != nil {
		errs = append(errs, fmt.Errorf("push insets: %w", err))
	}
	if rect.Density > 0 {
		if err := p.sink.PushDensity(rect.Density); err != nil {
			errs = append(errs, fmt.Errorf("push density: %w", err))
		}
	}
	err := errors.Join(errs...)
	if err != nil {
		p.logger.Warn("publishing %s: %v", rect, err)
	} else {
		p.logger.Debug("published %s", rect)
	}
	return err
}
