package geometry

import "fmt"

// Source reports the host's current window geometry. Two variants exist,
// one per host API generation; the bridge picks one at startup.
type Source interface {
	// Name identifies the variant in logs.
	Name() string

	// Snapshot returns the current geometry. It returns an error wrapping
	// ErrInsetUnavailable when the host has no geometry yet.
	Snapshot() (Snapshot, error)
}

// DisplayMetrics is what a host reports about its display.
type DisplayMetrics struct {
	// Density is pixels per density-independent unit; 0 if unknown.
	Density float64
	Width   int
	Height  int
}

// Rect is a host rectangle in window pixels.
type Rect struct {
	Left, Top, Right, Bottom int
}

// TypedHost is implemented by newer hosts that expose typed inset
// categories.
type TypedHost interface {
	InsetsByCategory() (map[Category]Edges, error)
	DisplayMetrics() (DisplayMetrics, error)
}

// LegacyHost is implemented by older hosts that expose only the visible
// display frame and a navigation bar height estimate.
type LegacyHost interface {
	VisibleFrame() (Rect, error)
	// NavigationBarHeight returns the estimated height and whether the
	// host could provide an estimate.
	NavigationBarHeight() (int, bool)
	DisplayMetrics() (DisplayMetrics, error)
}

// TypedSource reads typed inset categories.
type TypedSource struct {
	host TypedHost
}

// NewTypedSource creates a source over a typed-insets host.
func NewTypedSource(host TypedHost) *TypedSource {
	return &TypedSource{host: host}
}

// Name implements Source.
func (s *TypedSource) Name() string { return "typed" }

// Snapshot implements Source.
func (s *TypedSource) Snapshot() (Snapshot, error) {
	insets, err := s.host.InsetsByCategory()
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: %v", ErrInsetUnavailable, err)
	}
	snap := Snapshot{Insets: make(map[Category]Edges, len(insets))}
	for c, e := range insets {
		snap.Insets[c] = e
	}
	fillDisplay(&snap, s.host.DisplayMetrics)
	return snap, nil
}

// LegacySource derives insets from the visible frame: the frame's top,
// left and right gaps plus the estimated navigation bar at the bottom.
// The frame's bottom gap is ignored since it grows with the on-screen
// keyboard.
type LegacySource struct {
	host LegacyHost
}

// NewLegacySource creates a source over a legacy host.
func NewLegacySource(host LegacyHost) *LegacySource {
	return &LegacySource{host: host}
}

// Name implements Source.
func (s *LegacySource) Name() string { return "legacy" }

// Snapshot implements Source.
func (s *LegacySource) Snapshot() (Snapshot, error) {
	frame, err := s.host.VisibleFrame()
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: %v", ErrInsetUnavailable, err)
	}

	snap := Snapshot{Insets: map[Category]Edges{}}
	fillDisplay(&snap, s.host.DisplayMetrics)

	frameEdges := Edges{Top: frame.Top, Left: frame.Left}
	if snap.Viewport.Width > 0 && frame.Right > 0 {
		frameEdges.Right = snap.Viewport.Width - frame.Right
	}
	snap.Insets[CategoryVisibleFrame] = frameEdges

	if h, ok := s.host.NavigationBarHeight(); ok {
		snap.Insets[CategoryNavBarEstimate] = Edges{Bottom: h}
	}
	return snap, nil
}

// fillDisplay copies display metrics into snap. A metrics failure leaves
// density and viewport zero, which the publisher treats as unreported.
func fillDisplay(snap *Snapshot, metrics func() (DisplayMetrics, error)) {
	m, err := metrics()
	if err != nil {
		return
	}
	snap.Density = m.Density
	snap.Viewport = Size{Width: m.Width, Height: m.Height}
}
