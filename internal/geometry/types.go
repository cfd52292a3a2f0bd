package geometry

import "fmt"

// Orientation is derived from the viewport aspect at publish time.
type Orientation uint8

const (
	// OrientationUnknown means the viewport size was not reported.
	OrientationUnknown Orientation = iota
	// OrientationPortrait means height >= width.
	OrientationPortrait
	// OrientationLandscape means width > height.
	OrientationLandscape
)

// String returns the orientation name.
func (o Orientation) String() string {
	switch o {
	case OrientationPortrait:
		return "portrait"
	case OrientationLandscape:
		return "landscape"
	default:
		return "unknown"
	}
}

// OrientationOf derives the orientation of a width x height viewport.
func OrientationOf(width, height int) Orientation {
	switch {
	case width <= 0 || height <= 0:
		return OrientationUnknown
	case width > height:
		return OrientationLandscape
	default:
		return OrientationPortrait
	}
}

// Edges holds one inset value per window edge, in pixels.
type Edges struct {
	Top, Bottom, Left, Right int
}

// Max returns the per-edge maximum of e and o.
func (e Edges) Max(o Edges) Edges {
	return Edges{
		Top:    max(e.Top, o.Top),
		Bottom: max(e.Bottom, o.Bottom),
		Left:   max(e.Left, o.Left),
		Right:  max(e.Right, o.Right),
	}
}

// clamped returns e with negative edges raised to zero and reports whether
// anything changed.
func (e Edges) clamped() (Edges, bool) {
	c := Edges{
		Top:    max(e.Top, 0),
		Bottom: max(e.Bottom, 0),
		Left:   max(e.Left, 0),
		Right:  max(e.Right, 0),
	}
	return c, c != e
}

// Category names a kind of host-reported inset.
type Category string

// Inset categories. Typed hosts report the first five; legacy hosts only
// report a visible frame and an estimated navigation bar.
const (
	CategoryStatusBars     Category = "status_bars"
	CategoryNavigationBars Category = "navigation_bars"
	CategoryDisplayCutout  Category = "display_cutout"
	CategorySystemGestures Category = "system_gestures"
	CategoryCaptionBar     Category = "caption_bar"
	CategoryVisibleFrame   Category = "visible_frame"
	CategoryNavBarEstimate Category = "navigation_bar_estimate"
)

// Size is a viewport size in pixels.
type Size struct {
	Width, Height int
}

// Snapshot is one geometry report from the host, before normalization.
type Snapshot struct {
	// Insets maps each reported category to its edges.
	Insets map[Category]Edges

	// Density is the display density; 0 means the host did not report it.
	Density float64

	// Viewport is the current window size.
	Viewport Size
}

// InsetRect is the canonical safe-area rectangle pushed to the UI runtime.
// It is always replaced wholesale.
type InsetRect struct {
	Top, Bottom, Left, Right int

	// Density is the last known display density. It is 0 only until the
	// host has reported a density at least once.
	Density float64

	Orientation Orientation
}

// Edges returns the four offsets.
func (r InsetRect) Edges() Edges {
	return Edges{Top: r.Top, Bottom: r.Bottom, Left: r.Left, Right: r.Right}
}

// Valid reports whether all offsets are non-negative and density, when
// known, is positive.
func (r InsetRect) Valid() bool {
	return r.Top >= 0 && r.Bottom >= 0 && r.Left >= 0 && r.Right >= 0 && r.Density >= 0
}

// String renders the rect for logs.
func (r InsetRect) String() string {
	return fmt.Sprintf("top=%d bottom=%d left=%d right=%d density=%.2f %s",
		r.Top, r.Bottom, r.Left, r.Right, r.Density, r.Orientation)
}
