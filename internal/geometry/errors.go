package geometry

import "errors"

var (
	// ErrInsetUnavailable is returned by a Source with no geometry yet.
	ErrInsetUnavailable = errors.New("inset data unavailable")

	// ErrNoSource is returned by Refresh on a publisher without a source.
	ErrNoSource = errors.New("geometry source not configured")
)
