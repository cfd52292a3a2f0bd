// Package geometry normalizes host safe-area and density reports into the
// canonical InsetRect pushed to the UI runtime.
//
// Hosts differ by API generation. Newer hosts report typed inset
// categories (status bars, navigation bars, display cutout, ...); older
// hosts only expose the visible display frame and an estimated navigation
// bar height. TypedSource and LegacySource turn either into a Snapshot, and
// Publisher folds a Snapshot into one InsetRect:
//
//   - each edge is the maximum over every category reporting that edge
//   - an optional fixed buffer is added to the top edge
//   - density comes from display metrics; when missing, the previous
//     density is kept and zero is never pushed
//   - orientation is derived from the viewport width and height
//
// Every call publishes, even when nothing changed. The runtime does its
// own change detection.
package geometry
