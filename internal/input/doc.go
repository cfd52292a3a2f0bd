// Package input turns host key and text notifications into the canonical,
// sequenced event stream consumed by the UI runtime.
//
// # Translation rules
//
//   - Key press: KeyDown, followed by a TextCommit when the key produces a
//     displayable unicode scalar. The TextCommit never precedes its KeyDown.
//   - Key release: KeyUp.
//   - Composed text (IME commit, predictive input): one TextCommit per
//     scalar of the NFC-normalized text, in host order, with no synthesized
//     KeyDown/KeyUp.
//   - Volume and media keys: declined, Submit returns false so the host
//     applies its default handling.
//
// Every delivered event takes the next value of a stream-wide sequence
// counter. Malformed notifications are dropped with a TranslationError in
// the log; the stream continues.
//
// # Threading
//
// Normalizer has no internal locking. Call Submit only from the
// UI-affinity executor, which serializes host callbacks in arrival order.
package input
