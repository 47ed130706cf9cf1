// Package shape provides structural descriptors for types and the
// normalization that rewrites them into uniformly closed form.
//
// A Shape describes the structure of a type: its leaves, sequences,
// containers, callables, and keyed records. Shapes are the foundational
// layer of this module: every other package imports shape; shape imports
// nothing internal.
//
// The central operation is Normalize, which rebuilds a shape so that every
// record at every nesting depth is closed. Records parsed from schema
// sources may be open (their members contributed by multiple declarations);
// downstream structural checks refuse to index into open records, so a
// direct check against a recursively-indexed constraint fails with a
// missing-index diagnostic even when the members are fine. Normalize erases
// the open/closed distinction while preserving the member structure exactly,
// letting the same check succeed or fail on the real content.
//
// Key design constraints:
//   - Shapes are immutable once built; Normalize allocates fresh nodes
//   - Normalize memoizes by node identity, so self-referential shapes
//     terminate and shared subtrees stay shared
//   - Canonical serialization follows RFC 8785 (NFC strings, UTF-16 key
//     order, no HTML escaping) for content-addressed identity
package shape
