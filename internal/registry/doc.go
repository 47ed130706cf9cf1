// Package registry persists normalized shapes in SQLite.
//
// Each entry records a named shape as declared (source form), its
// normalized form, and the content-addressed hash of the normalized form.
// Writes are idempotent: re-putting a name with the same normalized hash
// is a no-op, while putting a name with a different hash is a conflict.
//
// Entries carry a logical sequence number, never wall-clock timestamps,
// so listings are deterministic and replayable.
package registry
