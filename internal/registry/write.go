package registry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	sqlite3 "github.com/mattn/go-sqlite3"

	"github.com/roach88/reshape/shape"
)

// ConflictError reports an attempt to register a name whose normalized
// shape differs from the one already stored under that name.
type ConflictError struct {
	Name         string
	ExistingHash string
	NewHash      string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("shape %q already registered with different structure (stored %s, got %s)",
		e.Name, e.ExistingHash, e.NewHash)
}

// IsConflict reports whether err is a registration conflict.
// Uses errors.As to handle wrapped errors.
func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}

// Put registers a named shape. The shape is normalized, both forms are
// canonically serialized, and the normalized form is hashed for identity.
//
// Idempotent: putting a name that already holds the same normalized hash
// returns the stored entry unchanged. Putting a name with a different
// hash returns a ConflictError.
//
// The conflict lookup, the sequence read, and the insert run in one write
// transaction. Connections open with _txlock=immediate, so the write lock
// is taken at Begin and concurrent writers - including other processes on
// the same database file - serialize instead of racing past the lookup.
//
// Cyclic shapes are rejected: canonical serialization requires a finite
// shape.
func (s *Store) Put(ctx context.Context, name string, src shape.Shape) (*Entry, error) {
	if name == "" {
		return nil, fmt.Errorf("put: name is required")
	}

	sourceJSON, err := shape.MarshalCanonical(src)
	if err != nil {
		return nil, fmt.Errorf("put %q: %w", name, err)
	}

	normal := shape.Normalize(src)
	normalJSON, err := shape.MarshalCanonical(normal)
	if err != nil {
		return nil, fmt.Errorf("put %q: %w", name, err)
	}
	normalHash, err := shape.Hash(normal)
	if err != nil {
		return nil, fmt.Errorf("put %q: %w", name, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("put %q: begin: %w", name, err)
	}
	defer tx.Rollback()

	existing, err := scanEntry(tx.QueryRowContext(ctx, `
		SELECT id, name, source_json, normal_json, normal_hash, seq
		FROM shapes WHERE name = ?
	`, name))
	switch {
	case err == nil:
		if existing.NormalHash == normalHash {
			return existing, nil
		}
		return nil, &ConflictError{
			Name:         name,
			ExistingHash: existing.NormalHash,
			NewHash:      normalHash,
		}
	case !errors.Is(err, ErrNotFound):
		return nil, fmt.Errorf("put %q: %w", name, err)
	}

	var seq sql.NullInt64
	if err := tx.QueryRowContext(ctx, `SELECT MAX(seq) FROM shapes`).Scan(&seq); err != nil {
		return nil, fmt.Errorf("put %q: next seq: %w", name, err)
	}

	entry := &Entry{
		ID:         s.ids.Generate(),
		Name:       name,
		Source:     src,
		Normal:     normal,
		NormalHash: normalHash,
		Seq:        seq.Int64 + 1,
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO shapes (id, name, source_json, normal_json, normal_hash, seq)
		VALUES (?, ?, ?, ?, ?, ?)
	`, entry.ID, entry.Name, string(sourceJSON), string(normalJSON), entry.NormalHash, entry.Seq)
	if err != nil {
		// A writer outside this lock (a connection opened without the
		// immediate txlock) can still land the name first. Surface that
		// as the idempotent/conflict outcome it is, not a raw UNIQUE
		// constraint failure.
		if isUniqueNameViolation(err) {
			tx.Rollback()
			if existing, gerr := s.Get(ctx, name); gerr == nil {
				if existing.NormalHash == normalHash {
					return existing, nil
				}
				return nil, &ConflictError{
					Name:         name,
					ExistingHash: existing.NormalHash,
					NewHash:      normalHash,
				}
			}
		}
		return nil, fmt.Errorf("put %q: %w", name, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("put %q: commit: %w", name, err)
	}
	return entry, nil
}

// isUniqueNameViolation reports whether err is the UNIQUE constraint
// failure on shapes.name.
func isUniqueNameViolation(err error) bool {
	var se sqlite3.Error
	return errors.As(err, &se) &&
		se.ExtendedCode == sqlite3.ErrConstraintUnique &&
		strings.Contains(se.Error(), "shapes.name")
}
