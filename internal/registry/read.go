package registry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/reshape/shape"
)

// ErrNotFound is returned when no entry matches the lookup.
var ErrNotFound = errors.New("registry: shape not found")

// Entry is a stored shape registration.
type Entry struct {
	ID         string
	Name       string
	Source     shape.Shape
	Normal     shape.Shape
	NormalHash string
	Seq        int64
}

// Get returns the entry registered under name, or ErrNotFound.
func (s *Store) Get(ctx context.Context, name string) (*Entry, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, source_json, normal_json, normal_hash, seq
		FROM shapes WHERE name = ?
	`, name)
	return scanEntry(row)
}

// GetByHash returns the first entry (by seq) whose normalized hash
// matches, or ErrNotFound. Several names may share one normalized
// structure; the earliest registration wins.
func (s *Store) GetByHash(ctx context.Context, normalHash string) (*Entry, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, source_json, normal_json, normal_hash, seq
		FROM shapes WHERE normal_hash = ? ORDER BY seq LIMIT 1
	`, normalHash)
	return scanEntry(row)
}

// List returns all entries in logical insertion order.
func (s *Store) List(ctx context.Context) ([]*Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, source_json, normal_json, normal_hash, seq
		FROM shapes ORDER BY seq
	`)
	if err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}
	return entries, nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*Entry, error) {
	var entry Entry
	var sourceJSON, normalJSON string

	err := row.Scan(&entry.ID, &entry.Name, &sourceJSON, &normalJSON, &entry.NormalHash, &entry.Seq)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan entry: %w", err)
	}

	entry.Source, err = shape.UnmarshalShape([]byte(sourceJSON))
	if err != nil {
		return nil, fmt.Errorf("entry %q: decode source: %w", entry.Name, err)
	}
	entry.Normal, err = shape.UnmarshalShape([]byte(normalJSON))
	if err != nil {
		return nil, fmt.Errorf("entry %q: decode normal: %w", entry.Name, err)
	}
	return &entry, nil
}
