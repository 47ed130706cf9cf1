package registry

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/reshape/shape"
)

func testStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(filepath.Join(t.TempDir(), "test.db"),
		WithIDGenerator(NewFixedGenerator("id-1", "id-2", "id-3", "id-4")))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func entryShape() shape.Shape {
	return shape.NewOpenRecord(map[string]shape.Shape{
		"title": shape.String,
		"count": shape.Int,
	})
}

func TestPutAndGet(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	entry, err := store.Put(ctx, "Entry", entryShape())
	require.NoError(t, err)

	assert.Equal(t, "id-1", entry.ID)
	assert.Equal(t, "Entry", entry.Name)
	assert.Equal(t, int64(1), entry.Seq)
	assert.Len(t, entry.NormalHash, 64)

	// The source keeps the open declaration form, the normal form is closed.
	assert.True(t, entry.Source.(*shape.Record).Open)
	assert.False(t, entry.Normal.(*shape.Record).Open)

	got, err := store.Get(ctx, "Entry")
	require.NoError(t, err)
	assert.Equal(t, entry.ID, got.ID)
	assert.True(t, shape.Equal(entry.Source, got.Source))
	assert.True(t, shape.Equal(entry.Normal, got.Normal))
	assert.Equal(t, entry.NormalHash, got.NormalHash)
}

func TestPutIdempotent(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	first, err := store.Put(ctx, "Entry", entryShape())
	require.NoError(t, err)

	// Re-putting the same name with the same normalized structure returns
	// the stored entry; no new ID is consumed.
	second, err := store.Put(ctx, "Entry", entryShape())
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.Seq, second.Seq)

	// The closed form of the same record normalizes identically, so it is
	// also accepted.
	closed := shape.NewRecord(map[string]shape.Shape{
		"title": shape.String,
		"count": shape.Int,
	})
	third, err := store.Put(ctx, "Entry", closed)
	require.NoError(t, err)
	assert.Equal(t, first.ID, third.ID)
}

func TestPutConflict(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	_, err := store.Put(ctx, "Entry", entryShape())
	require.NoError(t, err)

	_, err = store.Put(ctx, "Entry", shape.NewRecord(map[string]shape.Shape{
		"title": shape.String,
	}))
	require.Error(t, err)
	assert.True(t, IsConflict(err))

	var ce *ConflictError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "Entry", ce.Name)
	assert.NotEqual(t, ce.ExistingHash, ce.NewHash)
}

func TestPutValidation(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	_, err := store.Put(ctx, "", shape.String)
	assert.Error(t, err)

	// Cyclic shapes have no finite canonical form.
	node := shape.NewRecord(map[string]shape.Shape{"value": shape.String})
	node.Fields["next"] = node
	_, err = store.Put(ctx, "Node", node)
	assert.Error(t, err)
	assert.False(t, IsConflict(err))
}

func TestGetNotFound(t *testing.T) {
	store := testStore(t)

	_, err := store.Get(context.Background(), "absent")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetByHash(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	entry, err := store.Put(ctx, "Entry", entryShape())
	require.NoError(t, err)

	// A second name with the same normalized structure; the earliest
	// registration wins the hash lookup.
	_, err = store.Put(ctx, "EntryAlias", entryShape())
	require.NoError(t, err)

	got, err := store.GetByHash(ctx, entry.NormalHash)
	require.NoError(t, err)
	assert.Equal(t, "Entry", got.Name)

	_, err = store.GetByHash(ctx, "deadbeef")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListOrder(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	names := []string{"Charlie", "Alpha", "Bravo"}
	for _, name := range names {
		_, err := store.Put(ctx, name, shape.NewRecord(map[string]shape.Shape{
			"name": shape.String,
		}))
		require.NoError(t, err)
	}

	entries, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	// Logical insertion order, not name order.
	for i, name := range names {
		assert.Equal(t, name, entries[i].Name)
		assert.Equal(t, int64(i+1), entries[i].Seq)
	}
}

func TestListEmpty(t *testing.T) {
	store := testStore(t)

	entries, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestPutConcurrentDistinctNames(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer store.Close()
	ctx := context.Background()

	names := []string{"A", "B", "C", "D", "E", "F", "G", "H"}
	errs := make([]error, len(names))

	var wg sync.WaitGroup
	for i, name := range names {
		i, name := i, name
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = store.Put(ctx, name, entryShape())
		}()
	}
	wg.Wait()

	for i, err := range errs {
		require.NoError(t, err, "put %s", names[i])
	}

	entries, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, len(names))

	// Sequence numbers are allocated inside the write transaction, so
	// concurrent writers never collide.
	seen := make(map[int64]bool, len(entries))
	for _, e := range entries {
		assert.False(t, seen[e.Seq], "duplicate seq %d", e.Seq)
		seen[e.Seq] = true
	}
}

func TestPutConcurrentSameName(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer store.Close()
	ctx := context.Background()

	const writers = 8
	errs := make([]error, writers)

	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = store.Put(ctx, "Entry", shape.NewRecord(map[string]shape.Shape{
				fmt.Sprintf("field%d", i): shape.String,
			}))
		}()
	}
	wg.Wait()

	// The structures all differ, so exactly one writer lands the name;
	// every loser sees a conflict, never a raw constraint failure.
	var ok, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case IsConflict(err):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, writers-1, conflicts)

	entries, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestOpenIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	first, err := Open(path)
	require.NoError(t, err)

	_, err = first.Put(context.Background(), "Entry", entryShape())
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := Open(path)
	require.NoError(t, err)
	defer second.Close()

	got, err := second.Get(context.Background(), "Entry")
	require.NoError(t, err)
	assert.Equal(t, "Entry", got.Name)
}

func TestFixedGenerator(t *testing.T) {
	g := NewFixedGenerator("a", "b")
	assert.Equal(t, "a", g.Generate())
	assert.Equal(t, "b", g.Generate())
	assert.Panics(t, func() { g.Generate() })
}

func TestUUIDv7Generator(t *testing.T) {
	g := UUIDv7Generator{}
	first := g.Generate()
	second := g.Generate()
	assert.Len(t, first, 36)
	assert.NotEqual(t, first, second)
}
