package shape

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashStable(t *testing.T) {
	rec := NewRecord(map[string]Shape{"a": String, "b": Int})

	h1, err := Hash(rec)
	require.NoError(t, err)
	h2, err := Hash(rec)
	require.NoError(t, err)

	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 64) // hex sha256
}

func TestHashEqualShapesHashEqual(t *testing.T) {
	a := NewRecord(map[string]Shape{"x": &Array{Elem: Int}})
	b := NewRecord(map[string]Shape{"x": &Array{Elem: &Leaf{Kind: "int"}}})

	require.True(t, Equal(a, b))
	assert.Equal(t, MustHash(a), MustHash(b))
}

func TestHashDistinguishes(t *testing.T) {
	closed := NewRecord(map[string]Shape{"a": String})
	open := NewOpenRecord(map[string]Shape{"a": String})
	other := NewRecord(map[string]Shape{"a": Int})

	assert.NotEqual(t, MustHash(closed), MustHash(open),
		"openness is part of identity")
	assert.NotEqual(t, MustHash(closed), MustHash(other))
	assert.NotEqual(t, MustHash(&Array{Elem: Int}), MustHash(&Set{Elem: Int}),
		"variant is part of identity")
}

func TestHashNormalizationChangesOpenOnly(t *testing.T) {
	closed := NewRecord(map[string]Shape{"a": String})
	open := NewOpenRecord(map[string]Shape{"a": String})

	// Normalizing the closed record is identity up to structure, so the
	// hash is unchanged; normalizing the open record closes it, landing
	// on the same hash.
	assert.Equal(t, MustHash(closed), MustHash(Normalize(closed)))
	assert.Equal(t, MustHash(closed), MustHash(Normalize(open)))
}

func TestHashCyclicError(t *testing.T) {
	rec := NewRecord(map[string]Shape{"v": String})
	rec.Fields["next"] = rec

	_, err := Hash(rec)
	require.Error(t, err)
}
