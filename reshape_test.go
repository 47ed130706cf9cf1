package reshape

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/reshape/constraint"
	"github.com/roach88/reshape/shape"
)

// Relabel must be observably identity: same contents and, for reference
// types, the same identity.
func TestRelabelIdentity(t *testing.T) {
	t.Run("map aliasing", func(t *testing.T) {
		m := map[string]int{"a": 1}
		out := Relabel(m)

		out["b"] = 2
		assert.Equal(t, 2, m["b"], "relabeled map aliases the input")
	})

	t.Run("slice aliasing", func(t *testing.T) {
		s := []int{1, 2, 3}
		out := Relabel(s)

		out[0] = 99
		assert.Equal(t, 99, s[0])
	})

	t.Run("pointer identity", func(t *testing.T) {
		v := &struct{ X int }{X: 1}
		assert.Same(t, v, Relabel(v))
	})

	t.Run("value equality", func(t *testing.T) {
		type entry struct{ Title string }
		v := entry{Title: "hello"}
		assert.Equal(t, v, Relabel(v))
	})
}

func TestDescribe(t *testing.T) {
	type entry struct {
		Title string `json:"title"`
	}

	s, err := Describe(entry{})
	require.NoError(t, err)

	want := shape.NewRecord(map[string]shape.Shape{"title": shape.String})
	assert.True(t, shape.Equal(want, s))
}

func TestNormalized(t *testing.T) {
	type entry struct {
		Title string   `json:"title"`
		Tags  []string `json:"tags"`
	}

	s, err := Normalized(entry{})
	require.NoError(t, err)

	normal, err := Normalized(entry{})
	require.NoError(t, err)
	assert.True(t, shape.Equal(s, normal))
	assert.True(t, shape.Equal(s, shape.Normalize(s)), "already normalized")

	assert.Empty(t, constraint.DefaultChecker().Check(s))
}

func TestNormalizedNil(t *testing.T) {
	_, err := Normalized(nil)
	assert.Error(t, err)
}
