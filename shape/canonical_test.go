package shape

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonicalVariants(t *testing.T) {
	tests := []struct {
		name     string
		input    Shape
		expected string
	}{
		{
			"leaf",
			String,
			`{"kind":"string","shape":"leaf"}`,
		},
		{
			"empty tuple",
			NewTuple(),
			`{"elems":[],"shape":"tuple"}`,
		},
		{
			"tuple",
			NewTuple(String, Int),
			`{"elems":[{"kind":"string","shape":"leaf"},{"kind":"int","shape":"leaf"}],"shape":"tuple"}`,
		},
		{
			"variadic tuple",
			&Tuple{Rest: Int},
			`{"elems":[],"rest":{"kind":"int","shape":"leaf"},"shape":"tuple"}`,
		},
		{
			"array",
			&Array{Elem: String},
			`{"elem":{"kind":"string","shape":"leaf"},"shape":"array"}`,
		},
		{
			"map",
			&Map{Key: String, Value: Int},
			`{"key":{"kind":"string","shape":"leaf"},"shape":"map","value":{"kind":"int","shape":"leaf"}}`,
		},
		{
			"set",
			&Set{Elem: Int},
			`{"elem":{"kind":"int","shape":"leaf"},"shape":"set"}`,
		},
		{
			"bare func",
			&Func{},
			`{"shape":"func"}`,
		},
		{
			"func",
			&Func{Params: NewTuple(String), Result: Bool},
			`{"params":{"elems":[{"kind":"string","shape":"leaf"}],"shape":"tuple"},"result":{"kind":"bool","shape":"leaf"},"shape":"func"}`,
		},
		{
			"closed record",
			NewRecord(map[string]Shape{"a": Int}),
			`{"fields":{"a":{"kind":"int","shape":"leaf"}},"open":false,"shape":"record"}`,
		},
		{
			"open record",
			NewOpenRecord(map[string]Shape{"a": Int}),
			`{"fields":{"a":{"kind":"int","shape":"leaf"}},"open":true,"shape":"record"}`,
		},
		{
			"empty record",
			NewRecord(nil),
			`{"fields":{},"open":false,"shape":"record"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := MarshalCanonical(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(result))
		})
	}
}

func TestMarshalCanonicalSortedFields(t *testing.T) {
	rec := NewRecord(map[string]Shape{
		"zebra": Int,
		"alpha": Int,
		"beta":  Int,
	})

	result, err := MarshalCanonical(rec)
	require.NoError(t, err)
	assert.Equal(t,
		`{"fields":{"alpha":{"kind":"int","shape":"leaf"},"beta":{"kind":"int","shape":"leaf"},"zebra":{"kind":"int","shape":"leaf"}},"open":false,"shape":"record"}`,
		string(result))
}

func TestMarshalCanonicalUTF16Ordering(t *testing.T) {
	// U+E000 vs U+10000 - UTF-16 order differs from UTF-8.
	// 𐀀 encodes as the surrogate pair 0xD800 0xDC00, which sorts before
	// 0xE000 in UTF-16 but after it in UTF-8 bytes.
	rec := NewRecord(map[string]Shape{
		"\uE000": Int,
		"𐀀":      Int,
	})

	result, err := MarshalCanonical(rec)
	require.NoError(t, err)

	expected := `{"fields":{"𐀀":{"kind":"int","shape":"leaf"},"` + "\uE000" + `":{"kind":"int","shape":"leaf"}},"open":false,"shape":"record"}`
	assert.Equal(t, expected, string(result))
}

func TestMarshalCanonicalNFC(t *testing.T) {
	// "e" followed by COMBINING ACUTE ACCENT normalizes to precomposed é.
	decomposed := &Leaf{Kind: "café"}

	result, err := MarshalCanonical(decomposed)
	require.NoError(t, err)
	assert.Equal(t, `{"kind":"café","shape":"leaf"}`, string(result))
}

func TestMarshalCanonicalNoHTMLEscape(t *testing.T) {
	leaf := &Leaf{Kind: "<script> & </script>"}

	result, err := MarshalCanonical(leaf)
	require.NoError(t, err)
	assert.Equal(t, `{"kind":"<script> & </script>","shape":"leaf"}`, string(result))
	assert.NotContains(t, string(result), `\u003c`)
	assert.NotContains(t, string(result), `\u0026`)
}

func TestMarshalCanonicalEscapes(t *testing.T) {
	leaf := &Leaf{Kind: "a\"b\\c\nd"}

	result, err := MarshalCanonical(leaf)
	require.NoError(t, err)
	assert.Equal(t, `{"kind":"a\"b\\c\nd","shape":"leaf"}`, string(result))
}

func TestMarshalCanonicalCyclicError(t *testing.T) {
	rec := NewRecord(map[string]Shape{"value": String})
	rec.Fields["next"] = rec

	_, err := MarshalCanonical(rec)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cyclic")
}

func TestMarshalCanonicalNilError(t *testing.T) {
	_, err := MarshalCanonical(nil)
	require.Error(t, err)

	_, err = MarshalCanonical(&Array{})
	require.Error(t, err)
}

func TestMarshalCanonicalSharedSubtreeIsNotCyclic(t *testing.T) {
	shared := NewRecord(map[string]Shape{"x": Int})
	rec := NewRecord(map[string]Shape{
		"first":  shared,
		"second": shared,
	})

	// A DAG revisits nodes across sibling paths; only revisits on the
	// same path are cycles.
	_, err := MarshalCanonical(rec)
	require.NoError(t, err)
}
