package shape

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnmarshalShapeRoundTrip(t *testing.T) {
	shapes := []Shape{
		String,
		&Leaf{Kind: "time.Time"},
		NewTuple(),
		NewTuple(String, Int),
		&Tuple{Elems: []Shape{Bool}, Rest: Int},
		&Array{Elem: String},
		&Map{Key: String, Value: &Set{Elem: Int}},
		&Func{},
		&Func{Params: NewTuple(String), Result: Bool},
		&Func{Params: &Tuple{Rest: Any}},
		NewRecord(nil),
		NewOpenRecord(map[string]Shape{
			"title": String,
			"inner": NewRecord(map[string]Shape{"n": Int}),
		}),
	}

	for _, s := range shapes {
		data, err := MarshalCanonical(s)
		require.NoError(t, err)

		decoded, err := UnmarshalShape(data)
		require.NoError(t, err, "input: %s", data)
		assert.True(t, Equal(s, decoded), "round trip changed %s", data)

		// Decoding canonical output re-encodes to identical bytes.
		again, err := MarshalCanonical(decoded)
		require.NoError(t, err)
		assert.Equal(t, string(data), string(again))
	}
}

func TestUnmarshalShapeNonCanonicalInput(t *testing.T) {
	// Key order and whitespace are free on input.
	decoded, err := UnmarshalShape([]byte(`{
		"shape": "record",
		"open": true,
		"fields": {"a": {"shape": "leaf", "kind": "string"}}
	}`))
	require.NoError(t, err)

	assert.True(t, Equal(NewOpenRecord(map[string]Shape{"a": String}), decoded))
}

func TestUnmarshalShapeErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"not json", `{`},
		{"missing discriminator", `{"kind":"string"}`},
		{"unknown discriminator", `{"shape":"union"}`},
		{"array without elem", `{"shape":"array"}`},
		{"map without value", `{"shape":"map","key":{"shape":"leaf","kind":"string"}}`},
		{"bad nested field", `{"shape":"record","fields":{"a":{"shape":"wat"}}}`},
		{"func params not tuple", `{"shape":"func","params":{"shape":"leaf","kind":"string"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := UnmarshalShape([]byte(tt.input))
			assert.Error(t, err)
		})
	}
}
