package shape

import (
	"fmt"
	"slices"
	"unicode/utf16"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// MarshalCanonical produces RFC 8785 canonical JSON for a shape.
// CRITICAL: This is the ONLY serialization that should be used for
// content-addressed identity computation.
//
// Key differences from standard json.Marshal:
//  1. Record field names sorted by UTF-16 code units (not UTF-8 bytes)
//  2. No HTML escaping (< > & are NOT escaped)
//  3. Strings are NFC normalized
//  4. Optional children (rest, params, result) are omitted when nil,
//     so there is exactly one encoding per shape
//
// Cyclic shapes return an error: canonical form requires a finite tree.
// Use Normalize first if aliasing should be preserved elsewhere; identity
// is only defined for finite shapes.
func MarshalCanonical(s Shape) ([]byte, error) {
	enc := canonicalEncoder{active: make(map[Shape]bool)}
	return enc.append(nil, s)
}

type canonicalEncoder struct {
	// active holds the nodes currently being encoded on this path.
	// Revisiting one means the shape is cyclic.
	active map[Shape]bool
}

func (e canonicalEncoder) append(dst []byte, s Shape) ([]byte, error) {
	if s == nil {
		return nil, fmt.Errorf("nil shape has no canonical form")
	}
	if e.active[s] {
		return nil, fmt.Errorf("cyclic shape has no canonical form")
	}
	e.active[s] = true
	defer delete(e.active, s)

	var err error
	switch v := s.(type) {
	case *Leaf:
		dst = append(dst, `{"kind":`...)
		dst = appendCanonicalString(dst, v.Kind)
		dst = append(dst, `,"shape":"leaf"}`...)
		return dst, nil

	case *Tuple:
		dst = append(dst, `{"elems":[`...)
		for i, elem := range v.Elems {
			if i > 0 {
				dst = append(dst, ',')
			}
			dst, err = e.append(dst, elem)
			if err != nil {
				return nil, fmt.Errorf("tuple[%d]: %w", i, err)
			}
		}
		dst = append(dst, ']')
		if v.Rest != nil {
			dst = append(dst, `,"rest":`...)
			dst, err = e.append(dst, v.Rest)
			if err != nil {
				return nil, fmt.Errorf("tuple rest: %w", err)
			}
		}
		dst = append(dst, `,"shape":"tuple"}`...)
		return dst, nil

	case *Array:
		dst = append(dst, `{"elem":`...)
		dst, err = e.append(dst, v.Elem)
		if err != nil {
			return nil, fmt.Errorf("array elem: %w", err)
		}
		dst = append(dst, `,"shape":"array"}`...)
		return dst, nil

	case *Map:
		dst = append(dst, `{"key":`...)
		dst, err = e.append(dst, v.Key)
		if err != nil {
			return nil, fmt.Errorf("map key: %w", err)
		}
		dst = append(dst, `,"shape":"map","value":`...)
		dst, err = e.append(dst, v.Value)
		if err != nil {
			return nil, fmt.Errorf("map value: %w", err)
		}
		dst = append(dst, '}')
		return dst, nil

	case *Set:
		dst = append(dst, `{"elem":`...)
		dst, err = e.append(dst, v.Elem)
		if err != nil {
			return nil, fmt.Errorf("set elem: %w", err)
		}
		dst = append(dst, `,"shape":"set"}`...)
		return dst, nil

	case *Func:
		dst = append(dst, '{')
		if v.Params != nil {
			dst = append(dst, `"params":`...)
			dst, err = e.append(dst, v.Params)
			if err != nil {
				return nil, fmt.Errorf("func params: %w", err)
			}
			dst = append(dst, ',')
		}
		if v.Result != nil {
			dst = append(dst, `"result":`...)
			dst, err = e.append(dst, v.Result)
			if err != nil {
				return nil, fmt.Errorf("func result: %w", err)
			}
			dst = append(dst, ',')
		}
		dst = append(dst, `"shape":"func"}`...)
		return dst, nil

	case *Record:
		dst = append(dst, `{"fields":{`...)
		for i, k := range sortedFieldNames(v.Fields) {
			if i > 0 {
				dst = append(dst, ',')
			}
			dst = appendCanonicalString(dst, k)
			dst = append(dst, ':')
			dst, err = e.append(dst, v.Fields[k])
			if err != nil {
				return nil, fmt.Errorf("record field %q: %w", k, err)
			}
		}
		dst = append(dst, `},"open":`...)
		if v.Open {
			dst = append(dst, "true"...)
		} else {
			dst = append(dst, "false"...)
		}
		dst = append(dst, `,"shape":"record"}`...)
		return dst, nil

	default:
		return nil, fmt.Errorf("unsupported shape type: %T", s)
	}
}

// sortedFieldNames returns field names in RFC 8785 canonical order
// (UTF-16 code units). Go's sort.Strings uses UTF-8 bytes, which
// produces a DIFFERENT order for keys outside the BMP.
func sortedFieldNames(fields map[string]Shape) []string {
	names := make([]string, 0, len(fields))
	for k := range fields {
		names = append(names, k)
	}
	slices.SortFunc(names, compareUTF16)
	return names
}

// compareUTF16 compares strings by UTF-16 code units as required by
// RFC 8785. Surrogate pairs must be compared unit by unit, so both
// strings are encoded before comparison.
func compareUTF16(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))

	n := min(len(a16), len(b16))
	for i := 0; i < n; i++ {
		if a16[i] != b16[i] {
			if a16[i] < b16[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a16) < len(b16):
		return -1
	case len(a16) > len(b16):
		return 1
	}
	return 0
}

// appendCanonicalString appends a canonical JSON string: NFC normalized,
// with only control characters, backslash, and quote escaped. HTML
// characters and U+2028/U+2029 are emitted raw per RFC 8785.
func appendCanonicalString(dst []byte, s string) []byte {
	s = norm.NFC.String(s)

	dst = append(dst, '"')
	for _, r := range s {
		switch r {
		case '"':
			dst = append(dst, '\\', '"')
		case '\\':
			dst = append(dst, '\\', '\\')
		case '\b':
			dst = append(dst, '\\', 'b')
		case '\f':
			dst = append(dst, '\\', 'f')
		case '\n':
			dst = append(dst, '\\', 'n')
		case '\r':
			dst = append(dst, '\\', 'r')
		case '\t':
			dst = append(dst, '\\', 't')
		default:
			if r < 0x20 {
				dst = append(dst, fmt.Sprintf(`\u%04x`, r)...)
			} else {
				dst = utf8.AppendRune(dst, r)
			}
		}
	}
	return append(dst, '"')
}
