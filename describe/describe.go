// Package describe builds shape descriptors from Go types via reflection.
//
// Descriptors are built once per reflect.Type and cached, so repeated
// description of the same type is a map lookup. Recursive types (a struct
// whose field refers back to the same struct) produce self-referential
// shapes rather than diverging.
package describe

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/roach88/reshape/shape"
)

// cache maps reflect.Type to its finished shape. Safe for concurrent use;
// duplicate builds of the same type race benignly to the same result.
var cache sync.Map

// Of returns the shape descriptor for t.
//
// Kind mapping:
//   - bool, string, integer kinds: the corresponding leaf
//   - float and complex kinds: leaves named "float"/"complex" (present in
//     the shape, never in the default permitted set)
//   - []byte: the "bytes" leaf
//   - slices: Array; fixed-size arrays: Tuple of identical element shapes
//   - map[K]struct{}: Set; other maps: Map
//   - funcs: Func, with variadic parameters as the tuple rest
//   - structs: closed Record (json tags respected, unexported fields
//     skipped); pointers unwrap to their element
//   - interfaces: the "any" leaf for empty interfaces, otherwise an opaque
//     leaf named by the type
//
// Anything else (chan, unsafe.Pointer) falls through to an opaque leaf
// named by the type. That is a deliberate conservative default: records
// nested behind an unmodeled kind are not reached.
func Of(t reflect.Type) (shape.Shape, error) {
	if t == nil {
		return nil, fmt.Errorf("describe: nil type")
	}
	if s, ok := cache.Load(t); ok {
		return s.(shape.Shape), nil
	}

	b := &builder{inflight: make(map[reflect.Type]shape.Shape)}
	s, err := b.build(t)
	if err != nil {
		return nil, err
	}
	cache.Store(t, s)
	return s, nil
}

// ValueOf returns the shape descriptor for v's dynamic type.
func ValueOf(v any) (shape.Shape, error) {
	if v == nil {
		return nil, fmt.Errorf("describe: nil value has no type")
	}
	return Of(reflect.TypeOf(v))
}

type builder struct {
	// inflight holds partially built nodes for types currently on the
	// build path, so recursive types resolve to the in-progress node.
	inflight map[reflect.Type]shape.Shape
}

func (b *builder) build(t reflect.Type) (shape.Shape, error) {
	if s, ok := cache.Load(t); ok {
		return s.(shape.Shape), nil
	}
	if s, ok := b.inflight[t]; ok {
		return s, nil
	}

	switch t.Kind() {
	case reflect.Bool:
		return shape.Bool, nil

	case reflect.String:
		return shape.String, nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Uintptr:
		return shape.Int, nil

	case reflect.Float32, reflect.Float64:
		return &shape.Leaf{Kind: "float"}, nil

	case reflect.Complex64, reflect.Complex128:
		return &shape.Leaf{Kind: "complex"}, nil

	case reflect.Pointer:
		return b.build(t.Elem())

	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			return shape.Bytes, nil
		}
		out := &shape.Array{}
		b.inflight[t] = out
		defer delete(b.inflight, t)
		elem, err := b.build(t.Elem())
		if err != nil {
			return nil, err
		}
		out.Elem = elem
		return out, nil

	case reflect.Array:
		out := &shape.Tuple{}
		b.inflight[t] = out
		defer delete(b.inflight, t)
		elem, err := b.build(t.Elem())
		if err != nil {
			return nil, err
		}
		out.Elems = make([]shape.Shape, t.Len())
		for i := range out.Elems {
			out.Elems[i] = elem
		}
		return out, nil

	case reflect.Map:
		if isSetValue(t.Elem()) {
			out := &shape.Set{}
			b.inflight[t] = out
			defer delete(b.inflight, t)
			elem, err := b.build(t.Key())
			if err != nil {
				return nil, err
			}
			out.Elem = elem
			return out, nil
		}
		out := &shape.Map{}
		b.inflight[t] = out
		defer delete(b.inflight, t)
		key, err := b.build(t.Key())
		if err != nil {
			return nil, err
		}
		value, err := b.build(t.Elem())
		if err != nil {
			return nil, err
		}
		out.Key, out.Value = key, value
		return out, nil

	case reflect.Func:
		return b.buildFunc(t)

	case reflect.Struct:
		return b.buildStruct(t)

	case reflect.Interface:
		if t.NumMethod() == 0 {
			return shape.Any, nil
		}
		return &shape.Leaf{Kind: t.String()}, nil

	default:
		return &shape.Leaf{Kind: t.String()}, nil
	}
}

func (b *builder) buildFunc(t reflect.Type) (shape.Shape, error) {
	out := &shape.Func{}
	b.inflight[t] = out
	defer delete(b.inflight, t)

	params := &shape.Tuple{}
	fixed := t.NumIn()
	if t.IsVariadic() {
		fixed--
		rest, err := b.build(t.In(fixed).Elem())
		if err != nil {
			return nil, err
		}
		params.Rest = rest
	}
	if fixed > 0 {
		params.Elems = make([]shape.Shape, fixed)
		for i := 0; i < fixed; i++ {
			p, err := b.build(t.In(i))
			if err != nil {
				return nil, err
			}
			params.Elems[i] = p
		}
	}
	out.Params = params

	switch t.NumOut() {
	case 0:
		// no result
	case 1:
		result, err := b.build(t.Out(0))
		if err != nil {
			return nil, err
		}
		out.Result = result
	default:
		results := &shape.Tuple{Elems: make([]shape.Shape, t.NumOut())}
		for i := 0; i < t.NumOut(); i++ {
			r, err := b.build(t.Out(i))
			if err != nil {
				return nil, err
			}
			results.Elems[i] = r
		}
		out.Result = results
	}
	return out, nil
}

func (b *builder) buildStruct(t reflect.Type) (shape.Shape, error) {
	out := &shape.Record{Fields: make(map[string]shape.Shape)}
	b.inflight[t] = out
	defer delete(b.inflight, t)

	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name := fieldName(f)
		if name == "" {
			continue
		}
		fs, err := b.build(f.Type)
		if err != nil {
			return nil, fmt.Errorf("field %s.%s: %w", t, f.Name, err)
		}
		out.Fields[name] = fs
	}
	return out, nil
}

// fieldName resolves a struct field's record key from its json tag, or
// falls back to the Go field name. Returns "" for fields tagged "-".
func fieldName(f reflect.StructField) string {
	tag, ok := f.Tag.Lookup("json")
	if !ok {
		return f.Name
	}
	name, _, _ := strings.Cut(tag, ",")
	if name == "-" {
		return ""
	}
	if name == "" {
		return f.Name
	}
	return name
}

// isSetValue reports whether a map value type marks the map as a set.
// The conventional Go set is map[K]struct{}.
func isSetValue(t reflect.Type) bool {
	return t.Kind() == reflect.Struct && t.NumField() == 0
}
