package shape

import (
	"encoding/json"
	"fmt"
)

// UnmarshalShape decodes the JSON encoding produced by MarshalCanonical
// back into a shape tree. The input need not be canonical (key order and
// whitespace are free), but the "shape" discriminator is required on every
// node and unknown discriminators are rejected.
func UnmarshalShape(data []byte) (Shape, error) {
	var raw rawShape
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	return raw.decode()
}

// rawShape is the wire form of a single node. Exactly the fields for the
// node's discriminator are read; the rest stay nil.
type rawShape struct {
	Shape  string                 `json:"shape"`
	Kind   string                 `json:"kind"`
	Elems  []rawShape             `json:"elems"`
	Rest   *rawShape              `json:"rest"`
	Elem   *rawShape              `json:"elem"`
	Key    *rawShape              `json:"key"`
	Value  *rawShape              `json:"value"`
	Params *rawShape              `json:"params"`
	Result *rawShape              `json:"result"`
	Fields map[string]json.RawMessage `json:"fields"`
	Open   bool                   `json:"open"`
}

func (r *rawShape) decode() (Shape, error) {
	switch r.Shape {
	case "leaf":
		return &Leaf{Kind: r.Kind}, nil

	case "tuple":
		return r.decodeTuple()

	case "array":
		elem, err := decodeChild(r.Elem, "array elem")
		if err != nil {
			return nil, err
		}
		return &Array{Elem: elem}, nil

	case "map":
		key, err := decodeChild(r.Key, "map key")
		if err != nil {
			return nil, err
		}
		value, err := decodeChild(r.Value, "map value")
		if err != nil {
			return nil, err
		}
		return &Map{Key: key, Value: value}, nil

	case "set":
		elem, err := decodeChild(r.Elem, "set elem")
		if err != nil {
			return nil, err
		}
		return &Set{Elem: elem}, nil

	case "func":
		fn := &Func{}
		if r.Params != nil {
			params, err := r.Params.decodeTuple()
			if err != nil {
				return nil, fmt.Errorf("func params: %w", err)
			}
			fn.Params = params
		}
		if r.Result != nil {
			result, err := r.Result.decode()
			if err != nil {
				return nil, fmt.Errorf("func result: %w", err)
			}
			fn.Result = result
		}
		return fn, nil

	case "record":
		rec := &Record{
			Fields: make(map[string]Shape, len(r.Fields)),
			Open:   r.Open,
		}
		for k, fieldData := range r.Fields {
			field, err := UnmarshalShape(fieldData)
			if err != nil {
				return nil, fmt.Errorf("record field %q: %w", k, err)
			}
			rec.Fields[k] = field
		}
		return rec, nil

	case "":
		return nil, fmt.Errorf("missing shape discriminator")

	default:
		return nil, fmt.Errorf("unknown shape discriminator %q", r.Shape)
	}
}

func (r *rawShape) decodeTuple() (*Tuple, error) {
	if r.Shape != "tuple" {
		return nil, fmt.Errorf("expected tuple, got %q", r.Shape)
	}
	t := &Tuple{Elems: make([]Shape, len(r.Elems))}
	for i := range r.Elems {
		elem, err := r.Elems[i].decode()
		if err != nil {
			return nil, fmt.Errorf("tuple[%d]: %w", i, err)
		}
		t.Elems[i] = elem
	}
	if r.Rest != nil {
		rest, err := r.Rest.decode()
		if err != nil {
			return nil, fmt.Errorf("tuple rest: %w", err)
		}
		t.Rest = rest
	}
	return t, nil
}

func decodeChild(r *rawShape, what string) (Shape, error) {
	if r == nil {
		return nil, fmt.Errorf("%s is required", what)
	}
	s, err := r.decode()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", what, err)
	}
	return s, nil
}
