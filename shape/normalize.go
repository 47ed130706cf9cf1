package shape

// Normalize rebuilds s so that every record at every nesting depth is
// closed, while the member structure is preserved exactly:
//
//   - a Leaf normalizes to itself
//   - a Tuple of length n normalizes to a Tuple of length n with
//     positionally corresponding normalized elements
//   - Array, Map, Set, and Func normalize to the same constructor applied
//     to their normalized children
//   - a Record normalizes to a fresh closed Record with exactly the same
//     key set, each member recursively normalized
//
// The container cases exist only so recursion reaches into composites that
// are not themselves records; the Record case is where the open/closed
// distinction is erased. Because the output record is always synthesized
// fresh and closed, Normalize is idempotent.
//
// Normalize memoizes by node identity: self-referential shapes (a record
// whose member refers back to the same record) terminate and produce an
// output with the same aliasing structure. Nil children stay nil. Shapes
// outside the variants of this package pass through unchanged.
func Normalize(s Shape) Shape {
	n := normalizer{memo: make(map[Shape]Shape)}
	return n.walk(s)
}

type normalizer struct {
	// memo maps input nodes to output nodes by identity. Entries are
	// recorded before children are walked so cycles resolve to the
	// in-progress output node instead of recursing forever.
	memo map[Shape]Shape
}

func (n normalizer) walk(s Shape) Shape {
	if s == nil {
		return nil
	}
	if out, ok := n.memo[s]; ok {
		return out
	}

	switch v := s.(type) {
	case *Leaf:
		n.memo[s] = v
		return v

	case *Tuple:
		out := &Tuple{}
		n.memo[s] = out
		if v.Elems != nil {
			out.Elems = make([]Shape, len(v.Elems))
			for i, e := range v.Elems {
				out.Elems[i] = n.walk(e)
			}
		}
		out.Rest = n.walk(v.Rest)
		return out

	case *Array:
		out := &Array{}
		n.memo[s] = out
		out.Elem = n.walk(v.Elem)
		return out

	case *Map:
		out := &Map{}
		n.memo[s] = out
		out.Key = n.walk(v.Key)
		out.Value = n.walk(v.Value)
		return out

	case *Set:
		out := &Set{}
		n.memo[s] = out
		out.Elem = n.walk(v.Elem)
		return out

	case *Func:
		out := &Func{}
		n.memo[s] = out
		if v.Params != nil {
			out.Params = n.walk(v.Params).(*Tuple)
		}
		out.Result = n.walk(v.Result)
		return out

	case *Record:
		// Always synthesized fresh and closed, whatever the input form.
		out := &Record{Fields: make(map[string]Shape, len(v.Fields))}
		n.memo[s] = out
		for k, f := range v.Fields {
			out.Fields[k] = n.walk(f)
		}
		return out

	default:
		// Unmodeled shapes pass through unchanged. Conservative default:
		// open records nested inside an unmodeled wrapper are not reached.
		n.memo[s] = s
		return s
	}
}
