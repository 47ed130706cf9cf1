package shape

// Equal reports whether a and b are structurally equal: same variant at
// every position, same leaf kinds, same tuple arity, same record key sets
// and openness.
//
// Equality is coinductive over cycles: when a pair of nodes is revisited
// while already under comparison, it is taken as equal. Two shapes that
// unfold to the same infinite tree therefore compare equal even when their
// cycle points differ.
func Equal(a, b Shape) bool {
	return equal(a, b, make(map[shapePair]bool))
}

type shapePair struct {
	a, b Shape
}

func equal(a, b Shape, seen map[shapePair]bool) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}

	p := shapePair{a, b}
	if seen[p] {
		return true
	}
	seen[p] = true

	switch x := a.(type) {
	case *Leaf:
		y, ok := b.(*Leaf)
		return ok && x.Kind == y.Kind

	case *Tuple:
		y, ok := b.(*Tuple)
		if !ok || len(x.Elems) != len(y.Elems) {
			return false
		}
		for i := range x.Elems {
			if !equal(x.Elems[i], y.Elems[i], seen) {
				return false
			}
		}
		return equal(x.Rest, y.Rest, seen)

	case *Array:
		y, ok := b.(*Array)
		return ok && equal(x.Elem, y.Elem, seen)

	case *Map:
		y, ok := b.(*Map)
		return ok && equal(x.Key, y.Key, seen) && equal(x.Value, y.Value, seen)

	case *Set:
		y, ok := b.(*Set)
		return ok && equal(x.Elem, y.Elem, seen)

	case *Func:
		y, ok := b.(*Func)
		if !ok {
			return false
		}
		if (x.Params == nil) != (y.Params == nil) {
			return false
		}
		if x.Params != nil && !equal(x.Params, y.Params, seen) {
			return false
		}
		return equal(x.Result, y.Result, seen)

	case *Record:
		y, ok := b.(*Record)
		if !ok || x.Open != y.Open || len(x.Fields) != len(y.Fields) {
			return false
		}
		for k, fa := range x.Fields {
			fb, ok := y.Fields[k]
			if !ok || !equal(fa, fb, seen) {
				return false
			}
		}
		return true
	}

	return false
}
