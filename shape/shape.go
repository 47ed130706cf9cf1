package shape

// Shape is a sealed interface describing the structure of a type.
//
// This is a sealed interface - only types in this package implement it.
// The marker method pattern prevents external implementations and enables
// exhaustive type switches in Normalize, Equal, and the checkers.
//
// Shape variants:
//   - Leaf: an irreducible type (primitive or opaque named type)
//   - Tuple: a fixed-length ordered sequence, optionally with a variadic tail
//   - Array: a variable-length homogeneous sequence
//   - Map: an associative container
//   - Set: a uniqueness-enforcing container
//   - Func: a callable with tuple-shaped parameters
//   - Record: any keyed type, open- or closed-form
type Shape interface {
	shapeNode() // Marker method - seals interface to this package
}

// Leaf is an irreducible shape: a primitive or an opaque named type.
// Leaves pass through Normalize unchanged.
type Leaf struct {
	// Kind names the leaf type, e.g. "string", "int", "bool", or an
	// opaque type name for anything the grammar does not model.
	Kind string
}

func (*Leaf) shapeNode() {}

// Predeclared leaves for the common primitive kinds.
//
// NO Float leaf is predeclared - floats break deterministic canonical
// identity and are never in the default permitted set. Schemas that need
// them must spell the kind out explicitly.
var (
	String = &Leaf{Kind: "string"}
	Int    = &Leaf{Kind: "int"}
	Bool   = &Leaf{Kind: "bool"}
	Bytes  = &Leaf{Kind: "bytes"}
	Any    = &Leaf{Kind: "any"}
)

// Tuple is a fixed-length ordered sequence. A Tuple with no Elems is the
// empty tuple. Rest, when non-nil, describes the element shape of a
// variadic tail following the fixed positions.
type Tuple struct {
	Elems []Shape
	Rest  Shape
}

func (*Tuple) shapeNode() {}

// Array is a variable-length homogeneous sequence.
type Array struct {
	Elem Shape
}

func (*Array) shapeNode() {}

// Map is an associative container.
type Map struct {
	Key   Shape
	Value Shape
}

func (*Map) shapeNode() {}

// Set is a uniqueness-enforcing container.
type Set struct {
	Elem Shape
}

func (*Set) shapeNode() {}

// Func is a callable. Params is tuple-shaped so variadic parameter lists
// are represented the same way as variadic tuples. A nil Params means no
// parameters; a nil Result means no result.
type Func struct {
	Params *Tuple
	Result Shape
}

func (*Func) shapeNode() {}

// Record is any keyed shape. Open marks records whose members may be
// contributed by multiple independent declarations in the source schema;
// structural checks refuse to index into open records. Normalize erases
// the distinction: every record it produces is closed.
type Record struct {
	Fields map[string]Shape
	Open   bool
}

func (*Record) shapeNode() {}

// NewRecord builds a closed record from field pairs. Preferred for
// programmatic construction in tests and callers that build shapes by hand.
func NewRecord(fields map[string]Shape) *Record {
	return &Record{Fields: fields}
}

// NewOpenRecord builds an open record from field pairs.
func NewOpenRecord(fields map[string]Shape) *Record {
	return &Record{Fields: fields, Open: true}
}

// NewTuple builds a fixed-length tuple from element shapes.
func NewTuple(elems ...Shape) *Tuple {
	return &Tuple{Elems: elems}
}
