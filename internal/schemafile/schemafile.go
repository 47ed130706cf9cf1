// Package schemafile loads shape declarations from CUE or YAML documents.
//
// A schema document declares named shapes:
//
//	shapes:
//	  Entry:
//	    record:
//	      open: true
//	      fields:
//	        title: {leaf: string}
//	  Entries:
//	    array: {elem: {ref: Entry}}
//
// Each node carries exactly one variant key (leaf, ref, record, tuple,
// array, map, set, func). References are resolved by name after parsing;
// cycles through records are permitted and produce self-referential shapes.
package schemafile

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"cuelang.org/go/cue/token"

	"github.com/roach88/reshape/shape"
)

// Document holds the shapes declared by a schema file.
type Document struct {
	// Shapes maps declared names to resolved shape descriptors.
	Shapes map[string]shape.Shape

	// Names lists the declared names in sorted order, for deterministic
	// iteration by callers.
	Names []string
}

// ParseError reports a schema problem with enough context to locate it.
type ParseError struct {
	File    string
	Path    string // declaration path, e.g. "shapes.Entry.fields.title"
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *ParseError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Path, e.Message)
	}
	if e.Path != "" {
		return fmt.Sprintf("%s: %s: %s", e.File, e.Path, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.File, e.Message)
}

// Load reads a schema document from path, dispatching on the file
// extension: .cue for CUE, .yaml/.yml for YAML.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema: %w", err)
	}

	switch filepath.Ext(path) {
	case ".cue":
		return LoadCUE(path, data)
	case ".yaml", ".yml":
		return LoadYAML(path, data)
	default:
		return nil, &ParseError{
			File:    path,
			Message: fmt.Sprintf("unsupported schema extension %q (want .cue, .yaml, or .yml)", filepath.Ext(path)),
		}
	}
}

// node is the parsed form of a single shape declaration. Exactly one
// variant field must be set.
type node struct {
	Leaf   string      `json:"leaf,omitempty" yaml:"leaf,omitempty"`
	Ref    string      `json:"ref,omitempty" yaml:"ref,omitempty"`
	Record *recordNode `json:"record,omitempty" yaml:"record,omitempty"`
	Tuple  *tupleNode  `json:"tuple,omitempty" yaml:"tuple,omitempty"`
	Array  *arrayNode  `json:"array,omitempty" yaml:"array,omitempty"`
	Map    *mapNode    `json:"map,omitempty" yaml:"map,omitempty"`
	Set    *setNode    `json:"set,omitempty" yaml:"set,omitempty"`
	Func   *funcNode   `json:"func,omitempty" yaml:"func,omitempty"`
}

type recordNode struct {
	Open   bool             `json:"open,omitempty" yaml:"open,omitempty"`
	Fields map[string]*node `json:"fields,omitempty" yaml:"fields,omitempty"`
}

type tupleNode struct {
	Elems []*node `json:"elems,omitempty" yaml:"elems,omitempty"`
	Rest  *node   `json:"rest,omitempty" yaml:"rest,omitempty"`
}

type arrayNode struct {
	Elem *node `json:"elem" yaml:"elem"`
}

type mapNode struct {
	Key   *node `json:"key" yaml:"key"`
	Value *node `json:"value" yaml:"value"`
}

type setNode struct {
	Elem *node `json:"elem" yaml:"elem"`
}

type funcNode struct {
	Params *tupleNode `json:"params,omitempty" yaml:"params,omitempty"`
	Result *node      `json:"result,omitempty" yaml:"result,omitempty"`
}

// variant returns the single variant key set on n, or an error when zero
// or more than one is set.
func (n *node) variant() (string, error) {
	var set []string
	if n.Leaf != "" {
		set = append(set, "leaf")
	}
	if n.Ref != "" {
		set = append(set, "ref")
	}
	if n.Record != nil {
		set = append(set, "record")
	}
	if n.Tuple != nil {
		set = append(set, "tuple")
	}
	if n.Array != nil {
		set = append(set, "array")
	}
	if n.Map != nil {
		set = append(set, "map")
	}
	if n.Set != nil {
		set = append(set, "set")
	}
	if n.Func != nil {
		set = append(set, "func")
	}

	switch len(set) {
	case 1:
		return set[0], nil
	case 0:
		return "", fmt.Errorf("shape node needs exactly one of leaf, ref, record, tuple, array, map, set, func")
	default:
		return "", fmt.Errorf("shape node has conflicting variants %v", set)
	}
}

// buildDocument resolves parsed declarations into linked shapes.
//
// Allocation happens in three passes so references, including cyclic ones,
// link to the final nodes:
//  1. allocate an empty shape for every non-ref declaration
//  2. resolve top-level ref declarations (aliases) by following chains
//  3. fill children, resolving embedded refs against the allocations
func buildDocument(file string, decls map[string]*node) (*Document, error) {
	if len(decls) == 0 {
		return nil, &ParseError{File: file, Message: "no shapes declared"}
	}

	b := &docBuilder{
		file:  file,
		decls: decls,
		built: make(map[string]shape.Shape, len(decls)),
	}

	names := make([]string, 0, len(decls))
	for name := range decls {
		names = append(names, name)
	}
	sort.Strings(names)

	// Pass 1: allocate.
	for _, name := range names {
		n := decls[name]
		if n == nil {
			return nil, &ParseError{File: file, Path: "shapes." + name, Message: "empty declaration"}
		}
		v, err := n.variant()
		if err != nil {
			return nil, &ParseError{File: file, Path: "shapes." + name, Message: err.Error()}
		}
		if v == "ref" {
			continue // aliases resolve in pass 2
		}
		b.built[name] = allocate(v, n)
	}

	// Pass 2: aliases.
	for _, name := range names {
		if _, done := b.built[name]; done {
			continue
		}
		target, err := b.resolveAlias(name, make(map[string]bool))
		if err != nil {
			return nil, err
		}
		b.built[name] = target
	}

	// Pass 3: fill.
	for _, name := range names {
		n := decls[name]
		if n.Ref != "" {
			continue
		}
		if err := b.fill(b.built[name], n, "shapes."+name); err != nil {
			return nil, err
		}
	}

	return &Document{Shapes: b.built, Names: names}, nil
}

type docBuilder struct {
	file  string
	decls map[string]*node
	built map[string]shape.Shape
}

// allocate creates an empty shape of the declared variant. Children are
// attached later by fill, so refs can point at these nodes immediately.
func allocate(variant string, n *node) shape.Shape {
	switch variant {
	case "leaf":
		return &shape.Leaf{Kind: n.Leaf}
	case "record":
		return &shape.Record{Open: n.Record.Open}
	case "tuple":
		return &shape.Tuple{}
	case "array":
		return &shape.Array{}
	case "map":
		return &shape.Map{}
	case "set":
		return &shape.Set{}
	case "func":
		return &shape.Func{}
	}
	return nil
}

// resolveAlias follows a chain of top-level refs to a concrete shape.
func (b *docBuilder) resolveAlias(name string, trail map[string]bool) (shape.Shape, error) {
	if trail[name] {
		return nil, &ParseError{File: b.file, Path: "shapes." + name, Message: "alias cycle"}
	}
	trail[name] = true

	n, ok := b.decls[name]
	if !ok {
		return nil, &ParseError{File: b.file, Path: "shapes." + name, Message: "reference to undeclared shape"}
	}
	if n.Ref == "" {
		return b.built[name], nil
	}
	return b.resolveAlias(n.Ref, trail)
}

// lookup resolves an embedded ref against the document's declarations.
func (b *docBuilder) lookup(ref, path string) (shape.Shape, error) {
	s, ok := b.built[ref]
	if !ok {
		return nil, &ParseError{
			File:    b.file,
			Path:    path,
			Message: fmt.Sprintf("reference to undeclared shape %q", ref),
		}
	}
	return s, nil
}

// resolve turns a child node into a shape: refs link to allocations,
// anything else allocates and fills inline.
func (b *docBuilder) resolve(n *node, path string) (shape.Shape, error) {
	if n == nil {
		return nil, &ParseError{File: b.file, Path: path, Message: "missing shape node"}
	}
	v, err := n.variant()
	if err != nil {
		return nil, &ParseError{File: b.file, Path: path, Message: err.Error()}
	}
	if v == "ref" {
		return b.lookup(n.Ref, path)
	}
	s := allocate(v, n)
	if err := b.fill(s, n, path); err != nil {
		return nil, err
	}
	return s, nil
}

// fill attaches children to an allocated shape.
func (b *docBuilder) fill(s shape.Shape, n *node, path string) error {
	switch v := s.(type) {
	case *shape.Leaf:
		return nil

	case *shape.Record:
		v.Fields = make(map[string]shape.Shape, len(n.Record.Fields))
		for name, fieldNode := range n.Record.Fields {
			field, err := b.resolve(fieldNode, path+".fields."+name)
			if err != nil {
				return err
			}
			v.Fields[name] = field
		}
		return nil

	case *shape.Tuple:
		return b.fillTuple(v, n.Tuple, path)

	case *shape.Array:
		elem, err := b.resolve(n.Array.Elem, path+".elem")
		if err != nil {
			return err
		}
		v.Elem = elem
		return nil

	case *shape.Map:
		key, err := b.resolve(n.Map.Key, path+".key")
		if err != nil {
			return err
		}
		value, err := b.resolve(n.Map.Value, path+".value")
		if err != nil {
			return err
		}
		v.Key, v.Value = key, value
		return nil

	case *shape.Set:
		elem, err := b.resolve(n.Set.Elem, path+".elem")
		if err != nil {
			return err
		}
		v.Elem = elem
		return nil

	case *shape.Func:
		if n.Func.Params != nil {
			params := &shape.Tuple{}
			if err := b.fillTuple(params, n.Func.Params, path+".params"); err != nil {
				return err
			}
			v.Params = params
		}
		if n.Func.Result != nil {
			result, err := b.resolve(n.Func.Result, path+".result")
			if err != nil {
				return err
			}
			v.Result = result
		}
		return nil
	}
	return &ParseError{File: b.file, Path: path, Message: fmt.Sprintf("unsupported shape %T", s)}
}

func (b *docBuilder) fillTuple(t *shape.Tuple, n *tupleNode, path string) error {
	if n == nil {
		return nil
	}
	if len(n.Elems) > 0 {
		t.Elems = make([]shape.Shape, len(n.Elems))
		for i, elemNode := range n.Elems {
			elem, err := b.resolve(elemNode, fmt.Sprintf("%s.elems[%d]", path, i))
			if err != nil {
				return err
			}
			t.Elems[i] = elem
		}
	}
	if n.Rest != nil {
		rest, err := b.resolve(n.Rest, path+".rest")
		if err != nil {
			return err
		}
		t.Rest = rest
	}
	return nil
}
