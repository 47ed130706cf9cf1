// Package constraint checks shapes against a recursively-indexed
// structural constraint: every position reachable by recursively
// unwrapping keyed containers must bottom out in a permitted leaf kind.
//
// The checker mirrors the indexing policy that makes normalization
// necessary: open records are not indexable, so a direct check of an open
// record fails with a missing-index violation naming the record itself,
// not the member that is actually wrong. Closed records are descended
// per-field, so after shape.Normalize a genuine violation is pinpointed
// at its exact member path.
package constraint

import (
	"fmt"
	"sort"

	"github.com/roach88/reshape/shape"
)

// Violation codes.
const (
	// CodeMissingIndex reports an open record, which cannot be indexed
	// into. The member paths below it are NOT inspected.
	CodeMissingIndex = "MISSING_INDEX"

	// CodeForbiddenLeaf reports a leaf kind outside the permitted set.
	CodeForbiddenLeaf = "FORBIDDEN_LEAF"

	// CodeForbiddenFunc reports a function-shaped position. Callables
	// are never permitted values under the constraint.
	CodeForbiddenFunc = "FORBIDDEN_FUNC"
)

// Violation is a single constraint failure at a specific path.
type Violation struct {
	// Path locates the failing position: "$" for the root, dotted field
	// names for record members, "[i]" for tuple positions, "[]" for
	// array/set elements, "[key]"/"[value]" for map sides.
	Path string `json:"path"`

	// Code is one of the violation code constants.
	Code string `json:"code"`

	// Message is a human-readable description.
	Message string `json:"message"`
}

func (v Violation) String() string {
	return fmt.Sprintf("%s: %s: %s", v.Path, v.Code, v.Message)
}

// Checker validates shapes against a set of permitted leaf kinds.
type Checker struct {
	Permit map[string]bool
}

// DefaultChecker permits the deterministic primitive kinds. Floats are
// deliberately absent: they break canonical identity downstream.
func DefaultChecker() *Checker {
	return &Checker{Permit: map[string]bool{
		"string": true,
		"int":    true,
		"bool":   true,
		"bytes":  true,
	}}
}

// NewChecker builds a checker permitting exactly the given leaf kinds.
func NewChecker(kinds ...string) *Checker {
	permit := make(map[string]bool, len(kinds))
	for _, k := range kinds {
		permit[k] = true
	}
	return &Checker{Permit: permit}
}

// Check walks s and returns every violation found, in deterministic
// order. A nil or empty result means s satisfies the constraint.
//
// Cycle termination uses an active-path guard: a node already under
// inspection on the current path is not revisited, so self-referential
// records terminate. A node shared between distinct paths is checked at
// each path, so every failing position is reported.
func (c *Checker) Check(s shape.Shape) []Violation {
	w := &checkWalker{checker: c, active: make(map[shape.Shape]bool)}
	w.walk(s, "$")
	return w.violations
}

type checkWalker struct {
	checker    *Checker
	active     map[shape.Shape]bool
	violations []Violation
}

func (w *checkWalker) walk(s shape.Shape, path string) {
	if s == nil || w.active[s] {
		return
	}
	w.active[s] = true
	defer delete(w.active, s)

	switch v := s.(type) {
	case *shape.Leaf:
		if !w.checker.Permit[v.Kind] {
			w.report(path, CodeForbiddenLeaf,
				fmt.Sprintf("leaf kind %q is not permitted", v.Kind))
		}

	case *shape.Tuple:
		for i, elem := range v.Elems {
			w.walk(elem, fmt.Sprintf("%s[%d]", path, i))
		}
		if v.Rest != nil {
			w.walk(v.Rest, path+"[...]")
		}

	case *shape.Array:
		w.walk(v.Elem, path+"[]")

	case *shape.Map:
		w.walk(v.Key, path+"[key]")
		w.walk(v.Value, path+"[value]")

	case *shape.Set:
		w.walk(v.Elem, path+"[]")

	case *shape.Func:
		// Callables are rejected at their own position; parameter and
		// result shapes are irrelevant once the callable itself is out.
		w.report(path, CodeForbiddenFunc, "function values are not permitted")

	case *shape.Record:
		if v.Open {
			// Not indexable: the members below are NOT inspected, so
			// this is all the diagnostic an open record ever gets.
			w.report(path, CodeMissingIndex,
				"open record has no index signature; normalize it first")
			return
		}
		for _, k := range sortedKeys(v.Fields) {
			w.walk(v.Fields[k], memberPath(path, k))
		}

	default:
		w.report(path, CodeForbiddenLeaf,
			fmt.Sprintf("unsupported shape %T is not permitted", s))
	}
}

func (w *checkWalker) report(path, code, message string) {
	w.violations = append(w.violations, Violation{
		Path:    path,
		Code:    code,
		Message: message,
	})
}

func memberPath(path, field string) string {
	if path == "$" {
		return field
	}
	return path + "." + field
}

func sortedKeys(fields map[string]shape.Shape) []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
