// Package reshape relabels values whose described shape is problematic for
// recursively-indexed structural checks.
//
// The heavy lifting lives in the subpackages: shape holds the descriptor
// model and Normalize, describe builds descriptors from Go types, and
// constraint checks descriptors against a permitted-leaf set. This package
// ties them together at the call site.
package reshape

import (
	"github.com/roach88/reshape/describe"
	"github.com/roach88/reshape/shape"
)

// Relabel returns v unchanged: no copy, no mutation, no allocation.
//
// It exists to mark the boundary where a value is treated as having the
// normalized form of its shape. The shape-level rewrite is shape.Normalize;
// the value itself never changes, so the result is observably identical to
// the input, including identity for maps, slices, and pointers.
func Relabel[T any](v T) T {
	return v
}

// Describe returns the shape descriptor of v's dynamic type.
func Describe(v any) (shape.Shape, error) {
	return describe.ValueOf(v)
}

// Normalized returns the normalized shape descriptor of v's dynamic type:
// Describe followed by shape.Normalize.
func Normalized(v any) (shape.Shape, error) {
	s, err := describe.ValueOf(v)
	if err != nil {
		return nil, err
	}
	return shape.Normalize(s), nil
}
