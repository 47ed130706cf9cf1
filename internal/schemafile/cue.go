package schemafile

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
)

// LoadCUE parses a CUE schema document. Uses the CUE SDK's Go API
// directly (not CLI subprocess): the file is compiled to a cue.Value and
// each entry under "shapes" is decoded into a declaration node.
func LoadCUE(path string, data []byte) (*Document, error) {
	ctx := cuecontext.New()

	value := ctx.CompileBytes(data, cue.Filename(path))
	if err := value.Err(); err != nil {
		return nil, cueParseError(path, "", err)
	}

	shapesVal := value.LookupPath(cue.ParsePath("shapes"))
	if !shapesVal.Exists() {
		return nil, &ParseError{File: path, Message: `missing top-level "shapes" struct`}
	}

	iter, err := shapesVal.Fields()
	if err != nil {
		return nil, cueParseError(path, "shapes", err)
	}

	decls := make(map[string]*node)
	for iter.Next() {
		name := iter.Label()
		n := &node{}
		if err := iter.Value().Decode(n); err != nil {
			return nil, cueParseError(path, "shapes."+name, err)
		}
		decls[name] = n
	}

	return buildDocument(path, decls)
}

// cueParseError extracts position info from CUE errors.
func cueParseError(file, path string, err error) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return &ParseError{File: file, Path: path, Message: err.Error()}
	}

	first := errs[0]
	pe := &ParseError{File: file, Path: path, Message: fmt.Sprintf("%v", first)}
	if positions := cueerrors.Positions(first); len(positions) > 0 {
		pe.Pos = positions[0]
	}
	return pe
}
