package cli

import (
	"fmt"

	"github.com/roach88/reshape/internal/schemafile"
)

// loadSchema loads a schema document and converts failures into
// command-level errors with the load error code, after reporting them
// through the formatter.
func loadSchema(formatter *OutputFormatter, path string) (*schemafile.Document, error) {
	doc, err := schemafile.Load(path)
	if err != nil {
		_ = formatter.Error(ErrCodeLoad, err.Error(), nil)
		return nil, NewExitError(ExitCommandError, fmt.Sprintf("%s: %v", ErrCodeLoad, err))
	}
	formatter.VerboseLog("Loaded %d shape(s) from %s", len(doc.Names), path)
	return doc, nil
}
