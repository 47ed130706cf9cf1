package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/reshape/shape"
)

// NormalizedShape is one entry of a normalize result.
type NormalizedShape struct {
	Name      string          `json:"name"`
	Hash      string          `json:"hash"`
	Canonical json.RawMessage `json:"canonical"`
}

// NormalizeResult holds the normalize command output.
type NormalizeResult struct {
	Shapes []NormalizedShape `json:"shapes"`
}

// NewNormalizeCommand creates the normalize command.
func NewNormalizeCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "normalize <schema-file>",
		Short: "Normalize every shape in a schema file",
		Long: `Normalize every shape declared in a CUE or YAML schema file so that
all records at all depths are closed-form, and print the canonical JSON
and content hash of each normalized shape.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNormalize(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runNormalize(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	doc, err := loadSchema(formatter, path)
	if err != nil {
		return err
	}

	result := NormalizeResult{Shapes: make([]NormalizedShape, 0, len(doc.Names))}
	for _, name := range doc.Names {
		normal := shape.Normalize(doc.Shapes[name])

		canonical, err := shape.MarshalCanonical(normal)
		if err != nil {
			_ = formatter.Error(ErrCodeShape, fmt.Sprintf("shape %q: %v", name, err), nil)
			return NewExitError(ExitCommandError, fmt.Sprintf("%s: shape %q: %v", ErrCodeShape, name, err))
		}
		hash, err := shape.Hash(normal)
		if err != nil {
			_ = formatter.Error(ErrCodeShape, fmt.Sprintf("shape %q: %v", name, err), nil)
			return NewExitError(ExitCommandError, fmt.Sprintf("%s: shape %q: %v", ErrCodeShape, name, err))
		}

		result.Shapes = append(result.Shapes, NormalizedShape{
			Name:      name,
			Hash:      hash,
			Canonical: json.RawMessage(canonical),
		})
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	for _, s := range result.Shapes {
		fmt.Fprintf(formatter.Writer, "%s  %s\n", s.Name, s.Hash)
		fmt.Fprintf(formatter.Writer, "  %s\n", s.Canonical)
	}
	return nil
}
