package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/reshape/constraint"
	"github.com/roach88/reshape/shape"
)

// CheckedShape is the check result for one declared shape.
type CheckedShape struct {
	Name       string                 `json:"name"`
	Ok         bool                   `json:"ok"`
	Violations []constraint.Violation `json:"violations,omitempty"`
}

// CheckResult holds the check command output.
type CheckResult struct {
	Ok     bool           `json:"ok"`
	Shapes []CheckedShape `json:"shapes"`
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	var permit []string
	var relabel bool

	cmd := &cobra.Command{
		Use:   "check <schema-file>",
		Short: "Check shapes against the structural constraint",
		Long: `Check every shape declared in a schema file against a recursively-indexed
structural constraint: every position reachable through keyed containers
must bottom out in a permitted leaf kind.

Without --relabel, shapes are checked as declared: open records fail with
a missing-index violation naming the record, not the offending member.
With --relabel, shapes are normalized first, so genuine violations are
pinpointed at their exact member path.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(rootOpts, args[0], permit, relabel, cmd)
		},
	}

	cmd.Flags().StringSliceVar(&permit, "permit", nil,
		"permitted leaf kinds (default: string, int, bool, bytes)")
	cmd.Flags().BoolVar(&relabel, "relabel", false,
		"normalize shapes before checking")

	return cmd
}

func runCheck(opts *RootOptions, path string, permit []string, relabel bool, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	doc, err := loadSchema(formatter, path)
	if err != nil {
		return err
	}

	checker := constraint.DefaultChecker()
	if len(permit) > 0 {
		checker = constraint.NewChecker(permit...)
	}

	result := CheckResult{Ok: true, Shapes: make([]CheckedShape, 0, len(doc.Names))}
	for _, name := range doc.Names {
		s := doc.Shapes[name]
		if relabel {
			s = shape.Normalize(s)
		}

		violations := checker.Check(s)
		if len(violations) > 0 {
			result.Ok = false
		}
		result.Shapes = append(result.Shapes, CheckedShape{
			Name:       name,
			Ok:         len(violations) == 0,
			Violations: violations,
		})
	}

	if formatter.Format == "json" {
		if err := formatter.Success(result); err != nil {
			return err
		}
	} else {
		for _, s := range result.Shapes {
			if s.Ok {
				fmt.Fprintf(formatter.Writer, "✓ %s\n", s.Name)
				continue
			}
			fmt.Fprintf(formatter.Writer, "✗ %s\n", s.Name)
			for _, v := range s.Violations {
				fmt.Fprintf(formatter.Writer, "  %s\n", v)
			}
		}
	}

	if !result.Ok {
		return NewExitError(ExitFailure, "constraint violations found")
	}
	return nil
}
