package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/reshape/internal/registry"
	"github.com/roach88/reshape/shape"
)

// RegistryEntry is the JSON form of a stored registry entry.
type RegistryEntry struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	NormalHash string `json:"normal_hash"`
	Seq        int64  `json:"seq"`
}

// NewRegistryCommand creates the registry command group.
func NewRegistryCommand(rootOpts *RootOptions) *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "registry",
		Short: "Manage the normalized shape registry",
	}
	cmd.PersistentFlags().StringVar(&dbPath, "db", "reshape.db", "registry database path")

	cmd.AddCommand(newRegistryPutCommand(rootOpts, &dbPath))
	cmd.AddCommand(newRegistryGetCommand(rootOpts, &dbPath))
	cmd.AddCommand(newRegistryListCommand(rootOpts, &dbPath))

	return cmd
}

func newRegistryPutCommand(rootOpts *RootOptions, dbPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "put <schema-file>",
		Short: "Register every shape in a schema file",
		Long: `Register every shape declared in a schema file. Shapes are normalized
before storage; re-registering an identical shape is a no-op, while a name
already registered with a different structure is a conflict.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(rootOpts, cmd.OutOrStdout(), cmd.ErrOrStderr())

			doc, err := loadSchema(formatter, args[0])
			if err != nil {
				return err
			}

			store, err := openStore(formatter, *dbPath)
			if err != nil {
				return err
			}
			defer store.Close()

			var entries []RegistryEntry
			for _, name := range doc.Names {
				entry, err := store.Put(cmd.Context(), name, doc.Shapes[name])
				if err != nil {
					if registry.IsConflict(err) {
						_ = formatter.Error(ErrCodeConflict, err.Error(), nil)
						return NewExitError(ExitFailure, err.Error())
					}
					_ = formatter.Error(ErrCodeRegistry, err.Error(), nil)
					return NewExitError(ExitCommandError, err.Error())
				}
				entries = append(entries, toRegistryEntry(entry))
			}

			if formatter.Format == "json" {
				return formatter.Success(entries)
			}
			for _, e := range entries {
				fmt.Fprintf(formatter.Writer, "%s  %s  %s\n", e.Name, e.NormalHash, e.ID)
			}
			return nil
		},
	}
}

func newRegistryGetCommand(rootOpts *RootOptions, dbPath *string) *cobra.Command {
	return &cobra.Command{
		Use:           "get <name>",
		Short:         "Show a registered shape",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(rootOpts, cmd.OutOrStdout(), cmd.ErrOrStderr())

			store, err := openStore(formatter, *dbPath)
			if err != nil {
				return err
			}
			defer store.Close()

			entry, err := store.Get(cmd.Context(), args[0])
			if errors.Is(err, registry.ErrNotFound) {
				_ = formatter.Error(ErrCodeNotFound, err.Error(), nil)
				return NewExitError(ExitFailure, err.Error())
			}
			if err != nil {
				_ = formatter.Error(ErrCodeRegistry, err.Error(), nil)
				return NewExitError(ExitCommandError, err.Error())
			}

			canonical, err := shape.MarshalCanonical(entry.Normal)
			if err != nil {
				_ = formatter.Error(ErrCodeShape, err.Error(), nil)
				return NewExitError(ExitCommandError, err.Error())
			}

			if formatter.Format == "json" {
				return formatter.Success(map[string]any{
					"entry":  toRegistryEntry(entry),
					"normal": json.RawMessage(canonical),
				})
			}
			fmt.Fprintf(formatter.Writer, "%s  %s\n", entry.Name, entry.NormalHash)
			fmt.Fprintf(formatter.Writer, "  %s\n", canonical)
			return nil
		},
	}
}

func newRegistryListCommand(rootOpts *RootOptions, dbPath *string) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "List registered shapes",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(rootOpts, cmd.OutOrStdout(), cmd.ErrOrStderr())

			store, err := openStore(formatter, *dbPath)
			if err != nil {
				return err
			}
			defer store.Close()

			stored, err := store.List(cmd.Context())
			if err != nil {
				_ = formatter.Error(ErrCodeRegistry, err.Error(), nil)
				return NewExitError(ExitCommandError, err.Error())
			}

			entries := make([]RegistryEntry, 0, len(stored))
			for _, e := range stored {
				entries = append(entries, toRegistryEntry(e))
			}

			if formatter.Format == "json" {
				return formatter.Success(entries)
			}
			for _, e := range entries {
				fmt.Fprintf(formatter.Writer, "%4d  %s  %s\n", e.Seq, e.Name, e.NormalHash)
			}
			return nil
		},
	}
}

func openStore(formatter *OutputFormatter, path string) (*registry.Store, error) {
	store, err := registry.Open(path)
	if err != nil {
		_ = formatter.Error(ErrCodeRegistry, err.Error(), nil)
		return nil, NewExitError(ExitCommandError, err.Error())
	}
	formatter.VerboseLog("Opened registry %s", path)
	return store, nil
}

func toRegistryEntry(e *registry.Entry) RegistryEntry {
	return RegistryEntry{
		ID:         e.ID,
		Name:       e.Name,
		NormalHash: e.NormalHash,
		Seq:        e.Seq,
	}
}
