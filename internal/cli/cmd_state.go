package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"snippetmanager/internal/snippet"
)

func newStateCommand(deps commandDeps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "state",
		Short: "Inspect or reset persisted state on the active medium",
	}
	cmd.AddCommand(newStateKeysCommand(deps), newStateResetCommand(deps))
	return cmd
}

func newStateKeysCommand(deps commandDeps) *cobra.Command {
	return &cobra.Command{
		Use:   "keys",
		Short: "List the keys that hold a stored value",
		Example: "  snippetmanager state keys\n" +
			"  snippetmanager --medium keyvalue --json state keys",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStorage(cmd, deps, func(ctx context.Context, s *storageApp) error {
				keys, err := s.adapter.Keys(ctx)
				if err != nil {
					return err
				}
				if deps.globals.JSON {
					return printJSON(deps.out, struct {
						Medium string   `json:"medium"`
						Keys   []string `json:"keys"`
					}{Medium: string(s.adapter.Medium()), Keys: keys})
				}
				for _, key := range keys {
					if _, err := fmt.Fprintln(deps.out, key); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
}

func newStateResetCommand(deps commandDeps) *cobra.Command {
	return &cobra.Command{
		Use:   "reset [key]",
		Short: "Delete the value stored at key (default " + snippet.StorageKey + ")",
		Example: "  snippetmanager state reset\n" +
			"  snippetmanager --medium keyvalue state reset snippets",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := snippet.StorageKey
			if len(args) == 1 {
				key = args[0]
			}
			return withStorage(cmd, deps, func(ctx context.Context, s *storageApp) error {
				deleted, err := s.adapter.Delete(ctx, key)
				if err != nil {
					return err
				}
				if !deleted {
					return &ExitError{Code: ExitCodeNotFound, Err: fmt.Errorf("nothing stored at %q on %s", key, s.adapter.Medium())}
				}
				s.logger.Info("state reset", "key", key, "medium", s.adapter.Medium())
				_, err = fmt.Fprintf(deps.out, "reset %s\n", key)
				return err
			})
		},
	}
}
