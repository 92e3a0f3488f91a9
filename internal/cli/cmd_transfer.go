package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"snippetmanager/internal/snippet"
)

func newExportCommand(deps commandDeps) *cobra.Command {
	var (
		format string
		output string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export every snippet as JSON or text",
		Example: "  snippetmanager export\n" +
			"  snippetmanager export --format text --output -",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := snippet.ParseFormat(format)
			if err != nil {
				return usageErrorf("%v", err)
			}
			return withApp(cmd, deps, func(_ context.Context, a *app) error {
				if output == "-" {
					return a.svc.Export(deps.out, f)
				}
				var buf bytes.Buffer
				if err := a.svc.Export(&buf, f); err != nil {
					return err
				}
				path := output
				if path == "" {
					path = a.svc.ExportFileName(f)
				}
				if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
					return err
				}
				_, err := fmt.Fprintf(deps.out, "%s: %s\n", snippet.T(a.svc.Language()).ExportSuccess, path)
				return err
			})
		},
	}
	cmd.Flags().StringVar(&format, "format", string(snippet.FormatJSON), "Export format: json or text")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file, - for stdout (default snippets-export-<date>.<ext>)")
	return cmd
}

func newImportCommand(deps commandDeps) *cobra.Command {
	var mode string
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import snippets from a JSON export",
		Example: "  snippetmanager import snippets-export-2025-03-14.json\n" +
			"  snippetmanager import --mode replace - < backup.json",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := snippet.ParseImportMode(mode)
			if err != nil {
				return usageErrorf("%v", err)
			}
			data, err := readInput(cmd, args[0])
			if err != nil {
				return mapCommandError(err)
			}
			return withApp(cmd, deps, func(_ context.Context, a *app) error {
				t := snippet.T(a.svc.Language())
				n, err := a.svc.Import(bytes.NewReader(data), m)
				if errors.Is(err, snippet.ErrInvalidImport) {
					return &ExitError{Code: ExitCodeInvalidData, Err: fmt.Errorf("%s: %w", t.ImportError, err)}
				}
				if err != nil {
					return err
				}
				if deps.globals.JSON {
					return printJSON(deps.out, map[string]int{"imported": n})
				}
				_, err = fmt.Fprintln(deps.out, snippet.Fill(t.ImportSuccess, n))
				return err
			})
		},
	}
	cmd.Flags().StringVar(&mode, "mode", string(snippet.ModeMerge), "merge keeps existing snippets, replace discards them")
	return cmd
}
