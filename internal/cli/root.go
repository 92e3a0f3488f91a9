// Package cli implements the snippetmanager command tree.
package cli

import (
	"encoding/json"
	"io"
	"time"

	"github.com/spf13/cobra"
)

type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
}

type globalOptions struct {
	ConfigPath string
	Medium     string
	Driver     string
	Lang       string
	DataDir    string
	JSON       bool
	Timeout    time.Duration
}

type commandDeps struct {
	out     io.Writer
	build   BuildInfo
	globals *globalOptions
}

func NewRootCommand(out io.Writer, build BuildInfo) *cobra.Command {
	globals := &globalOptions{}
	cmd := &cobra.Command{
		Use:           "snippetmanager",
		Short:         "Store, search and share code snippets",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetOut(out)
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &ExitError{Code: ExitCodeUsage, Err: err}
	})

	flags := cmd.PersistentFlags()
	flags.StringVar(&globals.ConfigPath, "config", "", "Path to config.toml")
	flags.StringVar(&globals.Medium, "medium", "", "Storage medium: auto, filesystem or keyvalue")
	flags.StringVar(&globals.Driver, "driver", "", "Key-value driver: memory, sqlite, postgres or s3")
	flags.StringVar(&globals.Lang, "lang", "", "Interface language: fr or en")
	flags.StringVar(&globals.DataDir, "data-dir", "", "Application data directory")
	flags.BoolVar(&globals.JSON, "json", false, "Print machine-readable JSON")
	flags.DurationVar(&globals.Timeout, "timeout", 10*time.Second, "How long to wait for storage")

	deps := commandDeps{out: out, build: build, globals: globals}
	cmd.AddCommand(
		newAddCommand(deps),
		newListCommand(deps),
		newShowCommand(deps),
		newEditCommand(deps),
		newDeleteCommand(deps),
		newCategoriesCommand(deps),
		newExportCommand(deps),
		newImportCommand(deps),
		newStateCommand(deps),
		newServeCommand(deps),
		newTUICommand(deps),
		newVersionCommand(deps),
	)
	return cmd
}

func printJSON(w io.Writer, value any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}
