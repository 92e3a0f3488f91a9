package cli

import (
	"context"

	"github.com/spf13/cobra"

	"snippetmanager/internal/httpapi"
	"snippetmanager/internal/tui"
)

func newServeCommand(deps commandDeps) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the snippet API over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, deps, func(ctx context.Context, a *app) error {
				listen := a.cfg.Server.Addr
				if cmd.Flags().Changed("addr") {
					listen = addr
				}
				h := httpapi.New(a.svc, httpapi.WithLogger(a.logger), httpapi.WithGatherer(a.gatherer))
				return httpapi.Serve(ctx, listen, h.Router(), a.logger)
			})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config, 127.0.0.1:8080)")
	return cmd
}

func newTUICommand(deps commandDeps) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Browse snippets in the terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, deps, func(ctx context.Context, a *app) error {
				return tui.Run(ctx, a.svc)
			})
		},
	}
}
