package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/conneroisu/storybridge/internal/config"
	"github.com/conneroisu/storybridge/internal/server"
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"s"},
	Short:   "Start the preview server",
	Long: `Start the HTTP server that renders templates for Storybook.

The preview routes are mounted under the route prefix only when the
environment passes gating (enabled, allowed environment and, if required,
debug). With hot reload on, template changes are pushed to connected
previews over a websocket.

Examples:
  storybridge serve                        # Serve with .storybridge.yml
  storybridge serve --port 9090            # Another port
  storybridge serve --roots views,shared   # Several template roots
  storybridge serve --hot-reload=false     # No file watching`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	d := config.Default()
	serveCmd.Flags().IntP("port", "p", d.Server.Port, "Port to serve on (0 picks a free port)")
	serveCmd.Flags().String("host", d.Server.Host, "Host to bind to")
	serveCmd.Flags().String("prefix", d.RoutePrefix, "Route prefix of the preview endpoints")
	serveCmd.Flags().StringSlice("roots", d.Components.Roots, "Template roots")
	serveCmd.Flags().Bool("hot-reload", d.Development.HotReload, "Watch templates and notify previews")
	serveCmd.Flags().Bool("metrics", d.Metrics.Enabled, "Expose Prometheus metrics under the prefix")

	AddFlagValidation(serveCmd, "port", ValidatePort)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(cmd, cfg)

	srv, err := server.New(cfg, server.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if reason := cfg.GateReason(); reason != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "Preview routes disabled: %s\n", reason)
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "Serving previews at http://%s/%s\n", cfg.Addr(), cfg.RoutePrefix)
	}

	return srv.Start(ctx)
}

// commandContext is cmd's context, or a background one when the command
// runs outside Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
