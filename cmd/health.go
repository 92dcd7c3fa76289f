package cmd

import (
	"context"
	"fmt"
	"net/http"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/conneroisu/storybridge/internal/client"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check the health of a running server",
	Long: `Query GET /{prefix}/health of a running server. The server defaults to
frontend.api_base_url. The command exits non-zero when the server is not
reachable or not healthy, so it can serve as a container health check.

Examples:
  storybridge health
  storybridge health --server http://localhost:9090 -f json`,
	RunE: runHealthCheck,
}

var (
	healthFlags   *StandardFlags
	healthTimeout time.Duration
)

func init() {
	rootCmd.AddCommand(healthCmd)

	healthFlags = AddStandardFlags(healthCmd, "output", "remote")
	healthCmd.Flags().DurationVarP(&healthTimeout, "timeout", "t", 3*time.Second, "Timeout for the health check")
}

func runHealthCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	base := healthFlags.Server
	if base == "" {
		base = cfg.Frontend.APIBaseURL
	}

	c, err := client.New(base,
		client.WithRoutePrefix(cfg.RoutePrefix),
		client.WithHTTPClient(&http.Client{Timeout: healthTimeout}),
		client.WithCache(nil),
		client.WithLogger(newLogger(cmd, cfg)))
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(commandContext(cmd), healthTimeout)
	defer cancel()

	h, err := c.Health(ctx)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}

	if err := writeOutput(cmd.OutOrStdout(), healthFlags.Format, h, func(tw *tabwriter.Writer) {
		fmt.Fprintf(tw, "Status:\t%s\n", h.Status)
		fmt.Fprintf(tw, "Service:\t%s\n", h.Service)
		fmt.Fprintf(tw, "Version:\t%s\n", h.Version)
		fmt.Fprintf(tw, "Timestamp:\t%s\n", h.Timestamp)
	}); err != nil {
		return err
	}

	if h.Status != "ok" {
		return fmt.Errorf("server reported status %q", h.Status)
	}
	return nil
}
