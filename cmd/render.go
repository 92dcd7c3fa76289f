package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/conneroisu/storybridge/internal/client"
	"github.com/conneroisu/storybridge/internal/config"
	"github.com/conneroisu/storybridge/internal/server"
)

var renderCmd = &cobra.Command{
	Use:     "render <component>",
	Aliases: []string{"r"},
	Short:   "Render a component to stdout",
	Long: `Render a component with arguments and print the HTML, exactly what
POST /{prefix}/render/{id} would answer. A missing or failing component
prints its fallback card; --strict turns that into a non-zero exit.

Examples:
  storybridge render components.button --args '{"text":"Save"}'
  storybridge render components.card --args @card.json --theme dark
  storybridge render components.button --server http://localhost:8080`,
	Args: cobra.ExactArgs(1),
	RunE: runRender,
}

var (
	renderFlags  *StandardFlags
	renderStrict bool
)

func init() {
	rootCmd.AddCommand(renderCmd)

	renderFlags = AddStandardFlags(renderCmd, "render", "remote")
	renderCmd.Flags().BoolVar(&renderStrict, "strict", false, "Exit non-zero when the output is a fallback card")
}

func runRender(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	componentArgs, err := renderFlags.ParseArgs()
	if err != nil {
		return err
	}
	ctx := commandContext(cmd)
	logger := newLogger(cmd, cfg)
	rc := renderFlags.RenderContext()

	var html string
	if renderFlags.Server != "" {
		c, err := client.New(renderFlags.Server,
			client.WithRoutePrefix(cfg.RoutePrefix),
			client.WithLogger(logger),
			client.WithCache(newRenderCache(cfg)))
		if err != nil {
			return err
		}

		html, err = c.Render(ctx, args[0], componentArgs, client.RenderContext{
			Theme:    renderFlags.Theme,
			Viewport: renderFlags.Viewport,
		})
		if err != nil {
			return fmt.Errorf("failed to render %s: %w", args[0], err)
		}
	} else {
		srv, err := server.New(cfg, server.WithLogger(logger))
		if err != nil {
			return err
		}
		html = srv.Dispatcher().Render(ctx, args[0], componentArgs, rc)
	}

	if _, err := io.WriteString(cmd.OutOrStdout(), html+"\n"); err != nil {
		return err
	}
	if renderStrict && client.IsErrorCard(html) {
		return fmt.Errorf("component %s did not render", args[0])
	}
	return nil
}

// newRenderCache returns the client cache described by cfg, or nil when
// caching is off.
func newRenderCache(cfg *config.Config) *client.Cache {
	if !cfg.Cache.Enabled {
		return nil
	}
	return client.NewCache(cfg.Cache.Capacity, time.Duration(cfg.Cache.TTL)*time.Second)
}
