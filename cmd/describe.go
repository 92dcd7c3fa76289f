package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/conneroisu/storybridge/internal/client"
	"github.com/conneroisu/storybridge/internal/inspector"
	"github.com/conneroisu/storybridge/internal/server"
)

var describeCmd = &cobra.Command{
	Use:     "describe <component>",
	Aliases: []string{"d", "metadata"},
	Short:   "Show the metadata of a component",
	Long: `Show whether a component exists, its template path and the variables
its template references, the same data GET /{prefix}/components/{id}/metadata
returns.

Examples:
  storybridge describe components.button
  storybridge describe button -f json          # Default prefix applies
  storybridge describe components.card --server http://localhost:8080`,
	Args: cobra.ExactArgs(1),
	RunE: runDescribe,
}

var describeFlags *StandardFlags

func init() {
	rootCmd.AddCommand(describeCmd)

	describeFlags = AddStandardFlags(describeCmd, "output", "remote")
}

func runDescribe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	ctx := commandContext(cmd)
	logger := newLogger(cmd, cfg)

	var md inspector.Metadata
	if describeFlags.Server != "" {
		c, err := client.New(describeFlags.Server, client.WithRoutePrefix(cfg.RoutePrefix), client.WithLogger(logger))
		if err != nil {
			return err
		}
		if md, err = c.Metadata(ctx, args[0]); err != nil {
			return fmt.Errorf("failed to describe %s: %w", args[0], err)
		}
	} else {
		srv, err := server.New(cfg, server.WithLogger(logger))
		if err != nil {
			return err
		}
		md = srv.Inspector().Describe(ctx, args[0])
	}

	return writeOutput(cmd.OutOrStdout(), describeFlags.Format, md, func(tw *tabwriter.Writer) {
		path := "-"
		if md.Path != nil {
			path = *md.Path
		}
		variables := "-"
		if len(md.Variables) > 0 {
			variables = strings.Join(md.Variables, ", ")
		}

		fmt.Fprintf(tw, "Component:\t%s\n", md.Component)
		fmt.Fprintf(tw, "Exists:\t%t\n", md.Exists)
		fmt.Fprintf(tw, "Path:\t%s\n", path)
		fmt.Fprintf(tw, "Variables:\t%s\n", variables)
		if md.Error != "" {
			fmt.Fprintf(tw, "Error:\t%s\n", md.Error)
		}
	})
}
