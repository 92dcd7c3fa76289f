package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/conneroisu/storybridge/internal/client"
	"github.com/conneroisu/storybridge/internal/server"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"l", "ls"},
	Short:   "List all discovered components",
	Long: `List the component identifiers found under the template roots, the same
list GET /{prefix}/components returns.

Examples:
  storybridge list                               # Table of components
  storybridge list -f json                       # JSON output
  storybridge list --server http://localhost:8080  # Ask a running server`,
	RunE: runList,
}

var listFlags *StandardFlags

func init() {
	rootCmd.AddCommand(listCmd)

	listFlags = AddStandardFlags(listCmd, "output", "remote")
}

// ComponentEntry is one row of the list output.
type ComponentEntry struct {
	ID     string `json:"id" yaml:"id"`
	Prefix string `json:"prefix" yaml:"prefix"`
	Title  string `json:"title" yaml:"title"`
}

// ComponentList is the structured list output.
type ComponentList struct {
	Components []ComponentEntry `json:"components" yaml:"components"`
	Count      int              `json:"count" yaml:"count"`
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	ctx := commandContext(cmd)

	var ids []string
	if listFlags.Server != "" {
		c, err := client.New(listFlags.Server, client.WithRoutePrefix(cfg.RoutePrefix), client.WithLogger(newLogger(cmd, cfg)))
		if err != nil {
			return err
		}
		if ids, err = c.Components(ctx); err != nil {
			return fmt.Errorf("failed to list components: %w", err)
		}
	} else {
		srv, err := server.New(cfg, server.WithLogger(newLogger(cmd, cfg)))
		if err != nil {
			return err
		}
		if ids, err = srv.Lister().List(ctx); err != nil {
			return fmt.Errorf("failed to list components: %w", err)
		}
	}

	out := ComponentList{Components: make([]ComponentEntry, 0, len(ids)), Count: len(ids)}
	for _, id := range ids {
		out.Components = append(out.Components, newComponentEntry(id))
	}

	if out.Count == 0 && strings.EqualFold(listFlags.Format, FormatTable) {
		fmt.Fprintln(cmd.OutOrStdout(), "No components found.")
		return nil
	}

	return writeOutput(cmd.OutOrStdout(), listFlags.Format, out, func(tw *tabwriter.Writer) {
		fmt.Fprintln(tw, "COMPONENT\tPREFIX\tTITLE")
		for _, e := range out.Components {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", e.ID, e.Prefix, e.Title)
		}
		fmt.Fprintf(tw, "\n%d component(s)\n", out.Count)
	})
}

// newComponentEntry derives a display title from the identifier, for
// example components.forms.text_input becomes "Forms / Text Input".
func newComponentEntry(id string) ComponentEntry {
	segments := strings.Split(id, ".")
	entry := ComponentEntry{ID: id, Prefix: segments[0]}

	caser := cases.Title(language.English)
	rest := segments
	if len(segments) > 1 {
		rest = segments[1:]
	}

	titles := make([]string, 0, len(rest))
	for _, s := range rest {
		words := strings.FieldsFunc(s, func(r rune) bool { return r == '_' || r == '-' })
		titles = append(titles, caser.String(strings.Join(words, " ")))
	}
	entry.Title = strings.Join(titles, " / ")

	return entry
}
