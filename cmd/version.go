package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/conneroisu/storybridge/internal/version"
)

var (
	versionFormat string
	versionShort  bool
)

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long: `Display version information for storybridge including the version,
git commit, build time, Go version and target platform.

Examples:
  storybridge version              # Show version details
  storybridge version --short      # Show the short version only
  storybridge version --format json`,
	RunE: runVersionCommand,
}

func init() {
	rootCmd.AddCommand(versionCmd)

	versionCmd.Flags().StringVar(&versionFormat, "format", "text", "Output format (text, json, yaml)")
	versionCmd.Flags().BoolVar(&versionShort, "short", false, "Show short version only")
}

type versionOutput struct {
	version.Info `yaml:",inline"`
	IsRelease    bool `json:"is_release" yaml:"is_release"`
}

func runVersionCommand(cmd *cobra.Command, args []string) error {
	info := version.Get()
	out := cmd.OutOrStdout()

	switch strings.ToLower(versionFormat) {
	case "text":
		if versionShort {
			fmt.Fprintln(out, info.Short())
			return nil
		}
		fmt.Fprintln(out, "storybridge "+info.Short())
		fmt.Fprintln(out, info.String())
		return nil
	case FormatJSON, FormatYAML:
		return writeOutput(out, versionFormat, versionOutput{Info: info, IsRelease: info.IsRelease()}, nil)
	default:
		return fmt.Errorf("unsupported format: %s (supported: text, json, yaml)", versionFormat)
	}
}
