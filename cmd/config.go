package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/conneroisu/storybridge/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage storybridge configuration",
	Long: `Inspect the storybridge configuration.

Examples:
  storybridge config show                   # Effective configuration as YAML
  storybridge config validate               # Validate .storybridge.yml
  storybridge config validate --config x.yml`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long: `Display the configuration after defaults, the configuration file and
STORYBRIDGE_* environment overrides are applied, along with the gating
decision for the preview routes.`,
	RunE: runConfigShow,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration",
	RunE:  runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd, configValidateCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	content, err := config.Marshal(cfg)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if _, err := out.Write(content); err != nil {
		return err
	}

	if reason := cfg.GateReason(); reason != "" {
		fmt.Fprintf(out, "\n# preview routes: disabled (%s)\n", reason)
	} else {
		fmt.Fprintf(out, "\n# preview routes: enabled under /%s\n", cfg.RoutePrefix)
	}
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	if _, err := loadConfig(cmd); err != nil {
		return err
	}

	source := viper.ConfigFileUsed()
	if source == "" {
		source = "defaults"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Configuration is valid (%s)\n", source)
	return nil
}
