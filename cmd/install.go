package cmd

import (
	"github.com/spf13/cobra"

	"github.com/conneroisu/storybridge/internal/scaffolding"
)

var installCmd = &cobra.Command{
	Use:     "install",
	Aliases: []string{"i", "init"},
	Short:   "Install the Storybook integration",
	Long: `Install the Storybook side of storybridge into a project:

  .storybook/main.js and .storybook/preview.js
  resources/js/storybook/server-loader.js
  an example Button story and a starter button template
  .storybridge.yml with the effective configuration

Existing files are kept unless --force is given. The Storybook
devDependencies and scripts are merged into package.json unless
--skip-npm is given.

Examples:
  storybridge install
  storybridge install --dir ./site --force
  storybridge install --skip-npm`,
	RunE: runInstall,
}

var (
	installDir     string
	installForce   bool
	installSkipNPM bool
)

func init() {
	rootCmd.AddCommand(installCmd)

	installCmd.Flags().StringVar(&installDir, "dir", ".", "Project directory")
	installCmd.Flags().BoolVar(&installForce, "force", false, "Overwrite existing files")
	installCmd.Flags().BoolVar(&installSkipNPM, "skip-npm", false, "Leave package.json untouched")
}

func runInstall(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	installer := scaffolding.NewInstaller(cfg, cmd.OutOrStdout(), newLogger(cmd, cfg))
	_, err = installer.Install(commandContext(cmd), scaffolding.InstallOptions{
		Dir:     installDir,
		Force:   installForce,
		SkipNPM: installSkipNPM,
	})
	return err
}
