package cmd

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/conneroisu/storybridge/internal/config"
	"github.com/conneroisu/storybridge/internal/logging"
)

// ConfigFileEnv names a configuration file when --config is not given.
const ConfigFileEnv = "STORYBRIDGE_CONFIG_FILE"

var (
	cfgFile string
	// configErr holds a configuration file that exists but cannot be read.
	configErr error
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "storybridge",
	Short: "Serve server-side templates to Storybook",
	Long: `storybridge renders server-side Go templates on demand so a Storybook
instance can preview them as components.

Quick Start:
  storybridge install             Add the Storybook files to a project
  storybridge serve               Start the preview server
  storybridge list                List the discovered components
  storybridge render <component>  Render one component to stdout`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .storybridge.yml, can also use "+ConfigFileEnv+")")
	rootCmd.PersistentFlags().StringP("log-level", "l", config.Default().Log.Level, "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", config.Default().Log.Format, "log format (text, json)")
}

// flagKeys maps flag names to the configuration keys they override. A
// command that defines one of these flags gets it bound in loadConfig.
var flagKeys = map[string]string{
	"log-level":  "log.level",
	"log-format": "log.format",
	"host":       "server.host",
	"port":       "server.port",
	"prefix":     "route_prefix",
	"hot-reload": "development.hot_reload",
	"metrics":    "metrics.enabled",
	"roots":      "components.roots",
}

// initConfig points viper at the configuration file and enables
// environment overrides.
//
// Configuration file priority (highest to lowest):
//  1. --config flag
//  2. STORYBRIDGE_CONFIG_FILE environment variable
//  3. .storybridge.yml in the current directory
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if envConfigFile := os.Getenv(ConfigFileEnv); envConfigFile != "" {
		viper.SetConfigFile(envConfigFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".storybridge")
	}

	viper.SetEnvPrefix(config.EnvPrefix)
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(config.EnvKeyReplacer())

	// Without a config file the defaults apply. A file that exists but
	// cannot be read or parsed is reported by loadConfig.
	configErr = nil
	err := viper.ReadInConfig()
	switch {
	case err == nil:
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	case isNotExist(err) && cfgFile == "" && os.Getenv(ConfigFileEnv) == "":
	default:
		configErr = fmt.Errorf("failed to read config file: %w", err)
	}
}

func isNotExist(err error) bool {
	var notFound viper.ConfigFileNotFoundError
	return stderrors.As(err, &notFound) || stderrors.Is(err, fs.ErrNotExist)
}

// loadConfig binds the flags of cmd to their configuration keys and loads
// the configuration.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	if configErr != nil {
		return nil, configErr
	}

	var bindErr error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if key, ok := flagKeys[f.Name]; ok && bindErr == nil {
			bindErr = viper.BindPFlag(key, f)
		}
	})
	if bindErr != nil {
		return nil, fmt.Errorf("failed to bind flags: %w", bindErr)
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// newLogger builds the command logger from cfg.
func newLogger(cmd *cobra.Command, cfg *config.Config) logging.Logger {
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = logging.LevelInfo
	}
	return logging.NewLogger(&logging.LoggerConfig{
		Level:  level,
		Format: cfg.Log.Format,
		Output: cmd.ErrOrStderr(),
	})
}
