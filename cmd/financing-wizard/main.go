package main

import (
	"fmt"
	"os"

	"github.com/iwvelando/financing-wizard/internal/buildinfo"
	"github.com/iwvelando/financing-wizard/internal/config"
	"github.com/iwvelando/financing-wizard/pkg/constants"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// rootOptions holds the persistent flags shared by every subcommand.
type rootOptions struct {
	configPath string
	logLevel   string
}

// load reads the configuration and builds the logger, reporting any
// configuration warnings through it.
func (o *rootOptions) load() (*config.Configuration, *zap.Logger, error) {
	path := o.configPath
	if path == "" {
		if _, err := os.Stat(constants.DefaultConfigFile); err == nil {
			path = constants.DefaultConfigFile
		}
	}

	conf, err := config.LoadConfiguration(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration at %s: %w", path, err)
	}

	logger, err := initializeLogger(conf.Logging, o.logLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	for _, warning := range conf.ValidateConfiguration() {
		logger.Warn("Configuration warning: "+warning,
			zap.String("op", "main"),
		)
	}
	return conf, logger, nil
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:     "financing-wizard",
		Short:   "Real estate financing simulator and proposal wizard",
		Version: buildinfo.String(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to configuration file (config.yaml in the working directory when present, otherwise defaults plus FINWIZ_* environment)")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level override (debug, info, warn, error)")

	rootCmd.AddCommand(
		newServeCommand(opts),
		newSimulateCommand(opts),
		newValidateCommand(),
		newMigrateCommand(opts),
		newHashPasswordCommand(),
		newVersionCommand(),
	)
	return rootCmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), buildinfo.String())
		},
	}
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
