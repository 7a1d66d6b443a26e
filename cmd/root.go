package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/agentic-research/exporttree/internal/config"
	"github.com/agentic-research/exporttree/internal/logging"
)

var version = "dev"

// options are the flags shared by every subcommand.
type options struct {
	configPath string
	sourcePath string
	sourceKind string
	wiki       string
	logLevel   string
	logFormat  string
}

var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "exporttree",
		Short:         "Compress wiki export selections into inclusion/exclusion patterns",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	f := root.PersistentFlags()
	f.StringVarP(&opts.configPath, "config", "c", "", "Path to an HCL config file")
	f.StringVarP(&opts.sourcePath, "source", "s", "", "Fixture to load the tree from (.json or .db)")
	f.StringVar(&opts.sourceKind, "kind", "", "Source kind: json or sqlite (default: from extension)")
	f.StringVar(&opts.wiki, "wiki", "", "Wiki name (default: from the fixture)")
	f.StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	f.StringVar(&opts.logFormat, "log-format", "", "Log format (console, json)")

	root.AddCommand(newBuildCmd(opts), newExportCmd(opts), newServeCmd(opts))
	return root
}

// resolve loads the config file, if any, and applies flag overrides.
func (o *options) resolve(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.Default()
	if o.configPath != "" {
		var err error
		if cfg, err = config.Load(o.configPath); err != nil {
			return nil, err
		}
	}
	flags := cmd.Flags()
	if o.sourcePath != "" {
		if cfg.Source == nil {
			cfg.Source = &config.Source{}
		}
		cfg.Source.Path = o.sourcePath
	}
	if flags.Changed("kind") {
		if cfg.Source == nil {
			cfg.Source = &config.Source{}
		}
		cfg.Source.Kind = o.sourceKind
	}
	if flags.Changed("wiki") {
		cfg.Wiki = o.wiki
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = o.logLevel
	}
	if flags.Changed("log-format") {
		cfg.LogFormat = o.logFormat
	}
	return cfg, nil
}

func newLogger(cmd *cobra.Command, cfg *config.Config) (*zap.Logger, error) {
	return logging.New(cfg.LogLevel, cfg.LogFormat, cmd.ErrOrStderr())
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
