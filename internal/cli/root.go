package cli

import (
	"context"
	"os"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/flowcanvas/flowcanvas/pkg/buildinfo"
	"github.com/flowcanvas/flowcanvas/pkg/config"
)

// Execute runs the flowcanvas CLI and returns an error if any command fails.
//
// Logging goes to stderr at info level, or debug with --verbose. The logger
// and loaded configuration are attached to the command context and reachable
// from every subcommand via loggerFromContext and configFromContext.
func Execute(ctx context.Context) error {
	var (
		verbose bool
		cfgPath string
	)

	root := &cobra.Command{
		Use:          "flowcanvas",
		Short:        "FlowCanvas edits data pipelines as visual graphs",
		Long:         `FlowCanvas is an interactive editor for data pipelines: draw sources and transform steps as a graph, wire them together, and convert between the drawn graph and ordered transform chains.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := charmlog.InfoLevel
			if verbose {
				level = charmlog.DebugLevel
			}
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			ctx := withLogger(cmd.Context(), newLogger(os.Stderr, level))
			cmd.SetContext(withConfig(ctx, cfg))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVar(&cfgPath, "config", defaultConfigPath(), "path to a TOML config file")

	root.AddCommand(newEditCmd())
	root.AddCommand(newConvertCmd())
	root.AddCommand(newLayoutCmd())
	root.AddCommand(newServeCmd())
	root.AddCommand(newSnapshotCmd())

	return root.ExecuteContext(ctx)
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "flowcanvas.toml"
	}
	return home + "/.config/flowcanvas/config.toml"
}

const configKey ctxKey = 1

func withConfig(ctx context.Context, cfg config.Config) context.Context {
	return context.WithValue(ctx, configKey, cfg)
}

// configFromContext retrieves the configuration loaded by the root command.
func configFromContext(ctx context.Context) config.Config {
	if cfg, ok := ctx.Value(configKey).(config.Config); ok {
		return cfg
	}
	return config.Default()
}
