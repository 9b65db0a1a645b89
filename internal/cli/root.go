package cli

import (
	"context"

	"allowance-app-go/internal/app"
	"allowance-app-go/internal/config"
	"allowance-app-go/pkg/logger"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
	log        logger.Logger
}

// NewRootCommand builds the allowance command tree.
func NewRootCommand(log logger.Logger) *cobra.Command {
	opts := &rootOptions{log: log}

	root := &cobra.Command{
		Use:           "allowance",
		Short:         "Household allowance ledger",
		Long:          "Track children's balances, chores and money requests for a household.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Path to a TOML config file (defaults to $CONFIG_FILE)")

	root.AddCommand(
		newServeCommand(opts),
		newExportCommand(opts),
		newReleaseCommand(opts),
	)
	return root
}

func (o *rootOptions) loadConfig() (config.Config, error) {
	return config.Load(o.log, o.configPath)
}

// openApp loads configuration and wires the application for one-shot
// commands that talk to the ledger directly.
func (o *rootOptions) openApp(ctx context.Context) (*app.App, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	cfg.Metrics.Enabled = false
	return app.New(ctx, cfg, o.log)
}
