package cli

import (
	"fmt"

	"shopapp/internal/config"
	"shopapp/internal/logger"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Port   string
	Driver string
}

// NewRootCommand creates the root command for shopd.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:          "shopd",
		Short:        "Shopping app backend and intent bridge",
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.Port, "port", "", "bridge port (overrides APP_PORT)")
	cmd.PersistentFlags().StringVar(&opts.Driver, "store", "", "store driver: sqlite3|postgres|memory (overrides STORE_DRIVER)")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewMigrateCommand(opts))

	return cmd
}

// loadConfig reads the environment, applies flag overrides and validates.
func loadConfig(opts *RootOptions) (*config.Config, error) {
	cfg := config.LoadConfig()
	if opts.Port != "" {
		cfg.AppPort = opts.Port
	}
	if opts.Driver != "" {
		cfg.StoreDriver = opts.Driver
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	logger.Init(cfg.AppEnv)
	return cfg, nil
}
