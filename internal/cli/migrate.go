package cli

import (
	"fmt"

	"shopapp/internal/config"
	"shopapp/internal/db"
	"shopapp/internal/logger"

	"github.com/spf13/cobra"
)

// NewMigrateCommand creates the migrate command.
func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	var mode string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back the storage schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if mode != db.MigrateUp && mode != db.MigrateDown {
				return fmt.Errorf("unknown mode: %s (use 'up' or 'down')", mode)
			}

			cfg, err := loadConfig(rootOpts)
			if err != nil {
				return err
			}
			defer logger.Sync()

			if cfg.StoreDriver == config.DriverMemory {
				return fmt.Errorf("the %s store has no schema", config.DriverMemory)
			}

			conn := db.InitDB(cfg)
			defer conn.Close()

			if err := db.Migrate(cmd.Context(), conn, mode); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "migrate %s: done\n", mode)
			return nil
		},
	}

	cmd.Flags().StringVar(&mode, "mode", db.MigrateUp, "migration mode: up or down")
	return cmd
}
