package cmd

import (
	"fmt"

	"jobward/internal/config"
	"jobward/internal/logger"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations",
	Long:  `Create or update the jobs schema for the configured store driver.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		log := logger.New(cfg.LogLevel)

		st, err := openStore(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Migrate(); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
		log.Info("migrations applied", "store_driver", cfg.StoreDriver)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
