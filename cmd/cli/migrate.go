package cli

import (
	"fmt"

	"zuzuplan-backend/internal/schema"
	"zuzuplan-backend/pkg/config"
	"zuzuplan-backend/pkg/database"
	"zuzuplan-backend/pkg/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		log, err := logger.New(cfg.AppEnv)
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		defer func() { _ = log.Sync() }()

		db, err := database.NewPostgresConnection(cfg, log)
		if err != nil {
			return err
		}
		if err := schema.Migrate(db); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		log.Info("schema migrated", zap.Int("models", len(schema.Models())))
		return nil
	},
}
