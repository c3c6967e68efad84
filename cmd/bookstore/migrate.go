package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chapterzero/bookstore/internal/app"
	"github.com/chapterzero/bookstore/internal/infrastructure/db/mysql"
	"github.com/chapterzero/bookstore/internal/infrastructure/db/postgres"
	"github.com/chapterzero/bookstore/internal/pkg/config"
	"github.com/chapterzero/bookstore/pkg/logger"
)

// migrateCmd represents the migrate command.
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the credential store schema",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Create or update tables, indexes and seed roles",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		cfg, err := bootstrap(ctx)
		if err != nil {
			return err
		}
		log := logger.Get()

		store, err := app.OpenStore(ctx, cfg, true)
		if err != nil {
			return fmt.Errorf("migrate up failed: %w", err)
		}
		log.Info().Str("driver", cfg.StoreDriver).Msg("schema up to date")
		return store.Close(ctx)
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Drop the schema created by migrate up",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		cfg, err := bootstrap(ctx)
		if err != nil {
			return err
		}
		log := logger.Get()

		switch cfg.StoreDriver {
		case config.DriverPostgres:
			if err := postgres.Migrate(cfg.Postgres.DSN, false); err != nil {
				return fmt.Errorf("migrate down failed: %w", err)
			}
		case config.DriverMySQL:
			db, err := mysql.Open(ctx, cfg.MySQL.DSN)
			if err != nil {
				return err
			}
			if err := mysql.Rollback(ctx, db); err != nil {
				return fmt.Errorf("migrate down failed: %w", err)
			}
			if sqlDB, err := db.DB(); err == nil {
				_ = sqlDB.Close()
			}
		default:
			return fmt.Errorf("migrate down is not supported for the %s driver", cfg.StoreDriver)
		}

		log.Info().Str("driver", cfg.StoreDriver).Msg("schema rolled back")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd)
}
