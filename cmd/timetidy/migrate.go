package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/timetidy/timetidy-service/internal/db"
)

func migrateCmd() *cobra.Command {
	var down int

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back PostgreSQL migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.cfg.Store.Driver != "postgres" {
				return errors.New("migrate requires store.driver: postgres")
			}
			if down > 0 {
				if err := db.MigrateDown(app.cfg.Database, down); err != nil {
					return err
				}
				app.logger.Info("Rolled back migrations")
				return nil
			}
			return db.Migrate(app.cfg.Database, app.logger)
		},
	}

	cmd.Flags().IntVar(&down, "down", 0, "Roll back this many migrations instead of migrating up")

	return cmd
}
