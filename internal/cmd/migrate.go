package cmd

import (
	"log/slog"

	"github.com/adagearchive/moderation/internal/database"
	"github.com/adagearchive/moderation/pkg/log"
	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	migrate := &cobra.Command{
		Use:   "migrate",
		Short: "Create, update or remove the database schema",
	}

	migrate.AddCommand(migrateActionCmd("up", "Apply all pending migrations", database.MigrateUp))
	migrate.AddCommand(migrateActionCmd("down", "Revert every migration", database.MigrateDn))

	return migrate
}

func migrateActionCmd(use string, short string, action database.MigrationAction) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, errApp := NewApp()
			if errApp != nil {
				return errApp
			}

			defer app.Close()

			// Migrations run explicitly below, never as a side effect of connecting.
			dbConn := database.New(app.config.Database.DSN, false, app.config.Database.LogQueries)
			if errConnect := dbConn.Connect(cmd.Context()); errConnect != nil {
				return errConnect
			}

			defer log.Closer(dbConn)

			if errMigrate := dbConn.Migrate(action); errMigrate != nil {
				slog.Error("Could not migrate schema", log.ErrAttr(errMigrate))

				return errMigrate
			}

			slog.Info("Migration completed successfully", slog.String("action", use))

			return nil
		},
	}
}
