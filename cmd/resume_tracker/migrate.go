package main

import (
	"context"
	"fmt"
	"io"

	"github.com/jonathan/resume-tracker/internal/db"
	"github.com/spf13/cobra"
)

var migrateDBURL string

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the database schema",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withDatabase(cmdContext(cmd), func(ctx context.Context, database *db.DB) error {
			if err := database.Migrate(ctx); err != nil {
				return err
			}
			return printSchemaVersion(ctx, cmd.OutOrStdout(), database)
		})
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back the most recent migration",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withDatabase(cmdContext(cmd), func(ctx context.Context, database *db.DB) error {
			if err := database.MigrateDown(ctx); err != nil {
				return err
			}
			return printSchemaVersion(ctx, cmd.OutOrStdout(), database)
		})
	},
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the current schema version",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withDatabase(cmdContext(cmd), func(ctx context.Context, database *db.DB) error {
			return printSchemaVersion(ctx, cmd.OutOrStdout(), database)
		})
	},
}

func init() {
	migrateCmd.PersistentFlags().StringVar(&migrateDBURL, "db-url", "", "PostgreSQL connection URL (defaults to DATABASE_URL env var)")
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd, migrateStatusCmd)
	rootCmd.AddCommand(migrateCmd)
}

func withDatabase(ctx context.Context, fn func(context.Context, *db.DB) error) error {
	fileCfg, err := loadFileConfig()
	if err != nil {
		return err
	}
	url := migrateDBURL
	if url == "" {
		url = fileCfg.DatabaseURL
	}
	url, err = databaseURL(url)
	if err != nil {
		return err
	}

	database, err := db.Connect(ctx, url)
	if err != nil {
		return err
	}
	defer database.Close()
	return fn(ctx, database)
}

func printSchemaVersion(ctx context.Context, out io.Writer, database *db.DB) error {
	version, err := database.SchemaVersion(ctx)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(out, "Schema version: %d\n", version)
	return nil
}
