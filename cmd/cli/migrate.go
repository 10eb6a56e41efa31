package main

import (
	"context"
	"fmt"

	"github.com/dvloznov/expense-dashboard/internal/config"
	infraBQ "github.com/dvloznov/expense-dashboard/internal/infra/bigquery"
	"github.com/dvloznov/expense-dashboard/internal/infra/sqlite"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Prepare storage schemas",
	Long: `Applies pending SQLite migrations when the sqlite fingerprint backend
is selected, and creates the BigQuery views table when export is enabled.
Both steps are idempotent.`,
	Args: cobra.NoArgs,
	RunE: runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	applied := 0

	if cfg.FingerprintBackend == config.BackendSQLite {
		if err := sqlite.RunMigrations(cfg.SQLiteDBPath); err != nil {
			return fmt.Errorf("sqlite migrations: %w", err)
		}
		cmd.Printf("SQLite schema up to date: %s\n", cfg.SQLiteDBPath)
		applied++
	}

	if cfg.BigQueryEnabled() {
		exporter, err := infraBQ.NewViewExporter(ctx, cfg.BigQueryProject, cfg.BigQueryDataset, cfg.BigQueryTable)
		if err != nil {
			return err
		}
		defer exporter.Close()

		if err := exporter.EnsureTable(ctx); err != nil {
			return fmt.Errorf("bigquery table: %w", err)
		}
		cmd.Printf("BigQuery table ready: %s.%s.%s\n", cfg.BigQueryProject, cfg.BigQueryDataset, cfg.BigQueryTable)
		applied++
	}

	if applied == 0 {
		cmd.Println("Nothing to migrate for the configured backends.")
	}
	return nil
}
