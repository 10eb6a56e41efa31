package main

import (
	"fmt"

	"github.com/dvloznov/expense-dashboard/internal/pipeline"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the report pipeline once",
	Long: `Fetches every expense, and when the data changed since the last
published run, renders the dashboard and records the new fingerprint.

Meant to be invoked from cron or a scheduled job.`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, _ []string) error {
	a, ctx, cancel, log, err := setup(cmd)
	if err != nil {
		return err
	}
	defer cancel()
	defer func() {
		if err := a.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close clients")
		}
	}()

	res, err := a.Orchestrator.Run(ctx)
	if err != nil {
		return fmt.Errorf("report run failed: %w", err)
	}

	switch res.Status {
	case pipeline.StatusUpdated:
		cmd.Printf("Updated: %d records, fingerprint %s\n", res.Run.RecordCount, res.Run.Fingerprint)
	case pipeline.StatusNoUpdate:
		cmd.Println("No changes since the last run.")
	}
	return nil
}
