package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/dvloznov/expense-dashboard/internal/app"
	"github.com/dvloznov/expense-dashboard/internal/config"
	"github.com/dvloznov/expense-dashboard/internal/logger"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	logLevel string
	siteDir  string
	backend  string
	timeout  time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "cli",
	Short: "Expense dashboard CLI",
	Long: `Builds the expense dashboard from a Notion database.

Configuration is read from the environment (and a .env file when present).
Flags override the matching variables.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (overrides LOG_LEVEL)")
	rootCmd.PersistentFlags().StringVar(&siteDir, "site-dir", "", "output directory (overrides SITE_DIR)")
	rootCmd.PersistentFlags().StringVar(&backend, "fingerprint-backend", "", "file, sqlite, gcs or memory (overrides FINGERPRINT_BACKEND)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 5*time.Minute, "maximum duration of one run")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads and validates configuration with flag overrides applied.
func loadConfig() (*config.Config, error) {
	config.LoadDotEnv()
	cfg := config.Load()

	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if siteDir != "" {
		cfg.SiteDir = siteDir
	}
	if backend != "" {
		cfg.FingerprintBackend = backend
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setup wires an App and a context bounded by --timeout.
func setup(cmd *cobra.Command) (*app.App, context.Context, context.CancelFunc, zerolog.Logger, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, nil, zerolog.Logger{}, err
	}

	log := logger.NewWithLevel(cfg.LogLevel)
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	ctx = logger.WithContext(ctx, log)

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		cancel()
		return nil, nil, nil, log, fmt.Errorf("initialize: %w", err)
	}
	return a, ctx, cancel, log, nil
}
