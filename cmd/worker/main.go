package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dvloznov/expense-dashboard/internal/app"
	"github.com/dvloznov/expense-dashboard/internal/config"
	"github.com/dvloznov/expense-dashboard/internal/jobs/inmemory"
	"github.com/dvloznov/expense-dashboard/internal/logger"
)

func main() {
	config.LoadDotEnv()
	cfg := config.Load()

	// Initialize logger
	log := logger.NewWithLevel(cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize report pipeline")
	}
	defer a.Close()

	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(1, jobStore)

	log.Info().Msg("Starting worker service")

	if err := jobQueue.Start(ctx, app.RefreshHandler(a.Orchestrator, log)); err != nil {
		log.Fatal().Err(err).Msg("Failed to start job consumer")
	}

	go app.Schedule(ctx, jobQueue, cfg.RefreshInterval, log)

	go func() {
		if err := a.WatchMapping(ctx, jobQueue); err != nil {
			log.Error().Err(err).Msg("Field mapping watcher stopped")
		}
	}()

	log.Info().Dur("interval", cfg.RefreshInterval).Msg("Worker service started")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down worker service...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	// Stop the queue and wait for the in-flight run
	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error during graceful shutdown")
	}
	cancel()

	log.Info().Msg("Worker service exited")
}
