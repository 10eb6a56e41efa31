package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dvloznov/expense-dashboard/internal/api"
	"github.com/dvloznov/expense-dashboard/internal/app"
	"github.com/dvloznov/expense-dashboard/internal/config"
	"github.com/dvloznov/expense-dashboard/internal/jobs/inmemory"
	"github.com/dvloznov/expense-dashboard/internal/logger"
)

func main() {
	config.LoadDotEnv()
	cfg := config.Load()

	// Parse command-line flags
	var (
		port     = flag.String("port", cfg.Port, "HTTP server port (or set PORT env)")
		schedule = flag.Bool("schedule", true, "enqueue a refresh every REFRESH_INTERVAL")
	)
	flag.Parse()
	cfg.Port = *port

	// Initialize logger
	log := logger.NewWithLevel(cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	ctx := context.Background()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize report pipeline")
	}
	defer a.Close()

	// Initialize job infrastructure
	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(1, jobStore)

	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()

	if err := jobQueue.Start(workerCtx, app.RefreshHandler(a.Orchestrator, log)); err != nil {
		log.Fatal().Err(err).Msg("Failed to start job worker")
	}

	if *schedule {
		go app.Schedule(workerCtx, jobQueue, cfg.RefreshInterval, log)
	}

	go func() {
		if err := a.WatchMapping(workerCtx, jobQueue); err != nil {
			log.Error().Err(err).Msg("Field mapping watcher stopped")
		}
	}()

	handler := api.NewRouter(api.RouterConfig{
		SiteDir:   cfg.SiteDir,
		Snapshots: a.Snapshots,
		Previewer: a.Orchestrator,
		Publisher: jobQueue,
		JobStore:  jobStore,
	}, log)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// Stop job queue and wait for the in-flight run
	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping job queue")
	}
	cancelWorker()

	log.Info().Msg("Server exited")
}
