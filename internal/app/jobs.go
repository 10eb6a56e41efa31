package app

import (
	"context"
	"errors"
	"time"

	"github.com/dvloznov/expense-dashboard/internal/jobs"
	"github.com/dvloznov/expense-dashboard/internal/logger"
	"github.com/dvloznov/expense-dashboard/internal/notionsync"
	"github.com/dvloznov/expense-dashboard/internal/pipeline"
	"github.com/rs/zerolog"
)

// Runner is satisfied by *pipeline.Orchestrator.
type Runner interface {
	Run(ctx context.Context) (*pipeline.Result, error)
}

// RefreshHandler returns a job handler that performs one report run per job.
func RefreshHandler(runner Runner, log zerolog.Logger) jobs.JobHandler {
	return func(ctx context.Context, job *jobs.RefreshJob) error {
		jobLog := log.With().Str("job_id", job.JobID).Str("trigger", string(job.Trigger)).Logger()
		ctx = logger.WithContext(ctx, jobLog)

		jobLog.Info().Msg("Processing refresh job")

		res, err := runner.Run(ctx)
		if err != nil {
			jobLog.Error().Err(err).Msg("Refresh job failed")
			return err
		}

		job.Result = &jobs.RefreshResult{
			RunID:       res.Run.ID,
			Status:      string(res.Status),
			Fingerprint: res.Run.Fingerprint,
			RecordCount: res.Run.RecordCount,
		}

		jobLog.Info().Str("status", string(res.Status)).Msg("Refresh job completed")
		return nil
	}
}

// Schedule enqueues a refresh right away and then every interval until ctx
// is cancelled. A tick that finds the queue full is dropped.
func Schedule(ctx context.Context, publisher jobs.Publisher, interval time.Duration, log zerolog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Info().Dur("interval", interval).Msg("Starting refresh scheduler")

	for {
		enqueue(ctx, publisher, jobs.TriggerSchedule, log)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// WatchMapping swaps the normalizer's mapping whenever the mapping file
// changes and enqueues a refresh so the new mapping is published.
func (a *App) WatchMapping(ctx context.Context, publisher jobs.Publisher) error {
	if a.Config.FieldMappingFile == "" {
		return nil
	}
	return notionsync.WatchMapping(ctx, a.Config.FieldMappingFile, a.log, func(m notionsync.FieldMapping) {
		a.Normalizer.SetMapping(m)
		enqueue(ctx, publisher, jobs.TriggerMappingChange, a.log)
	})
}

func enqueue(ctx context.Context, publisher jobs.Publisher, trigger jobs.Trigger, log zerolog.Logger) {
	job := &jobs.RefreshJob{Trigger: trigger}
	err := publisher.PublishRefresh(ctx, job)
	switch {
	case errors.Is(err, jobs.ErrQueueFull):
		log.Debug().Str("trigger", string(trigger)).Msg("Refresh already queued, skipping")
	case err != nil:
		log.Error().Err(err).Str("trigger", string(trigger)).Msg("Failed to enqueue refresh job")
	default:
		log.Debug().Str("job_id", job.JobID).Str("trigger", string(trigger)).Msg("Refresh job enqueued")
	}
}
