package jobs

import (
	"context"
	"errors"
	"time"
)

// Trigger records what asked for a refresh.
type Trigger string

const (
	// TriggerManual is a refresh requested through the API.
	TriggerManual Trigger = "manual"
	// TriggerSchedule is a refresh started by the periodic scheduler.
	TriggerSchedule Trigger = "schedule"
	// TriggerMappingChange is a refresh after the field mapping file changed.
	TriggerMappingChange Trigger = "mapping_change"
)

// JobStatus represents the current status of a job.
type JobStatus string

const (
	// JobStatusPending indicates the job is waiting to be processed.
	JobStatusPending JobStatus = "pending"
	// JobStatusRunning indicates the job is currently being processed.
	JobStatusRunning JobStatus = "running"
	// JobStatusCompleted indicates the job completed successfully.
	JobStatusCompleted JobStatus = "completed"
	// JobStatusFailed indicates the job failed.
	JobStatusFailed JobStatus = "failed"
)

// ErrJobNotFound is returned by JobStore lookups for unknown IDs.
var ErrJobNotFound = errors.New("job not found")

// ErrQueueFull is returned when no more refreshes can be buffered.
var ErrQueueFull = errors.New("job queue is full")

// RefreshResult is what a completed refresh reports.
type RefreshResult struct {
	RunID       string `json:"run_id"`
	Status      string `json:"status"`
	Fingerprint string `json:"fingerprint"`
	RecordCount int    `json:"record_count"`
}

// RefreshJob is one request to run the report pipeline.
type RefreshJob struct {
	// JobID is the unique identifier for this job.
	JobID string `json:"job_id"`

	Trigger Trigger `json:"trigger"`

	// Status is the current status of the job.
	Status JobStatus `json:"status"`

	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// Error contains error details if the job failed.
	Error string `json:"error,omitempty"`

	// Result is set when the job completed.
	Result *RefreshResult `json:"result,omitempty"`
}

// Publisher enqueues refresh jobs.
type Publisher interface {
	PublishRefresh(ctx context.Context, job *RefreshJob) error
	Close() error
}

// Consumer runs queued jobs through a handler.
type Consumer interface {
	// Start begins consuming jobs from the queue.
	Start(ctx context.Context, handler JobHandler) error

	// Stop stops consuming jobs and waits for in-flight jobs to complete.
	Stop(ctx context.Context) error
}

// JobHandler runs one job. It may fill job.Result; a returned error marks
// the job failed. Jobs are not retried: the next trigger runs again.
type JobHandler func(ctx context.Context, job *RefreshJob) error

// JobStore keeps job state for the API.
type JobStore interface {
	// SaveJob saves or updates a job's state.
	SaveJob(ctx context.Context, job *RefreshJob) error

	// GetJob retrieves a job by ID. Unknown IDs return ErrJobNotFound.
	GetJob(ctx context.Context, jobID string) (*RefreshJob, error)

	// ListJobs returns jobs newest first.
	ListJobs(ctx context.Context, filter JobFilter) ([]*RefreshJob, error)
}

// JobFilter defines filtering criteria for listing jobs.
type JobFilter struct {
	Trigger Trigger
	Status  JobStatus

	// Limit limits the number of results.
	Limit int

	// Offset for pagination.
	Offset int
}
