package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/dvloznov/expense-dashboard/internal/aggregate"
	"github.com/dvloznov/expense-dashboard/internal/api/middleware"
	"github.com/dvloznov/expense-dashboard/internal/jobs"
	"github.com/dvloznov/expense-dashboard/internal/pipeline"
	"github.com/dvloznov/expense-dashboard/internal/render"
	"github.com/rs/zerolog"
)

// ErrNoSnapshot is returned by a SnapshotSource before the first publish.
var ErrNoSnapshot = errors.New("no published snapshot")

// SnapshotSource returns the most recently published views.
type SnapshotSource interface {
	Latest(ctx context.Context) (*render.Snapshot, error)
}

// Previewer computes views from live data without publishing.
type Previewer interface {
	Preview(ctx context.Context) (*pipeline.Result, error)
}

// ViewsHandler serves aggregated views.
type ViewsHandler struct {
	snapshots SnapshotSource
	previewer Previewer
	log       zerolog.Logger
}

// NewViewsHandler creates a new views handler. previewer may be nil, which
// disables live previews.
func NewViewsHandler(snapshots SnapshotSource, previewer Previewer, log zerolog.Logger) *ViewsHandler {
	return &ViewsHandler{snapshots: snapshots, previewer: previewer, log: log}
}

// ListViews handles GET /api/views. With ?live=1 the views are computed from
// the source instead of read from the last publish. ?name= selects one view.
func (h *ViewsHandler) ListViews(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()

	var resp render.Snapshot
	if live, _ := strconv.ParseBool(query.Get("live")); live {
		if h.previewer == nil {
			middleware.WriteError(w, http.StatusNotImplemented, "Live preview is not available")
			return
		}
		res, err := h.previewer.Preview(ctx)
		if err != nil {
			h.log.Error().Err(err).Msg("Failed to preview views")
			middleware.WriteError(w, http.StatusBadGateway, "Failed to read expense data")
			return
		}
		resp = render.Snapshot{Run: res.Run, Views: res.Views}
	} else {
		snap, err := h.snapshots.Latest(ctx)
		if errors.Is(err, ErrNoSnapshot) {
			middleware.WriteError(w, http.StatusNotFound, "No report has been published yet")
			return
		}
		if err != nil {
			h.log.Error().Err(err).Msg("Failed to load snapshot")
			middleware.WriteError(w, http.StatusInternalServerError, "Failed to load views")
			return
		}
		resp = *snap
	}

	if name := query.Get("name"); name != "" {
		resp.Views = filterViews(resp.Views, name)
		if len(resp.Views) == 0 {
			middleware.WriteError(w, http.StatusNotFound, "View not found")
			return
		}
	}

	middleware.WriteJSON(w, http.StatusOK, resp)
}

func filterViews(views []aggregate.View, name string) []aggregate.View {
	for _, v := range views {
		if v.Name == name {
			return []aggregate.View{v}
		}
	}
	return nil
}

// RefreshHandler enqueues report runs.
type RefreshHandler struct {
	publisher jobs.Publisher
	log       zerolog.Logger
}

// NewRefreshHandler creates a new refresh handler.
func NewRefreshHandler(publisher jobs.Publisher, log zerolog.Logger) *RefreshHandler {
	return &RefreshHandler{publisher: publisher, log: log}
}

// Refresh handles POST /api/refresh
func (h *RefreshHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	job := &jobs.RefreshJob{Trigger: jobs.TriggerManual}

	err := h.publisher.PublishRefresh(r.Context(), job)
	if errors.Is(err, jobs.ErrQueueFull) {
		middleware.WriteError(w, http.StatusServiceUnavailable, "A refresh is already queued")
		return
	}
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to enqueue refresh job")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to enqueue refresh job")
		return
	}

	h.log.Info().Str("job_id", job.JobID).Msg("Refresh job enqueued")

	middleware.WriteJSON(w, http.StatusAccepted, map[string]string{
		"job_id": job.JobID,
		"status": string(job.Status),
	})
}

// JobsHandler handles job-related endpoints.
type JobsHandler struct {
	store jobs.JobStore
	log   zerolog.Logger
}

// NewJobsHandler creates a new jobs handler.
func NewJobsHandler(store jobs.JobStore, log zerolog.Logger) *JobsHandler {
	return &JobsHandler{
		store: store,
		log:   log,
	}
}

// GetJob handles GET /api/jobs/{id}
func (h *JobsHandler) GetJob(w http.ResponseWriter, r *http.Request, jobID string) {
	job, err := h.store.GetJob(r.Context(), jobID)
	if errors.Is(err, jobs.ErrJobNotFound) {
		middleware.WriteError(w, http.StatusNotFound, "Job not found")
		return
	}
	if err != nil {
		h.log.Error().Err(err).Str("job_id", jobID).Msg("Failed to get job")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to get job")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, job)
}

// ListJobs handles GET /api/jobs
func (h *JobsHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := jobs.JobFilter{
		Trigger: jobs.Trigger(query.Get("trigger")),
		Status:  jobs.JobStatus(query.Get("status")),
	}

	if limitStr := query.Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil {
			filter.Limit = limit
		}
	}

	if offsetStr := query.Get("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil {
			filter.Offset = offset
		}
	}

	jobsList, err := h.store.ListJobs(r.Context(), filter)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list jobs")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list jobs")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":  jobsList,
		"count": len(jobsList),
	})
}

// Health handles GET /health
func Health(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}
