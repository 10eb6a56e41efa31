package api

import (
	"net/http"
	"strings"

	"github.com/dvloznov/expense-dashboard/internal/api/handlers"
	"github.com/dvloznov/expense-dashboard/internal/api/middleware"
	"github.com/dvloznov/expense-dashboard/internal/jobs"
	"github.com/rs/zerolog"
)

// RouterConfig holds what the HTTP API serves.
type RouterConfig struct {
	// SiteDir is served at / when set.
	SiteDir   string
	Snapshots handlers.SnapshotSource
	Previewer handlers.Previewer
	Publisher jobs.Publisher
	JobStore  jobs.JobStore
}

// NewRouter builds the API handler with middleware applied.
func NewRouter(cfg RouterConfig, log zerolog.Logger) http.Handler {
	viewsHandler := handlers.NewViewsHandler(cfg.Snapshots, cfg.Previewer, log)
	refreshHandler := handlers.NewRefreshHandler(cfg.Publisher, log)
	jobsHandler := handlers.NewJobsHandler(cfg.JobStore, log)

	mux := http.NewServeMux()

	mux.HandleFunc("/api/views", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			viewsHandler.ListViews(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/refresh", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			refreshHandler.Refresh(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/jobs", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			jobsHandler.ListJobs(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/jobs/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		jobID := strings.TrimPrefix(r.URL.Path, "/api/jobs/")
		if jobID == "" {
			middleware.WriteError(w, http.StatusBadRequest, "Job ID is required")
			return
		}
		jobsHandler.GetJob(w, r, jobID)
	})

	mux.HandleFunc("/health", handlers.Health)

	if cfg.SiteDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(cfg.SiteDir)))
	}

	return middleware.Recovery(log)(
		middleware.RequestID(
			middleware.Logger(log)(
				middleware.CORS(mux),
			),
		),
	)
}
