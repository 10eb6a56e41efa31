package notionsync

import (
	"context"
	"fmt"

	"github.com/jomei/notionapi"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const (
	// DefaultPageSize is the largest page size the Notion API accepts.
	DefaultPageSize = 100

	// DefaultRequestsPerSecond stays within Notion's average limit of three requests per second.
	DefaultRequestsPerSecond = 3.0
)

// FetcherConfig configures a Fetcher.
type FetcherConfig struct {
	DatabaseID        string
	PageSize          int
	RequestsPerSecond float64
}

// Fetcher reads every page of an expenses database and hands back the raw
// property bundles. It does not retry: the first failed request ends the fetch.
type Fetcher struct {
	service    NotionService
	databaseID string
	pageSize   int
	limiter    *rate.Limiter
	log        zerolog.Logger
}

// NewFetcher creates a Fetcher for one database.
func NewFetcher(service NotionService, cfg FetcherConfig, log zerolog.Logger) *Fetcher {
	if cfg.PageSize <= 0 || cfg.PageSize > DefaultPageSize {
		cfg.PageSize = DefaultPageSize
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = DefaultRequestsPerSecond
	}

	return &Fetcher{
		service:    service,
		databaseID: cfg.DatabaseID,
		pageSize:   cfg.PageSize,
		limiter:    rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
		log:        log,
	}
}

// FetchAll follows the query cursor until the database is exhausted.
// Archived pages are dropped.
func (f *Fetcher) FetchAll(ctx context.Context) ([]notionapi.Properties, error) {
	var bundles []notionapi.Properties
	var cursor notionapi.Cursor
	requests := 0

	for {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("FetchAll: rate limiter: %w", err)
		}

		req := &notionapi.DatabaseQueryRequest{
			PageSize: f.pageSize,
		}

		// Only set StartCursor if we have a cursor value
		if cursor != "" {
			req.StartCursor = cursor
		}

		resp, err := f.service.QueryDatabase(ctx, f.databaseID, req)
		if err != nil {
			return nil, fmt.Errorf("FetchAll: %w", err)
		}
		requests++

		for _, page := range resp.Results {
			if page.Archived {
				continue
			}
			bundles = append(bundles, page.Properties)
		}

		if !resp.HasMore || resp.NextCursor == "" {
			break
		}
		cursor = resp.NextCursor
	}

	f.log.Info().
		Str("database_id", f.databaseID).
		Int("requests", requests).
		Int("pages", len(bundles)).
		Msg("Fetched expense pages from Notion")

	return bundles, nil
}
