// Package app builds the report pipeline and its collaborators from configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/dvloznov/expense-dashboard/internal/api/handlers"
	"github.com/dvloznov/expense-dashboard/internal/config"
	"github.com/dvloznov/expense-dashboard/internal/fingerprint"
	infraBQ "github.com/dvloznov/expense-dashboard/internal/infra/bigquery"
	"github.com/dvloznov/expense-dashboard/internal/infra/gcs"
	"github.com/dvloznov/expense-dashboard/internal/infra/sqlite"
	"github.com/dvloznov/expense-dashboard/internal/notify"
	"github.com/dvloznov/expense-dashboard/internal/notionsync"
	"github.com/dvloznov/expense-dashboard/internal/pipeline"
	"github.com/dvloznov/expense-dashboard/internal/render"
	"github.com/rs/zerolog"
)

// App holds a wired orchestrator and everything that must be closed with it.
type App struct {
	Config       *config.Config
	Normalizer   *notionsync.Normalizer
	Orchestrator *pipeline.Orchestrator
	Snapshots    handlers.SnapshotSource

	gcs     *gcs.Client
	closers []io.Closer
	log     zerolog.Logger
}

// Option customizes New.
type Option func(*options)

type options struct {
	fetcher pipeline.Fetcher
	store   fingerprint.Store
}

// WithFetcher replaces the Notion fetcher.
func WithFetcher(f pipeline.Fetcher) Option {
	return func(o *options) { o.fetcher = f }
}

// WithStore replaces the configured fingerprint backend.
func WithStore(s fingerprint.Store) Option {
	return func(o *options) { o.store = s }
}

// New wires an App from cfg. cfg is expected to be validated.
func New(ctx context.Context, cfg *config.Config, log zerolog.Logger, opts ...Option) (*App, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	a := &App{Config: cfg, log: log}

	mapping := notionsync.DefaultMapping()
	if cfg.FieldMappingFile != "" {
		m, err := notionsync.LoadMapping(cfg.FieldMappingFile)
		if err != nil {
			return nil, fmt.Errorf("load field mapping: %w", err)
		}
		mapping = m
	}
	a.Normalizer = notionsync.NewNormalizer(mapping, log)

	fetcher := o.fetcher
	if fetcher == nil {
		fetcher = notionsync.NewFetcher(notionsync.NewNotionClient(cfg.NotionToken), notionsync.FetcherConfig{
			DatabaseID:        cfg.NotionDatabaseID,
			PageSize:          cfg.NotionPageSize,
			RequestsPerSecond: cfg.NotionRateLimit,
		}, log)
	}

	if cfg.GCSBucket != "" && (cfg.PublishGCS || cfg.FingerprintBackend == config.BackendGCS) {
		client, err := gcs.NewClient(ctx, cfg.GCSBucket, cfg.GCSPrefix, log)
		if err != nil {
			return nil, fmt.Errorf("create GCS client: %w", err)
		}
		a.gcs = client
		a.closers = append(a.closers, client)
	}

	store := o.store
	if store == nil {
		s, err := a.newStore()
		if err != nil {
			a.Close()
			return nil, err
		}
		store = s
	}

	renderer, err := a.newRenderer(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	deps := pipeline.Deps{
		Fetcher:    fetcher,
		Normalizer: a.Normalizer,
		Store:      store,
		Renderer:   renderer,
	}

	if cfg.AMQPURL != "" {
		publisher, err := notify.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPRoutingKey)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("create AMQP publisher: %w", err)
		}
		a.closers = append(a.closers, publisher)
		deps.Notifier = publisher
	}

	orch, err := pipeline.NewOrchestrator(deps, log)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Orchestrator = orch

	if cfg.PublishGCS && a.gcs != nil {
		a.Snapshots = &GCSSnapshots{Client: a.gcs}
	} else {
		a.Snapshots = handlers.DirSnapshots{Dir: cfg.SiteDir}
	}

	return a, nil
}

func (a *App) newStore() (fingerprint.Store, error) {
	switch a.Config.FingerprintBackend {
	case config.BackendMemory:
		return fingerprint.NewMemoryStore(), nil
	case config.BackendSQLite:
		s, err := sqlite.NewFingerprintStore(a.Config.SQLiteDBPath, sqlite.DefaultSlot)
		if err != nil {
			return nil, fmt.Errorf("open sqlite fingerprint store: %w", err)
		}
		a.closers = append(a.closers, s)
		return s, nil
	case config.BackendGCS:
		if a.gcs == nil {
			return nil, errors.New("gcs fingerprint backend requires GCS_BUCKET")
		}
		return gcs.NewFingerprintStore(a.gcs, ""), nil
	case config.BackendFile, "":
		return fingerprint.NewFileStore(a.Config.FingerprintFile), nil
	default:
		return nil, fmt.Errorf("unknown fingerprint backend %q", a.Config.FingerprintBackend)
	}
}

func (a *App) newRenderer(ctx context.Context) (pipeline.Renderer, error) {
	cfg := a.Config

	var sink render.MultiSink
	if cfg.SiteDir != "" {
		sink = append(sink, render.NewDirSink(cfg.SiteDir))
	}
	if cfg.PublishGCS {
		if a.gcs == nil {
			return nil, errors.New("publishing to GCS requires GCS_BUCKET")
		}
		sink = append(sink, a.gcs)
	}
	if len(sink) == 0 {
		return nil, errors.New("no output configured: set SITE_DIR or PUBLISH_GCS")
	}

	htmlOpts := []render.HTMLOption{render.WithTitle(cfg.ReportTitle)}
	if cfg.GeminiModel != "" {
		narrator, err := render.NewGeminiNarrator(ctx, cfg.GeminiModel)
		if err != nil {
			return nil, fmt.Errorf("create narrator: %w", err)
		}
		htmlOpts = append(htmlOpts, render.WithNarrator(narrator))
	}

	renderers := render.Multi{render.NewHTMLRenderer(sink, htmlOpts...)}

	if cfg.BigQueryEnabled() {
		exporter, err := infraBQ.NewViewExporter(ctx, cfg.BigQueryProject, cfg.BigQueryDataset, cfg.BigQueryTable)
		if err != nil {
			return nil, fmt.Errorf("create BigQuery exporter: %w", err)
		}
		a.closers = append(a.closers, exporter)
		if err := exporter.EnsureTable(ctx); err != nil {
			return nil, fmt.Errorf("ensure BigQuery table: %w", err)
		}
		renderers = append(renderers, exporter)
	}

	return renderers, nil
}

// Close releases every client opened by New.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// GCSSnapshots reads the snapshot published to a bucket.
type GCSSnapshots struct {
	Client *gcs.Client
}

func (s *GCSSnapshots) Latest(ctx context.Context) (*render.Snapshot, error) {
	data, err := s.Client.ReadObject(ctx, render.SnapshotFile)
	if errors.Is(err, gcs.ErrNotExist) {
		return nil, handlers.ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("GCSSnapshots.Latest: %w", err)
	}
	return render.DecodeSnapshot(data)
}
