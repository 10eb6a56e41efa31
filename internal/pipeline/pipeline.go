package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/dvloznov/expense-dashboard/internal/aggregate"
	"github.com/dvloznov/expense-dashboard/internal/domain"
	"github.com/dvloznov/expense-dashboard/internal/fingerprint"
	"github.com/dvloznov/expense-dashboard/internal/logger"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Deps are the collaborators of an Orchestrator. Notifier and Now are optional.
type Deps struct {
	Fetcher    Fetcher
	Normalizer Normalizer
	Store      fingerprint.Store
	Renderer   Renderer
	Notifier   Notifier
	Now        func() time.Time
}

// Result describes a completed run.
type Result struct {
	Run    domain.Run
	Status Status
	Views  []aggregate.View
	States []State
}

// Orchestrator runs the report pipeline: fetch, normalize, check for change,
// then aggregate and hand the views to the renderer when the data changed.
// One call to Run is one pass with no retries.
type Orchestrator struct {
	deps Deps
	log  zerolog.Logger
}

// NewOrchestrator validates deps and creates an Orchestrator.
func NewOrchestrator(deps Deps, log zerolog.Logger) (*Orchestrator, error) {
	if deps.Fetcher == nil || deps.Normalizer == nil || deps.Store == nil || deps.Renderer == nil {
		return nil, errors.New("NewOrchestrator: fetcher, normalizer, store and renderer are required")
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Orchestrator{deps: deps, log: log}, nil
}

// NewReportPipeline creates the standard pipeline for one report run.
func NewReportPipeline(deps Deps) *Pipeline {
	steps := []PipelineStep{
		&FetchStep{Fetcher: deps.Fetcher},
		&NormalizeStep{Normalizer: deps.Normalizer},
		&CheckChangeStep{Store: deps.Store, Now: deps.Now},
		&AggregateStep{},
		&HandoffStep{Renderer: deps.Renderer},
		&PersistFingerprintStep{Store: deps.Store},
	}
	if deps.Notifier != nil {
		steps = append(steps, &NotifyStep{Notifier: deps.Notifier})
	}
	return NewPipeline(steps...)
}

// NewPreviewPipeline fetches, normalizes and aggregates without reading or
// writing the fingerprint and without rendering.
func NewPreviewPipeline(deps Deps) *Pipeline {
	return NewPipeline(
		&FetchStep{Fetcher: deps.Fetcher},
		&NormalizeStep{Normalizer: deps.Normalizer},
		&AggregateStep{},
	)
}

// Run executes one report run.
func (o *Orchestrator) Run(ctx context.Context) (*Result, error) {
	state, ctx := o.newState(ctx)
	log := logger.FromContext(ctx)

	log.Info().Msg("Starting report run")

	if err := NewReportPipeline(o.deps).Execute(ctx, state); err != nil {
		log.Error().Err(err).Str("state", string(state.State)).Msg("Report run failed")
		return nil, err
	}

	log.Info().
		Str("status", string(state.Status)).
		Int("records", len(state.Records)).
		Int("views", len(state.Views)).
		Msg("Report run completed")

	return &Result{
		Run:    state.Run(),
		Status: state.Status,
		Views:  state.Views,
		States: state.Trace,
	}, nil
}

// Preview computes the views for the current data without side effects.
func (o *Orchestrator) Preview(ctx context.Context) (*Result, error) {
	state, ctx := o.newState(ctx)

	if err := NewPreviewPipeline(o.deps).Execute(ctx, state); err != nil {
		return nil, err
	}
	state.Current = fingerprint.Compute(state.Records)

	return &Result{
		Run:    state.Run(),
		Views:  state.Views,
		States: state.Trace,
	}, nil
}

func (o *Orchestrator) newState(ctx context.Context) (*PipelineState, context.Context) {
	state := &PipelineState{
		RunID:     uuid.NewString(),
		StartedAt: o.deps.Now().UTC(),
	}
	ctx = logger.WithContext(ctx, o.log.With().Str("run_id", state.RunID).Logger())
	return state, ctx
}
