package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/dvloznov/expense-dashboard/internal/aggregate"
	"github.com/dvloznov/expense-dashboard/internal/domain"
	"github.com/dvloznov/expense-dashboard/internal/fingerprint"
	"github.com/dvloznov/expense-dashboard/internal/logger"
	"github.com/jomei/notionapi"
)

// State names a stage of a run.
type State string

const (
	StateFetching       State = "fetching"
	StateNormalizing    State = "normalizing"
	StateCheckingChange State = "checking_change"
	StateSkip           State = "skip"
	StateAggregating    State = "aggregating"
	StateHandoff        State = "handoff"
	StateDone           State = "done"
)

// Status is the outcome of a completed run.
type Status string

const (
	// StatusUpdated means the data changed and new output was rendered.
	StatusUpdated Status = "updated"
	// StatusNoUpdate means the data matched the previous run and nothing was rendered.
	StatusNoUpdate Status = "no_update"
)

// PipelineStep represents a single step in the report pipeline.
type PipelineStep interface {
	Name() string
	Execute(ctx context.Context, state *PipelineState) error
}

// PipelineState holds the shared state across all pipeline steps.
type PipelineState struct {
	RunID     string
	StartedAt time.Time

	State State
	Trace []State

	Bundles     []notionapi.Properties
	Records     []domain.Record
	Previous    fingerprint.Digest
	HasPrevious bool
	Current     fingerprint.Digest
	Views       []aggregate.View

	// Status is set by the step that decides the outcome. StatusNoUpdate
	// skips the remaining steps.
	Status Status
}

func (s *PipelineState) enter(st State) {
	s.State = st
	s.Trace = append(s.Trace, st)
}

// Run returns the run metadata handed to renderers and notifiers.
func (s *PipelineState) Run() domain.Run {
	return domain.Run{
		ID:                  s.RunID,
		Fingerprint:         string(s.Current),
		PreviousFingerprint: string(s.Previous),
		GeneratedAt:         s.StartedAt,
		RecordCount:         len(s.Records),
	}
}

// FetchStep pulls every raw bundle from the source. Pipeline.Execute returns
// its error unwrapped so callers can compare transport errors directly.
type FetchStep struct {
	Fetcher Fetcher
}

func (s *FetchStep) Name() string { return "fetch" }

func (s *FetchStep) Execute(ctx context.Context, state *PipelineState) error {
	state.enter(StateFetching)
	bundles, err := s.Fetcher.FetchAll(ctx)
	if err != nil {
		return err
	}
	state.Bundles = bundles
	return nil
}

// NormalizeStep maps the raw bundles to records.
type NormalizeStep struct {
	Normalizer Normalizer
}

func (s *NormalizeStep) Name() string { return "normalize" }

func (s *NormalizeStep) Execute(ctx context.Context, state *PipelineState) error {
	state.enter(StateNormalizing)
	state.Records = s.Normalizer.NormalizeAll(state.Bundles)
	state.Bundles = nil

	log := logger.FromContext(ctx)
	log.Debug().Int("records", len(state.Records)).Msg("Normalized records")
	return nil
}

// CheckChangeStep compares the records' digest with the stored one and ends
// the run with StatusNoUpdate when they match.
type CheckChangeStep struct {
	Store fingerprint.Store
	Now   func() time.Time
}

func (s *CheckChangeStep) Name() string { return "check_change" }

func (s *CheckChangeStep) Execute(ctx context.Context, state *PipelineState) error {
	state.enter(StateCheckingChange)
	log := logger.FromContext(ctx)

	previous, ok, err := s.Store.ReadPrevious(ctx)
	if err != nil {
		return fmt.Errorf("read previous fingerprint: %w", err)
	}
	state.Previous = previous
	state.HasPrevious = ok
	state.Current = fingerprint.Compute(state.Records)

	if fingerprint.Changed(previous, ok, state.Current) {
		log.Info().
			Str("previous", string(previous)).
			Str("current", string(state.Current)).
			Msg("Expense data changed")
		return nil
	}

	state.enter(StateSkip)
	state.Status = StatusNoUpdate

	if t, ok := s.Store.(fingerprint.Toucher); ok {
		now := time.Now
		if s.Now != nil {
			now = s.Now
		}
		if err := t.Touch(ctx, now()); err != nil {
			log.Warn().Err(err).Msg("Failed to update last checked marker")
		}
	}

	log.Info().Str("fingerprint", string(state.Current)).Msg("Expense data unchanged, skipping render")
	return nil
}

// AggregateStep builds the dashboard views.
type AggregateStep struct{}

func (s *AggregateStep) Name() string { return "aggregate" }

func (s *AggregateStep) Execute(ctx context.Context, state *PipelineState) error {
	state.enter(StateAggregating)
	state.Views = aggregate.BuildViews(state.Records)
	return nil
}

// HandoffStep passes every view to the renderer, then lets it finish.
type HandoffStep struct {
	Renderer Renderer
}

func (s *HandoffStep) Name() string { return "handoff" }

func (s *HandoffStep) Execute(ctx context.Context, state *PipelineState) error {
	state.enter(StateHandoff)

	if r, ok := s.Renderer.(Resetter); ok {
		r.Reset()
	}

	for _, v := range state.Views {
		if err := s.Renderer.Render(ctx, v); err != nil {
			return fmt.Errorf("render view %s: %w", v.Name, err)
		}
	}

	if f, ok := s.Renderer.(Finisher); ok {
		if err := f.Finish(ctx, state.Run()); err != nil {
			return fmt.Errorf("finish render: %w", err)
		}
	}
	return nil
}

// PersistFingerprintStep stores the new digest. It runs only after a
// successful handoff so a failed render is retried by the next run.
type PersistFingerprintStep struct {
	Store fingerprint.Store
}

func (s *PersistFingerprintStep) Name() string { return "persist_fingerprint" }

func (s *PersistFingerprintStep) Execute(ctx context.Context, state *PipelineState) error {
	if err := s.Store.Write(ctx, state.Current); err != nil {
		return fmt.Errorf("write fingerprint: %w", err)
	}
	state.Status = StatusUpdated
	return nil
}

// NotifyStep announces the update. A failed notification is logged and
// does not fail the run: the output is already published.
type NotifyStep struct {
	Notifier Notifier
}

func (s *NotifyStep) Name() string { return "notify" }

func (s *NotifyStep) Execute(ctx context.Context, state *PipelineState) error {
	if err := s.Notifier.NotifyUpdated(ctx, state.Run(), state.Views); err != nil {
		log := logger.FromContext(ctx)
		log.Warn().Err(err).Msg("Failed to send update notification")
	}
	return nil
}

// Pipeline executes a sequence of steps in order.
type Pipeline struct {
	steps []PipelineStep
}

// NewPipeline creates a new pipeline with the given steps.
func NewPipeline(steps ...PipelineStep) *Pipeline {
	return &Pipeline{steps: steps}
}

// Execute runs the steps sequentially until one fails or the run is skipped.
func (p *Pipeline) Execute(ctx context.Context, state *PipelineState) error {
	for i, step := range p.steps {
		if state.Status == StatusNoUpdate {
			break
		}
		if err := step.Execute(ctx, state); err != nil {
			if _, ok := step.(*FetchStep); ok {
				return err
			}
			return fmt.Errorf("pipeline step %d (%s) failed: %w", i+1, step.Name(), err)
		}
	}
	state.enter(StateDone)
	return nil
}
