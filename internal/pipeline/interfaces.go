package pipeline

import (
	"context"

	"github.com/dvloznov/expense-dashboard/internal/aggregate"
	"github.com/dvloznov/expense-dashboard/internal/domain"
	"github.com/jomei/notionapi"
)

// Fetcher retrieves every raw property bundle from the source database.
type Fetcher interface {
	FetchAll(ctx context.Context) ([]notionapi.Properties, error)
}

// Normalizer maps raw bundles to records. It never fails.
type Normalizer interface {
	NormalizeAll(bundles []notionapi.Properties) []domain.Record
}

// Renderer receives each view of a changed run, in display order.
type Renderer interface {
	Render(ctx context.Context, view aggregate.View) error
}

// Finisher is implemented by renderers that write their output once all
// views have been handed over.
type Finisher interface {
	Finish(ctx context.Context, run domain.Run) error
}

// Resetter is implemented by renderers that buffer views between Render and
// Finish. Reset drops anything left over from an earlier, failed handoff.
type Resetter interface {
	Reset()
}

// Notifier announces a run that produced new output.
type Notifier interface {
	NotifyUpdated(ctx context.Context, run domain.Run, views []aggregate.View) error
}
