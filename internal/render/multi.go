package render

import (
	"context"
	"fmt"

	"github.com/dvloznov/expense-dashboard/internal/aggregate"
	"github.com/dvloznov/expense-dashboard/internal/domain"
)

// Renderer mirrors pipeline.Renderer.
type Renderer interface {
	Render(ctx context.Context, view aggregate.View) error
}

// Finisher mirrors pipeline.Finisher.
type Finisher interface {
	Finish(ctx context.Context, run domain.Run) error
}

// Resetter mirrors pipeline.Resetter.
type Resetter interface {
	Reset()
}

// Multi hands every view to each renderer in order. It stops at the first error.
type Multi []Renderer

func (m Multi) Render(ctx context.Context, view aggregate.View) error {
	for i, r := range m {
		if err := r.Render(ctx, view); err != nil {
			return fmt.Errorf("renderer %d: %w", i, err)
		}
	}
	return nil
}

func (m Multi) Finish(ctx context.Context, run domain.Run) error {
	for i, r := range m {
		f, ok := r.(Finisher)
		if !ok {
			continue
		}
		if err := f.Finish(ctx, run); err != nil {
			return fmt.Errorf("renderer %d: %w", i, err)
		}
	}
	return nil
}

// Reset resets every member that buffers views.
func (m Multi) Reset() {
	for _, r := range m {
		if rs, ok := r.(Resetter); ok {
			rs.Reset()
		}
	}
}
