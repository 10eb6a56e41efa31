package pipeline_test

import (
	"context"

	"github.com/dvloznov/expense-dashboard/internal/aggregate"
	"github.com/dvloznov/expense-dashboard/internal/domain"
	"github.com/dvloznov/expense-dashboard/internal/fingerprint"
	"github.com/jomei/notionapi"
)

// MockFetcher is a mock implementation of pipeline.Fetcher.
type MockFetcher struct {
	FetchAllFunc func(ctx context.Context) ([]notionapi.Properties, error)
	Calls        int
}

func (m *MockFetcher) FetchAll(ctx context.Context) ([]notionapi.Properties, error) {
	m.Calls++
	if m.FetchAllFunc != nil {
		return m.FetchAllFunc(ctx)
	}
	return nil, nil
}

// MockRenderer records the views it receives and implements pipeline.Finisher.
type MockRenderer struct {
	RenderFunc func(ctx context.Context, view aggregate.View) error
	FinishFunc func(ctx context.Context, run domain.Run) error

	Rendered []aggregate.View
	Finished []domain.Run
	Resets   int
}

func (m *MockRenderer) Reset() {
	m.Resets++
}

func (m *MockRenderer) Render(ctx context.Context, view aggregate.View) error {
	if m.RenderFunc != nil {
		if err := m.RenderFunc(ctx, view); err != nil {
			return err
		}
	}
	m.Rendered = append(m.Rendered, view)
	return nil
}

func (m *MockRenderer) Finish(ctx context.Context, run domain.Run) error {
	if m.FinishFunc != nil {
		if err := m.FinishFunc(ctx, run); err != nil {
			return err
		}
	}
	m.Finished = append(m.Finished, run)
	return nil
}

// MockStore wraps a MemoryStore and lets tests inject failures.
type MockStore struct {
	fingerprint.MemoryStore
	ReadErr  error
	WriteErr error
	Reads    int
	Writes   int
}

func (m *MockStore) ReadPrevious(ctx context.Context) (fingerprint.Digest, bool, error) {
	m.Reads++
	if m.ReadErr != nil {
		return "", false, m.ReadErr
	}
	return m.MemoryStore.ReadPrevious(ctx)
}

func (m *MockStore) Write(ctx context.Context, digest fingerprint.Digest) error {
	m.Writes++
	if m.WriteErr != nil {
		return m.WriteErr
	}
	return m.MemoryStore.Write(ctx, digest)
}

// MockNotifier is a mock implementation of pipeline.Notifier.
type MockNotifier struct {
	NotifyUpdatedFunc func(ctx context.Context, run domain.Run, views []aggregate.View) error
	Runs              []domain.Run
}

func (m *MockNotifier) NotifyUpdated(ctx context.Context, run domain.Run, views []aggregate.View) error {
	m.Runs = append(m.Runs, run)
	if m.NotifyUpdatedFunc != nil {
		return m.NotifyUpdatedFunc(ctx, run, views)
	}
	return nil
}
