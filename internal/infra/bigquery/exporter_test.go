package bigquery

import (
	"context"
	"errors"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/expense-dashboard/internal/aggregate"
	"github.com/dvloznov/expense-dashboard/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockInserter records every Put call.
type MockInserter struct {
	PutFunc func(ctx context.Context, src interface{}) error
	Batches [][]*ViewRow
}

func (m *MockInserter) Put(ctx context.Context, src interface{}) error {
	if m.PutFunc != nil {
		if err := m.PutFunc(ctx, src); err != nil {
			return err
		}
	}
	m.Batches = append(m.Batches, src.([]*ViewRow))
	return nil
}

var testRun = domain.Run{
	ID:          "run-1",
	Fingerprint: "abc",
	GeneratedAt: time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC),
	RecordCount: 3,
}

func monthView() aggregate.View {
	return aggregate.View{
		Name:       aggregate.ViewByMonthCategory,
		Dimensions: []aggregate.Dimension{aggregate.DimensionMonth, aggregate.DimensionCategory},
		Rows: []aggregate.Row{
			{Key: []string{"2025-01", "Food"}, Total: decimal.RequireFromString("150.25"), Count: 2},
			{Key: []string{"2025-02", "Food"}, Total: decimal.NewFromInt(30), Count: 1},
		},
	}
}

func TestRowsForView(t *testing.T) {
	rows := RowsForView(testRun, monthView())
	require.Len(t, rows, 2)

	first := rows[0]
	assert.Equal(t, "run-1", first.RunID)
	assert.Equal(t, "abc", first.Fingerprint)
	assert.Equal(t, aggregate.ViewByMonthCategory, first.ViewName)
	assert.Equal(t, []string{"month", "category"}, first.Dimensions)
	assert.Equal(t, []string{"2025-01", "Food"}, first.Key)
	assert.True(t, first.Period.Valid)
	assert.Equal(t, civil.Date{Year: 2025, Month: time.January, Day: 1}, first.Period.Date)
	assert.Equal(t, "150.25", first.Total.FloatString(2))
	assert.Equal(t, int64(2), first.RowCount)
	assert.Equal(t, testRun.GeneratedAt, first.GeneratedTS)
}

func TestRowsForView_Periods(t *testing.T) {
	byDate := aggregate.View{
		Name:       aggregate.ViewByDateCategory,
		Dimensions: []aggregate.Dimension{aggregate.DimensionDate, aggregate.DimensionCategory},
		Rows:       []aggregate.Row{{Key: []string{"2025-01-05", "Food"}, Total: decimal.NewFromInt(1)}},
	}
	rows := RowsForView(testRun, byDate)
	require.Len(t, rows, 1)
	assert.Equal(t, civil.Date{Year: 2025, Month: time.January, Day: 5}, rows[0].Period.Date)

	byCategory := aggregate.View{
		Name:       aggregate.ViewByCategory,
		Dimensions: []aggregate.Dimension{aggregate.DimensionCategory},
		Rows:       []aggregate.Row{{Key: []string{"Food"}, Total: decimal.NewFromInt(1)}},
	}
	rows = RowsForView(testRun, byCategory)
	require.Len(t, rows, 1)
	assert.False(t, rows[0].Period.Valid)
}

func TestViewExporter_FinishInsertsBufferedViews(t *testing.T) {
	ctx := context.Background()
	inserter := &MockInserter{}
	exporter := NewViewExporterWithInserter(inserter)

	require.NoError(t, exporter.Render(ctx, monthView()))
	require.NoError(t, exporter.Render(ctx, aggregate.View{Name: aggregate.ViewByAccount}))
	require.NoError(t, exporter.Finish(ctx, testRun))

	require.Len(t, inserter.Batches, 1)
	assert.Len(t, inserter.Batches[0], 2)

	// The buffer is cleared: a second Finish has nothing to send.
	require.NoError(t, exporter.Finish(ctx, testRun))
	assert.Len(t, inserter.Batches, 1)
}

func TestViewExporter_BatchesLargeRuns(t *testing.T) {
	ctx := context.Background()
	inserter := &MockInserter{}
	exporter := NewViewExporterWithInserter(inserter)

	view := aggregate.View{Name: aggregate.ViewByDateCategory, Dimensions: []aggregate.Dimension{aggregate.DimensionCategory}}
	for i := 0; i < insertBatchSize+1; i++ {
		view.Rows = append(view.Rows, aggregate.Row{Key: []string{"c"}, Total: decimal.NewFromInt(int64(i))})
	}

	require.NoError(t, exporter.Render(ctx, view))
	require.NoError(t, exporter.Finish(ctx, testRun))

	require.Len(t, inserter.Batches, 2)
	assert.Len(t, inserter.Batches[0], insertBatchSize)
	assert.Len(t, inserter.Batches[1], 1)
}

func TestViewExporter_InsertError(t *testing.T) {
	insertErr := errors.New("quota exceeded")
	exporter := NewViewExporterWithInserter(&MockInserter{
		PutFunc: func(ctx context.Context, src interface{}) error { return insertErr },
	})

	require.NoError(t, exporter.Render(context.Background(), monthView()))
	err := exporter.Finish(context.Background(), testRun)
	assert.ErrorIs(t, err, insertErr)
}

func TestViewExporter_ResetDropsPending(t *testing.T) {
	ctx := context.Background()
	inserter := &MockInserter{}
	exporter := NewViewExporterWithInserter(inserter)

	require.NoError(t, exporter.Render(ctx, monthView()))
	exporter.Reset()
	require.NoError(t, exporter.Render(ctx, monthView()))
	require.NoError(t, exporter.Finish(ctx, testRun))

	require.Len(t, inserter.Batches, 1)
	assert.Len(t, inserter.Batches[0], 2)
}
