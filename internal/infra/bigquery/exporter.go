package bigquery

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"cloud.google.com/go/bigquery"
	"github.com/dvloznov/expense-dashboard/internal/aggregate"
	"github.com/dvloznov/expense-dashboard/internal/domain"
	"github.com/dvloznov/expense-dashboard/internal/logger"
	"google.golang.org/api/googleapi"
)

// DefaultViewsTable is the table view rows are streamed into.
const DefaultViewsTable = "expense_views"

// insertBatchSize bounds rows per streaming insert request.
const insertBatchSize = 500

// RowInserter is satisfied by *bigquery.Inserter.
type RowInserter interface {
	Put(ctx context.Context, src interface{}) error
}

// ViewExporter streams every view of a changed run into a BigQuery table.
// Render buffers rows; Finish inserts them tagged with the run.
type ViewExporter struct {
	client   *bigquery.Client
	table    *bigquery.Table
	inserter RowInserter

	mu      sync.Mutex
	pending []aggregate.View
}

// NewViewExporter creates an exporter writing to projectID.datasetID.tableID.
func NewViewExporter(ctx context.Context, projectID, datasetID, tableID string) (*ViewExporter, error) {
	if tableID == "" {
		tableID = DefaultViewsTable
	}

	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("NewViewExporter: creating client: %w", err)
	}

	table := client.DatasetInProject(projectID, datasetID).Table(tableID)
	return &ViewExporter{
		client:   client,
		table:    table,
		inserter: table.Inserter(),
	}, nil
}

// NewViewExporterWithInserter creates an exporter over an existing inserter.
func NewViewExporterWithInserter(inserter RowInserter) *ViewExporter {
	return &ViewExporter{inserter: inserter}
}

// Close closes the BigQuery client connection.
func (e *ViewExporter) Close() error {
	if e.client != nil {
		return e.client.Close()
	}
	return nil
}

// EnsureTable creates the table, day-partitioned on generated_ts, when it does not exist.
func (e *ViewExporter) EnsureTable(ctx context.Context) error {
	if e.table == nil {
		return nil
	}

	_, err := e.table.Metadata(ctx)
	if err == nil {
		return nil
	}
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) || apiErr.Code != http.StatusNotFound {
		return fmt.Errorf("EnsureTable: reading table metadata: %w", err)
	}

	schema, err := bigquery.InferSchema(ViewRow{})
	if err != nil {
		return fmt.Errorf("EnsureTable: inferring schema: %w", err)
	}

	meta := &bigquery.TableMetadata{
		Schema: schema,
		TimePartitioning: &bigquery.TimePartitioning{
			Type:  bigquery.DayPartitioningType,
			Field: "generated_ts",
		},
	}
	if err := e.table.Create(ctx, meta); err != nil {
		return fmt.Errorf("EnsureTable: creating table: %w", err)
	}

	log := logger.FromContext(ctx)
	log.Info().Str("table", e.table.FullyQualifiedName()).Msg("Created views table")
	return nil
}

// Reset discards views buffered since the last Finish.
func (e *ViewExporter) Reset() {
	e.mu.Lock()
	e.pending = nil
	e.mu.Unlock()
}

// Render buffers view until Finish.
func (e *ViewExporter) Render(ctx context.Context, view aggregate.View) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pending = append(e.pending, view)
	return nil
}

// Finish inserts the buffered views and clears the buffer.
func (e *ViewExporter) Finish(ctx context.Context, run domain.Run) error {
	e.mu.Lock()
	views := e.pending
	e.pending = nil
	e.mu.Unlock()

	var rows []*ViewRow
	for _, v := range views {
		rows = append(rows, RowsForView(run, v)...)
	}
	if len(rows) == 0 {
		return nil
	}

	for start := 0; start < len(rows); start += insertBatchSize {
		end := min(start+insertBatchSize, len(rows))
		if err := e.inserter.Put(ctx, rows[start:end]); err != nil {
			return fmt.Errorf("ViewExporter.Finish: inserting rows: %w", err)
		}
	}

	log := logger.FromContext(ctx)
	log.Info().
		Int("views", len(views)).
		Int("rows", len(rows)).
		Msg("Exported views to BigQuery")
	return nil
}
