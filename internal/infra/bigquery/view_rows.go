package bigquery

import (
	"math/big"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/dvloznov/expense-dashboard/internal/aggregate"
	"github.com/dvloznov/expense-dashboard/internal/domain"
)

// ViewRow is one aggregated row of one view, tagged with the run that produced it.
type ViewRow struct {
	RunID       string `bigquery:"run_id"`      // REQUIRED
	Fingerprint string `bigquery:"fingerprint"` // REQUIRED

	ViewName   string   `bigquery:"view_name"`  // REQUIRED
	Dimensions []string `bigquery:"dimensions"` // REPEATED STRING
	Key        []string `bigquery:"key"`        // REPEATED STRING

	Period bigquery.NullDate `bigquery:"period"` // NULLABLE, first day of the time bucket

	Total    *big.Rat `bigquery:"total"`     // REQUIRED NUMERIC
	RowCount int64    `bigquery:"row_count"` // records in the group

	GeneratedTS time.Time `bigquery:"generated_ts"` // REQUIRED, partition column
}

// RowsForView converts a view into rows for run.
func RowsForView(run domain.Run, view aggregate.View) []*ViewRow {
	dims := make([]string, len(view.Dimensions))
	for i, d := range view.Dimensions {
		dims[i] = string(d)
	}

	rows := make([]*ViewRow, 0, len(view.Rows))
	for _, r := range view.Rows {
		rows = append(rows, &ViewRow{
			RunID:       run.ID,
			Fingerprint: run.Fingerprint,
			ViewName:    view.Name,
			Dimensions:  dims,
			Key:         r.Key,
			Period:      periodOf(view.Dimensions, r.Key),
			Total:       r.Total.Rat(),
			RowCount:    int64(r.Count),
			GeneratedTS: run.GeneratedAt,
		})
	}
	return rows
}

// periodOf returns the first time-bucketed key part as a date.
func periodOf(dims []aggregate.Dimension, key []string) bigquery.NullDate {
	for i, d := range dims {
		if i >= len(key) {
			break
		}
		switch d {
		case aggregate.DimensionDate:
			if day, err := civil.ParseDate(key[i]); err == nil {
				return bigquery.NullDate{Date: day, Valid: true}
			}
		case aggregate.DimensionMonth:
			if m, err := domain.ParseMonth(key[i]); err == nil {
				return bigquery.NullDate{Date: m.FirstDay(), Valid: true}
			}
		}
	}
	return bigquery.NullDate{}
}
