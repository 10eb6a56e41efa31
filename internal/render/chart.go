package render

import (
	"github.com/dvloznov/expense-dashboard/internal/aggregate"
)

// Trace is one Plotly bar series.
type Trace struct {
	Type string    `json:"type"`
	Name string    `json:"name,omitempty"`
	X    []string  `json:"x"`
	Y    []float64 `json:"y"`
}

// Chart is the plot for one view.
type Chart struct {
	ID      string  `json:"id"`
	Title   string  `json:"title"`
	XLabel  string  `json:"xLabel"`
	Stacked bool    `json:"stacked"`
	Traces  []Trace `json:"traces"`
}

// TableRow is a formatted row for the HTML table under a chart.
type TableRow struct {
	Cells []string
	Total string
	Count int
}

// ChartFor lays out a view as bars. Two-dimension views become one stacked
// trace per value of the second dimension, with the first dimension on the x axis.
func ChartFor(view aggregate.View) Chart {
	c := Chart{ID: "chart-" + view.Name, Title: view.Title}
	if len(view.Dimensions) > 0 {
		c.XLabel = view.Dimensions[0].Label()
	}

	if len(view.Dimensions) < 2 {
		t := Trace{Type: "bar", X: []string{}, Y: []float64{}}
		for _, r := range view.Rows {
			t.X = append(t.X, displayKey(r.Key[0]))
			t.Y = append(t.Y, r.Total.InexactFloat64())
		}
		c.Traces = []Trace{t}
		return c
	}

	c.Stacked = true
	byName := make(map[string]int)
	for _, r := range view.Rows {
		series := displayKey(r.Key[1])
		i, ok := byName[series]
		if !ok {
			i = len(c.Traces)
			byName[series] = i
			c.Traces = append(c.Traces, Trace{Type: "bar", Name: series})
		}
		c.Traces[i].X = append(c.Traces[i].X, displayKey(r.Key[0]))
		c.Traces[i].Y = append(c.Traces[i].Y, r.Total.InexactFloat64())
	}
	return c
}

// TableFor formats a view's rows for display.
func TableFor(view aggregate.View) []TableRow {
	rows := make([]TableRow, 0, len(view.Rows))
	for _, r := range view.Rows {
		cells := make([]string, len(r.Key))
		for i, k := range r.Key {
			cells[i] = displayKey(k)
		}
		rows = append(rows, TableRow{Cells: cells, Total: r.Total.StringFixed(2), Count: r.Count})
	}
	return rows
}

func displayKey(k string) string {
	if k == "" {
		return "Sin especificar"
	}
	return k
}
