package aggregate

import (
	"github.com/dvloznov/expense-dashboard/internal/domain"
	"github.com/shopspring/decimal"
)

// Names of the standard views.
const (
	ViewByDateCategory        = "by_date_category"
	ViewByCategory            = "by_category"
	ViewByAccount             = "by_account"
	ViewByExpenseType         = "by_expense_type"
	ViewByMonthCategory       = "by_month_category"
	ViewLatestMonthByCategory = "latest_month_by_category"
	ViewMonthComparison       = "month_comparison"
)

// View is a named, ordered aggregation ready to hand to a renderer.
type View struct {
	Name       string      `json:"name"`
	Title      string      `json:"title"`
	Dimensions []Dimension `json:"dimensions"`
	Ranked     bool        `json:"ranked"`
	Rows       []Row       `json:"rows"`
}

// Labels returns the column heading of each dimension.
func (v View) Labels() []string {
	labels := make([]string, len(v.Dimensions))
	for i, d := range v.Dimensions {
		labels[i] = d.Label()
	}
	return labels
}

// Empty reports whether there is nothing to display.
func (v View) Empty() bool {
	return len(v.Rows) == 0
}

// Total sums the view's rows.
func (v View) Total() decimal.Decimal {
	total := decimal.Zero
	for _, r := range v.Rows {
		total = total.Add(r.Total)
	}
	return total
}

// BuildViews produces the dashboard's view set, in display order.
func BuildViews(records []domain.Record) []View {
	return []View{
		{
			Name:       ViewByDateCategory,
			Title:      "Gastos por fecha y categoría",
			Dimensions: []Dimension{DimensionDate, DimensionCategory},
			Rows:       Aggregate(records, DimensionDate, DimensionCategory),
		},
		{
			Name:       ViewByCategory,
			Title:      "Gastos por categoría",
			Dimensions: []Dimension{DimensionCategory},
			Ranked:     true,
			Rows:       Ranked(records, DimensionCategory),
		},
		{
			Name:       ViewByAccount,
			Title:      "Gastos por cuenta",
			Dimensions: []Dimension{DimensionAccount},
			Ranked:     true,
			Rows:       Ranked(records, DimensionAccount),
		},
		{
			Name:       ViewByExpenseType,
			Title:      "Gastos por tipo",
			Dimensions: []Dimension{DimensionExpenseType},
			Ranked:     true,
			Rows:       Ranked(records, DimensionExpenseType),
		},
		{
			Name:       ViewByMonthCategory,
			Title:      "Gastos por mes y categoría",
			Dimensions: []Dimension{DimensionMonth, DimensionCategory},
			Rows:       Aggregate(records, DimensionMonth, DimensionCategory),
		},
		{
			Name:       ViewLatestMonthByCategory,
			Title:      "Último mes por categoría",
			Dimensions: []Dimension{DimensionCategory},
			Ranked:     true,
			Rows:       LatestMonthByCategory(records),
		},
		{
			Name:       ViewMonthComparison,
			Title:      "Comparación con el mes anterior",
			Dimensions: []Dimension{DimensionMonth, DimensionCategory},
			Rows:       MonthComparison(records),
		},
	}
}
