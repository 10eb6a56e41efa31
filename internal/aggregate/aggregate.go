package aggregate

import (
	"fmt"
	"sort"

	"github.com/dvloznov/expense-dashboard/internal/domain"
	"github.com/shopspring/decimal"
)

// Dimension is a record attribute rows can be grouped by.
type Dimension string

const (
	DimensionDate        Dimension = "date"
	DimensionMonth       Dimension = "month"
	DimensionCategory    Dimension = "category"
	DimensionAccount     Dimension = "account"
	DimensionExpenseType Dimension = "expense_type"
)

var dimensionLabels = map[Dimension]string{
	DimensionDate:        "Fecha",
	DimensionMonth:       "Mes",
	DimensionCategory:    "Categoría",
	DimensionAccount:     "Cuenta",
	DimensionExpenseType: "Tipo gasto",
}

// Label is the column heading shown for the dimension.
func (d Dimension) Label() string {
	if l, ok := dimensionLabels[d]; ok {
		return l
	}
	return string(d)
}

// Valid reports whether d is one of the declared dimensions.
func (d Dimension) Valid() bool {
	_, ok := dimensionLabels[d]
	return ok
}

// TimeBucketed reports whether the dimension is derived from the timestamp.
func (d Dimension) TimeBucketed() bool {
	return d == DimensionDate || d == DimensionMonth
}

// key extracts the record's value for d. Time keys are formatted so that
// string order is chronological order.
func (d Dimension) key(r domain.Record) (string, bool) {
	switch d {
	case DimensionDate:
		day, ok := r.Date()
		if !ok {
			return "", false
		}
		return day.String(), true
	case DimensionMonth:
		m, ok := r.Month()
		if !ok {
			return "", false
		}
		return m.String(), true
	case DimensionCategory:
		return r.Category, true
	case DimensionAccount:
		return r.Account, true
	case DimensionExpenseType:
		return r.ExpenseType, true
	}
	return "", false
}

// Row is one group: the dimension values in request order and the summed amount.
type Row struct {
	Key   []string        `json:"key"`
	Total decimal.Decimal `json:"total"`
	Count int             `json:"count"`
}

// Aggregate groups records by the given dimensions and sums their amounts,
// counting a missing amount as zero. Records without a timestamp are left out
// when any dimension is time-bucketed. Rows come back in natural key order:
// each key part ascending, time parts chronologically. It panics on a
// dimension that is not Valid.
func Aggregate(records []domain.Record, dims ...Dimension) []Row {
	for _, d := range dims {
		if !d.Valid() {
			panic(fmt.Sprintf("aggregate: unknown dimension %q", string(d)))
		}
	}

	groups := make(map[string]*Row)
	rows := make([]Row, 0)
	var order []string

	for _, r := range records {
		key, ok := keyOf(r, dims)
		if !ok {
			continue
		}
		id := joinKey(key)
		g, exists := groups[id]
		if !exists {
			g = &Row{Key: key, Total: decimal.Zero}
			groups[id] = g
			order = append(order, id)
		}
		g.Total = g.Total.Add(r.AmountOrZero())
		g.Count++
	}

	for _, id := range order {
		rows = append(rows, *groups[id])
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return compareKeys(rows[i].Key, rows[j].Key) < 0
	})
	return rows
}

// Ranked aggregates along one dimension and orders rows by descending
// total. Ties keep natural key order.
func Ranked(records []domain.Record, dim Dimension) []Row {
	rows := Aggregate(records, dim)
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Total.GreaterThan(rows[j].Total)
	})
	return rows
}

// Sum returns the total of all amounts, missing amounts counted as zero.
func Sum(records []domain.Record) decimal.Decimal {
	total := decimal.Zero
	for _, r := range records {
		total = total.Add(r.AmountOrZero())
	}
	return total
}

func keyOf(r domain.Record, dims []Dimension) ([]string, bool) {
	key := make([]string, 0, len(dims))
	for _, d := range dims {
		v, ok := d.key(r)
		if !ok {
			return nil, false
		}
		key = append(key, v)
	}
	return key, true
}

// joinKey builds a map key; the unit separator cannot appear in Notion labels.
func joinKey(parts []string) string {
	n := 0
	for _, p := range parts {
		n += len(p) + 1
	}
	b := make([]byte, 0, n)
	for _, p := range parts {
		b = append(b, p...)
		b = append(b, 0x1f)
	}
	return string(b)
}

func compareKeys(a, b []string) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] < b[i] {
			return -1
		}
		if a[i] > b[i] {
			return 1
		}
	}
	return len(a) - len(b)
}
