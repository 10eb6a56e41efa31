package aggregate

import (
	"sort"

	"github.com/dvloznov/expense-dashboard/internal/domain"
)

// LatestMonth returns the most recent month present in the records. It is
// derived from the data, never from the wall clock.
func LatestMonth(records []domain.Record) (domain.Month, bool) {
	months := RecentMonths(records, 1)
	if len(months) == 0 {
		return domain.Month{}, false
	}
	return months[0], true
}

// RecentMonths returns up to n of the most recent distinct months, oldest first.
func RecentMonths(records []domain.Record, n int) []domain.Month {
	seen := make(map[domain.Month]bool)
	var months []domain.Month
	for _, r := range records {
		m, ok := r.Month()
		if !ok || seen[m] {
			continue
		}
		seen[m] = true
		months = append(months, m)
	}

	sort.Slice(months, func(i, j int) bool { return months[i].Before(months[j]) })
	if n >= 0 && len(months) > n {
		months = months[len(months)-n:]
	}
	return months
}

// InMonths keeps the records whose timestamp falls in one of the months.
func InMonths(records []domain.Record, months ...domain.Month) []domain.Record {
	want := make(map[domain.Month]bool, len(months))
	for _, m := range months {
		want[m] = true
	}

	var out []domain.Record
	for _, r := range records {
		if m, ok := r.Month(); ok && want[m] {
			out = append(out, r)
		}
	}
	return out
}

// LatestMonthByCategory ranks categories by spend within the latest month.
func LatestMonthByCategory(records []domain.Record) []Row {
	latest, ok := LatestMonth(records)
	if !ok {
		return []Row{}
	}
	return Ranked(InMonths(records, latest), DimensionCategory)
}

// MonthComparison sums each category for the two most recent months, for a
// side-by-side view. With only one month present it covers that month alone.
func MonthComparison(records []domain.Record) []Row {
	months := RecentMonths(records, 2)
	if len(months) == 0 {
		return []Row{}
	}
	return Aggregate(InMonths(records, months...), DimensionMonth, DimensionCategory)
}
