package domain

import (
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// Record is one expense row after normalization. Every field has a default,
// so a page with missing or empty properties still yields a Record.
type Record struct {
	Name        string           // from the title property
	Amount      *decimal.Decimal // nil when the amount property is missing
	Timestamp   *time.Time       // UTC; nil when no date is set
	Account     string           // select or rich text
	Category    string           // select or rich text
	ExpenseType string           // formula string result or rich text
}

// AmountOrZero returns the amount, treating a missing amount as zero.
func (r Record) AmountOrZero() decimal.Decimal {
	if r.Amount == nil {
		return decimal.Zero
	}
	return *r.Amount
}

// Date returns the calendar day of the timestamp.
func (r Record) Date() (civil.Date, bool) {
	if r.Timestamp == nil {
		return civil.Date{}, false
	}
	return civil.DateOf(*r.Timestamp), true
}

// Month returns the calendar month of the timestamp.
func (r Record) Month() (Month, bool) {
	if r.Timestamp == nil {
		return Month{}, false
	}
	return MonthOf(*r.Timestamp), true
}

// Month is a calendar month bucket such as 2025-02.
type Month struct {
	Year  int
	Month time.Month
}

// MonthOf returns the month containing t.
func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Month: t.Month()}
}

// ParseMonth parses the "2006-01" form produced by String.
func ParseMonth(s string) (Month, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return Month{}, fmt.Errorf("ParseMonth: %w", err)
	}
	return MonthOf(t), nil
}

func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}

// Before reports whether m is earlier than other.
func (m Month) Before(other Month) bool {
	if m.Year != other.Year {
		return m.Year < other.Year
	}
	return m.Month < other.Month
}

// FirstDay returns the first calendar day of the month.
func (m Month) FirstDay() civil.Date {
	return civil.Date{Year: m.Year, Month: m.Month, Day: 1}
}

// Run carries metadata about one pipeline run that produced new output.
type Run struct {
	ID                  string    `json:"run_id"`
	Fingerprint         string    `json:"fingerprint"`
	PreviousFingerprint string    `json:"previous_fingerprint,omitempty"`
	GeneratedAt         time.Time `json:"generated_at"`
	RecordCount         int       `json:"record_count"`
}
