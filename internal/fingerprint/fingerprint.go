package fingerprint

import (
	"bytes"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/dvloznov/expense-dashboard/internal/domain"
)

// Digest is the lowercase hex SHA-256 of a record set's canonical form.
type Digest string

// canonicalRecord fixes the field order and null encoding of one record.
type canonicalRecord struct {
	Name        string  `json:"name"`
	Amount      *string `json:"amount"`
	Timestamp   *string `json:"timestamp"`
	Account     string  `json:"account"`
	Category    string  `json:"category"`
	ExpenseType string  `json:"expense_type"`
}

func canonical(r domain.Record) []byte {
	c := canonicalRecord{
		Name:        r.Name,
		Account:     r.Account,
		Category:    r.Category,
		ExpenseType: r.ExpenseType,
	}
	if r.Amount != nil {
		s := r.Amount.String()
		c.Amount = &s
	}
	if r.Timestamp != nil {
		s := r.Timestamp.UTC().Format(time.RFC3339Nano)
		c.Timestamp = &s
	}
	// Only strings and nil pointers: Marshal cannot fail.
	line, _ := json.Marshal(c)
	return line
}

// Compute returns the digest of records. The result does not depend on the
// order records arrive in, but duplicates are counted: the canonical lines are
// sorted before hashing rather than deduplicated.
func Compute(records []domain.Record) Digest {
	lines := make([][]byte, 0, len(records))
	for _, r := range records {
		lines = append(lines, canonical(r))
	}
	sort.Slice(lines, func(i, j int) bool {
		return bytes.Compare(lines[i], lines[j]) < 0
	})

	h := sha256.New()
	for _, line := range lines {
		h.Write(line)
		h.Write([]byte{'\n'})
	}
	return Digest(fmt.Sprintf("%x", h.Sum(nil)))
}

// Changed reports whether current differs from the previous run's digest.
// A missing previous digest always counts as a change.
func Changed(previous Digest, hasPrevious bool, current Digest) bool {
	if !hasPrevious || previous == "" {
		return true
	}
	return previous != current
}
