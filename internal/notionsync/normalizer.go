package notionsync

import (
	"sync/atomic"
	"time"

	"github.com/dvloznov/expense-dashboard/internal/domain"
	"github.com/jomei/notionapi"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Normalizer turns a Notion property bundle into a domain.Record. It never
// fails: properties that are missing, empty or of an unreadable type yield
// the field's default.
type Normalizer struct {
	mapping atomic.Pointer[FieldMapping]
	log     zerolog.Logger
}

// NewNormalizer creates a Normalizer using the given mapping.
func NewNormalizer(mapping FieldMapping, log zerolog.Logger) *Normalizer {
	n := &Normalizer{log: log}
	n.SetMapping(mapping)
	return n
}

// SetMapping replaces the field mapping. Safe to call while Normalize runs.
func (n *Normalizer) SetMapping(mapping FieldMapping) {
	n.mapping.Store(&mapping)
}

// Mapping returns the mapping currently in use.
func (n *Normalizer) Mapping() FieldMapping {
	return *n.mapping.Load()
}

// Normalize maps one property bundle to a Record.
func (n *Normalizer) Normalize(props notionapi.Properties) domain.Record {
	m := n.mapping.Load()

	rec := domain.Record{
		Name:        n.text(props, m.Name),
		Account:     n.text(props, m.Account),
		Category:    n.text(props, m.Category),
		ExpenseType: n.text(props, m.ExpenseType),
	}

	if amount, ok := n.number(props, m.Amount); ok {
		rec.Amount = &amount
	}
	if ts, ok := n.timestamp(props, m.Date); ok {
		utc := ts.UTC()
		rec.Timestamp = &utc
	}

	return rec
}

// NormalizeAll maps every bundle, preserving order.
func (n *Normalizer) NormalizeAll(bundles []notionapi.Properties) []domain.Record {
	records := make([]domain.Record, 0, len(bundles))
	for _, props := range bundles {
		records = append(records, n.Normalize(props))
	}
	return records
}

// lookup returns the first candidate property present in the bundle.
func lookup(props notionapi.Properties, names []string) (notionapi.Property, string, bool) {
	for _, name := range names {
		if p, ok := props[name]; ok && p != nil {
			return p, name, true
		}
	}
	return nil, "", false
}

func (n *Normalizer) reader(props notionapi.Properties, names []string) (propertyReader, notionapi.Property, string, bool) {
	p, name, ok := lookup(props, names)
	if !ok {
		return propertyReader{}, nil, "", false
	}
	tag := propertyType(p)
	r, known := readers[tag]
	if !known {
		n.log.Debug().Str("property", name).Str("type", string(tag)).Msg("Unsupported property type, using default")
		return propertyReader{}, nil, "", false
	}
	return r, p, name, true
}

func (n *Normalizer) text(props notionapi.Properties, names []string) string {
	r, p, name, ok := n.reader(props, names)
	if !ok {
		return ""
	}
	if r.text == nil {
		n.log.Debug().Str("property", name).Msg("Property has no text form, using default")
		return ""
	}
	s, _ := r.text(p)
	return s
}

func (n *Normalizer) number(props notionapi.Properties, names []string) (decimal.Decimal, bool) {
	r, p, name, ok := n.reader(props, names)
	if !ok {
		return decimal.Decimal{}, false
	}
	if r.number == nil {
		n.log.Debug().Str("property", name).Msg("Property has no numeric form, using default")
		return decimal.Decimal{}, false
	}
	return r.number(p)
}

func (n *Normalizer) timestamp(props notionapi.Properties, names []string) (time.Time, bool) {
	r, p, name, ok := n.reader(props, names)
	if !ok {
		return time.Time{}, false
	}
	if r.instant == nil {
		n.log.Debug().Str("property", name).Msg("Property has no date form, using default")
		return time.Time{}, false
	}
	return r.instant(p)
}
