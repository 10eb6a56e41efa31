package notionsync

import (
	"strconv"
	"time"

	"github.com/jomei/notionapi"
	"github.com/shopspring/decimal"
)

// propertyReader is the set of value shapes a property type can produce.
// A nil func means the type cannot be read in that shape.
type propertyReader struct {
	text    func(notionapi.Property) (string, bool)
	number  func(notionapi.Property) (decimal.Decimal, bool)
	instant func(notionapi.Property) (time.Time, bool)
}

var readers = map[notionapi.PropertyType]propertyReader{
	notionapi.PropertyTypeTitle:       {text: titleText},
	notionapi.PropertyTypeRichText:    {text: richTextText},
	notionapi.PropertyTypeSelect:      {text: selectText},
	notionapi.PropertyTypeNumber:      {number: numberValue},
	notionapi.PropertyTypeDate:        {instant: dateValue},
	notionapi.PropertyTypeCreatedTime: {instant: createdTimeValue},
	notionapi.PropertyTypeFormula:     {text: formulaText, number: formulaNumber, instant: formulaDate},
}

// propertyType returns the declared type tag. Properties built in code
// rather than decoded from the API often leave Type empty, in which case the
// tag is taken from the Go type.
func propertyType(p notionapi.Property) notionapi.PropertyType {
	if t := p.GetType(); t != "" {
		return t
	}
	switch p.(type) {
	case notionapi.TitleProperty, *notionapi.TitleProperty:
		return notionapi.PropertyTypeTitle
	case notionapi.RichTextProperty, *notionapi.RichTextProperty:
		return notionapi.PropertyTypeRichText
	case notionapi.SelectProperty, *notionapi.SelectProperty:
		return notionapi.PropertyTypeSelect
	case notionapi.NumberProperty, *notionapi.NumberProperty:
		return notionapi.PropertyTypeNumber
	case notionapi.DateProperty, *notionapi.DateProperty:
		return notionapi.PropertyTypeDate
	case notionapi.CreatedTimeProperty, *notionapi.CreatedTimeProperty:
		return notionapi.PropertyTypeCreatedTime
	case notionapi.FormulaProperty, *notionapi.FormulaProperty:
		return notionapi.PropertyTypeFormula
	}
	return ""
}

// as unwraps a property into its value type. Decoded pages hold pointers,
// hand-built property maps hold values.
func as[T any](p notionapi.Property) (T, bool) {
	switch v := any(p).(type) {
	case *T:
		if v != nil {
			return *v, true
		}
	case T:
		return v, true
	}
	var zero T
	return zero, false
}

func firstSegment(segments []notionapi.RichText) (string, bool) {
	if len(segments) == 0 {
		return "", false
	}
	s := segments[0]
	if s.PlainText != "" {
		return s.PlainText, true
	}
	if s.Text != nil {
		return s.Text.Content, true
	}
	return "", true
}

func titleText(p notionapi.Property) (string, bool) {
	v, ok := as[notionapi.TitleProperty](p)
	if !ok {
		return "", false
	}
	return firstSegment(v.Title)
}

func richTextText(p notionapi.Property) (string, bool) {
	v, ok := as[notionapi.RichTextProperty](p)
	if !ok {
		return "", false
	}
	return firstSegment(v.RichText)
}

func selectText(p notionapi.Property) (string, bool) {
	v, ok := as[notionapi.SelectProperty](p)
	if !ok || v.Select.Name == "" {
		return "", false
	}
	return v.Select.Name, true
}

// numberValue trusts Number as set. Null numbers never reach it because
// nullNumberTransport strips them from query responses.
func numberValue(p notionapi.Property) (decimal.Decimal, bool) {
	v, ok := as[notionapi.NumberProperty](p)
	if !ok {
		return decimal.Decimal{}, false
	}
	return decimal.NewFromFloat(v.Number), true
}

func dateValue(p notionapi.Property) (time.Time, bool) {
	v, ok := as[notionapi.DateProperty](p)
	if !ok || v.Date == nil {
		return time.Time{}, false
	}
	return dateStart(v.Date)
}

func createdTimeValue(p notionapi.Property) (time.Time, bool) {
	v, ok := as[notionapi.CreatedTimeProperty](p)
	if !ok || v.CreatedTime.IsZero() {
		return time.Time{}, false
	}
	return v.CreatedTime, true
}

func dateStart(d *notionapi.DateObject) (time.Time, bool) {
	if d == nil || d.Start == nil {
		return time.Time{}, false
	}
	t := time.Time(*d.Start)
	if t.IsZero() {
		return time.Time{}, false
	}
	return t, true
}

func formulaText(p notionapi.Property) (string, bool) {
	v, ok := as[notionapi.FormulaProperty](p)
	if !ok {
		return "", false
	}
	f := v.Formula
	switch f.Type {
	case notionapi.FormulaTypeString:
		return f.String, f.String != ""
	case notionapi.FormulaTypeNumber:
		return strconv.FormatFloat(f.Number, 'f', -1, 64), true
	case notionapi.FormulaTypeBoolean:
		return strconv.FormatBool(f.Boolean), true
	case notionapi.FormulaTypeDate:
		if t, ok := dateStart(f.Date); ok {
			return t.UTC().Format("2006-01-02"), true
		}
		return "", false
	}
	// untyped formula built in code
	return f.String, f.String != ""
}

func formulaNumber(p notionapi.Property) (decimal.Decimal, bool) {
	v, ok := as[notionapi.FormulaProperty](p)
	if !ok || v.Formula.Type != notionapi.FormulaTypeNumber {
		return decimal.Decimal{}, false
	}
	return decimal.NewFromFloat(v.Formula.Number), true
}

func formulaDate(p notionapi.Property) (time.Time, bool) {
	v, ok := as[notionapi.FormulaProperty](p)
	if !ok || v.Formula.Type != notionapi.FormulaTypeDate {
		return time.Time{}, false
	}
	return dateStart(v.Formula.Date)
}
