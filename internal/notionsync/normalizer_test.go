package notionsync

import (
	"testing"
	"time"

	"github.com/jomei/notionapi"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func richText(s string) []notionapi.RichText {
	return []notionapi.RichText{{
		Type:      notionapi.ObjectTypeText,
		Text:      &notionapi.Text{Content: s},
		PlainText: s,
	}}
}

func dateProp(t time.Time) *notionapi.DateProperty {
	d := notionapi.Date(t)
	return &notionapi.DateProperty{
		Type: notionapi.PropertyTypeDate,
		Date: &notionapi.DateObject{Start: &d},
	}
}

// samplePage mirrors a page decoded from the API: pointer properties with
// their type tags set.
func samplePage() notionapi.Properties {
	return notionapi.Properties{
		"Nombre":   &notionapi.TitleProperty{Type: notionapi.PropertyTypeTitle, Title: richText("Mercadona")},
		"Cantidad": &notionapi.NumberProperty{Type: notionapi.PropertyTypeNumber, Number: 42.35},
		"Fecha del gasto": &notionapi.CreatedTimeProperty{
			Type:        notionapi.PropertyTypeCreatedTime,
			CreatedTime: time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC),
		},
		"Cuenta":    &notionapi.SelectProperty{Type: notionapi.PropertyTypeSelect, Select: notionapi.Option{Name: "BBVA"}},
		"Categoría": &notionapi.SelectProperty{Type: notionapi.PropertyTypeSelect, Select: notionapi.Option{Name: "Comida"}},
		"Fórmula": &notionapi.FormulaProperty{
			Type:    notionapi.PropertyTypeFormula,
			Formula: notionapi.Formula{Type: notionapi.FormulaTypeString, String: "Variable"},
		},
	}
}

func newTestNormalizer() *Normalizer {
	return NewNormalizer(DefaultMapping(), zerolog.Nop())
}

func TestNormalize_FullPage(t *testing.T) {
	rec := newTestNormalizer().Normalize(samplePage())

	assert.Equal(t, "Mercadona", rec.Name)
	require.NotNil(t, rec.Amount)
	assert.True(t, rec.Amount.Equal(decimal.RequireFromString("42.35")), "amount %s", rec.Amount)
	require.NotNil(t, rec.Timestamp)
	assert.Equal(t, time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC), *rec.Timestamp)
	assert.Equal(t, "BBVA", rec.Account)
	assert.Equal(t, "Comida", rec.Category)
	assert.Equal(t, "Variable", rec.ExpenseType)
}

func TestNormalize_EmptyBundle(t *testing.T) {
	rec := newTestNormalizer().Normalize(notionapi.Properties{})

	assert.Equal(t, "", rec.Name)
	assert.Nil(t, rec.Amount)
	assert.Nil(t, rec.Timestamp)
	assert.Equal(t, "", rec.Account)
	assert.Equal(t, "", rec.Category)
	assert.Equal(t, "", rec.ExpenseType)
}

func TestNormalize_SelectAndRichTextAgree(t *testing.T) {
	n := newTestNormalizer()

	asSelect := n.Normalize(notionapi.Properties{
		"Categoría": &notionapi.SelectProperty{Type: notionapi.PropertyTypeSelect, Select: notionapi.Option{Name: "Food"}},
	})
	asRichText := n.Normalize(notionapi.Properties{
		"Categoría": &notionapi.RichTextProperty{Type: notionapi.PropertyTypeRichText, RichText: richText("Food")},
	})

	assert.Equal(t, "Food", asSelect.Category)
	assert.Equal(t, asSelect, asRichText)
}

func TestNormalize_ValuePropertiesWithoutTypeTag(t *testing.T) {
	props := notionapi.Properties{
		"Nombre":    notionapi.TitleProperty{Title: []notionapi.RichText{{Text: &notionapi.Text{Content: "Gasolina"}}}},
		"Cantidad":  notionapi.NumberProperty{Number: 60},
		"Cuenta":    notionapi.RichTextProperty{RichText: richText("ING")},
		"Categoría": notionapi.SelectProperty{Select: notionapi.Option{Name: "Transporte"}},
	}

	rec := newTestNormalizer().Normalize(props)

	assert.Equal(t, "Gasolina", rec.Name)
	require.NotNil(t, rec.Amount)
	assert.Equal(t, "60", rec.Amount.String())
	assert.Equal(t, "ING", rec.Account)
	assert.Equal(t, "Transporte", rec.Category)
}

func TestNormalize_EmptyPayloads(t *testing.T) {
	props := notionapi.Properties{
		"Nombre":          &notionapi.TitleProperty{Type: notionapi.PropertyTypeTitle},
		"Categoría":       &notionapi.SelectProperty{Type: notionapi.PropertyTypeSelect},
		"Cuenta":          &notionapi.RichTextProperty{Type: notionapi.PropertyTypeRichText},
		"Fecha del gasto": &notionapi.DateProperty{Type: notionapi.PropertyTypeDate},
	}

	rec := newTestNormalizer().Normalize(props)

	assert.Equal(t, "", rec.Name)
	assert.Equal(t, "", rec.Category)
	assert.Equal(t, "", rec.Account)
	assert.Nil(t, rec.Timestamp)
}

func TestNormalize_DateSources(t *testing.T) {
	instant := time.Date(2025, 2, 1, 0, 30, 0, 0, time.FixedZone("CET", 3600))
	want := time.Date(2025, 1, 31, 23, 30, 0, 0, time.UTC)

	tests := []struct {
		name string
		prop notionapi.Property
	}{
		{name: "date property", prop: dateProp(instant)},
		{name: "created time property", prop: &notionapi.CreatedTimeProperty{Type: notionapi.PropertyTypeCreatedTime, CreatedTime: instant}},
		{name: "date formula", prop: &notionapi.FormulaProperty{
			Type: notionapi.PropertyTypeFormula,
			Formula: notionapi.Formula{
				Type: notionapi.FormulaTypeDate,
				Date: dateProp(instant).Date,
			},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := newTestNormalizer().Normalize(notionapi.Properties{"Fecha del gasto": tt.prop})
			require.NotNil(t, rec.Timestamp)
			assert.Equal(t, want, *rec.Timestamp)
			assert.Equal(t, time.UTC, rec.Timestamp.Location())
		})
	}
}

func TestNormalize_CandidateNames(t *testing.T) {
	props := notionapi.Properties{
		"Fecha":      dateProp(time.Date(2024, 12, 24, 0, 0, 0, 0, time.UTC)),
		"Tipo gasto": &notionapi.RichTextProperty{Type: notionapi.PropertyTypeRichText, RichText: richText("Fijo")},
	}

	rec := newTestNormalizer().Normalize(props)

	require.NotNil(t, rec.Timestamp)
	assert.Equal(t, 2024, rec.Timestamp.Year())
	assert.Equal(t, "Fijo", rec.ExpenseType)
}

func TestNormalize_MissingVersusZeroAmount(t *testing.T) {
	n := newTestNormalizer()

	missing := n.Normalize(notionapi.Properties{})
	zero := n.Normalize(notionapi.Properties{
		"Cantidad": &notionapi.NumberProperty{Type: notionapi.PropertyTypeNumber, Number: 0},
	})

	assert.Nil(t, missing.Amount)
	require.NotNil(t, zero.Amount)
	assert.True(t, zero.Amount.IsZero())
}

func TestNormalize_UnreadableTypesFallBack(t *testing.T) {
	props := notionapi.Properties{
		"Nombre":    &notionapi.CheckboxProperty{Type: notionapi.PropertyTypeCheckbox, Checkbox: true},
		"Cantidad":  &notionapi.RichTextProperty{Type: notionapi.PropertyTypeRichText, RichText: richText("12")},
		"Categoría": &notionapi.NumberProperty{Type: notionapi.PropertyTypeNumber, Number: 3},
	}

	rec := newTestNormalizer().Normalize(props)

	assert.Equal(t, "", rec.Name)
	assert.Nil(t, rec.Amount)
	assert.Equal(t, "", rec.Category)
}

func TestNormalize_FormulaResults(t *testing.T) {
	tests := []struct {
		name    string
		formula notionapi.Formula
		want    string
	}{
		{name: "string", formula: notionapi.Formula{Type: notionapi.FormulaTypeString, String: "Ocio"}, want: "Ocio"},
		{name: "number", formula: notionapi.Formula{Type: notionapi.FormulaTypeNumber, Number: 2.5}, want: "2.5"},
		{name: "boolean", formula: notionapi.Formula{Type: notionapi.FormulaTypeBoolean, Boolean: true}, want: "true"},
		{name: "empty string", formula: notionapi.Formula{Type: notionapi.FormulaTypeString}, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := newTestNormalizer().Normalize(notionapi.Properties{
				"Fórmula": &notionapi.FormulaProperty{Type: notionapi.PropertyTypeFormula, Formula: tt.formula},
			})
			assert.Equal(t, tt.want, rec.ExpenseType)
		})
	}
}

func TestNormalizer_SetMapping(t *testing.T) {
	n := newTestNormalizer()
	props := notionapi.Properties{
		"Description": &notionapi.TitleProperty{Type: notionapi.PropertyTypeTitle, Title: richText("Cine")},
	}

	assert.Equal(t, "", n.Normalize(props).Name)

	m := DefaultMapping()
	m.Name = []string{"Description"}
	n.SetMapping(m)

	assert.Equal(t, "Cine", n.Normalize(props).Name)
	assert.Equal(t, []string{"Description"}, n.Mapping().Name)
}

func TestNormalizeAll_PreservesOrder(t *testing.T) {
	first := samplePage()
	second := notionapi.Properties{
		"Nombre": &notionapi.TitleProperty{Type: notionapi.PropertyTypeTitle, Title: richText("Renfe")},
	}

	records := newTestNormalizer().NormalizeAll([]notionapi.Properties{first, second})

	require.Len(t, records, 2)
	assert.Equal(t, "Mercadona", records[0].Name)
	assert.Equal(t, "Renfe", records[1].Name)
}
