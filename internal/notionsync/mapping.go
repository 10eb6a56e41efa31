package notionsync

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// FieldMapping lists, for each Record field, the Notion property names that may
// hold it. Names are tried in order and the first one present on a page wins,
// so a property renamed between schema revisions can be listed twice.
type FieldMapping struct {
	Name        []string `yaml:"name"`
	Amount      []string `yaml:"amount"`
	Date        []string `yaml:"date"`
	Account     []string `yaml:"account"`
	Category    []string `yaml:"category"`
	ExpenseType []string `yaml:"expense_type"`
}

// DefaultMapping matches the property names of the expenses database.
func DefaultMapping() FieldMapping {
	return FieldMapping{
		Name:        []string{"Nombre"},
		Amount:      []string{"Cantidad"},
		Date:        []string{"Fecha del gasto", "Fecha"},
		Account:     []string{"Cuenta"},
		Category:    []string{"Categoría"},
		ExpenseType: []string{"Fórmula", "Tipo gasto"},
	}
}

// LoadMapping reads a YAML mapping file. Fields left out of the file keep
// their default property names.
func LoadMapping(path string) (FieldMapping, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return FieldMapping{}, fmt.Errorf("LoadMapping: read %s: %w", path, err)
	}
	return ParseMapping(data)
}

// ParseMapping decodes YAML mapping bytes over the default mapping.
func ParseMapping(data []byte) (FieldMapping, error) {
	m := DefaultMapping()
	var file FieldMapping
	if err := yaml.Unmarshal(data, &file); err != nil {
		return FieldMapping{}, fmt.Errorf("ParseMapping: %w", err)
	}

	override := func(dst *[]string, src []string) {
		if len(src) > 0 {
			*dst = src
		}
	}
	override(&m.Name, file.Name)
	override(&m.Amount, file.Amount)
	override(&m.Date, file.Date)
	override(&m.Account, file.Account)
	override(&m.Category, file.Category)
	override(&m.ExpenseType, file.ExpenseType)

	if err := m.Validate(); err != nil {
		return FieldMapping{}, err
	}
	return m, nil
}

// Validate rejects blank property names.
func (m FieldMapping) Validate() error {
	var problems []string
	check := func(field string, names []string) {
		for _, n := range names {
			if strings.TrimSpace(n) == "" {
				problems = append(problems, fmt.Sprintf("%s: blank property name", field))
			}
		}
	}
	check("name", m.Name)
	check("amount", m.Amount)
	check("date", m.Date)
	check("account", m.Account)
	check("category", m.Category)
	check("expense_type", m.ExpenseType)

	if len(problems) > 0 {
		return fmt.Errorf("invalid field mapping:\n- %s", strings.Join(problems, "\n- "))
	}
	return nil
}
