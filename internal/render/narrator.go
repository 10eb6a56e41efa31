package render

import (
	"context"
	"fmt"
	"strings"

	"github.com/dvloznov/expense-dashboard/internal/aggregate"
	"google.golang.org/genai"
)

// DefaultModelName is the Gemini model used for the summary paragraph.
const DefaultModelName = "gemini-2.5-flash"

// Narrator writes a short human summary of the views.
type Narrator interface {
	Narrate(ctx context.Context, views []aggregate.View) (string, error)
}

// ContentGenerator is satisfied by genai.Client.Models.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiNarrator asks Gemini for a paragraph about the latest month.
type GeminiNarrator struct {
	models ContentGenerator
	model  string
}

// NewGeminiNarrator creates a narrator using the API key or Vertex settings
// found in the environment. An empty model selects DefaultModelName.
func NewGeminiNarrator(ctx context.Context, model string) (*GeminiNarrator, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("NewGeminiNarrator: create genai client: %w", err)
	}
	return NewGeminiNarratorWithGenerator(client.Models, model), nil
}

// NewGeminiNarratorWithGenerator wraps an existing generator.
func NewGeminiNarratorWithGenerator(models ContentGenerator, model string) *GeminiNarrator {
	if model == "" {
		model = DefaultModelName
	}
	return &GeminiNarrator{models: models, model: model}
}

func (n *GeminiNarrator) Narrate(ctx context.Context, views []aggregate.View) (string, error) {
	prompt := narrativePrompt(views)
	if prompt == "" {
		return "", nil
	}

	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: prompt}},
		},
	}

	resp, err := n.models.GenerateContent(ctx, n.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("GeminiNarrator.Narrate: generate content: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("GeminiNarrator.Narrate: empty response from model")
	}
	return text, nil
}

// narrativePrompt describes the month comparison and latest-month ranking.
// It returns "" when there is nothing dated to talk about.
func narrativePrompt(views []aggregate.View) string {
	var comparison, latest *aggregate.View
	for i := range views {
		switch views[i].Name {
		case aggregate.ViewMonthComparison:
			comparison = &views[i]
		case aggregate.ViewLatestMonthByCategory:
			latest = &views[i]
		}
	}
	if comparison == nil || comparison.Empty() {
		return ""
	}

	var b strings.Builder
	b.WriteString("Eres un asistente de finanzas personales. Escribe un párrafo breve (máximo 3 frases) ")
	b.WriteString("en español sobre los gastos del último mes comparados con el anterior. ")
	b.WriteString("Usa solo las cifras dadas, sin inventar datos ni dar consejos. Devuelve solo texto, sin Markdown.\n\n")

	b.WriteString("Gastos por mes y categoría:\n")
	for _, r := range comparison.Rows {
		fmt.Fprintf(&b, "- %s\n", rowLine(r))
	}

	if latest != nil && !latest.Empty() {
		b.WriteString("\nCategorías del último mes, de mayor a menor:\n")
		for _, r := range latest.Rows {
			fmt.Fprintf(&b, "- %s\n", rowLine(r))
		}
	}
	return b.String()
}

func rowLine(r aggregate.Row) string {
	parts := make([]string, len(r.Key))
	for i, k := range r.Key {
		parts[i] = displayKey(k)
	}
	return fmt.Sprintf("%s: %s (%d gastos)", strings.Join(parts, " / "), r.Total.StringFixed(2), r.Count)
}
