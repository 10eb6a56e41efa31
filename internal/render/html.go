package render

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"sync"

	"github.com/dvloznov/expense-dashboard/internal/aggregate"
	"github.com/dvloznov/expense-dashboard/internal/domain"
	"github.com/dvloznov/expense-dashboard/internal/logger"
)

// Files written by HTMLRenderer.
const (
	IndexFile    = "index.html"
	SnapshotFile = "views.json"
)

// DefaultTitle heads the page when no title is configured.
const DefaultTitle = "Gastos"

//go:embed templates/*.tmpl
var templatesFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templatesFS, "templates/index.html.tmpl"))

// Snapshot is the machine-readable copy of a published run.
type Snapshot struct {
	Run       domain.Run       `json:"run"`
	Narrative string           `json:"narrative,omitempty"`
	Views     []aggregate.View `json:"views"`
}

type section struct {
	Name   string
	Title  string
	Empty  bool
	Labels []string
	Chart  Chart
	Rows   []TableRow
}

type page struct {
	Title       string
	GeneratedAt string
	RecordCount int
	Total       string
	Fingerprint string
	Narrative   string
	Sections    []section
	Charts      []Chart
}

// HTMLRenderer publishes the views as a static page with Plotly charts plus
// a JSON snapshot. Render buffers views; Finish writes both files.
type HTMLRenderer struct {
	sink     Sink
	title    string
	narrator Narrator

	mu    sync.Mutex
	views []aggregate.View
}

// HTMLOption configures an HTMLRenderer.
type HTMLOption func(*HTMLRenderer)

// WithTitle sets the page heading.
func WithTitle(title string) HTMLOption {
	return func(r *HTMLRenderer) {
		if title != "" {
			r.title = title
		}
	}
}

// WithNarrator adds a generated summary paragraph above the charts.
func WithNarrator(n Narrator) HTMLOption {
	return func(r *HTMLRenderer) { r.narrator = n }
}

// NewHTMLRenderer creates a renderer writing to sink.
func NewHTMLRenderer(sink Sink, opts ...HTMLOption) *HTMLRenderer {
	r := &HTMLRenderer{sink: sink, title: DefaultTitle}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Reset discards views buffered since the last Finish.
func (r *HTMLRenderer) Reset() {
	r.mu.Lock()
	r.views = nil
	r.mu.Unlock()
}

func (r *HTMLRenderer) Render(ctx context.Context, view aggregate.View) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.views = append(r.views, view)
	return nil
}

// Finish writes the snapshot first and the page last, so a published page
// always has a matching snapshot.
func (r *HTMLRenderer) Finish(ctx context.Context, run domain.Run) error {
	r.mu.Lock()
	views := r.views
	r.views = nil
	r.mu.Unlock()

	log := logger.FromContext(ctx)

	var narrative string
	if r.narrator != nil {
		text, err := r.narrator.Narrate(ctx, views)
		if err != nil {
			log.Warn().Err(err).Msg("Narrative generation failed, publishing without it")
		} else {
			narrative = text
		}
	}

	snapshot, err := json.MarshalIndent(Snapshot{Run: run, Narrative: narrative, Views: views}, "", "  ")
	if err != nil {
		return fmt.Errorf("HTMLRenderer.Finish: encode snapshot: %w", err)
	}

	html, err := r.page(run, narrative, views)
	if err != nil {
		return fmt.Errorf("HTMLRenderer.Finish: %w", err)
	}

	if err := r.sink.WriteFile(ctx, SnapshotFile, snapshot, "application/json"); err != nil {
		return fmt.Errorf("HTMLRenderer.Finish: write %s: %w", SnapshotFile, err)
	}
	if err := r.sink.WriteFile(ctx, IndexFile, html, "text/html; charset=utf-8"); err != nil {
		return fmt.Errorf("HTMLRenderer.Finish: write %s: %w", IndexFile, err)
	}

	log.Info().Int("views", len(views)).Int("bytes", len(html)).Msg("Published dashboard")
	return nil
}

func (r *HTMLRenderer) page(run domain.Run, narrative string, views []aggregate.View) ([]byte, error) {
	p := page{
		Title:       r.title,
		GeneratedAt: run.GeneratedAt.Format("2006-01-02 15:04 MST"),
		RecordCount: run.RecordCount,
		Fingerprint: run.Fingerprint,
		Narrative:   narrative,
		Total:       "0.00",
		Charts:      []Chart{},
	}

	for _, v := range views {
		s := section{Name: v.Name, Title: v.Title, Empty: v.Empty(), Labels: v.Labels()}
		if !s.Empty {
			s.Chart = ChartFor(v)
			s.Rows = TableFor(v)
			p.Charts = append(p.Charts, s.Chart)
		}
		// by_category includes records without a timestamp, so its total is the grand total.
		if v.Name == aggregate.ViewByCategory {
			p.Total = v.Total().StringFixed(2)
		}
		p.Sections = append(p.Sections, s)
	}

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, p); err != nil {
		return nil, fmt.Errorf("execute template: %w", err)
	}
	return buf.Bytes(), nil
}
