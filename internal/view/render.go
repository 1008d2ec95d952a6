package view

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"strconv"

	"github.com/truthscan-ai/truthscan/internal/detection"
)

//go:embed templates/*.html.tmpl
var templateFS embed.FS

// Treatment is the visual style of a verdict.
type Treatment struct {
	Name  string // color family
	Class string // CSS class on the verdict panel
	Icon  string // font-awesome icon name
}

var (
	treatments = map[detection.Verdict]Treatment{
		detection.VerdictReal:       {Name: "green", Class: "verdict--green"},
		detection.VerdictMostlyReal: {Name: "emerald", Class: "verdict--emerald"},
		detection.VerdictMixed:      {Name: "yellow", Class: "verdict--yellow"},
		detection.VerdictMostlyFake: {Name: "orange", Class: "verdict--orange"},
		detection.VerdictFake:       {Name: "red", Class: "verdict--red"},
	}
	// Unverifiable and any off-schema label share the fallback.
	fallbackTreatment = Treatment{Name: "blue", Class: "verdict--blue"}
)

// TreatmentFor maps any verdict string to exactly one treatment.
func TreatmentFor(verdict string) Treatment {
	t, ok := treatments[detection.Verdict(verdict)]
	if !ok {
		t = fallbackTreatment
	}
	if detection.Verdict(verdict) == detection.VerdictReal {
		t.Icon = "check-circle"
	} else {
		t.Icon = "exclamation-triangle"
	}
	return t
}

// FormatConfidence renders a score as a percentage in its shortest decimal form.
func FormatConfidence(score float64) string {
	return strconv.FormatFloat(score, 'f', -1, 64) + "%"
}

// Page is everything the page template needs.
type Page struct {
	State State
	// Year is shown in the footer.
	Year int
}

// Renderer renders the page and result panel. It is safe for concurrent use.
type Renderer struct {
	tmpl *template.Template
}

// NewRenderer parses the embedded templates.
func NewRenderer() (*Renderer, error) {
	tmpl, err := template.New("truthscan").Funcs(template.FuncMap{
		"treatment": func(v detection.Verdict) Treatment { return TreatmentFor(string(v)) },
		"percent":   FormatConfidence,
	}).ParseFS(templateFS, "templates/*.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// Template exposes the parsed template set, e.g. for gin's HTML renderer.
func (r *Renderer) Template() *template.Template { return r.tmpl }

// RenderPage writes the full page.
func (r *Renderer) RenderPage(w io.Writer, p Page) error {
	return r.tmpl.ExecuteTemplate(w, "page", p)
}

// RenderResult writes only the result panel.
func (r *Renderer) RenderResult(w io.Writer, res *detection.DetectionResult) error {
	if res == nil {
		return nil
	}
	return r.tmpl.ExecuteTemplate(w, "result", res)
}
