package report

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"io"
	"strings"

	"github.com/yuin/goldmark"

	"github.com/KaramelBytes/surveyloom/internal/insight"
)

//go:embed templates/dashboard.html.tmpl
var dashboardSource string

var dashboardTmpl = template.Must(template.New("dashboard").Funcs(template.FuncMap{
	"badge": badgeClass,
	"pct":   func(v float64) string { return fmt.Sprintf("%.1f%%", v) },
	"score": func(v float64) string { return fmt.Sprintf("%.1f", v) },
	"join":  strings.Join,
}).Parse(dashboardSource))

var markdown = goldmark.New()

// badgeClass maps a priority to its badge color.
func badgeClass(p insight.Priority) string {
	switch p {
	case insight.Critical:
		return "danger"
	case insight.High:
		return "warning"
	case insight.Medium:
		return "info"
	default:
		return "secondary"
	}
}

type chartView struct {
	Title     string
	Column    string
	Token     string
	Responses int
	SVG       template.HTML
}

type dashboardView struct {
	*Data
	Summary     template.HTML
	Elaboration template.HTML
	ChartViews  []chartView
}

// RenderMarkdown converts Markdown to HTML. Raw HTML in the input is not
// passed through.
func RenderMarkdown(src string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return template.HTML(buf.String()), nil
}

// WriteDashboard renders the HTML dashboard to w.
func WriteDashboard(w io.Writer, d *Data) error {
	v := dashboardView{Data: d}
	var err error
	if v.Summary, err = RenderMarkdown(d.Insights.ExecutiveSummary); err != nil {
		return err
	}
	if d.Elaboration != "" {
		if v.Elaboration, err = RenderMarkdown(d.Elaboration); err != nil {
			return err
		}
	}
	for _, c := range d.Charts {
		// SVG comes from the render package, which escapes all text it draws.
		v.ChartViews = append(v.ChartViews, chartView{
			Title:     c.Title,
			Column:    c.Column,
			Token:     c.Token,
			Responses: c.Responses,
			SVG:       template.HTML(c.SVG),
		})
	}
	if err := dashboardTmpl.Execute(w, v); err != nil {
		return fmt.Errorf("render dashboard: %w", err)
	}
	return nil
}

// Dashboard is WriteDashboard into a byte slice.
func Dashboard(d *Data) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteDashboard(&buf, d); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
