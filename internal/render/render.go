// Package render draws chart artifacts for survey columns as inline SVG.
package render

import (
	"errors"
	"fmt"
	"strings"

	"github.com/KaramelBytes/surveyloom/internal/survey"
)

var (
	// ErrUnsupportedChart is returned for chart tokens this package cannot draw.
	ErrUnsupportedChart = errors.New("unsupported chart type")
	// ErrNoData is returned when a column has nothing to plot for the token.
	ErrNoData = errors.New("no plottable values")
)

// Artifact is a rendered chart.
type Artifact struct {
	Token     string `json:"token"`
	Column    string `json:"column"`
	Title     string `json:"title"`
	SVG       string `json:"-"`
	Responses int    `json:"responses"`
}

type drawFunc func(r *Renderer, a *Artifact, values []survey.Scalar) error

var charts = map[string]drawFunc{
	"bar_chart":            drawBars,
	"stacked_bar_chart":    drawBars,
	"frequency_chart":      drawBars,
	"horizontal_bar_chart": drawHorizontalBars,
	"pie_chart":            drawPie,
	"donut_chart":          drawDonut,
	"histogram":            drawHistogram,
	"density_plot":         drawDensity,
	"violin_plot":          drawDensity,
	"box_plot":             drawBox,
	"time_series_line":     drawSeries,
	"line_chart":           drawSeries,
	"area_chart":           drawArea,
	"word_cloud":           drawTerms,
	"sentiment_analysis":   drawTerms,
	"text_analysis":        drawTerms,
}

// Supported reports whether token can be rendered.
func Supported(token string) bool {
	_, ok := charts[token]
	return ok
}

// Renderer draws charts at a fixed size.
type Renderer struct {
	Width  int
	Height int
	// MaxCategories caps the bars or slices drawn; the rest fold into "Other".
	MaxCategories int
}

// New returns a Renderer with dashboard defaults.
func New() *Renderer {
	return &Renderer{Width: 640, Height: 360, MaxCategories: 12}
}

// Render draws values of column as the chart named by token.
func (r *Renderer) Render(token, column string, values []survey.Scalar) (Artifact, error) {
	draw, ok := charts[token]
	if !ok {
		return Artifact{}, fmt.Errorf("%w: %s", ErrUnsupportedChart, token)
	}
	a := Artifact{Token: token, Column: column, Title: title(token, column)}
	for _, v := range values {
		if !v.Blank() {
			a.Responses++
		}
	}
	if a.Responses == 0 {
		return Artifact{}, fmt.Errorf("%s: %w", column, ErrNoData)
	}
	if err := draw(r, &a, values); err != nil {
		return Artifact{}, fmt.Errorf("%s %s: %w", token, column, err)
	}
	return a, nil
}

// RenderFirst tries tokens in order and returns the first chart that draws.
// The error of the last attempt is returned when none does.
func (r *Renderer) RenderFirst(tokens []string, column string, values []survey.Scalar) (Artifact, error) {
	err := fmt.Errorf("%s: %w", column, ErrUnsupportedChart)
	for _, tok := range tokens {
		var a Artifact
		if a, err = r.Render(tok, column, values); err == nil {
			return a, nil
		}
	}
	return Artifact{}, err
}

func title(token, column string) string {
	kind := strings.ReplaceAll(token, "_", " ")
	if kind != "" {
		kind = strings.ToUpper(kind[:1]) + kind[1:]
	}
	return fmt.Sprintf("%s: %s", kind, column)
}
