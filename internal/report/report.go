// Package report renders an analyzed survey as a Markdown report and a
// self-contained HTML dashboard.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/KaramelBytes/surveyloom/internal/insight"
	"github.com/KaramelBytes/surveyloom/internal/render"
	"github.com/KaramelBytes/surveyloom/internal/responses"
	"github.com/KaramelBytes/surveyloom/internal/survey"
)

// Data is everything a report shows about one analyzed survey. It is also
// the shape of analysis_results.json.
type Data struct {
	ID             string                       `json:"id,omitempty"`
	Source         string                       `json:"source"`
	Sheet          string                       `json:"sheet,omitempty"`
	GeneratedAt    time.Time                    `json:"generated_at"`
	Rows           int                          `json:"rows"`
	Columns        []string                     `json:"analyzed_columns"`
	SurveyDetected bool                         `json:"survey_columns_detected"`
	Classification survey.DatasetClassification `json:"classification"`
	Profiles       []survey.ColumnProfile       `json:"column_summaries"`
	Plan           survey.VisualizationPlan     `json:"visualization_plan"`
	Charts         []render.Artifact            `json:"charts"`
	ChartResults   []insight.ChartResult        `json:"chart_results"`
	Insights       insight.Insights             `json:"insights"`
	Responses      []responses.Summary          `json:"response_classification,omitempty"`
	Elaboration    string                       `json:"ai_elaboration,omitempty"`
	Warnings       []string                     `json:"warnings,omitempty"`
}

// Title is the human name of the report.
func (d *Data) Title() string {
	if d.Source == "" {
		return "Survey Analysis"
	}
	return "Survey Analysis: " + d.Source
}

// Markdown renders a compact report suitable for prompts or standalone docs.
func Markdown(d *Data) string {
	var b strings.Builder
	dc := d.Classification
	ins := d.Insights
	a := ins.DataQualityAssessment

	b.WriteString("[SURVEY SUMMARY]\n")
	if d.Source != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", d.Source))
	}
	if d.Sheet != "" {
		b.WriteString(fmt.Sprintf("Sheet: %s\n", d.Sheet))
	}
	b.WriteString(fmt.Sprintf("Rows: %d\n", d.Rows))
	b.WriteString(fmt.Sprintf("Questions analyzed: %d\n", dc.TotalColumns))
	b.WriteString(fmt.Sprintf("Analysis completeness: %.1f%%\n", a.AnalysisCompleteness))
	b.WriteString(fmt.Sprintf("Charts: %d rendered, %d failed\n", a.SuccessfulCharts, a.FailedCharts))
	if !d.GeneratedAt.IsZero() {
		b.WriteString(fmt.Sprintf("Generated: %s\n", d.GeneratedAt.UTC().Format(time.RFC3339)))
	}
	if ins.ExecutiveSummary != "" {
		b.WriteString("\n")
		b.WriteString(ins.ExecutiveSummary)
		b.WriteString("\n")
	}

	b.WriteString("\n[CLASSIFICATIONS]\n")
	for _, c := range dc.Ordered() {
		kind := string(c.PrimaryType)
		if c.SubType != "" {
			kind += "/" + string(c.SubType)
		}
		b.WriteString(fmt.Sprintf("- %s: %s (confidence %.2f)", safeName(c.ColumnName), kind, c.Confidence))
		if len(c.VisualizationRecommendations) > 0 {
			b.WriteString("; charts: " + strings.Join(c.VisualizationRecommendations, ", "))
		}
		if len(c.QualityFlags) > 0 {
			flags := make([]string, len(c.QualityFlags))
			for i, f := range c.QualityFlags {
				flags[i] = string(f)
			}
			b.WriteString("; flags: " + strings.Join(flags, ", "))
		}
		if s := c.StatisticalSummary; s != nil {
			b.WriteString(fmt.Sprintf("; mean %.4g, median %.4g, std %.4g, range %.4g..%.4g", s.Mean, s.Median, s.StdDev, s.Min, s.Max))
		}
		b.WriteString("\n")
	}
	if n := len(dc.Summary.Uncertain); n > 0 {
		b.WriteString(fmt.Sprintf("Uncertain (%d): %s\n", n, strings.Join(dc.Summary.Uncertain, ", ")))
	}

	b.WriteString("\n[KEY FINDINGS]\n")
	if len(ins.KeyFindings) == 0 && len(ins.KeyPatterns) == 0 && len(ins.StatisticalInsights) == 0 {
		b.WriteString("- No notable findings.\n")
	}
	for _, f := range ins.KeyFindings {
		b.WriteString(fmt.Sprintf("- %s: %s\n", f.Title, f.Description))
		for _, det := range f.Details {
			b.WriteString(fmt.Sprintf("  • %s\n", safeVal(det)))
		}
	}
	for _, s := range ins.StatisticalInsights {
		b.WriteString(fmt.Sprintf("- %s: %s\n", s.Title, s.Description))
	}
	for _, p := range ins.KeyPatterns {
		b.WriteString(fmt.Sprintf("- %s: %s (confidence %s)\n", p.Title, safeVal(p.Description), p.Confidence))
	}

	if len(d.Responses) > 0 {
		b.WriteString("\n[RESPONSE CLASSIFICATION]\n")
		for _, s := range d.Responses {
			b.WriteString(fmt.Sprintf("- %s (n=%d, avg confidence %.1f)\n", safeName(s.Question), s.TotalResponses, s.ConfidenceAvg))
			for _, f := range s.Simplified {
				b.WriteString(fmt.Sprintf("  • %s: %d (%.2f%%)\n", f.Category, f.Count, f.Percentage))
			}
		}
	}

	b.WriteString("\n[RECOMMENDATIONS]\n")
	if len(ins.BusinessRecommendations) == 0 {
		b.WriteString("- None.\n")
	}
	for _, r := range ins.BusinessRecommendations {
		b.WriteString(fmt.Sprintf("- [%s] %s: %s\n", r.Priority, r.Title, r.Description))
		for _, item := range r.ActionItems {
			b.WriteString(fmt.Sprintf("  • %s\n", item))
		}
		b.WriteString(fmt.Sprintf("  %s | impact: %s | effort: %s | timeframe: %s\n",
			r.Category, r.ExpectedImpact, r.ImplementationEffort, r.Timeframe))
	}

	q := ins.QualityReport
	b.WriteString("\n[DATA QUALITY]\n")
	b.WriteString(fmt.Sprintf("Overall: %.1f/100 (%s)\n", q.OverallScore, q.Level))
	b.WriteString(fmt.Sprintf("Completeness %.1f, consistency %.1f, classification accuracy %.1f\n",
		q.Dimensions.Completeness, q.Dimensions.Consistency, q.Dimensions.ClassificationAccuracy))
	for _, rec := range q.Recommendations {
		b.WriteString(fmt.Sprintf("- [%s] %s: %s\n", rec.Priority, rec.Issue, rec.Recommendation))
	}
	for _, issue := range a.QualityIssues {
		b.WriteString(fmt.Sprintf("- %s\n", safeVal(issue)))
	}

	if d.Elaboration != "" {
		b.WriteString("\n[ANALYST ELABORATION]\n")
		b.WriteString(strings.TrimSpace(d.Elaboration))
		b.WriteString("\n")
	}

	if len(d.Warnings) > 0 {
		b.WriteString("\n[NOTES]\n")
		for _, w := range d.Warnings {
			b.WriteString("- ")
			b.WriteString(w)
			b.WriteString("\n")
		}
	}
	return b.String()
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return s
}

func safeVal(s string) string { return strings.ReplaceAll(s, "\n", " ") }
