// Package insight turns a dataset classification into findings,
// recommendations and a data quality assessment.
package insight

import (
	"fmt"
	"sort"
	"strings"

	"github.com/KaramelBytes/surveyloom/internal/survey"
)

// Priority orders recommendations. Critical sorts first.
type Priority string

const (
	Critical Priority = "Critical"
	High     Priority = "High"
	Medium   Priority = "Medium"
	Low      Priority = "Low"
)

func (p Priority) rank() int {
	switch p {
	case Critical:
		return 0
	case High:
		return 1
	case Low:
		return 3
	default:
		return 2
	}
}

// ChartResult is the outcome of rendering one column.
type ChartResult struct {
	Column  string `json:"column"`
	Chart   string `json:"chart"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Finding is a heuristic observation over the aggregated statistics.
type Finding struct {
	Type        string   `json:"type"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Details     []string `json:"details,omitempty"`
}

// StatisticalInsight describes the shape of the survey.
type StatisticalInsight struct {
	Type        string         `json:"type"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Breakdown   map[string]int `json:"breakdown,omitempty"`
}

// Recommendation is a fixed-shape business recommendation. Every rule fills
// all eight fields.
type Recommendation struct {
	Priority             Priority `json:"priority"`
	Category             string   `json:"category"`
	Title                string   `json:"title"`
	Description          string   `json:"description"`
	ActionItems          []string `json:"action_items"`
	ExpectedImpact       string   `json:"expected_impact"`
	ImplementationEffort string   `json:"implementation_effort"`
	Timeframe            string   `json:"timeframe"`
}

// Assessment summarizes how much of the dataset was classified with confidence.
type Assessment struct {
	TotalColumns              int      `json:"total_columns"`
	SuccessfulClassifications int      `json:"successful_classifications"`
	AnalysisCompleteness      float64  `json:"analysis_completeness"`
	SuccessfulCharts          int      `json:"successful_charts"`
	FailedCharts              int      `json:"failed_charts"`
	QualityIssues             []string `json:"quality_issues"`
}

// Metric is a labelled headline number for the dashboard.
type Metric struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Insights is the composed output handed to the report layer.
type Insights struct {
	KeyFindings             []Finding            `json:"key_findings"`
	StatisticalInsights     []StatisticalInsight `json:"statistical_insights"`
	KeyPatterns             []Pattern            `json:"key_patterns"`
	BusinessRecommendations []Recommendation     `json:"business_recommendations"`
	DataQualityAssessment   Assessment           `json:"data_quality_assessment"`
	QualityReport           QualityReport        `json:"data_quality_report"`
	ExecutiveSummary        string               `json:"executive_summary"`
	Metrics                 []Metric             `json:"key_metrics"`
}

// Input bundles what Compose reads. Patterns is optional and usually comes
// from IdentifyPatterns.
type Input struct {
	Classification survey.DatasetClassification
	Profiles       []survey.ColumnProfile
	Charts         []ChartResult
	Patterns       []Pattern
}

// successThreshold is the confidence above which a column counts as
// successfully classified.
const successThreshold = 0.7

// Compose builds the findings, recommendations, quality assessment and
// executive summary. It is deterministic for a given Input.
func Compose(in Input) Insights {
	dc := in.Classification
	out := Insights{
		KeyFindings:         []Finding{},
		StatisticalInsights: []StatisticalInsight{},
		KeyPatterns:         in.Patterns,
	}
	if out.KeyPatterns == nil {
		out.KeyPatterns = []Pattern{}
	}

	a := Assessment{TotalColumns: dc.TotalColumns, QualityIssues: dc.QualityOverview.QualityIssues}
	for _, c := range dc.Classifications {
		if c.Confidence > successThreshold {
			a.SuccessfulClassifications++
		}
	}
	if dc.TotalColumns > 0 {
		a.AnalysisCompleteness = float64(a.SuccessfulClassifications) / float64(dc.TotalColumns) * 100
	}
	for _, ch := range in.Charts {
		if ch.Success {
			a.SuccessfulCharts++
		} else {
			a.FailedCharts++
		}
	}
	if a.QualityIssues == nil {
		a.QualityIssues = []string{}
	}
	out.DataQualityAssessment = a

	if f, ok := responseRateFinding(in.Profiles); ok {
		out.KeyFindings = append(out.KeyFindings, f)
	}
	counts := dc.TypeCounts()
	out.StatisticalInsights = append(out.StatisticalInsights, StatisticalInsight{
		Type:  "data_distribution",
		Title: "Survey Question Types",
		Description: fmt.Sprintf("Survey contains %d categorical, %d numerical, and %d text questions.",
			counts[survey.Categorical], counts[survey.Numerical], counts[survey.Textual]),
		Breakdown: map[string]int{
			string(survey.Categorical): counts[survey.Categorical],
			string(survey.Numerical):   counts[survey.Numerical],
			string(survey.Temporal):    counts[survey.Temporal],
			string(survey.Textual):     counts[survey.Textual],
			string(survey.Unknown):     counts[survey.Unknown],
		},
	})

	out.BusinessRecommendations = recommend(ruleInput{
		counts:           counts,
		totalColumns:     dc.TotalColumns,
		successfulCharts: a.SuccessfulCharts,
		patterns:         in.Patterns,
		profiles:         in.Profiles,
	})
	out.QualityReport = BuildQualityReport(dc, in.Profiles)
	out.ExecutiveSummary = ExecutiveSummary(dc, a)
	out.Metrics = []Metric{
		{Label: "Survey Questions", Value: fmt.Sprint(dc.TotalColumns)},
		{Label: "Analysis Completeness", Value: fmt.Sprintf("%.1f%%", a.AnalysisCompleteness)},
		{Label: "Visualizations Created", Value: fmt.Sprint(a.SuccessfulCharts)},
		{Label: "Recommendations", Value: fmt.Sprint(len(out.BusinessRecommendations))},
	}
	return out
}

type rate struct {
	column string
	pct    float64
}

// responseRateFinding lists columns answered by more than 80% of rows,
// highest rate first and by name among equal rates.
func responseRateFinding(profiles []survey.ColumnProfile) (Finding, bool) {
	var high []rate
	for _, p := range profiles {
		if r := p.ResponseRate(); r > 80 {
			high = append(high, rate{p.Name, r})
		}
	}
	if len(high) == 0 {
		return Finding{}, false
	}
	sort.SliceStable(high, func(i, j int) bool {
		if high[i].pct != high[j].pct {
			return high[i].pct > high[j].pct
		}
		return high[i].column < high[j].column
	})
	f := Finding{
		Type:        "response_quality",
		Title:       "High Response Rate Questions",
		Description: fmt.Sprintf("Found %d questions with >80%% response rate, indicating strong engagement.", len(high)),
	}
	for i, r := range high {
		if i == 5 {
			break
		}
		f.Details = append(f.Details, fmt.Sprintf("%s: %.1f%%", r.column, r.pct))
	}
	return f, true
}

// ExecutiveSummary renders the templated summary paragraph.
func ExecutiveSummary(dc survey.DatasetClassification, a Assessment) string {
	counts := dc.TypeCounts()
	parts := []string{fmt.Sprintf("Analysis of %d survey questions completed with %.1f%% success rate.",
		dc.TotalColumns, a.AnalysisCompleteness)}
	if n := counts[survey.Categorical]; n > 0 {
		parts = append(parts, fmt.Sprintf("Identified %d categorical questions suitable for distribution analysis.", n))
	}
	if n := counts[survey.Numerical]; n > 0 {
		parts = append(parts, fmt.Sprintf("Found %d numerical metrics enabling statistical analysis.", n))
	}
	parts = append(parts, fmt.Sprintf("Generated %d professional visualizations ready for stakeholder presentation.", a.SuccessfulCharts))
	return strings.Join(parts, " ")
}
