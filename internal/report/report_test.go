package report

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/KaramelBytes/surveyloom/internal/insight"
	"github.com/KaramelBytes/surveyloom/internal/render"
	"github.com/KaramelBytes/surveyloom/internal/responses"
	"github.com/KaramelBytes/surveyloom/internal/survey"
)

func sampleData(t *testing.T) *Data {
	t.Helper()
	ds := survey.NewDataset().
		MustAdd("screen1_score", survey.CoerceAll([]string{"1", "2", "2", "3", "4"})).
		MustAdd("screen2_<b>consent</b>", survey.CoerceAll([]string{"Yes", "No", "Yes", "Yes", "No"}))
	dc := survey.Aggregate(ds)
	r := render.New()
	var charts []render.Artifact
	var results []insight.ChartResult
	for _, c := range ds.Columns() {
		art, err := r.RenderFirst(dc.Classifications[c.Name].VisualizationRecommendations, c.Name, c.Values)
		res := insight.ChartResult{Column: c.Name, Chart: art.Token, Success: err == nil}
		if err != nil {
			res.Error = err.Error()
		} else {
			charts = append(charts, art)
		}
		results = append(results, res)
	}
	profiles := survey.Profiles(ds)
	ins := insight.Compose(insight.Input{
		Classification: dc,
		Profiles:       profiles,
		Charts:         results,
		Patterns:       insight.IdentifyPatterns(ds, dc),
	})
	return &Data{
		Source:         "survey.csv",
		GeneratedAt:    time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Rows:           5,
		Columns:        ds.Names(),
		Classification: dc,
		Profiles:       profiles,
		Plan:           survey.Plan(dc),
		Charts:         charts,
		ChartResults:   results,
		Insights:       ins,
		Warnings:       []string{"processed only 5/7 rows due to MaxRows"},
	}
}

func TestMarkdownSections(t *testing.T) {
	md := Markdown(sampleData(t))
	sections := []string{"[SURVEY SUMMARY]", "[CLASSIFICATIONS]", "[KEY FINDINGS]", "[RECOMMENDATIONS]", "[DATA QUALITY]", "[NOTES]"}
	last := -1
	for _, s := range sections {
		i := strings.Index(md, s)
		if i < 0 {
			t.Fatalf("missing section %s in:\n%s", s, md)
		}
		if i < last {
			t.Fatalf("section %s out of order", s)
		}
		last = i
	}
	for _, want := range []string{
		"File: survey.csv",
		"Rows: 5",
		"Questions analyzed: 2",
		"- screen1_score: numerical/",
		"processed only 5/7 rows",
		"Analysis of 2 survey questions completed",
	} {
		if !strings.Contains(md, want) {
			t.Fatalf("expected %q in markdown:\n%s", want, md)
		}
	}
	if strings.Contains(md, "[ANALYST ELABORATION]") || strings.Contains(md, "[RESPONSE CLASSIFICATION]") {
		t.Fatalf("optional sections must be omitted when empty")
	}
}

func TestMarkdownOptionalSections(t *testing.T) {
	d := sampleData(t)
	d.Elaboration = "Focus on consent."
	d.Responses = []responses.Summary{(&responses.Classifier{}).ClassifyQuestion(context.Background(), "screen8_problema",
		survey.CoerceAll([]string{"sim", "não", "?"}))}
	md := Markdown(d)
	if !strings.Contains(md, "[RESPONSE CLASSIFICATION]\n- screen8_problema (n=3") {
		t.Fatalf("missing response classification:\n%s", md)
	}
	if !strings.Contains(md, "[ANALYST ELABORATION]\nFocus on consent.") {
		t.Fatalf("missing elaboration:\n%s", md)
	}
}

func TestDashboard(t *testing.T) {
	d := sampleData(t)
	d.Elaboration = "**Bold** move <script>alert(1)</script>"
	out, err := Dashboard(d)
	if err != nil {
		t.Fatalf("Dashboard: %v", err)
	}
	html := string(out)
	for _, want := range []string{
		"<title>Survey Analysis: survey.csv</title>",
		"Executive Summary",
		"<strong>Bold</strong>",
		"<svg",
		"Analysis Completeness",
		"Methodology",
	} {
		if !strings.Contains(html, want) {
			t.Fatalf("expected %q in dashboard", want)
		}
	}
	if strings.Contains(html, "<script>") {
		t.Fatalf("raw script tag leaked into dashboard")
	}
	if strings.Contains(html, "<b>consent</b>") {
		t.Fatalf("column name was not escaped")
	}
}

func TestBadgeClass(t *testing.T) {
	cases := map[insight.Priority]string{
		insight.Critical: "danger",
		insight.High:     "warning",
		insight.Medium:   "info",
		insight.Low:      "secondary",
	}
	for p, want := range cases {
		if got := badgeClass(p); got != want {
			t.Fatalf("badgeClass(%s) = %s, want %s", p, got, want)
		}
	}
}

func TestRecommendationFieldsRendered(t *testing.T) {
	d := sampleData(t)
	d.Insights.BusinessRecommendations = []insight.Recommendation{{
		Priority:             insight.High,
		Category:             "Qualitative Analysis",
		Title:                "Leverage Open-Ended Feedback",
		Description:          "Rich qualitative insights.",
		ActionItems:          []string{"Run sentiment analysis"},
		ExpectedImpact:       "High",
		ImplementationEffort: "Medium",
		Timeframe:            "Short-term",
	}}
	md := Markdown(d)
	want := "- [High] Leverage Open-Ended Feedback: Rich qualitative insights.\n" +
		"  • Run sentiment analysis\n" +
		"  Qualitative Analysis | impact: High | effort: Medium | timeframe: Short-term\n"
	if !strings.Contains(md, want) {
		t.Fatalf("recommendation block missing:\n%s", md)
	}
	out, err := Dashboard(d)
	if err != nil {
		t.Fatalf("Dashboard: %v", err)
	}
	if !strings.Contains(string(out), "Expected impact: High · Effort: Medium · Timeframe: Short-term") {
		t.Fatalf("dashboard is missing recommendation fields")
	}
}
