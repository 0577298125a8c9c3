package insight

import (
	"fmt"
	"sort"

	"github.com/KaramelBytes/surveyloom/internal/survey"
)

type ruleInput struct {
	counts           map[survey.PrimaryType]int
	totalColumns     int
	successfulCharts int
	patterns         []Pattern
	profiles         []survey.ColumnProfile
}

type recommendationRule func(ruleInput) (Recommendation, bool)

var recommendationRules = []recommendationRule{
	openEndedRule,
	dashboardRule,
	engagementRule,
	preferenceRule,
	consistencyRule,
	reportingRule,
	textAnalysisRule,
}

// recommend evaluates every rule independently and returns the hits ordered
// by priority, keeping rule order among equal priorities.
func recommend(in ruleInput) []Recommendation {
	out := []Recommendation{}
	for _, rule := range recommendationRules {
		if r, ok := rule(in); ok {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Priority.rank() < out[j].Priority.rank()
	})
	return out
}

func openEndedRule(in ruleInput) (Recommendation, bool) {
	n := in.counts[survey.Textual]
	if n == 0 {
		return Recommendation{}, false
	}
	return Recommendation{
		Priority:    High,
		Category:    "Qualitative Analysis",
		Title:       "Leverage Open-Ended Feedback",
		Description: fmt.Sprintf("The survey contains %d open-ended questions providing rich qualitative insights.", n),
		ActionItems: []string{
			"Conduct detailed text analysis and sentiment analysis on open-ended responses.",
		},
		ExpectedImpact:       "High",
		ImplementationEffort: "Medium",
		Timeframe:            "Short-term",
	}, true
}

func dashboardRule(in ruleInput) (Recommendation, bool) {
	if in.successfulCharts <= 5 {
		return Recommendation{}, false
	}
	return Recommendation{
		Priority:    Medium,
		Category:    "Reporting",
		Title:       "Create Stakeholder Dashboard",
		Description: fmt.Sprintf("With %d successful visualizations, create an executive dashboard for ongoing monitoring.", in.successfulCharts),
		ActionItems: []string{
			"Establish regular reporting cadence with automated dashboard updates.",
		},
		ExpectedImpact:       "Medium",
		ImplementationEffort: "Low",
		Timeframe:            "Short-term",
	}, true
}

func engagementRule(in ruleInput) (Recommendation, bool) {
	if countType(in.patterns, PatternCompletion) == 0 {
		return Recommendation{}, false
	}
	return Recommendation{
		Priority:    High,
		Category:    "Survey Design",
		Title:       "Leverage High-Engagement Questions",
		Description: "Questions with >90% completion rates indicate topics of high interest to respondents",
		ActionItems: []string{
			"Expand on high-completion topics in future surveys",
			"Use these questions as templates for survey design",
			"Consider these topics for detailed follow-up research",
		},
		ExpectedImpact:       "Improved response rates and data quality",
		ImplementationEffort: "Low",
		Timeframe:            "Immediate",
	}, true
}

func preferenceRule(in ruleInput) (Recommendation, bool) {
	n := countType(in.patterns, PatternDominance)
	if n == 0 {
		return Recommendation{}, false
	}
	return Recommendation{
		Priority:    Medium,
		Category:    "Business Strategy",
		Title:       "Act on Clear Preferences",
		Description: fmt.Sprintf("Found %d areas with strong consensus (>70%% agreement)", n),
		ActionItems: []string{
			"Prioritize initiatives aligned with majority preferences",
			"Investigate minority preferences for potential opportunities",
			"Develop communication strategies around consensus areas",
		},
		ExpectedImpact:       "Better alignment with customer/stakeholder preferences",
		ImplementationEffort: "Medium",
		Timeframe:            "Short-term",
	}, true
}

func consistencyRule(in ruleInput) (Recommendation, bool) {
	if countType(in.patterns, PatternLowVariance) == 0 {
		return Recommendation{}, false
	}
	return Recommendation{
		Priority:    Medium,
		Category:    "Quality Assurance",
		Title:       "Maintain Consistent Performance",
		Description: "Identified areas with consistently positive ratings; maintain current performance",
		ActionItems: []string{
			"Document best practices for consistent areas",
			"Use as benchmarks for other initiatives",
			"Monitor for any degradation in performance",
		},
		ExpectedImpact:       "Sustained high performance and satisfaction",
		ImplementationEffort: "Low",
		Timeframe:            "Ongoing",
	}, true
}

func reportingRule(in ruleInput) (Recommendation, bool) {
	if in.totalColumns <= 10 {
		return Recommendation{}, false
	}
	return Recommendation{
		Priority:    High,
		Category:    "Data Strategy",
		Title:       "Establish Regular Reporting",
		Description: fmt.Sprintf("With %d data points, establish systematic reporting and monitoring", in.totalColumns),
		ActionItems: []string{
			"Create automated dashboard for key metrics",
			"Set up regular reporting schedule",
			"Define data quality standards and monitoring",
			"Train stakeholders on data interpretation",
		},
		ExpectedImpact:       "Improved decision-making through regular data insights",
		ImplementationEffort: "High",
		Timeframe:            "Medium-term",
	}, true
}

func textAnalysisRule(in ruleInput) (Recommendation, bool) {
	n := 0
	for _, p := range in.profiles {
		if len(p.MostCommon) > 0 {
			n++
		}
	}
	if n <= 2 {
		return Recommendation{}, false
	}
	return Recommendation{
		Priority:    Medium,
		Category:    "Analytics Enhancement",
		Title:       "Implement Advanced Text Analysis",
		Description: fmt.Sprintf("Found %d text/categorical fields suitable for deeper analysis", n),
		ActionItems: []string{
			"Implement sentiment analysis on open-ended responses",
			"Use natural language processing for theme identification",
			"Create automated categorization of feedback",
			"Develop text-based early warning systems",
		},
		ExpectedImpact:       "Deeper insights from qualitative data",
		ImplementationEffort: "High",
		Timeframe:            "Long-term",
	}, true
}
