package survey

// PlannedColumn is a column placed in a visualization group.
type PlannedColumn struct {
	Column     string      `json:"column"`
	Type       PrimaryType `json:"type"`
	SubType    SubType     `json:"sub_type,omitempty"`
	Confidence float64     `json:"confidence"`
}

// VisualizationGroup collects the columns sharing a primary chart.
type VisualizationGroup struct {
	Chart   string          `json:"chart"`
	Columns []PlannedColumn `json:"columns"`
}

// LayoutSection is one block of the dashboard.
type LayoutSection struct {
	Section         string   `json:"section"`
	Priority        int      `json:"priority"`
	Components      []string `json:"components,omitempty"`
	Visualization   string   `json:"visualization_type,omitempty"`
	Columns         []string `json:"columns,omitempty"`
	EstimatedCharts int      `json:"estimated_charts,omitempty"`
}

// VisualizationPlan groups columns by chart and lays out the dashboard.
type VisualizationPlan struct {
	Groups  []VisualizationGroup `json:"visualization_groups"`
	Layout  []LayoutSection      `json:"dashboard_layout"`
	Exports []string             `json:"export_recommendations"`
}

// Plan builds a VisualizationPlan. Groups appear in the order their chart is
// first used.
func Plan(dc DatasetClassification) VisualizationPlan {
	var groups []VisualizationGroup
	pos := map[string]int{}
	for _, c := range dc.Ordered() {
		chart := "table"
		if len(c.VisualizationRecommendations) > 0 {
			chart = c.VisualizationRecommendations[0]
		}
		i, ok := pos[chart]
		if !ok {
			i = len(groups)
			pos[chart] = i
			groups = append(groups, VisualizationGroup{Chart: chart})
		}
		groups[i].Columns = append(groups[i].Columns, PlannedColumn{
			Column:     c.ColumnName,
			Type:       c.PrimaryType,
			SubType:    c.SubType,
			Confidence: c.Confidence,
		})
	}

	layout := []LayoutSection{{
		Section:    "executive_summary",
		Priority:   1,
		Components: []string{"dataset_overview", "key_insights", "quality_metrics"},
	}}
	for _, g := range groups {
		names := make([]string, len(g.Columns))
		for i, c := range g.Columns {
			names[i] = c.Column
		}
		layout = append(layout, LayoutSection{
			Section:         g.Chart + "_section",
			Priority:        2,
			Visualization:   g.Chart,
			Columns:         names,
			EstimatedCharts: len(names),
		})
	}
	layout = append(layout, LayoutSection{
		Section:    "detailed_analysis",
		Priority:   3,
		Components: []string{"statistical_summaries", "data_quality_report", "methodology"},
	})

	return VisualizationPlan{
		Groups:  groups,
		Layout:  layout,
		Exports: []string{
			"interactive_html_dashboard",
			"markdown_report",
			"svg_chart_collection",
			"json_analysis_results",
			"zip_package",
		},
	}
}
