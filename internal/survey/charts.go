package survey

type chartKey struct {
	primary PrimaryType
	sub     SubType
}

// chartTable maps each decision-tree outcome to its preferred charts, best first.
var chartTable = map[chartKey][]string{
	{Temporal, Datetime}:    {"time_series_line", "area_chart", "calendar_heatmap"},
	{Numerical, Continuous}: {"histogram", "box_plot", "density_plot"},
	{Numerical, Discrete}:   {"bar_chart", "histogram", "line_chart"},
	{Numerical, Mixed}:      {"histogram", "box_plot"},
	{Categorical, Binary}:   {"pie_chart", "donut_chart", "horizontal_bar_chart"},
	{Categorical, Ordinal}:  {"horizontal_bar_chart", "stacked_bar_chart"},
	{Categorical, Nominal}:  {"pie_chart", "horizontal_bar_chart", "donut_chart"},
	{Textual, OpenEnded}:    {"word_cloud", "sentiment_analysis", "frequency_chart"},
	{Textual, Mixed}:        {"frequency_chart", "text_analysis"},
}

var fallbackCharts = []string{"table", "frequency_chart"}

// RecommendCharts returns the ordered chart-kind tokens for a column.
// Exact (primary, sub) pairs come from chartTable; other sub types of a known
// primary type are bucketed by cardinality; anything else, including a column
// with no values, gets the table fallback. The result is a fresh slice.
func RecommendCharts(primary PrimaryType, sub SubType, uniqueCount, totalCount int) []string {
	if totalCount == 0 {
		return clone(fallbackCharts)
	}
	if charts, ok := chartTable[chartKey{primary, sub}]; ok {
		return clone(charts)
	}
	switch primary {
	case Categorical:
		if uniqueCount <= 10 {
			return []string{"horizontal_bar_chart", "stacked_bar_chart", "radar_chart"}
		}
		return []string{"pie_chart", "horizontal_bar_chart", "treemap"}
	case Numerical:
		if uniqueCount <= 20 {
			return []string{"bar_chart", "histogram", "line_chart"}
		}
		return []string{"histogram", "scatter_plot", "heatmap"}
	case Temporal:
		return []string{"time_series_line", "area_chart", "calendar_heatmap", "trend_analysis"}
	case Textual:
		return []string{"frequency_chart", "word_cloud", "text_analysis"}
	}
	return clone(fallbackCharts)
}

func clone(s []string) []string { return append([]string(nil), s...) }
