package survey

import (
	"reflect"
	"testing"
)

func TestPlanGroupsByPrimaryChart(t *testing.T) {
	p := Plan(Aggregate(sampleDataset()))
	var charts []string
	for _, g := range p.Groups {
		charts = append(charts, g.Chart)
	}
	want := []string{"histogram", "pie_chart", "time_series_line", "word_cloud", "frequency_chart", "table"}
	if !reflect.DeepEqual(charts, want) {
		t.Fatalf("groups: %v", charts)
	}
	if len(p.Layout) != len(p.Groups)+2 {
		t.Fatalf("layout sections: %d", len(p.Layout))
	}
	if p.Layout[0].Section != "executive_summary" || p.Layout[len(p.Layout)-1].Section != "detailed_analysis" {
		t.Fatalf("layout: %+v", p.Layout)
	}
	if s := p.Layout[1]; s.Section != "histogram_section" || s.EstimatedCharts != 1 || s.Columns[0] != "screen0" {
		t.Fatalf("section: %+v", s)
	}
	if len(p.Exports) != 5 {
		t.Fatalf("exports: %v", p.Exports)
	}
}

func TestPlanEmpty(t *testing.T) {
	p := Plan(Aggregate(nil))
	if len(p.Groups) != 0 || len(p.Layout) != 2 {
		t.Fatalf("plan: %+v", p)
	}
}
