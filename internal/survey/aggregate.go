package survey

import (
	"fmt"
	"log/slog"
	"runtime"
	"sync"
)

// Confidence bucket boundaries.
const (
	HighConfidence   = 0.8
	MediumConfidence = 0.6
)

// TypeSummary lists column names by primary type. Uncertain holds every
// column below MediumConfidence, in addition to its type list.
type TypeSummary struct {
	Categorical []string `json:"categorical"`
	Numerical   []string `json:"numerical"`
	Temporal    []string `json:"temporal"`
	Textual     []string `json:"textual"`
	Uncertain   []string `json:"uncertain"`
}

// QualityOverview counts columns per confidence bucket.
type QualityOverview struct {
	HighConfidenceCount   int      `json:"high_confidence_count"`
	MediumConfidenceCount int      `json:"medium_confidence_count"`
	LowConfidenceCount    int      `json:"low_confidence_count"`
	QualityIssues         []string `json:"quality_issues"`
}

// DatasetClassification aggregates the classification of every column.
type DatasetClassification struct {
	TotalColumns    int                       `json:"total_columns"`
	Classifications map[string]Classification `json:"classifications"`
	ColumnOrder     []string                  `json:"column_order"`
	Summary         TypeSummary               `json:"summary"`
	QualityOverview QualityOverview           `json:"quality_overview"`
}

// Ordered returns the classifications in dataset order.
func (dc DatasetClassification) Ordered() []Classification {
	out := make([]Classification, 0, len(dc.ColumnOrder))
	for _, name := range dc.ColumnOrder {
		out = append(out, dc.Classifications[name])
	}
	return out
}

// TypeCounts returns the number of columns per primary type.
func (dc DatasetClassification) TypeCounts() map[PrimaryType]int {
	out := map[PrimaryType]int{}
	for _, c := range dc.Classifications {
		out[c.PrimaryType]++
	}
	return out
}

func newDatasetClassification(n int) DatasetClassification {
	return DatasetClassification{
		TotalColumns:    n,
		Classifications: make(map[string]Classification, n),
		ColumnOrder:     make([]string, 0, n),
		Summary: TypeSummary{
			Categorical: []string{},
			Numerical:   []string{},
			Temporal:    []string{},
			Textual:     []string{},
			Uncertain:   []string{},
		},
		QualityOverview: QualityOverview{QualityIssues: []string{}},
	}
}

// Aggregator classifies every column of a dataset.
// The zero value classifies sequentially without logging.
type Aggregator struct {
	// Workers > 1 classifies columns concurrently. Results are folded in
	// dataset order, so output does not depend on it.
	Workers int
	Logger  *slog.Logger

	classify func(name string, values []Scalar) Classification
}

// Aggregate runs a sequential Aggregator over ds.
func Aggregate(ds *Dataset) DatasetClassification {
	return Aggregator{}.Aggregate(ds)
}

// Aggregate classifies every column of ds. A column whose classification
// panics is recorded as unknown with confidence 0 and a quality issue; the
// other columns are unaffected.
func (a Aggregator) Aggregate(ds *Dataset) DatasetClassification {
	cols := ds.Columns()
	results := make([]Classification, len(cols))

	workers := a.Workers
	if workers > len(cols) {
		workers = len(cols)
	}
	if workers <= 1 {
		for i, c := range cols {
			results[i] = a.safeClassify(c.Name, c.Values)
		}
	} else {
		if workers > runtime.NumCPU()*4 {
			workers = runtime.NumCPU() * 4
		}
		idx := make(chan int)
		var wg sync.WaitGroup
		for w := 0; w < workers; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := range idx {
					results[i] = a.safeClassify(cols[i].Name, cols[i].Values)
				}
			}()
		}
		for i := range cols {
			idx <- i
		}
		close(idx)
		wg.Wait()
	}

	dc := newDatasetClassification(len(cols))
	for _, c := range results {
		dc.add(c)
	}
	if a.Logger != nil {
		a.Logger.Info("dataset classified",
			"columns", dc.TotalColumns,
			"high", dc.QualityOverview.HighConfidenceCount,
			"medium", dc.QualityOverview.MediumConfidenceCount,
			"low", dc.QualityOverview.LowConfidenceCount)
	}
	return dc
}

func (dc *DatasetClassification) add(c Classification) {
	name := c.ColumnName
	dc.Classifications[name] = c
	dc.ColumnOrder = append(dc.ColumnOrder, name)

	switch c.PrimaryType {
	case Categorical:
		dc.Summary.Categorical = append(dc.Summary.Categorical, name)
	case Numerical:
		dc.Summary.Numerical = append(dc.Summary.Numerical, name)
	case Temporal:
		dc.Summary.Temporal = append(dc.Summary.Temporal, name)
	case Textual:
		dc.Summary.Textual = append(dc.Summary.Textual, name)
	}

	q := &dc.QualityOverview
	switch {
	case c.Confidence >= HighConfidence:
		q.HighConfidenceCount++
	case c.Confidence >= MediumConfidence:
		q.MediumConfidenceCount++
	default:
		q.LowConfidenceCount++
		dc.Summary.Uncertain = append(dc.Summary.Uncertain, name)
	}
	for _, f := range c.QualityFlags {
		q.QualityIssues = append(q.QualityIssues, fmt.Sprintf("%s: %s", name, f))
	}
	if c.Error != "" {
		q.QualityIssues = append(q.QualityIssues, fmt.Sprintf("%s: classification_error: %s", name, c.Error))
	}
}

func (a Aggregator) safeClassify(name string, values []Scalar) (out Classification) {
	defer func() {
		if r := recover(); r != nil {
			out = failedClassification(name, fmt.Sprint(r))
			if a.Logger != nil {
				a.Logger.Warn("column classification failed", "column", name, "error", out.Error)
			}
		}
	}()
	fn := a.classify
	if fn == nil {
		fn = ClassifyColumn
	}
	out = fn(name, values)
	out.ColumnName = name
	if a.Logger != nil {
		a.Logger.Debug("column classified",
			"column", name,
			"type", out.PrimaryType,
			"sub_type", out.SubType,
			"confidence", out.Confidence)
	}
	return out
}

func failedClassification(name, msg string) Classification {
	return Classification{
		ColumnName:                   name,
		PrimaryType:                  Unknown,
		Reasoning:                    "Classification failed",
		VisualizationRecommendations: clone(fallbackCharts),
		QualityFlags:                 []QualityFlag{FlagLowConfidence},
		PatternAnalysis:              PatternAnalysis{PatternType: PatternTypeEmpty},
		Error:                        msg,
	}
}
