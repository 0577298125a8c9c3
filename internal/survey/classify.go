package survey

// PrimaryType is the coarse semantic type of a column.
type PrimaryType string

const (
	Temporal    PrimaryType = "temporal"
	Numerical   PrimaryType = "numerical"
	Categorical PrimaryType = "categorical"
	Textual     PrimaryType = "textual"
	Unknown     PrimaryType = "unknown"
)

// SubType refines a PrimaryType. The empty SubType means none applies.
type SubType string

const (
	Continuous SubType = "continuous"
	Discrete   SubType = "discrete"
	Mixed      SubType = "mixed"
	Binary     SubType = "binary"
	Ordinal    SubType = "ordinal"
	Nominal    SubType = "nominal"
	Datetime   SubType = "datetime"
	OpenEnded  SubType = "open_ended"
)

var subTypes = map[PrimaryType][]SubType{
	Temporal:    {Datetime},
	Numerical:   {Continuous, Discrete, Mixed},
	Categorical: {Binary, Ordinal, Nominal},
	Textual:     {OpenEnded, Mixed},
}

// ValidSubType reports whether sub belongs to the vocabulary of p.
// The empty SubType is valid for every type.
func ValidSubType(p PrimaryType, sub SubType) bool {
	if sub == "" {
		return true
	}
	for _, s := range subTypes[p] {
		if s == sub {
			return true
		}
	}
	return false
}

// QualityFlag annotates a classification with a data-quality concern.
type QualityFlag string

const (
	FlagHighMissingData QualityFlag = "high_missing_data"
	FlagLowConfidence   QualityFlag = "low_confidence_classification"
	FlagAllUnique       QualityFlag = "all_unique_values"
)

// Classification is the type decision for one column.
type Classification struct {
	ColumnName                   string          `json:"column_name"`
	PrimaryType                  PrimaryType     `json:"primary_type"`
	SubType                      SubType         `json:"sub_type,omitempty"`
	Confidence                   float64         `json:"confidence"`
	Reasoning                    string          `json:"reasoning"`
	StatisticalSummary           *NumericSummary `json:"statistical_summary,omitempty"`
	VisualizationRecommendations []string        `json:"visualization_recommendations"`
	QualityFlags                 []QualityFlag   `json:"quality_flags"`
	PatternAnalysis              PatternAnalysis `json:"pattern_analysis"`
	Error                        string          `json:"error,omitempty"`
}

// HasFlag reports whether f is set on c.
func (c Classification) HasFlag(f QualityFlag) bool {
	for _, q := range c.QualityFlags {
		if q == f {
			return true
		}
	}
	return false
}

// Rule is one branch of the classification decision tree.
type Rule struct {
	Order      int
	Primary    PrimaryType
	Sub        SubType
	Confidence float64
	Reasoning  string
	Match      func(PatternAnalysis) bool
}

// rules is evaluated top to bottom and the first match wins. The temporal
// check must stay ahead of the numeric ones: ISO dates are digits once
// '-' is stripped.
var rules = []Rule{
	{1, Temporal, Datetime, 0.90, "Data contains date/time patterns", func(p PatternAnalysis) bool {
		return p.Flags.HasDates || p.Flags.HasTimestamps
	}},
	{2, Numerical, Continuous, 0.95, "All values are numeric with high variability", func(p PatternAnalysis) bool {
		return p.Flags.AllNumeric && p.UniqueCount > 10 && p.UniqueRatio > 0.5
	}},
	{3, Numerical, Discrete, 0.90, "Numeric values with limited distinct values", func(p PatternAnalysis) bool {
		return p.Flags.AllNumeric && p.UniqueCount > 10 && p.UniqueRatio <= 0.5
	}},
	{4, Categorical, Binary, 0.95, "Exactly two distinct values found", func(p PatternAnalysis) bool {
		return p.Flags.BinaryLike
	}},
	{5, Categorical, Ordinal, 0.85, "Limited numeric values suggesting rating scale", func(p PatternAnalysis) bool {
		return p.UniqueCount <= 20 && p.UniqueRatio <= 0.1 && p.Flags.ScaleLike
	}},
	{6, Categorical, Nominal, 0.80, "Limited distinct values suggesting categories", func(p PatternAnalysis) bool {
		return p.UniqueCount <= 20 && p.UniqueRatio <= 0.1
	}},
	{7, Textual, OpenEnded, 0.90, "Long text values suggesting open-ended responses", func(p PatternAnalysis) bool {
		return p.Flags.LongText || p.AvgLength > 20
	}},
	{8, Numerical, Mixed, 0.60, "Mostly numeric but with some inconsistencies", func(p PatternAnalysis) bool {
		return p.Flags.MostlyNumeric
	}},
	{9, Textual, Mixed, 0.50, "Mixed data types, defaulting to textual", func(PatternAnalysis) bool {
		return true
	}},
}

// Rules returns a copy of the ordered decision tree.
func Rules() []Rule { return append([]Rule(nil), rules...) }

// MatchRule returns the first rule whose predicate holds for p.
func MatchRule(p PatternAnalysis) Rule {
	for _, r := range rules {
		if r.Match(p) {
			return r
		}
	}
	return rules[len(rules)-1]
}

// ClassifyColumn analyzes and classifies values in one step.
func ClassifyColumn(name string, values []Scalar) Classification {
	return Classify(name, values, Analyze(values))
}

// Classify assigns a type, confidence and quality flags to a column given
// its precomputed PatternAnalysis.
func Classify(name string, values []Scalar, pa PatternAnalysis) Classification {
	c := Classification{
		ColumnName:         name,
		PrimaryType:        Unknown,
		StatisticalSummary: Summarize(values),
		PatternAnalysis:    pa,
		QualityFlags:       []QualityFlag{},
	}
	if pa.Empty() {
		c.Reasoning = "No valid data found"
	} else {
		r := MatchRule(pa)
		c.PrimaryType = r.Primary
		c.SubType = r.Sub
		c.Confidence = r.Confidence
		c.Reasoning = r.Reasoning
	}
	c.VisualizationRecommendations = RecommendCharts(c.PrimaryType, c.SubType, pa.UniqueCount, pa.TotalCount)

	if pa.NullRatio > 0.3 {
		c.QualityFlags = append(c.QualityFlags, FlagHighMissingData)
	}
	if c.Confidence < 0.7 {
		c.QualityFlags = append(c.QualityFlags, FlagLowConfidence)
	}
	if pa.ValidCount > 0 && pa.UniqueCount == pa.ValidCount {
		c.QualityFlags = append(c.QualityFlags, FlagAllUnique)
	}
	return c
}
