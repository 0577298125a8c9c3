package survey

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// PatternTypeEmpty marks an analysis of a column with no valid values.
const PatternTypeEmpty = "empty"

var (
	reDate      = regexp.MustCompile(`\d{1,2}[/-]\d{1,2}[/-]\d{2,4}`)
	reTimestamp = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)
)

// PatternFlags are boolean signals over the cleaned values of a column.
type PatternFlags struct {
	AllNumeric    bool `json:"all_numeric"`
	MostlyNumeric bool `json:"mostly_numeric"`
	HasDates      bool `json:"has_dates"`
	HasTimestamps bool `json:"has_timestamps"`
	BinaryLike    bool `json:"binary_like"`
	ScaleLike     bool `json:"scale_like"`
	ShortText     bool `json:"short_text"`
	LongText      bool `json:"long_text"`
}

// ValueCount is a value with its number of occurrences.
type ValueCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// PatternAnalysis holds the descriptive statistics of one column.
// When PatternType is "empty" only the counts are populated.
type PatternAnalysis struct {
	PatternType    string       `json:"pattern_type,omitempty"`
	TotalCount     int          `json:"total_count"`
	ValidCount     int          `json:"valid_count"`
	NullCount      int          `json:"null_count"`
	NullRatio      float64      `json:"null_ratio"`
	UniqueCount    int          `json:"unique_count"`
	UniqueRatio    float64      `json:"unique_ratio"`
	AvgLength      float64      `json:"avg_length"`
	MinLength      int          `json:"min_length"`
	MaxLength      int          `json:"max_length"`
	LengthVariance float64      `json:"length_variance"`
	Flags          PatternFlags `json:"pattern_flags"`
	SampleValues   []string     `json:"sample_values,omitempty"`
	ValueFrequency []ValueCount `json:"value_frequency,omitempty"`
}

// Empty reports whether the column had no valid values.
func (p PatternAnalysis) Empty() bool { return p.PatternType == PatternTypeEmpty }

// Analyze computes the PatternAnalysis of a column's raw values.
func Analyze(values []Scalar) PatternAnalysis {
	clean := cleanStrings(values)
	pa := PatternAnalysis{
		TotalCount: len(values),
		ValidCount: len(clean),
		NullCount:  len(values) - len(clean),
	}
	pa.NullRatio = ratio(pa.NullCount, pa.TotalCount)
	if len(clean) == 0 {
		pa.PatternType = PatternTypeEmpty
		return pa
	}

	freq := countValues(clean)
	pa.UniqueCount = freq.len()
	pa.UniqueRatio = ratio(pa.UniqueCount, pa.ValidCount)

	lengths := make([]float64, len(clean))
	pa.MinLength = -1
	for i, s := range clean {
		n := utf8.RuneCountInString(s)
		lengths[i] = float64(n)
		if pa.MinLength < 0 || n < pa.MinLength {
			pa.MinLength = n
		}
		if n > pa.MaxLength {
			pa.MaxLength = n
		}
	}
	pa.AvgLength = Mean(lengths)
	pa.LengthVariance = Variance(lengths)

	numeric := 0
	for _, s := range clean {
		if digitsAfterStrip(s) {
			numeric++
		}
	}
	f := &pa.Flags
	f.AllNumeric = numeric == len(clean)
	f.MostlyNumeric = float64(numeric)/float64(len(clean)) > 0.8
	for _, s := range clean {
		if !f.HasDates && reDate.MatchString(s) {
			f.HasDates = true
		}
		if !f.HasTimestamps && reTimestamp.MatchString(s) {
			f.HasTimestamps = true
		}
	}
	f.BinaryLike = pa.UniqueCount == 2
	f.ScaleLike = pa.UniqueCount <= 10 && f.MostlyNumeric
	f.ShortText = pa.AvgLength < 50 && !f.AllNumeric
	f.LongText = pa.AvgLength >= 50

	n := len(clean)
	if n > 10 {
		n = 10
	}
	pa.SampleValues = append([]string(nil), clean[:n]...)
	pa.ValueFrequency = freq.top(5)
	return pa
}

// cleanStrings drops blank values and returns the trimmed string forms.
func cleanStrings(values []Scalar) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v.Blank() {
			continue
		}
		out = append(out, strings.TrimSpace(v.String()))
	}
	return out
}

// digitsAfterStrip is true when s is all digits once '.', '-' and '+' are removed.
func digitsAfterStrip(s string) bool {
	seen := false
	for _, r := range s {
		switch {
		case r == '.' || r == '-' || r == '+':
		case unicode.IsDigit(r):
			seen = true
		default:
			return false
		}
	}
	return seen
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

// frequency counts values and remembers first-seen order for tie breaks.
type frequency struct {
	order  []string
	counts map[string]int
}

func countValues(values []string) frequency {
	f := frequency{counts: make(map[string]int)}
	for _, v := range values {
		if _, ok := f.counts[v]; !ok {
			f.order = append(f.order, v)
		}
		f.counts[v]++
	}
	return f
}

func (f frequency) len() int { return len(f.order) }

// top returns the n most frequent values, ties kept in first-seen order.
func (f frequency) top(n int) []ValueCount {
	out := make([]ValueCount, 0, len(f.order))
	for _, v := range f.order {
		out = append(out, ValueCount{Value: v, Count: f.counts[v]})
	}
	stableSortCounts(out)
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
