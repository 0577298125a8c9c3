package insight

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/KaramelBytes/surveyloom/internal/survey"
)

// Pattern is an illustrative heuristic flag over one column or the whole survey.
// The thresholds are rules of thumb and carry no statistical guarantee.
type Pattern struct {
	Type        string   `json:"type"`
	Column      string   `json:"column,omitempty"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Details     []string `json:"details,omitempty"`
	Impact      string   `json:"business_impact"`
	Confidence  string   `json:"confidence"`
}

// Pattern types.
const (
	PatternCompletion  = "completion_rate"
	PatternSkew        = "distribution_skew"
	PatternDominance   = "categorical_dominance"
	PatternLowVariance = "low_variance"
)

// IdentifyPatterns scans ds using the classifications in dc.
func IdentifyPatterns(ds *survey.Dataset, dc survey.DatasetClassification) []Pattern {
	var out []Pattern
	if p, ok := completionPattern(ds); ok {
		out = append(out, p)
	}
	for _, col := range ds.Columns() {
		c, ok := dc.Classifications[col.Name]
		if !ok {
			continue
		}
		if c.PrimaryType == survey.Numerical {
			if p, ok := skewPattern(col); ok {
				out = append(out, p)
			}
		}
	}
	for _, col := range ds.Columns() {
		c := dc.Classifications[col.Name]
		if c.PrimaryType == survey.Categorical {
			if p, ok := dominancePattern(col.Name, c.PatternAnalysis); ok {
				out = append(out, p)
			}
		}
	}
	for _, col := range ds.Columns() {
		c := dc.Classifications[col.Name]
		if c.SubType == survey.Ordinal {
			if p, ok := lowVariancePattern(col); ok {
				out = append(out, p)
			}
		}
	}
	if out == nil {
		out = []Pattern{}
	}
	return out
}

func completionPattern(ds *survey.Dataset) (Pattern, bool) {
	var details []string
	n := 0
	for _, col := range ds.Columns() {
		if len(col.Values) == 0 {
			continue
		}
		answered := 0
		for _, v := range col.Values {
			if !v.Blank() {
				answered++
			}
		}
		r := float64(answered) / float64(len(col.Values)) * 100
		if r > 90 {
			n++
			if len(details) < 5 {
				details = append(details, fmt.Sprintf("%s: %.1f%%", col.Name, r))
			}
		}
	}
	if n == 0 {
		return Pattern{}, false
	}
	return Pattern{
		Type:        PatternCompletion,
		Title:       "High Response Rate Questions",
		Description: fmt.Sprintf("Found %d questions with >90%% completion rate", n),
		Details:     details,
		Impact:      "High engagement indicates important topics to respondents",
		Confidence:  "high",
	}, true
}

func skewPattern(col survey.Column) (Pattern, bool) {
	nums := survey.Numbers(col.Values)
	if len(nums) <= 10 {
		return Pattern{}, false
	}
	mode := roundedMode(nums)
	mean := survey.Mean(nums)
	if math.Abs(mode-mean) <= survey.StdDev(nums) {
		return Pattern{}, false
	}
	return Pattern{
		Type:        PatternSkew,
		Column:      col.Name,
		Title:       "Skewed Distribution in " + col.Name,
		Description: fmt.Sprintf("Data shows significant skew with mode at %.2f vs mean at %.2f", mode, mean),
		Impact:      "May indicate polarized opinions or measurement bias",
		Confidence:  "medium",
	}, true
}

// roundedMode is the most frequent rounded value; ties go to the smallest.
func roundedMode(xs []float64) float64 {
	counts := map[float64]int{}
	for _, x := range xs {
		counts[math.Round(x)]++
	}
	best, bestN := 0.0, -1
	for v, n := range counts {
		if n > bestN || (n == bestN && v < best) {
			best, bestN = v, n
		}
	}
	return best
}

func dominancePattern(name string, pa survey.PatternAnalysis) (Pattern, bool) {
	if pa.ValidCount == 0 || len(pa.ValueFrequency) == 0 {
		return Pattern{}, false
	}
	top := pa.ValueFrequency[0]
	share := float64(top.Count) / float64(pa.ValidCount)
	if share <= 0.7 {
		return Pattern{}, false
	}
	return Pattern{
		Type:        PatternDominance,
		Column:      name,
		Title:       "Strong Preference in " + name,
		Description: fmt.Sprintf("'%s' accounts for %.1f%% of responses", top.Value, share*100),
		Impact:      "Clear consensus or preference among respondents",
		Confidence:  "high",
	}, true
}

func lowVariancePattern(col survey.Column) (Pattern, bool) {
	var xs []float64
	for _, v := range col.Values {
		if v.Blank() {
			continue
		}
		s := strings.TrimSpace(v.String())
		if !allDigits(s) {
			continue
		}
		if x, err := strconv.ParseFloat(s, 64); err == nil {
			xs = append(xs, x)
		}
	}
	if len(xs) <= 5 {
		return Pattern{}, false
	}
	lo, hi := xs[0], xs[0]
	for _, x := range xs {
		lo = math.Min(lo, x)
		hi = math.Max(hi, x)
	}
	v := survey.Variance(xs)
	if v >= (hi-lo)*0.1 {
		return Pattern{}, false
	}
	return Pattern{
		Type:        PatternLowVariance,
		Column:      col.Name,
		Title:       "Consistent Ratings in " + col.Name,
		Description: fmt.Sprintf("Low variance (%.2f) indicates consistent responses", v),
		Impact:      "Strong agreement or satisfaction among respondents",
		Confidence:  "medium",
	}, true
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func countType(ps []Pattern, typ string) int {
	n := 0
	for _, p := range ps {
		if p.Type == typ {
			n++
		}
	}
	return n
}
