package survey

import (
	"math"
	"sort"
)

// Mean is 0 for an empty slice.
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var s float64
	for _, x := range xs {
		s += x
	}
	return s / float64(len(xs))
}

// Variance is the sample variance. It uses the n-1 denominator and is 0 below two samples.
func Variance(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	m := Mean(xs)
	var ss float64
	for _, x := range xs {
		d := x - m
		ss += d * d
	}
	return ss / float64(len(xs)-1)
}

func StdDev(xs []float64) float64 { return math.Sqrt(Variance(xs)) }

func Median(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	cp := append([]float64(nil), xs...)
	sort.Float64s(cp)
	mid := len(cp) / 2
	if len(cp)%2 == 1 {
		return cp[mid]
	}
	return (cp[mid-1] + cp[mid]) / 2
}

func stableSortCounts(vc []ValueCount) {
	sort.SliceStable(vc, func(i, j int) bool { return vc[i].Count > vc[j].Count })
}

// NumericSummary describes the values of a column that parse as numbers.
type NumericSummary struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Range  float64 `json:"range"`
}

// Numbers returns every value of the column that parses as a number.
func Numbers(values []Scalar) []float64 {
	var out []float64
	for _, v := range values {
		if f, ok := TryParseNumber(v); ok {
			out = append(out, f)
		}
	}
	return out
}

// Summarize returns nil when no value parses as a number.
func Summarize(values []Scalar) *NumericSummary {
	nums := Numbers(values)
	if len(nums) == 0 {
		return nil
	}
	lo, hi := nums[0], nums[0]
	for _, x := range nums[1:] {
		lo = math.Min(lo, x)
		hi = math.Max(hi, x)
	}
	return &NumericSummary{
		Count:  len(nums),
		Mean:   Mean(nums),
		Median: Median(nums),
		StdDev: StdDev(nums),
		Min:    lo,
		Max:    hi,
		Range:  hi - lo,
	}
}
