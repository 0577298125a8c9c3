package survey

// ColumnProfile is the per-column response summary used by reporting.
type ColumnProfile struct {
	Name           string       `json:"name"`
	TotalCount     int          `json:"total_count"`
	NullCount      int          `json:"null_count"`
	NullPercentage float64      `json:"null_percentage"`
	UniqueCount    int          `json:"unique_count"`
	UniqueRatio    float64      `json:"unique_ratio"`
	MostCommon     []ValueCount `json:"most_common,omitempty"`
}

// ResponseRate is the share of answered rows, in percent.
func (p ColumnProfile) ResponseRate() float64 { return 100 - p.NullPercentage }

// Profile summarizes one column. A column with no rows reports 100% missing.
func Profile(name string, values []Scalar) ColumnProfile {
	clean := cleanStrings(values)
	p := ColumnProfile{
		Name:       name,
		TotalCount: len(values),
		NullCount:  len(values) - len(clean),
	}
	if p.TotalCount == 0 {
		p.NullPercentage = 100
		return p
	}
	p.NullPercentage = float64(p.NullCount) / float64(p.TotalCount) * 100
	freq := countValues(clean)
	p.UniqueCount = freq.len()
	p.UniqueRatio = ratio(p.UniqueCount, len(clean))
	if len(clean) > 0 {
		p.MostCommon = freq.top(5)
	}
	return p
}

// Profiles summarizes every column in dataset order.
func Profiles(ds *Dataset) []ColumnProfile {
	out := make([]ColumnProfile, 0, ds.Len())
	for _, c := range ds.Columns() {
		out = append(out, Profile(c.Name, c.Values))
	}
	return out
}
