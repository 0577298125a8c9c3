package survey

import (
	"math"
	"testing"
)

func TestAnalyzeCountsAndLengths(t *testing.T) {
	vals := []Scalar{Text("ab"), Null(), Text("  "), Text("abcd"), Text("ab")}
	pa := Analyze(vals)
	if pa.TotalCount != 5 || pa.ValidCount != 3 || pa.NullCount != 2 {
		t.Fatalf("counts: %+v", pa)
	}
	if pa.ValidCount+pa.NullCount != pa.TotalCount {
		t.Fatalf("valid+null must equal total")
	}
	if math.Abs(pa.NullRatio-0.4) > 1e-9 {
		t.Fatalf("null ratio: %v", pa.NullRatio)
	}
	if pa.UniqueCount != 2 || math.Abs(pa.UniqueRatio-2.0/3.0) > 1e-9 {
		t.Fatalf("unique: %d %v", pa.UniqueCount, pa.UniqueRatio)
	}
	if pa.MinLength != 2 || pa.MaxLength != 4 {
		t.Fatalf("lengths: min=%d max=%d", pa.MinLength, pa.MaxLength)
	}
	if math.Abs(pa.AvgLength-8.0/3.0) > 1e-9 {
		t.Fatalf("avg length: %v", pa.AvgLength)
	}
	// lengths 2,4,2: mean 8/3, sample variance 4/3
	if math.Abs(pa.LengthVariance-4.0/3.0) > 1e-9 {
		t.Fatalf("variance: %v", pa.LengthVariance)
	}
	if len(pa.ValueFrequency) != 2 || pa.ValueFrequency[0].Value != "ab" || pa.ValueFrequency[0].Count != 2 {
		t.Fatalf("frequency: %+v", pa.ValueFrequency)
	}
}

func TestAnalyzeSingleValueHasZeroVariance(t *testing.T) {
	pa := Analyze(Texts("hello"))
	if pa.LengthVariance != 0 {
		t.Fatalf("expected 0 variance, got %v", pa.LengthVariance)
	}
}

func TestAnalyzeEmptyShortCircuits(t *testing.T) {
	for name, vals := range map[string][]Scalar{
		"nil":    nil,
		"blanks": {Null(), Text(""), Text("   ")},
	} {
		t.Run(name, func(t *testing.T) {
			pa := Analyze(vals)
			if !pa.Empty() {
				t.Fatalf("expected empty pattern, got %+v", pa)
			}
			if math.IsNaN(pa.NullRatio) || math.IsNaN(pa.UniqueRatio) {
				t.Fatalf("ratios must be defined: %+v", pa)
			}
			if pa.UniqueRatio != 0 {
				t.Fatalf("unique ratio: %v", pa.UniqueRatio)
			}
			if pa.SampleValues != nil || pa.ValueFrequency != nil {
				t.Fatalf("no samples expected on empty column")
			}
		})
	}
	if got := Analyze(nil).NullRatio; got != 0 {
		t.Fatalf("null ratio of zero-length column: %v", got)
	}
	if got := Analyze([]Scalar{Null(), Null()}).NullRatio; got != 1 {
		t.Fatalf("null ratio of all-null column: %v", got)
	}
}

func TestAnalyzeFlags(t *testing.T) {
	tests := []struct {
		name string
		vals []Scalar
		want PatternFlags
	}{
		{
			name: "signed decimals are numeric",
			vals: Texts("1.5", "-2", "+3", "4"),
			want: PatternFlags{AllNumeric: true, MostlyNumeric: true, ScaleLike: true},
		},
		{
			name: "one word among five numbers is mostly numeric",
			vals: Texts("1", "2", "3", "4", "5", "n/a"),
			want: PatternFlags{MostlyNumeric: true, ScaleLike: true, ShortText: true},
		},
		{
			name: "slash dates",
			vals: Texts("01/02/2024", "15/03/24"),
			want: PatternFlags{HasDates: true, BinaryLike: true, ShortText: true},
		},
		{
			name: "iso timestamps",
			vals: Texts("2024-01-01T10:00:00", "2024-01-02T10:00:00", "2024-01-03T10:00:00"),
			want: PatternFlags{HasDates: true, HasTimestamps: true, ShortText: true},
		},
		{
			name: "long text",
			vals: Texts("This is an answer that is clearly longer than fifty characters in total."),
			want: PatternFlags{LongText: true},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Analyze(tt.vals).Flags
			if got != tt.want {
				t.Fatalf("flags mismatch\n got: %+v\nwant: %+v", got, tt.want)
			}
		})
	}
}

func TestDigitsAfterStrip(t *testing.T) {
	cases := map[string]bool{"12": true, "1.5": true, "-3": true, "+4": true, "": false, ".": false, "1e5": false, "abc": false}
	for in, want := range cases {
		if got := digitsAfterStrip(in); got != want {
			t.Fatalf("digitsAfterStrip(%q)=%v want %v", in, got, want)
		}
	}
}

func TestSampleValuesCapped(t *testing.T) {
	var vals []Scalar
	for i := 0; i < 25; i++ {
		vals = append(vals, Number(float64(i)))
	}
	pa := Analyze(vals)
	if len(pa.SampleValues) != 10 || pa.SampleValues[0] != "0" || pa.SampleValues[9] != "9" {
		t.Fatalf("samples: %v", pa.SampleValues)
	}
	if len(pa.ValueFrequency) != 5 {
		t.Fatalf("frequency should keep top 5, got %d", len(pa.ValueFrequency))
	}
}

func TestCoerceAndTryParseNumber(t *testing.T) {
	if !Coerce("  ").IsNull() {
		t.Fatalf("blank should coerce to null")
	}
	n := Coerce("3.50")
	if n.Kind() != KindNumber || n.String() != "3.50" {
		t.Fatalf("number keeps raw text: %v %q", n.Kind(), n.String())
	}
	if Coerce("NaN").Kind() != KindText {
		t.Fatalf("NaN must stay text")
	}
	if f, ok := TryParseNumber(Text(" 42 ")); !ok || f != 42 {
		t.Fatalf("parse text number: %v %v", f, ok)
	}
	if _, ok := TryParseNumber(Text("forty")); ok {
		t.Fatalf("words must not parse")
	}
	if _, ok := TryParseNumber(Null()); ok {
		t.Fatalf("null must not parse")
	}
	if Number(2).String() != "2" {
		t.Fatalf("formatted number: %q", Number(2).String())
	}
}
