package survey

import (
	"math"
	"strconv"
	"strings"
)

// Kind tags the variant held by a Scalar.
type Kind uint8

const (
	KindNull Kind = iota
	KindNumber
	KindText
)

func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindText:
		return "text"
	default:
		return "null"
	}
}

// Scalar is a single cell value: Null, Number or Text.
// Number keeps the raw text it was coerced from so string-based pattern
// checks see exactly what the respondent entered.
type Scalar struct {
	kind Kind
	num  float64
	text string
}

// Null returns the empty cell.
func Null() Scalar { return Scalar{} }

// Number wraps a parsed numeric cell.
func Number(f float64) Scalar { return Scalar{kind: KindNumber, num: f} }

// NumberFrom wraps a number parsed from raw, keeping raw as its string form.
func NumberFrom(raw string, f float64) Scalar { return Scalar{kind: KindNumber, num: f, text: raw} }

// Text wraps a string cell as-is.
func Text(s string) Scalar { return Scalar{kind: KindText, text: s} }

// Coerce turns a raw cell string into a Scalar. Blank cells become Null,
// values that parse as finite floats become Number, everything else Text.
func Coerce(raw string) Scalar {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Null()
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return Scalar{kind: KindNumber, num: f, text: raw}
	}
	return Text(raw)
}

// CoerceAll applies Coerce to every raw value.
func CoerceAll(raw []string) []Scalar {
	out := make([]Scalar, len(raw))
	for i, r := range raw {
		out[i] = Coerce(r)
	}
	return out
}

func (s Scalar) Kind() Kind   { return s.kind }
func (s Scalar) IsNull() bool { return s.kind == KindNull }

// Blank reports whether the value counts as missing: Null, or text that is
// empty after trimming.
func (s Scalar) Blank() bool {
	return s.kind == KindNull || strings.TrimSpace(s.String()) == ""
}

// String renders the value the way it is compared and measured.
func (s Scalar) String() string {
	switch s.kind {
	case KindNumber:
		if s.text != "" {
			return s.text
		}
		return strconv.FormatFloat(s.num, 'f', -1, 64)
	case KindText:
		return s.text
	default:
		return ""
	}
}

// TryParseNumber returns the numeric value of s when it has one.
// Text is parsed after trimming; NaN and infinities are rejected.
func TryParseNumber(s Scalar) (float64, bool) {
	switch s.kind {
	case KindNumber:
		return s.num, true
	case KindText:
		f, err := strconv.ParseFloat(strings.TrimSpace(s.text), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// Texts is a convenience for tests and fixtures.
func Texts(values ...string) []Scalar {
	out := make([]Scalar, len(values))
	for i, v := range values {
		out[i] = Text(v)
	}
	return out
}
