package survey

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Default survey-column name patterns.
var (
	DefaultSurveyPatterns = []string{`pesquisa`, `survey`, `screen`, `question`, `q\d+`, `pergunta`}
	DefaultSkipPatterns   = []string{"name", "email", "number", "phone", "telefone"}
)

// Fold lower-cases s and strips diacritics, so "Não" and "nao" compare equal.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}

// Detector picks the columns of a dataset that hold survey answers.
type Detector struct {
	include []*regexp.Regexp
	skip    []string
}

// NewDetector compiles include patterns (regular expressions) and skip
// substrings. Both are matched against the folded column name.
func NewDetector(include, skip []string) (*Detector, error) {
	d := &Detector{}
	for _, p := range include {
		re, err := regexp.Compile(Fold(p))
		if err != nil {
			return nil, fmt.Errorf("compile survey pattern %q: %w", p, err)
		}
		d.include = append(d.include, re)
	}
	for _, s := range skip {
		if s = Fold(strings.TrimSpace(s)); s != "" {
			d.skip = append(d.skip, s)
		}
	}
	return d, nil
}

// DefaultDetector uses DefaultSurveyPatterns and DefaultSkipPatterns.
func DefaultDetector() *Detector {
	d, err := NewDetector(DefaultSurveyPatterns, DefaultSkipPatterns)
	if err != nil {
		panic(err)
	}
	return d
}

// Matches reports whether a column name looks like a survey question.
func (d *Detector) Matches(name string) bool {
	n := Fold(name)
	for _, s := range d.skip {
		if strings.Contains(n, s) {
			return false
		}
	}
	for _, re := range d.include {
		if re.MatchString(n) {
			return true
		}
	}
	return false
}

// Detect returns the matching columns that have at least one answer, in
// dataset order.
func (d *Detector) Detect(ds *Dataset) []string {
	var out []string
	for _, c := range ds.Columns() {
		if !d.Matches(c.Name) {
			continue
		}
		for _, v := range c.Values {
			if !v.Blank() {
				out = append(out, c.Name)
				break
			}
		}
	}
	return out
}

// SurveyColumns narrows ds to its survey columns. When nothing matches the
// full dataset is returned and matched is false.
func (d *Detector) SurveyColumns(ds *Dataset) (out *Dataset, matched bool) {
	names := d.Detect(ds)
	if len(names) == 0 {
		return ds, false
	}
	return ds.Select(names), true
}

// DetectSurveyColumns applies DefaultDetector to ds.
func DetectSurveyColumns(ds *Dataset) []string {
	return DefaultDetector().Detect(ds)
}

var (
	reSpaces   = regexp.MustCompile(`\s+`)
	reNonIdent = regexp.MustCompile(`[^\p{L}\p{N}_]`)
)

// CleanColumnNames turns raw headers into identifier-like names. Results are
// unique and positionally aligned with the input.
func CleanColumnNames(names []string) []string {
	out := make([]string, len(names))
	seen := map[string]int{}
	for i, raw := range names {
		s := strings.TrimSpace(raw)
		s = reSpaces.ReplaceAllString(s, "_")
		s = reNonIdent.ReplaceAllString(s, "")
		if s != "" && unicode.IsDigit([]rune(s)[0]) {
			s = "col_" + s
		}
		if s == "" {
			s = "unnamed_column_" + strconv.Itoa(i+1)
		}
		seen[s]++
		if n := seen[s]; n > 1 {
			s = s + "__" + strconv.Itoa(n)
		}
		out[i] = s
	}
	return out
}
