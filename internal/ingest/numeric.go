package ingest

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/KaramelBytes/surveyloom/internal/survey"
)

// coerce turns a raw cell into a Scalar. Plain floats parse directly;
// locale-formatted numbers such as "1.234,5" or "12%" are recognised as
// numbers but keep their raw text.
func coerce(raw string, opt Options) survey.Scalar {
	v := survey.Coerce(raw)
	if v.Kind() != survey.KindText {
		return v
	}
	if x, ok := parseNumeric(raw, opt); ok {
		return survey.NumberFrom(raw, x)
	}
	return v
}

// A single decimal separator, or digit groups of exactly three joined by one
// consistent separator with an optional decimal part using the other one.
// Anything else ("1, 3", "2 4", "1;3") is an answer, not a number.
var (
	plainDecimal = regexp.MustCompile(`^[+-]?\d*(?:([.,])\d+)?$`)
	groupedShape = map[byte]*regexp.Regexp{
		'.': regexp.MustCompile(`^[+-]?\d{1,3}(?:\.\d{3})+(?:,\d+)?$`),
		',': regexp.MustCompile(`^[+-]?\d{1,3}(?:,\d{3})+(?:\.\d+)?$`),
		' ': regexp.MustCompile(`^[+-]?\d{1,3}(?: \d{3})+(?:[.,]\d+)?$`),
	}
)

func parseNumeric(s string, opt Options) (float64, bool) {
	raw := strings.TrimSpace(s)
	if strings.HasSuffix(raw, "%") {
		raw = strings.TrimSpace(strings.TrimSuffix(raw, "%"))
	}
	raw = strings.ReplaceAll(raw, "\u00A0", " ")
	if raw == "" {
		return 0, false
	}
	dec, thou, ok := separators(raw, opt)
	if !ok {
		return 0, false
	}
	if thou != 0 {
		raw = strings.ReplaceAll(raw, string(thou), "")
	}
	if dec != '.' {
		raw = strings.ReplaceAll(raw, string(dec), ".")
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// separators validates the shape of raw and reports which rune is the
// decimal point and which groups thousands (0 when there is none).
func separators(raw string, opt Options) (dec, thou rune, ok bool) {
	if opt.DecimalSeparator != 0 {
		return localeSeparators(raw, opt.DecimalSeparator, opt.ThousandsSeparator)
	}
	if m := plainDecimal.FindStringSubmatch(raw); m != nil && strings.ContainsAny(raw, "0123456789") {
		if m[1] == "" {
			return '.', 0, true
		}
		return rune(m[1][0]), 0, true
	}
	for _, sep := range []byte{'.', ',', ' '} {
		if !groupedShape[sep].MatchString(raw) {
			continue
		}
		dec = '.'
		if sep == '.' || (sep == ' ' && strings.ContainsRune(raw, ',')) {
			dec = ','
		}
		return dec, rune(sep), true
	}
	return 0, 0, false
}

type localeShape struct {
	plain, grouped *regexp.Regexp
}

var localeShapes sync.Map // [2]rune -> localeShape

func shapeFor(dec, thou rune) localeShape {
	key := [2]rune{dec, thou}
	if v, ok := localeShapes.Load(key); ok {
		return v.(localeShape)
	}
	d := regexp.QuoteMeta(string(dec))
	sh := localeShape{plain: regexp.MustCompile(`^[+-]?\d*(?:` + d + `\d+)?$`)}
	if thou != 0 && thou != dec {
		t := regexp.QuoteMeta(string(thou))
		sh.grouped = regexp.MustCompile(`^[+-]?\d{1,3}(?:` + t + `\d{3})+(?:` + d + `\d+)?$`)
	}
	localeShapes.Store(key, sh)
	return sh
}

func localeSeparators(raw string, dec, thou rune) (rune, rune, bool) {
	sh := shapeFor(dec, thou)
	if sh.plain.MatchString(raw) && strings.ContainsAny(raw, "0123456789") {
		return dec, 0, true
	}
	if sh.grouped != nil && sh.grouped.MatchString(raw) {
		return dec, thou, true
	}
	return 0, 0, false
}
