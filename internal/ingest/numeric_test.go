package ingest

import (
	"testing"

	"github.com/KaramelBytes/surveyloom/internal/survey"
)

func TestParseNumericLocales(t *testing.T) {
	cases := []struct {
		in   string
		opt  Options
		want float64
		ok   bool
	}{
		{"12,5", Options{}, 12.5, true},
		{"1.234,5", Options{}, 1234.5, true},
		{"1,234.5", Options{}, 1234.5, true},
		{"45%", Options{}, 45, true},
		{"1 000", Options{}, 1000, true},
		{"1.234", Options{DecimalSeparator: ',', ThousandsSeparator: '.'}, 1234, true},
		{"Sim", Options{}, 0, false},
		{"2024-01-01", Options{}, 0, false},
		{"1,2,3", Options{}, 0, false},
		{"1, 3", Options{}, 0, false},
		{"2 4", Options{}, 0, false},
		{"1;3", Options{}, 0, false},
		{"1,23,456", Options{}, 0, false},
		{"1.234.567", Options{}, 1234567, true},
		{"1\u00A0234,5", Options{}, 1234.5, true},
		{"2 4", Options{DecimalSeparator: ',', ThousandsSeparator: ' '}, 0, false},
		{"12 345,5", Options{DecimalSeparator: ',', ThousandsSeparator: ' '}, 12345.5, true},
	}
	for _, tt := range cases {
		got, ok := parseNumeric(tt.in, tt.opt)
		if ok != tt.ok || (ok && got != tt.want) {
			t.Errorf("parseNumeric(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestCoerceKeepsKinds(t *testing.T) {
	if v := coerce("  ", Options{}); !v.IsNull() {
		t.Fatalf("blank should be null")
	}
	if v := coerce("Não", Options{}); v.Kind() != survey.KindText {
		t.Fatalf("text should stay text")
	}
	if v := coerce("3,5", Options{}); v.Kind() != survey.KindNumber || v.String() != "3,5" {
		t.Fatalf("locale number: %v %q", v.Kind(), v.String())
	}
}

func TestCoerceLeavesMultiSelectAsText(t *testing.T) {
	for _, in := range []string{"1, 3", "2 4", "1;3", "1, 2, 3"} {
		if v := coerce(in, Options{}); v.Kind() != survey.KindText {
			t.Errorf("coerce(%q) kind = %v, want text", in, v.Kind())
		}
	}
}
