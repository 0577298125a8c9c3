package survey

import (
	"reflect"
	"testing"
)

func TestFold(t *testing.T) {
	cases := map[string]string{
		"Não":        "nao",
		"DIFÍCIL":    "dificil",
		"Pergunta 1": "pergunta 1",
		"":           "",
	}
	for in, want := range cases {
		if got := Fold(in); got != want {
			t.Errorf("Fold(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDetectorMatches(t *testing.T) {
	d := DefaultDetector()
	cases := []struct {
		name string
		want bool
	}{
		{"pesquisa300625_screen0", true},
		{"Q12", true},
		{"Survey Answer", true},
		{"Pergunta_Satisfação", true},
		{"respondent_email", false},
		{"Survey Name", false},
		{"phone_number", false},
		{"age", false},
	}
	for _, tt := range cases {
		if got := d.Matches(tt.name); got != tt.want {
			t.Errorf("Matches(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestDetectorSkipsBlankColumns(t *testing.T) {
	ds := NewDataset().
		MustAdd("id", Texts("1", "2")).
		MustAdd("q1", Texts("Sim", "Não")).
		MustAdd("q2", []Scalar{Null(), Text("  ")})
	sub, ok := DefaultDetector().SurveyColumns(ds)
	if !ok || !reflect.DeepEqual(sub.Names(), []string{"q1"}) {
		t.Fatalf("got %v ok=%v", sub.Names(), ok)
	}

	plain := NewDataset().MustAdd("age", Texts("30"))
	all, ok := DefaultDetector().SurveyColumns(plain)
	if ok || all != plain {
		t.Fatalf("expected fallback to full dataset")
	}
}

func TestNewDetectorRejectsBadPattern(t *testing.T) {
	if _, err := NewDetector([]string{"("}, nil); err == nil {
		t.Fatalf("expected compile error")
	}
}

func TestCleanColumnNames(t *testing.T) {
	got := CleanColumnNames([]string{"  First Name ", "1st", "", "a-b", "a b", "a_b"})
	want := []string{"First_Name", "col_1st", "unnamed_column_3", "ab", "a_b", "a_b__2"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestProfile(t *testing.T) {
	p := Profile("q", Texts("a", "b", "a", "", "a"))
	if p.TotalCount != 5 || p.NullCount != 1 || p.NullPercentage != 20 || p.UniqueCount != 2 {
		t.Fatalf("profile: %+v", p)
	}
	if p.ResponseRate() != 80 {
		t.Fatalf("response rate: %v", p.ResponseRate())
	}
	if p.MostCommon[0] != (ValueCount{Value: "a", Count: 3}) {
		t.Fatalf("most common: %v", p.MostCommon)
	}
	if e := Profile("none", nil); e.NullPercentage != 100 || e.ResponseRate() != 0 {
		t.Fatalf("empty profile: %+v", e)
	}
}
