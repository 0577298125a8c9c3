package responses

import (
	"context"
	"errors"
	"testing"

	"github.com/KaramelBytes/surveyloom/internal/ai"
	"github.com/KaramelBytes/surveyloom/internal/survey"
)

func TestFallback(t *testing.T) {
	cases := []struct {
		in   string
		cat  Category
		conf int
	}{
		{"S", Affirmative, 90},
		{" no ", Negative, 90},
		{"?", Other, 30},
		{"sim", Affirmative, 60},
		{"Não", Negative, 60},
		{"Tive um problema, travou e ficou lento", Affirmative, 80},
		{"Foi fácil, tudo bem", Negative, 70},
		{"Tudo ok", Negative, 70},
		{"Mais ou menos", Other, 40},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got := Fallback(tc.in)
			if got.Category != tc.cat || got.Confidence != tc.conf {
				t.Fatalf("Fallback(%q) = %+v, want %s/%d", tc.in, got, tc.cat, tc.conf)
			}
			if got.Explanation == "" {
				t.Fatalf("missing explanation")
			}
		})
	}
}

func TestClassifyQuestion(t *testing.T) {
	values := []survey.Scalar{
		survey.Text("Sim, tive problema"),
		survey.Text("Sim, tive problema "),
		survey.Text("Foi fácil"),
		survey.Text("?"),
		survey.Null(),
		survey.Text("  "),
	}
	var c *Classifier
	sum := c.ClassifyQuestion(context.Background(), "screen8", values)
	if sum.TotalResponses != 4 {
		t.Fatalf("total = %d, want 4", sum.TotalResponses)
	}
	aff := sum.Categories[Affirmative]
	if aff.Count != 2 || aff.Percentage != 50 || len(aff.Responses) != 1 || aff.Responses[0].Count != 2 {
		t.Fatalf("unexpected affirmative stats %+v", aff)
	}
	if sum.Categories[Negative].Percentage != 25 || sum.Categories[Other].Percentage != 25 {
		t.Fatalf("unexpected stats %+v", sum.Categories)
	}
	if sum.ConfidenceAvg != 53.3 {
		t.Fatalf("confidence avg = %v, want 53.3", sum.ConfidenceAvg)
	}
	if len(sum.Details) != 3 {
		t.Fatalf("expected 3 distinct details, got %d", len(sum.Details))
	}
	want := []Category{Affirmative, Negative, Other}
	if len(sum.Simplified) != len(want) {
		t.Fatalf("simplified = %+v", sum.Simplified)
	}
	for i, f := range sum.Simplified {
		if f.Category != want[i] {
			t.Fatalf("simplified[%d] = %s, want %s", i, f.Category, want[i])
		}
	}
}

func TestClassifyQuestionEmpty(t *testing.T) {
	sum := (&Classifier{}).ClassifyQuestion(context.Background(), "q", nil)
	if sum.TotalResponses != 0 || sum.ConfidenceAvg != 0 || len(sum.Simplified) != 0 {
		t.Fatalf("unexpected summary %+v", sum)
	}
}

type stubRuntime struct {
	text  string
	err   error
	calls int
}

func (s *stubRuntime) Generate(_ context.Context, req ai.GenerateRequest) (*ai.GenerateResponse, error) {
	s.calls++
	if !req.JSON {
		return nil, errors.New("expected JSON mode")
	}
	if s.err != nil {
		return nil, s.err
	}
	return &ai.GenerateResponse{Choices: []ai.Choice{{Message: ai.Message{Content: s.text}}}}, nil
}

func TestClassifyWithRuntime(t *testing.T) {
	rt := &stubRuntime{text: "```json\n{\"category\": \"SIM\", \"confidence\": 150, \"explanation\": \"nega facilidade\"}\n```"}
	c := &Classifier{Runtime: rt, Model: "m"}
	got := c.Classify(context.Background(), "não foi fácil", "8 - Você teve algum problema?")
	if got.Category != Affirmative || got.Confidence != 100 || got.Explanation != "nega facilidade" {
		t.Fatalf("unexpected result %+v", got)
	}
}

func TestClassifyFallsBackOnRuntimeFailure(t *testing.T) {
	for _, rt := range []*stubRuntime{
		{err: errors.New("down")},
		{text: "not json"},
		{text: `{"category": "maybe", "confidence": 50}`},
	} {
		c := &Classifier{Runtime: rt, Model: "m"}
		got := c.Classify(context.Background(), "S", "q")
		if got != Fallback("S") {
			t.Fatalf("expected rule result, got %+v", got)
		}
		if rt.calls != 1 {
			t.Fatalf("expected one runtime call, got %d", rt.calls)
		}
	}
}

func TestNeedsClassification(t *testing.T) {
	for name, want := range map[string]bool{
		"screen8_problema":       true,
		"Teve Dificuldade?":      true,
		"Any problems at all":    true,
		"screen1_satisfaction":   false,
		"Você teve dificuldades": true,
	} {
		if got := NeedsClassification(name); got != want {
			t.Fatalf("NeedsClassification(%q) = %v, want %v", name, got, want)
		}
	}
}
