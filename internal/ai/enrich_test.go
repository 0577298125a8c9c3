package ai

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type fakeRuntime struct {
	got  GenerateRequest
	text string
	err  error
}

func (f *fakeRuntime) Generate(_ context.Context, req GenerateRequest) (*GenerateResponse, error) {
	f.got = req
	if f.err != nil {
		return nil, f.err
	}
	return &GenerateResponse{Choices: []Choice{{Message: Message{Role: "assistant", Content: f.text}}}}, nil
}

func TestEnrichTruncatesReport(t *testing.T) {
	rt := &fakeRuntime{text: "  - takeaway\n"}
	e := &Enricher{Runtime: rt, Model: "m", PromptBudget: 10}
	out, err := e.Enrich(context.Background(), strings.Repeat("x", 400))
	if err != nil {
		t.Fatalf("Enrich: %v", err)
	}
	if out != "- takeaway" {
		t.Fatalf("unexpected output %q", out)
	}
	if len(rt.got.Messages) != 2 || len(rt.got.Messages[1].Content) != 40 {
		t.Fatalf("expected report truncated to 40 chars, got %+v", rt.got.Messages)
	}
	if rt.got.MaxTokens != 800 {
		t.Fatalf("expected default max tokens, got %d", rt.got.MaxTokens)
	}
}

func TestEnrichErrors(t *testing.T) {
	var nilEnricher *Enricher
	if _, err := nilEnricher.Enrich(context.Background(), "r"); err == nil {
		t.Fatalf("expected error without runtime")
	}
	boom := errors.New("boom")
	e := &Enricher{Runtime: &fakeRuntime{err: boom}, Model: "m"}
	if _, err := e.Enrich(context.Background(), "r"); !errors.Is(err, boom) {
		t.Fatalf("expected runtime error, got %v", err)
	}
	e = &Enricher{Runtime: &fakeRuntime{text: "   "}, Model: "m"}
	if _, err := e.Enrich(context.Background(), "r"); err == nil {
		t.Fatalf("expected error for empty elaboration")
	}
}
