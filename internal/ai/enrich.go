package ai

import (
	"context"
	"errors"
	"strings"

	"github.com/KaramelBytes/surveyloom/internal/utils"
)

const enrichSystemPrompt = `You are a senior survey analyst. You receive an automatically generated survey analysis report.
Write a short executive elaboration in Markdown: the three most important takeaways, risks in the data,
and concrete next steps. Do not invent numbers that are not present in the report.`

// Enricher asks an LLM to elaborate on a generated report.
type Enricher struct {
	Runtime     Runtime
	Model       string
	MaxTokens   int
	Temperature float64
	// PromptBudget caps the report tokens sent to the model. Zero means 6000.
	PromptBudget int
}

// Enrich returns the model's elaboration of reportMarkdown.
func (e *Enricher) Enrich(ctx context.Context, reportMarkdown string) (string, error) {
	if e == nil || e.Runtime == nil {
		return "", errors.New("enricher has no runtime")
	}
	budget := e.PromptBudget
	if budget <= 0 {
		budget = 6000
	}
	body := utils.TruncateToTokenLimit(reportMarkdown, budget)
	maxTokens := e.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 800
	}
	resp, err := e.Runtime.Generate(ctx, GenerateRequest{
		Model: e.Model,
		Messages: []Message{
			{Role: "system", Content: enrichSystemPrompt},
			{Role: "user", Content: body},
		},
		MaxTokens:   maxTokens,
		Temperature: e.Temperature,
	})
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", errors.New("model returned an empty elaboration")
	}
	return text, nil
}
