// Package responses sorts free-text answers to yes/no style questions into
// affirmative, negative and other buckets.
package responses

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/KaramelBytes/surveyloom/internal/ai"
	"github.com/KaramelBytes/surveyloom/internal/logging"
	"github.com/KaramelBytes/surveyloom/internal/survey"
)

type Category string

const (
	Affirmative Category = "affirmative"
	Negative    Category = "negative"
	Other       Category = "other"
)

// Categories in report order.
var Categories = []Category{Affirmative, Negative, Other}

// Result is the verdict for one distinct response.
type Result struct {
	Category    Category `json:"category"`
	Confidence  int      `json:"confidence"`
	Explanation string   `json:"explanation"`
}

// ResponseCount is a distinct response with its frequency.
type ResponseCount struct {
	Text           string `json:"text"`
	Count          int    `json:"count"`
	Classification Result `json:"classification"`
}

type CategoryStats struct {
	Count      int             `json:"count"`
	Percentage float64         `json:"percentage"`
	Responses  []ResponseCount `json:"responses"`
}

// Frequency is one row of the simplified frequency table.
type Frequency struct {
	Category   Category `json:"category"`
	Count      int      `json:"count"`
	Percentage float64  `json:"percentage"`
}

// Summary is the classification of every answer to one question.
type Summary struct {
	Question       string                     `json:"question"`
	TotalResponses int                        `json:"total_responses"`
	Categories     map[Category]CategoryStats `json:"categories"`
	Details        map[string]Result          `json:"classification_details"`
	ConfidenceAvg  float64                    `json:"confidence_avg"`
	Simplified     []Frequency                `json:"simplified_frequency"`
}

// Classifier uses Runtime when set and falls back to the keyword rules on
// any error.
type Classifier struct {
	Runtime ai.Runtime
	Model   string
	Logger  *slog.Logger
}

func (c *Classifier) logger() *slog.Logger {
	if c == nil {
		return logging.Discard()
	}
	return logging.OrDiscard(c.Logger)
}

// Classify returns the category of a single response.
func (c *Classifier) Classify(ctx context.Context, response, question string) Result {
	if c == nil || c.Runtime == nil {
		return Fallback(response)
	}
	r, err := c.classifyAI(ctx, response, question)
	if err != nil {
		c.logger().Warn("AI classification failed, using rules", "response", response, "error", err)
		return Fallback(response)
	}
	return r
}

const classifyPrompt = `You classify survey answers. Question: %q
Answer: %q

Categories:
- affirmative: the answer reports a problem or difficulty, or says yes
- negative: the answer reports no problem, ease, or says no
- other: ambiguous, neutral or unrelated

Consider typos and colloquial Portuguese or English. "não foi fácil" is affirmative.
Reply only with JSON: {"category": "affirmative|negative|other", "confidence": 0-100, "explanation": "short reason"}`

type aiVerdict struct {
	Category    string  `json:"category"`
	Confidence  float64 `json:"confidence"`
	Explanation string  `json:"explanation"`
}

func (c *Classifier) classifyAI(ctx context.Context, response, question string) (Result, error) {
	resp, err := c.Runtime.Generate(ctx, ai.GenerateRequest{
		Model:       c.Model,
		Messages:    []ai.Message{{Role: "user", Content: fmt.Sprintf(classifyPrompt, question, response)}},
		MaxTokens:   200,
		Temperature: 0.1,
		JSON:        true,
	})
	if err != nil {
		return Result{}, err
	}
	var v aiVerdict
	if err := json.Unmarshal([]byte(stripFence(resp.Text())), &v); err != nil {
		return Result{}, fmt.Errorf("decode verdict: %w", err)
	}
	cat, ok := parseCategory(v.Category)
	if !ok {
		return Result{}, fmt.Errorf("unknown category %q", v.Category)
	}
	conf := int(math.Round(math.Max(0, math.Min(100, v.Confidence))))
	expl := strings.TrimSpace(v.Explanation)
	if expl == "" {
		expl = "Classificação automática"
	}
	return Result{Category: cat, Confidence: conf, Explanation: expl}, nil
}

func parseCategory(s string) (Category, bool) {
	switch survey.Fold(strings.TrimSpace(s)) {
	case "affirmative", "sim", "yes":
		return Affirmative, true
	case "negative", "nao", "no":
		return Negative, true
	case "other", "outras", "outra":
		return Other, true
	}
	return "", false
}

// stripFence drops a ```json fence some models wrap around their output.
func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// ClassifyQuestion classifies each distinct non-blank answer once and
// weights it by how often it occurs.
func (c *Classifier) ClassifyQuestion(ctx context.Context, question string, values []survey.Scalar) Summary {
	sum := Summary{
		Question:   question,
		Categories: map[Category]CategoryStats{},
		Details:    map[string]Result{},
		Simplified: []Frequency{},
	}
	var order []string
	counts := map[string]int{}
	for _, v := range values {
		if v.Blank() {
			continue
		}
		text := strings.TrimSpace(v.String())
		if _, seen := counts[text]; !seen {
			order = append(order, text)
		}
		counts[text]++
		sum.TotalResponses++
	}
	var confTotal int
	for _, text := range order {
		r := c.Classify(ctx, text, question)
		sum.Details[text] = r
		confTotal += r.Confidence
		st := sum.Categories[r.Category]
		st.Count += counts[text]
		st.Responses = append(st.Responses, ResponseCount{Text: text, Count: counts[text], Classification: r})
		sum.Categories[r.Category] = st
	}
	for cat, st := range sum.Categories {
		if sum.TotalResponses > 0 {
			st.Percentage = round(float64(st.Count)/float64(sum.TotalResponses)*100, 2)
		}
		sum.Categories[cat] = st
	}
	if len(order) > 0 {
		sum.ConfidenceAvg = round(float64(confTotal)/float64(len(order)), 1)
	}
	for _, cat := range Categories {
		if st, ok := sum.Categories[cat]; ok && st.Count > 0 {
			sum.Simplified = append(sum.Simplified, Frequency{Category: cat, Count: st.Count, Percentage: st.Percentage})
		}
	}
	c.logger().Info("responses classified", "question", question, "total", sum.TotalResponses, "distinct", len(order))
	return sum
}

// NeedsClassification reports whether a column asks about problems or
// difficulties and should be classified automatically.
func NeedsClassification(column string) bool {
	f := survey.Fold(column)
	return strings.Contains(f, "problem") || strings.Contains(f, "dificuldade")
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
