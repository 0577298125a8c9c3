package ai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

const (
	defaultOpenAIBaseURL     = "https://api.openai.com/v1"
	defaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"
	defaultOllamaBaseURL     = "http://localhost:11434/v1"
)

// Client talks to any OpenAI-compatible chat completions endpoint.
type Client struct {
	api        *openai.Client
	apiKey     string
	baseURL    string
	provider   string
	requireKey bool
}

// NewClient allows customizing HTTP timeout and retry/backoff behavior.
func NewClient(apiKey string, httpTimeout time.Duration, retryMax int, baseDelay, maxDelay time.Duration) *Client {
	return NewClientWithBaseURL(apiKey, httpTimeout, retryMax, baseDelay, maxDelay, defaultOpenAIBaseURL)
}

// NewClientWithBaseURL allows injecting a custom base URL (OpenRouter, Ollama, tests).
func NewClientWithBaseURL(apiKey string, httpTimeout time.Duration, retryMax int, baseDelay, maxDelay time.Duration, baseURL string) *Client {
	if httpTimeout <= 0 {
		httpTimeout = 60 * time.Second
	}
	if retryMax <= 0 {
		retryMax = 3
	}
	if baseDelay <= 0 {
		baseDelay = 500 * time.Millisecond
	}
	if maxDelay <= 0 {
		maxDelay = 4 * time.Second
	}
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = baseURL
	cfg.HTTPClient = &retryDoer{
		client:      &http.Client{Timeout: httpTimeout},
		maxAttempts: retryMax,
		baseDelay:   baseDelay,
		maxDelay:    maxDelay,
	}
	return &Client{
		api:      openai.NewClientWithConfig(cfg),
		apiKey:   apiKey,
		baseURL:  baseURL,
		provider: ProviderOpenAI,
	}
}

func (c *Client) ValidateModel(model string) error {
	if model == "" {
		return errors.New("model cannot be empty")
	}
	return nil
}

func (c *Client) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	if c.requireKey && c.apiKey == "" {
		return nil, fmt.Errorf("%s API key is missing (set SURVEYLOOM_API_KEY)", c.provider)
	}
	if err := c.ValidateModel(req.Model); err != nil {
		return nil, err
	}
	meta := &responseMeta{}
	ctx = context.WithValue(ctx, responseMetaKey{}, meta)

	resp, err := c.api.CreateChatCompletion(ctx, toChatRequest(req))
	if err != nil {
		return nil, c.mapError(ctx, err, meta)
	}
	out := &GenerateResponse{
		ID: resp.ID,
		Usage: Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
		RequestID: meta.id(),
	}
	if out.RequestID == "" {
		out.RequestID = requestIDFromHeader(resp.Header())
	}
	for _, ch := range resp.Choices {
		out.Choices = append(out.Choices, Choice{Message: Message{Role: ch.Message.Role, Content: ch.Message.Content}})
	}
	return out, nil
}

func toChatRequest(req GenerateRequest) openai.ChatCompletionRequest {
	msgs := make([]openai.ChatCompletionMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}
	out := openai.ChatCompletionRequest{
		Model:       req.Model,
		Messages:    msgs,
		Temperature: float32(req.Temperature),
	}
	if req.JSON {
		out.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}
	// Reasoning models reject max_tokens.
	if isReasoningModel(req.Model) {
		out.MaxCompletionTokens = req.MaxTokens
		out.Temperature = 0
	} else {
		out.MaxTokens = req.MaxTokens
	}
	return out
}

func isReasoningModel(model string) bool {
	m := model
	if i := strings.LastIndex(m, "/"); i >= 0 {
		m = m[i+1:]
	}
	for _, p := range []string{"o1", "o3", "o4", "gpt-5"} {
		if strings.HasPrefix(m, p) {
			return true
		}
	}
	return false
}

func (c *Client) mapError(ctx context.Context, err error, meta *responseMeta) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	var oaErr *openai.APIError
	if errors.As(err, &oaErr) {
		apiErr := &APIError{
			StatusCode: oaErr.HTTPStatusCode,
			Code:       codeString(oaErr.Code),
			Message:    oaErr.Message,
			RequestID:  meta.id(),
		}
		return classifyAPIError(apiErr, meta.wait())
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		apiErr := &APIError{StatusCode: reqErr.HTTPStatusCode, RequestID: meta.id()}
		if reqErr.Err != nil {
			apiErr.Message = reqErr.Err.Error()
		}
		if len(reqErr.Body) > 0 && apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(string(reqErr.Body))
		}
		return classifyAPIError(apiErr, meta.wait())
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return &UnreachableError{Host: c.baseURL, Err: err}
	}
	return fmt.Errorf("http request: %w", err)
}

func codeString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}

type responseMetaKey struct{}

// responseMeta records transport details the SDK error types drop.
type responseMeta struct {
	mu         sync.Mutex
	requestID  string
	retryAfter time.Duration
}

func (m *responseMeta) record(resp *http.Response) {
	if m == nil || resp == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestID = requestIDFromHeader(resp.Header)
	m.retryAfter = 0
	if v := resp.Header.Get("Retry-After"); v != "" {
		if secs, err := parseRetryAfterSeconds(v); err == nil && secs > 0 {
			m.retryAfter = time.Duration(secs) * time.Second
		}
	}
}

func (m *responseMeta) id() string {
	if m == nil {
		return ""
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.requestID
}

func (m *responseMeta) wait() time.Duration {
	if m == nil {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.retryAfter
}

// retryDoer is the HTTP transport handed to the SDK. It retries 429/5xx
// and transient network failures with capped, jittered backoff.
type retryDoer struct {
	client      *http.Client
	maxAttempts int
	baseDelay   time.Duration
	maxDelay    time.Duration
}

func (d *retryDoer) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	meta, _ := ctx.Value(responseMetaKey{}).(*responseMeta)
	backoff := d.baseDelay
	for attempt := 1; ; attempt++ {
		r := req
		if attempt > 1 {
			r = req.Clone(ctx)
			if req.GetBody != nil {
				body, err := req.GetBody()
				if err != nil {
					return nil, fmt.Errorf("rewind body: %w", err)
				}
				r.Body = body
			}
		}
		resp, err := d.client.Do(r)
		if err != nil {
			if isRetryableNetErr(err) && attempt < d.maxAttempts && ctx.Err() == nil {
				if serr := sleepCtx(ctx, d.capped(withJitter(backoff))); serr != nil {
					return nil, serr
				}
				backoff *= 2
				continue
			}
			return nil, err
		}
		meta.record(resp)
		if !retryableStatus(resp.StatusCode) || attempt >= d.maxAttempts {
			return resp, nil
		}
		wait := d.capped(withJitter(backoff))
		if ra := resp.Header.Get("Retry-After"); ra != "" {
			if secs, perr := parseRetryAfterSeconds(ra); perr == nil && secs > 0 {
				wait = time.Duration(secs) * time.Second
			}
		}
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 8<<10))
		resp.Body.Close()
		if serr := sleepCtx(ctx, wait); serr != nil {
			return nil, serr
		}
		backoff *= 2
	}
}

func (d *retryDoer) capped(v time.Duration) time.Duration {
	if d.maxDelay > 0 && v > d.maxDelay {
		return d.maxDelay
	}
	return v
}

func retryableStatus(sc int) bool {
	return sc == http.StatusTooManyRequests || (sc >= 500 && sc <= 599)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func isRetryableNetErr(err error) bool {
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return true
	}
	// EOF or connection reset
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	return false
}

// parseRetryAfterSeconds interprets a Retry-After value as seconds or HTTP date.
func parseRetryAfterSeconds(v string) (int, error) {
	if s, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
		return s, nil
	}
	if t, err := http.ParseTime(v); err == nil {
		d := time.Until(t)
		if d < 0 {
			d = 0
		}
		return int(d.Seconds()), nil
	}
	return 0, fmt.Errorf("invalid Retry-After: %q", v)
}

// requestIDFromHeader pulls a best-effort request ID from common headers.
func requestIDFromHeader(h http.Header) string {
	for _, k := range []string{"X-Request-Id", "OpenAI-Request-ID", "Openrouter-Request-ID", "X-Amzn-Requestid"} {
		if v := h.Get(k); v != "" {
			return v
		}
	}
	return ""
}

// withJitter returns a backoff duration with +/- 20% jitter applied.
func withJitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 500 * time.Millisecond
	}
	f := 0.8 + rand.Float64()*0.4
	out := time.Duration(float64(d) * f)
	if out <= 0 {
		return d
	}
	return out
}
