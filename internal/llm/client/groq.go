package llmclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

const groqChatCompletionsURL = "https://api.groq.com/openai/v1/chat/completions"

// GroqClient calls the Groq Chat Completions API (OpenAI-compatible).
// See: https://console.groq.com/docs/api-reference
type GroqClient struct {
	http    *http.Client
	apiKey  string
	model   string
	baseURL string

	rlMu      sync.RWMutex
	rlLast    RateLimitHeaders
	rlHasLast bool
	rlHandler RateLimitHeaderHandler
}

type GroqOption func(*GroqClient)

// WithGroqBaseURL points the client at a different chat completions endpoint.
func WithGroqBaseURL(url string) GroqOption {
	return func(g *GroqClient) {
		if strings.TrimSpace(url) != "" {
			g.baseURL = url
		}
	}
}

func WithGroqHTTPClient(c *http.Client) GroqOption {
	return func(g *GroqClient) {
		if c != nil {
			g.http = c
		}
	}
}

// NewGroqClient creates a Groq client. apiKey is the default key used when a
// request does not carry its own.
func NewGroqClient(apiKey, model string, opts ...GroqOption) *GroqClient {
	g := &GroqClient{
		http:    &http.Client{Timeout: 60 * time.Second},
		apiKey:  apiKey,
		model:   model,
		baseURL: groqChatCompletionsURL,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *GroqClient) Name() string { return "Groq:" + g.model }
func (g *GroqClient) Close() error { return nil }

func (g *GroqClient) SetRateLimitHeaderHandler(handler RateLimitHeaderHandler) {
	g.rlMu.Lock()
	defer g.rlMu.Unlock()
	g.rlHandler = handler
}

func (g *GroqClient) LastRateLimitHeaders() (RateLimitHeaders, bool) {
	g.rlMu.RLock()
	defer g.rlMu.RUnlock()
	return g.rlLast, g.rlHasLast
}

type groqChatReq struct {
	Model          string            `json:"model"`
	Messages       []Message         `json:"messages"`
	MaxTokens      int               `json:"max_tokens,omitempty"`
	Temperature    float32           `json:"temperature"`
	ResponseFormat map[string]string `json:"response_format,omitempty"`
}

type groqChatResp struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		Text string `json:"text"`
	} `json:"choices"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Complete sends the conversation and returns the first choice's text.
func (g *GroqClient) Complete(ctx context.Context, req ChatRequest) (string, error) {
	model := req.Model
	if model == "" {
		model = g.model
	}
	apiKey := req.APIKey
	if apiKey == "" {
		apiKey = g.apiKey
	}
	body := groqChatReq{
		Model:       model,
		Messages:    req.Messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}
	if req.JSON {
		body.ResponseFormat = map[string]string{"type": "json_object"}
	}
	b, err := json.Marshal(body)
	if err != nil {
		return "", err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL, bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+apiKey)
	}

	resp, err := g.http.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	headers, hasHeaders := g.captureRateLimitHeaders(resp.Header)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(resp.Body)
		const max = 2048
		if len(raw) > max {
			raw = raw[:max]
		}
		se := &StatusError{
			Provider:   "groq",
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       string(raw),
		}
		if hasHeaders {
			se.RetryAfter = headers.NextWait()
		}
		if IsContextLengthExceeded(se) {
			return "", NewPermanentError(se)
		}
		return "", se
	}
	var out groqChatResp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("groq: decode response: %w", err)
	}
	if out.Error != nil {
		// Groq occasionally reports account level problems in a 200 body.
		return "", fmt.Errorf("groq: %s: %s", out.Error.Code, out.Error.Message)
	}
	if len(out.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	content := out.Choices[0].Message.Content
	if content == "" {
		content = out.Choices[0].Text
	}
	if req.JSON {
		var scratch any
		if err := json.Unmarshal([]byte(content), &scratch); err != nil {
			return "", ErrInvalidJSON
		}
	}
	return content, nil
}

func (g *GroqClient) captureRateLimitHeaders(h http.Header) (RateLimitHeaders, bool) {
	parsed, ok := parseGroqRateLimitHeaders(h)
	if !ok {
		return parsed, false
	}
	g.rlMu.Lock()
	g.rlLast = parsed
	g.rlHasLast = true
	handler := g.rlHandler
	g.rlMu.Unlock()
	if handler != nil {
		handler(parsed)
	}
	return parsed, true
}
