package llmclient

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	genai "google.golang.org/genai"
)

// GeminiClient is a thin wrapper around the official genai client.
// One genai client is kept per API key so key rotation stays cheap.
// Cross-cutting concerns (rate limiting, logging) are applied via Middleware.
type GeminiClient struct {
	apiKey string
	model  string

	mu      sync.Mutex
	clients map[string]*genai.Client
}

func NewGeminiClient(apiKey, model string) *GeminiClient {
	return &GeminiClient{
		apiKey:  apiKey,
		model:   model,
		clients: make(map[string]*genai.Client),
	}
}

func (g *GeminiClient) Name() string { return "Gemini:" + g.model }
func (g *GeminiClient) Close() error { return nil }

func (g *GeminiClient) client(ctx context.Context, apiKey string) (*genai.Client, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if cli, ok := g.clients[apiKey]; ok {
		return cli, nil
	}
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	g.clients[apiKey] = cli
	return cli, nil
}

// Complete maps the OpenAI-style conversation onto genai contents:
// system turns become the system instruction, assistant turns use the "model" role.
func (g *GeminiClient) Complete(ctx context.Context, req ChatRequest) (string, error) {
	apiKey := req.APIKey
	if apiKey == "" {
		apiKey = g.apiKey
	}
	model := req.Model
	if model == "" {
		model = g.model
	}
	cli, err := g.client(ctx, apiKey)
	if err != nil {
		return "", fmt.Errorf("gemini: init client: %w", err)
	}

	cfg := &genai.GenerateContentConfig{}
	if req.Temperature > 0 {
		t := req.Temperature
		cfg.Temperature = &t
	}
	if req.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(req.MaxTokens)
	}
	if req.JSON {
		cfg.ResponseMIMEType = "application/json"
	}

	var system []string
	contents := make([]*genai.Content, 0, len(req.Messages))
	for _, m := range req.Messages {
		switch m.Role {
		case RoleSystem:
			system = append(system, m.Content)
		case RoleAssistant:
			contents = append(contents, &genai.Content{Role: "model", Parts: []*genai.Part{{Text: m.Content}}})
		default:
			contents = append(contents, &genai.Content{Role: "user", Parts: []*genai.Part{{Text: m.Content}}})
		}
	}
	if len(system) > 0 {
		cfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: strings.Join(system, "\n\n")}}}
	}

	resp, err := cli.Models.GenerateContent(ctx, model, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("gemini: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", ErrEmptyResponse
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil {
			sb.WriteString(part.Text)
		}
	}
	text := sb.String()
	if req.JSON {
		var scratch any
		if err := json.Unmarshal([]byte(text), &scratch); err != nil {
			return "", ErrInvalidJSON
		}
	}
	return text, nil
}
