package app

import (
	"fmt"
	"log/slog"
	"net/http"

	"geomentor/internal/gateway/config"
	"geomentor/internal/llm"
	llmclient "geomentor/internal/llm/client"
)

func newChatClient(cfg config.LLMConfig, logger *slog.Logger) (llmclient.ChatClient, error) {
	var base llmclient.ChatClient
	switch cfg.Provider {
	case "gemini":
		base = llmclient.NewGeminiClient("", cfg.GeminiModel)
	case "groq":
		groq := llmclient.NewGroqClient("", cfg.Model,
			llmclient.WithGroqBaseURL(cfg.GroqBaseURL),
			llmclient.WithGroqHTTPClient(&http.Client{Timeout: cfg.RequestTimeout}),
		)
		groq.SetRateLimitHeaderHandler(func(h llmclient.RateLimitHeaders) {
			logger.Debug("groq rate limit",
				slog.Int("remaining_requests", h.RemainingRequests),
				slog.Int("remaining_tokens", h.RemainingTokens))
		})
		base = groq
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
	return llm.Wrap(base,
		llm.WithLogging(nil),
		llm.RateLimit(cfg.RPS, cfg.Burst),
	), nil
}
