package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"geomentor/internal/gateway/config"
	"geomentor/internal/gateway/handler"
	"geomentor/internal/gateway/server"
	"geomentor/internal/gateway/service/assistant"
	"geomentor/internal/gateway/service/testgen"
	"geomentor/internal/llm/keyring"
	"geomentor/internal/llm/prompt"
)

type App struct {
	server  *server.Server
	handler http.Handler
	closers []func() error
}

func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	keys := keyring.New(cfg.LLM.APIKeys())
	if keys.Available() == 0 {
		logger.Warn("no LLM API keys configured", slog.String("provider", cfg.LLM.Provider))
	}

	llm, err := newChatClient(cfg.LLM, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to init llm client: %w", err)
	}
	stores, err := initStores(ctx, cfg, logger)
	if err != nil {
		_ = llm.Close()
		return nil, err
	}

	systemPrompt := cfg.LLM.SystemPrompt
	if systemPrompt == "" {
		systemPrompt = prompt.DefaultChatSystemPrompt
	}
	assistantSvc := assistant.New(llm, keys, stores.history, assistant.Config{
		Model:        cfg.LLM.ModelName(),
		SystemPrompt: systemPrompt,
		MaxTokens:    cfg.LLM.MaxTokens,
		Temperature:  cfg.LLM.Temperature,
		MaxRetries:   cfg.LLM.MaxRetries,
		Backoff:      cfg.LLM.Backoff(),
	})
	testSvc := testgen.New(llm, keys, stores.testbank, testgen.Config{
		Model:       cfg.LLM.ModelName(),
		MaxTokens:   cfg.Tests.MaxTokens,
		Temperature: cfg.Tests.Temperature,
		CacheSize:   cfg.Tests.CacheSize,
		CacheTTL:    cfg.Tests.CacheTTL,
	})

	h := handler.New(assistantSvc, testSvc)
	mux := server.NewMux(h, logger, cfg.CORSAllowedOrigins)

	return &App{
		server:  server.New(cfg.Port, mux, logger),
		handler: mux,
		closers: append([]func() error{llm.Close}, stores.closers...),
	}, nil
}

// Handler exposes the routed handler without the h2c wrapper.
func (a *App) Handler() http.Handler { return a.handler }

func (a *App) Start() error {
	return a.server.Start()
}

func (a *App) Shutdown(ctx context.Context) error {
	err := a.server.Shutdown(ctx)
	for _, c := range a.closers {
		if cerr := c(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}
