// Package assistant answers chat turns with an LLM, keeping a history per
// session and surviving blocked keys, rate limits and oversized prompts.
package assistant

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"geomentor/internal/gateway/repository/history"
	llmclient "geomentor/internal/llm/client"
	"geomentor/internal/llm/keyring"
	"geomentor/internal/llm/prompt"
	"geomentor/internal/logging"
)

const (
	ResetCommand = "/reset"
	ResetReply   = "[История очищена]"
)

type Config struct {
	Model        string
	SystemPrompt string
	MaxTokens    int
	Temperature  float32
	MaxRetries   int
	Backoff      time.Duration
}

type Service struct {
	llm     llmclient.ChatClient
	keys    *keyring.Ring
	history history.Store
	cfg     Config
	sleep   func(ctx context.Context, d time.Duration) error
	locks   *sessionLocks
}

type Option func(*Service)

// WithSleep replaces the backoff wait.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(s *Service) {
		if fn != nil {
			s.sleep = fn
		}
	}
}

func New(llm llmclient.ChatClient, keys *keyring.Ring, store history.Store, cfg Config, opts ...Option) *Service {
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = prompt.DefaultChatSystemPrompt
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 1000
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = time.Second
	}
	s := &Service{
		llm:     llm,
		keys:    keys,
		history: store,
		cfg:     cfg,
		sleep:   sleepContext,
		locks:   newSessionLocks(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Reply records text as the next user turn of sessionID and returns the
// assistant answer. Failures are *Error values carrying an HTTP status.
func (s *Service) Reply(ctx context.Context, sessionID, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", errEmptyMessage()
	}
	unlock := s.locks.lock(sessionID)
	defer unlock()

	log := logging.FromContext(ctx).With(slog.String("session", sessionID))

	if text == ResetCommand {
		if err := s.history.Clear(ctx, sessionID); err != nil {
			return "", errAPI(err)
		}
		log.InfoContext(ctx, "history cleared")
		return ResetReply, nil
	}

	if err := s.history.Append(ctx, sessionID, llmclient.Message{Role: llmclient.RoleUser, Content: text}); err != nil {
		return "", errAPI(err)
	}
	key, ok := s.keys.Current()
	if !ok {
		return "", errNoKeys()
	}
	turns, err := s.history.Load(ctx, sessionID)
	if err != nil {
		return "", errAPI(err)
	}

	attempt := 0
	truncated := false
	var answer string
	for {
		msgs := prompt.Build(s.cfg.SystemPrompt, turns, s.cfg.Model, s.cfg.MaxTokens)
		answer, err = s.llm.Complete(ctx, llmclient.ChatRequest{
			APIKey:      key,
			Model:       s.cfg.Model,
			Messages:    msgs,
			MaxTokens:   s.cfg.MaxTokens,
			Temperature: s.cfg.Temperature,
		})
		if err == nil {
			break
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}

		switch {
		case llmclient.IsBlockedAccess(err):
			log.WarnContext(ctx, "api key blocked", slog.String("key", logging.MaskKey(key)))
			if key, ok = s.rotate(key); !ok {
				return "", errAllBlocked(err)
			}
			attempt = 0
		case llmclient.IsContextLengthExceeded(err):
			if truncated {
				return "", errContextExceeded(err)
			}
			turns = turns[len(turns)/2:]
			truncated = true
			log.InfoContext(ctx, "history halved after context overflow", slog.Int("turns", len(turns)))
			if err := s.history.Replace(ctx, sessionID, turns); err != nil {
				return "", errAPI(err)
			}
		case llmclient.IsRateLimited(err):
			attempt++
			wait, ok := llmclient.RetryAfter(err)
			if !ok {
				wait = s.cfg.Backoff * time.Duration(1<<(attempt-1))
			}
			log.InfoContext(ctx, "rate limited",
				slog.String("key", logging.MaskKey(key)),
				slog.Int("attempt", attempt),
				slog.Duration("wait", wait))
			if err := s.sleep(ctx, wait); err != nil {
				return "", err
			}
			if attempt > s.cfg.MaxRetries {
				if key, ok = s.rotate(key); !ok {
					return "", errAllBlocked(err)
				}
				attempt = 0
			}
		case errors.Is(err, llmclient.ErrEmptyResponse):
			return "", errEmptyResponse()
		default:
			return "", errAPI(err)
		}
	}

	if strings.TrimSpace(answer) == "" {
		return "", errEmptyResponse()
	}
	if err := s.history.Append(ctx, sessionID, llmclient.Message{Role: llmclient.RoleAssistant, Content: answer}); err != nil {
		return "", errAPI(err)
	}
	return answer, nil
}

func (s *Service) rotate(blocked string) (string, bool) {
	s.keys.MarkBlocked(blocked)
	return s.keys.Rotate()
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
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
