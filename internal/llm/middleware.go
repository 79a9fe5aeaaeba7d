package llm

import (
	"context"
	"log/slog"
	"time"

	llmclient "geomentor/internal/llm/client"
	"geomentor/internal/logging"
)

// Middleware decorates a ChatClient to inject cross-cutting concerns
// (rate limiting, logging).
type Middleware func(llmclient.ChatClient) llmclient.ChatClient

// Wrap applies middlewares in left-to-right order.
// Example: Wrap(inner, A, B) => A(B(inner))
func Wrap(inner llmclient.ChatClient, mws ...Middleware) llmclient.ChatClient {
	out := inner
	for i := len(mws) - 1; i >= 0; i-- {
		out = mws[i](out)
	}
	return out
}

// -------- Rate Limiting --------

// RateLimit limits request rate using the token-bucket rpsLimiter.
// If rps <= 0, the limiter is effectively disabled.
func RateLimit(rps float64, burst int) Middleware {
	return func(next llmclient.ChatClient) llmclient.ChatClient {
		return &rateLimited{next: next, rl: newRPSLimiter(rps, burst)}
	}
}

type rateLimited struct {
	next llmclient.ChatClient
	rl   *rpsLimiter
}

func (c *rateLimited) Name() string { return c.next.Name() }
func (c *rateLimited) Close() error {
	c.rl.Stop()
	return c.next.Close()
}

func (c *rateLimited) Complete(ctx context.Context, req llmclient.ChatRequest) (string, error) {
	if err := c.rl.Acquire(ctx); err != nil {
		return "", err
	}
	return c.next.Complete(ctx, req)
}

// -------- Logging --------

// WithLogging logs request size, latency and errors. A nil logger falls back
// to the logger carried by the request context.
func WithLogging(logger *slog.Logger) Middleware {
	return func(next llmclient.ChatClient) llmclient.ChatClient {
		return &logged{next: next, log: logger}
	}
}

type logged struct {
	next llmclient.ChatClient
	log  *slog.Logger
}

func (l *logged) Name() string { return l.next.Name() }
func (l *logged) Close() error { return l.next.Close() }

func (l *logged) Complete(ctx context.Context, req llmclient.ChatRequest) (string, error) {
	log := l.log
	if log == nil {
		log = logging.FromContext(ctx)
	}
	size := 0
	for _, m := range req.Messages {
		size += len(m.Content)
	}
	start := time.Now()
	text, err := l.next.Complete(ctx, req)
	attrs := []any{
		slog.String("client", l.next.Name()),
		slog.String("key", logging.MaskKey(req.APIKey)),
		slog.Int("messages", len(req.Messages)),
		slog.Int("bytes", size),
		slog.Duration("elapsed", time.Since(start)),
	}
	if err != nil {
		log.WarnContext(ctx, "llm request failed", append(attrs, slog.Any("err", err))...)
		return text, err
	}
	log.DebugContext(ctx, "llm request", attrs...)
	return text, nil
}
