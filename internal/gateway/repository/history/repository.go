// Package history stores the per-session conversation that is replayed to
// the model on every chat turn.
package history

import (
	"context"
	"fmt"
	"strings"

	llmclient "geomentor/internal/llm/client"
)

type Store interface {
	Load(ctx context.Context, sessionID string) ([]llmclient.Message, error)
	Append(ctx context.Context, sessionID string, msgs ...llmclient.Message) error
	// Replace overwrites the whole history of a session.
	Replace(ctx context.Context, sessionID string, msgs []llmclient.Message) error
	Clear(ctx context.Context, sessionID string) error
}

const DefaultSession = "default"

func normalizeSession(id string) string {
	id = strings.TrimSpace(id)
	if id == "" {
		return DefaultSession
	}
	return id
}

func checkStore(ok bool) error {
	if !ok {
		return fmt.Errorf("store is nil")
	}
	return nil
}
