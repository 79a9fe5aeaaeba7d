// Package handler exposes the assistant and test generator over JSON HTTP
// and a websocket.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"geomentor/internal/gateway/repository/history"
	"geomentor/internal/gateway/service/assistant"
	"geomentor/internal/gateway/service/testgen"
	"geomentor/internal/logging"
	"geomentor/internal/quiz"
)

const (
	SessionHeader = "X-Session-ID"
	maxBodyBytes  = 1 << 20
)

type Assistant interface {
	Reply(ctx context.Context, sessionID, text string) (string, error)
}

type TestGenerator interface {
	Generate(ctx context.Context, topic string, n int) (testgen.Result, error)
	Lookup(ctx context.Context, id string) (quiz.Test, error)
}

type Handler struct {
	assistant Assistant
	tests     TestGenerator

	wsPongWait time.Duration
}

type Option func(*Handler)

// WithChatWSPongWait sets how long a chat websocket may stay silent before it
// is dropped. Pings are sent at nine tenths of it.
func WithChatWSPongWait(d time.Duration) Option {
	return func(h *Handler) {
		if d > 0 {
			h.wsPongWait = d
		}
	}
}

func New(a Assistant, t TestGenerator, opts ...Option) *Handler {
	h := &Handler{assistant: a, tests: t, wsPongWait: chatWSPongWait}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is empty")
		}
		return errors.New("invalid JSON body")
	}
	return nil
}

// sessionID picks the learner session from the header, then the query.
func sessionID(r *http.Request) string {
	if id := strings.TrimSpace(r.Header.Get(SessionHeader)); id != "" {
		return id
	}
	if id := strings.TrimSpace(r.URL.Query().Get("session_id")); id != "" {
		return id
	}
	return history.DefaultSession
}

// replyStatus maps an assistant failure onto a status and message.
func replyStatus(ctx context.Context, err error) (int, string) {
	var ae *assistant.Error
	if errors.As(err, &ae) {
		if ae.Status >= http.StatusInternalServerError {
			logging.FromContext(ctx).ErrorContext(ctx, "chat failed", slog.Int("status", ae.Status), slog.Any("err", err))
		}
		return ae.Status, ae.Message
	}
	logging.FromContext(ctx).ErrorContext(ctx, "chat failed", slog.Any("err", err))
	return http.StatusInternalServerError, "API error: " + err.Error()
}
