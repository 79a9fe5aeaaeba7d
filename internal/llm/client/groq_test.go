package llmclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGroq(t *testing.T, h http.HandlerFunc) *GroqClient {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewGroqClient("default-key", "openai/gpt-oss-20b", WithGroqBaseURL(srv.URL))
}

func TestGroqComplete_SendsConversation(t *testing.T) {
	var got groqChatReq
	var auth string
	cli := newTestGroq(t, func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"Вспомним теорему о биссектрисе."}}]}`))
	})

	text, err := cli.Complete(context.Background(), ChatRequest{
		APIKey:      "rotated-key",
		Messages:    []Message{{Role: RoleSystem, Content: "sys"}, {Role: RoleUser, Content: "Что такое луч?"}},
		MaxTokens:   1000,
		Temperature: 0.7,
	})
	require.NoError(t, err)
	assert.Equal(t, "Вспомним теорему о биссектрисе.", text)
	assert.Equal(t, "Bearer rotated-key", auth)
	assert.Equal(t, "openai/gpt-oss-20b", got.Model)
	assert.Equal(t, 1000, got.MaxTokens)
	assert.Len(t, got.Messages, 2)
	assert.Nil(t, got.ResponseFormat)
}

func TestGroqComplete_JSONModeRejectsInvalidJSON(t *testing.T) {
	cli := newTestGroq(t, func(w http.ResponseWriter, r *http.Request) {
		var req groqChatReq
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.ResponseFormat["type"] != "json_object" {
			t.Errorf("response_format = %v", req.ResponseFormat)
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"not json"}}]}`))
	})
	_, err := cli.Complete(context.Background(), ChatRequest{JSON: true})
	assert.ErrorIs(t, err, ErrInvalidJSON)
}

func TestGroqComplete_StatusErrors(t *testing.T) {
	cases := []struct {
		name      string
		status    int
		body      string
		headers   map[string]string
		blocked   bool
		limited   bool
		context   bool
		permanent bool
		wait      time.Duration
	}{
		{name: "rate limited", status: 429, body: `{"error":{"message":"Rate limit reached"}}`, headers: map[string]string{"retry-after": "7"}, limited: true, wait: 7 * time.Second},
		{name: "blocked", status: 400, body: `{"error":{"code":"blocked_api_access"}}`, blocked: true},
		{name: "unauthorized", status: 401, body: `{"error":{"message":"Invalid API Key"}}`, blocked: true},
		{name: "context", status: 400, body: `{"error":{"code":"context_length_exceeded"}}`, context: true, permanent: true},
		{name: "server", status: 500, body: `oops`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cli := newTestGroq(t, func(w http.ResponseWriter, r *http.Request) {
				for k, v := range tc.headers {
					w.Header().Set(k, v)
				}
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			})
			_, err := cli.Complete(context.Background(), ChatRequest{Messages: []Message{{Role: RoleUser, Content: "x"}}})
			require.Error(t, err)

			var se *StatusError
			require.True(t, errors.As(err, &se))
			assert.Equal(t, tc.status, se.StatusCode)
			assert.Equal(t, tc.blocked, IsBlockedAccess(err))
			assert.Equal(t, tc.limited, IsRateLimited(err))
			assert.Equal(t, tc.context, IsContextLengthExceeded(err))

			var pe *PermanentError
			assert.Equal(t, tc.permanent, errors.As(err, &pe))

			wait, ok := RetryAfter(err)
			assert.Equal(t, tc.wait > 0, ok)
			assert.Equal(t, tc.wait, wait)
		})
	}
}

func TestGroqComplete_CapturesRateLimitHeaders(t *testing.T) {
	cli := newTestGroq(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("x-ratelimit-remaining-tokens", "17997")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	})
	var seen RateLimitHeaders
	cli.SetRateLimitHeaderHandler(func(h RateLimitHeaders) { seen = h })

	_, err := cli.Complete(context.Background(), ChatRequest{})
	require.NoError(t, err)
	last, ok := cli.LastRateLimitHeaders()
	require.True(t, ok)
	assert.Equal(t, 17997, last.RemainingTokens)
	assert.Equal(t, last, seen)
}

func TestGroqComplete_NoChoices(t *testing.T) {
	cli := newTestGroq(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	})
	_, err := cli.Complete(context.Background(), ChatRequest{})
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestGroqComplete_ErrorInOKBodyIsBlocked(t *testing.T) {
	cli := newTestGroq(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":{"code":"blocked_api_access","message":"API calls from any key in your organization are blocked"}}`))
	})
	_, err := cli.Complete(context.Background(), ChatRequest{})
	require.Error(t, err)
	assert.True(t, IsBlockedAccess(err))
}
