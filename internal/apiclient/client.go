// Package apiclient talks JSON over HTTP to the assistant service.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"geomentor/internal/quiz"
)

// ErrRequestFailed wraps every transport failure, non-2xx status or
// undecodable body.
var ErrRequestFailed = errors.New("request failed")

const SessionHeader = "X-Session-ID"

type Client struct {
	baseURL   string
	http      *http.Client
	sessionID string
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		if c != nil {
			cl.http = c
		}
	}
}

// WithSessionID tags every request so the service keeps a separate history.
func WithSessionID(id string) Option {
	return func(cl *Client) { cl.sessionID = strings.TrimSpace(id) }
}

// WithTimeout bounds each request. Zero leaves requests unbounded.
func WithTimeout(d time.Duration) Option {
	return func(cl *Client) {
		if d > 0 {
			cl.http = &http.Client{Timeout: d, Transport: cl.http.Transport}
		}
	}
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		http:    &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) SessionID() string { return c.sessionID }

type chatRequest struct {
	Message string `json:"message"`
}

type chatResponse struct {
	Response string `json:"response"`
}

type generateTestRequest struct {
	Topic        string `json:"topic"`
	NumQuestions int    `json:"num_questions"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Send posts one message to /chat and returns the assistant text.
func (c *Client) Send(ctx context.Context, text string) (string, error) {
	var out chatResponse
	if err := c.post(ctx, "/chat", chatRequest{Message: text}, &out); err != nil {
		return "", err
	}
	return out.Response, nil
}

// GenerateTest asks /generate-test for n questions on topic.
func (c *Client) GenerateTest(ctx context.Context, topic string, n int) (quiz.Test, error) {
	var out struct {
		quiz.Test
		Error string `json:"error"`
	}
	if err := c.post(ctx, "/generate-test", generateTestRequest{Topic: topic, NumQuestions: n}, &out); err != nil {
		return quiz.Test{}, err
	}
	if out.Error != "" {
		return quiz.Test{}, fmt.Errorf("%w: %s", ErrRequestFailed, out.Error)
	}
	if err := out.Test.Validate(); err != nil {
		return quiz.Test{}, fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}
	if out.Test.Topic == "" {
		out.Test.Topic = topic
	}
	return out.Test, nil
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.sessionID != "" {
		req.Header.Set(SessionHeader, c.sessionID)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%w: read body: %w", ErrRequestFailed, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var e errorResponse
		if json.Unmarshal(raw, &e) == nil && e.Error != "" {
			return fmt.Errorf("%w: %s: %s", ErrRequestFailed, resp.Status, e.Error)
		}
		return fmt.Errorf("%w: %s", ErrRequestFailed, resp.Status)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: decode %s: %w", ErrRequestFailed, path, err)
	}
	return nil
}
