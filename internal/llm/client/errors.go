package llmclient

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	genai "google.golang.org/genai"
)

var (
	ErrInvalidJSON   = errors.New("invalid json from LLM")
	ErrEmptyResponse = errors.New("empty response from LLM")
)

// PermanentError indicates an error that will not resolve with retries.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

func NewPermanentError(err error) error {
	return &PermanentError{Err: err}
}

// StatusError is returned when a provider answers with a non-2xx status.
type StatusError struct {
	Provider   string
	StatusCode int
	Status     string
	Body       string
	RetryAfter time.Duration
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %s: %s", e.Provider, e.Status, e.Body)
}

func statusOf(err error) (int, string) {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode, strings.ToLower(se.Body)
	}
	var ae genai.APIError
	if errors.As(err, &ae) {
		return ae.Code, strings.ToLower(ae.Message + " " + ae.Status)
	}
	return 0, strings.ToLower(err.Error())
}

// IsBlockedAccess reports whether the key used for the call can no longer be used.
func IsBlockedAccess(err error) bool {
	if err == nil {
		return false
	}
	status, text := statusOf(err)
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return true
	}
	return strings.Contains(text, "blocked_api_access") ||
		strings.Contains(text, "api calls from any key in your organization")
}

// IsRateLimited reports whether the provider throttled the call.
func IsRateLimited(err error) bool {
	if err == nil {
		return false
	}
	status, text := statusOf(err)
	if status == http.StatusTooManyRequests {
		return true
	}
	if status == 0 && strings.Contains(text, "429") {
		return true
	}
	return strings.Contains(text, "rate limit") ||
		strings.Contains(text, "too many requests") ||
		strings.Contains(text, "resource_exhausted")
}

// IsContextLengthExceeded reports whether the prompt did not fit the model context.
func IsContextLengthExceeded(err error) bool {
	if err == nil {
		return false
	}
	status, text := statusOf(err)
	if status != 0 && status != http.StatusBadRequest && status != http.StatusRequestEntityTooLarge {
		return false
	}
	for _, marker := range []string{
		"context_length_exceeded",
		"maximum context length",
		"tokens. however, your messages resulted in",
		"request body is too large",
		"request too large",
		"exceeds the maximum number of tokens",
	} {
		if strings.Contains(text, marker) {
			return true
		}
	}
	return false
}

// RetryAfter returns the provider supplied wait hint, if any.
func RetryAfter(err error) (time.Duration, bool) {
	var se *StatusError
	if errors.As(err, &se) && se.RetryAfter > 0 {
		return se.RetryAfter, true
	}
	return 0, false
}
