package assistant

import (
	"fmt"
	"net/http"
)

// Error carries the HTTP status the chat endpoint answers with.
type Error struct {
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string { return e.Message }
func (e *Error) Unwrap() error { return e.Err }

func errEmptyMessage() error {
	return &Error{Status: http.StatusBadRequest, Message: "Empty message"}
}

func errNoKeys() error {
	return &Error{Status: http.StatusServiceUnavailable, Message: "No available API keys"}
}

func errAllBlocked(cause error) error {
	return &Error{Status: http.StatusServiceUnavailable, Message: "All API keys blocked", Err: cause}
}

func errContextExceeded(cause error) error {
	return &Error{Status: http.StatusBadRequest, Message: "Context length exceeded after truncation", Err: cause}
}

func errEmptyResponse() error {
	return &Error{Status: http.StatusInternalServerError, Message: "Empty response from API"}
}

func errAPI(cause error) error {
	return &Error{Status: http.StatusInternalServerError, Message: fmt.Sprintf("API error: %v", cause), Err: cause}
}
