// Package testbank archives generated tests so they can be fetched again by id.
package testbank

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"geomentor/internal/quiz"
)

// Store persists generated tests keyed by id.
type Store interface {
	Put(ctx context.Context, id string, t quiz.Test) error
	Get(ctx context.Context, id string) (quiz.Test, error)
	List(ctx context.Context) ([]string, error)
}

var (
	ErrNotFound  = errors.New("test not found")
	ErrInvalidID = errors.New("invalid test id")
)

func normalizeID(id string) (string, error) {
	id = strings.Trim(strings.TrimSpace(id), "/")
	if id == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidID)
	}
	if strings.Contains(id, "..") || strings.Contains(id, "/") {
		return "", fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return id, nil
}
