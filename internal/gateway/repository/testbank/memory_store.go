package testbank

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"geomentor/internal/quiz"
)

type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]quiz.Test
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]quiz.Test)}
}

func (s *MemoryStore) Put(_ context.Context, id string, t quiz.Test) error {
	if s == nil {
		return fmt.Errorf("store is nil")
	}
	id, err := normalizeID(id)
	if err != nil {
		return err
	}
	t.Questions = append([]quiz.Question(nil), t.Questions...)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[id] = t
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (quiz.Test, error) {
	if s == nil {
		return quiz.Test{}, fmt.Errorf("store is nil")
	}
	id, err := normalizeID(id)
	if err != nil {
		return quiz.Test{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.data[id]
	if !ok {
		return quiz.Test{}, ErrNotFound
	}
	return t, nil
}

func (s *MemoryStore) List(_ context.Context) ([]string, error) {
	if s == nil {
		return nil, fmt.Errorf("store is nil")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
