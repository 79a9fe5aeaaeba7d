package history

import (
	"context"
	"sync"

	"github.com/hashicorp/golang-lru/v2"

	llmclient "geomentor/internal/llm/client"
)

// MemoryStore keeps the most recently active sessions in process memory.
// Sessions beyond the capacity are evicted least recently used first.
type MemoryStore struct {
	mu       sync.Mutex
	sessions *lru.Cache[string, []llmclient.Message]
}

func NewMemoryStore(size int) (*MemoryStore, error) {
	if size <= 0 {
		size = 1024
	}
	cache, err := lru.New[string, []llmclient.Message](size)
	if err != nil {
		return nil, err
	}
	return &MemoryStore{sessions: cache}, nil
}

func (s *MemoryStore) Load(_ context.Context, sessionID string) ([]llmclient.Message, error) {
	if err := checkStore(s != nil); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	msgs, _ := s.sessions.Get(normalizeSession(sessionID))
	return append([]llmclient.Message(nil), msgs...), nil
}

func (s *MemoryStore) Append(_ context.Context, sessionID string, msgs ...llmclient.Message) error {
	if err := checkStore(s != nil); err != nil {
		return err
	}
	id := normalizeSession(sessionID)
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, _ := s.sessions.Get(id)
	next := make([]llmclient.Message, 0, len(cur)+len(msgs))
	next = append(next, cur...)
	next = append(next, msgs...)
	s.sessions.Add(id, next)
	return nil
}

func (s *MemoryStore) Replace(_ context.Context, sessionID string, msgs []llmclient.Message) error {
	if err := checkStore(s != nil); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions.Add(normalizeSession(sessionID), append([]llmclient.Message(nil), msgs...))
	return nil
}

func (s *MemoryStore) Clear(_ context.Context, sessionID string) error {
	if err := checkStore(s != nil); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions.Remove(normalizeSession(sessionID))
	return nil
}

// Len reports the number of live sessions.
func (s *MemoryStore) Len() int {
	if s == nil {
		return 0
	}
	return s.sessions.Len()
}
