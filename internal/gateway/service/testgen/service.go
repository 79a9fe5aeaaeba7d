// Package testgen asks the model for multiple-choice tests, caches them per
// topic and archives every generated test in the test bank.
package testgen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"geomentor/internal/gateway/repository/testbank"
	llmclient "geomentor/internal/llm/client"
	"geomentor/internal/llm/keyring"
	"geomentor/internal/llm/prompt"
	"geomentor/internal/logging"
	"geomentor/internal/quiz"
)

var (
	ErrNoAPIKey         = errors.New("testgen: api key not found")
	ErrGenerationFailed = errors.New("testgen: failed to generate test")
)

type Config struct {
	Model       string
	MaxTokens   int
	Temperature float32
	CacheSize   int
	CacheTTL    time.Duration
}

// Result is a generated test together with its id in the bank.
type Result struct {
	ID     string    `json:"id,omitempty"`
	Test   quiz.Test `json:"test"`
	Cached bool      `json:"-"`
}

type Service struct {
	llm   llmclient.ChatClient
	keys  *keyring.Ring
	bank  testbank.Store
	cfg   Config
	cache *expirable.LRU[string, Result]
	newID func() string
}

func New(llm llmclient.ChatClient, keys *keyring.Ring, bank testbank.Store, cfg Config) *Service {
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = 256
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = time.Hour
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 4000
	}
	return &Service{
		llm:   llm,
		keys:  keys,
		bank:  bank,
		cfg:   cfg,
		cache: expirable.NewLRU[string, Result](cfg.CacheSize, nil, cfg.CacheTTL),
		newID: uuid.NewString,
	}
}

// Generate returns a test of at most n questions on topic.
func (s *Service) Generate(ctx context.Context, topic string, n int) (Result, error) {
	topic = strings.TrimSpace(topic)
	log := logging.FromContext(ctx).With(slog.String("topic", topic), slog.Int("num_questions", n))

	key, ok := s.keys.Current()
	if !ok {
		return Result{}, ErrNoAPIKey
	}
	ck := cacheKey(topic, n)
	if res, ok := s.cache.Get(ck); ok {
		res.Cached = true
		log.DebugContext(ctx, "test served from cache", slog.String("id", res.ID))
		return res, nil
	}

	req := llmclient.ChatRequest{
		Model: s.cfg.Model,
		Messages: []llmclient.Message{
			{Role: llmclient.RoleSystem, Content: prompt.TestSystemPrompt},
			{Role: llmclient.RoleUser, Content: prompt.TestUserPrompt(topic, n)},
		},
		MaxTokens:   s.cfg.MaxTokens,
		Temperature: s.cfg.Temperature,
		JSON:        true,
	}
	var raw string
	var err error
	for {
		req.APIKey = key
		raw, err = s.llm.Complete(ctx, req)
		if err == nil || !llmclient.IsBlockedAccess(err) {
			break
		}
		log.WarnContext(ctx, "api key blocked", slog.String("key", logging.MaskKey(key)))
		s.keys.MarkBlocked(key)
		if key, ok = s.keys.Rotate(); !ok {
			break
		}
	}
	if err != nil {
		log.ErrorContext(ctx, "test generation failed", slog.Any("err", err))
		return Result{}, fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}

	t, err := parseTest(raw)
	if err != nil {
		log.ErrorContext(ctx, "test generation returned an unusable test", slog.Any("err", err))
		return Result{}, fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}
	t.Topic = topic
	t = t.Truncate(n)

	res := Result{Test: t}
	if s.bank != nil {
		id := s.newID()
		if err := s.bank.Put(ctx, id, t); err != nil {
			log.WarnContext(ctx, "archive test failed", slog.Any("err", err))
		} else {
			res.ID = id
		}
	}
	s.cache.Add(ck, res)
	log.InfoContext(ctx, "test generated", slog.String("id", res.ID), slog.Int("questions", len(t.Questions)))
	return res, nil
}

// Lookup fetches an archived test.
func (s *Service) Lookup(ctx context.Context, id string) (quiz.Test, error) {
	if s.bank == nil {
		return quiz.Test{}, testbank.ErrNotFound
	}
	return s.bank.Get(ctx, id)
}

func parseTest(raw string) (quiz.Test, error) {
	var t quiz.Test
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &t); err != nil {
		return quiz.Test{}, fmt.Errorf("decode test: %w", err)
	}
	if err := t.Validate(); err != nil {
		return quiz.Test{}, err
	}
	return t, nil
}

func cacheKey(topic string, n int) string {
	return fmt.Sprintf("%s|%d", strings.ToLower(topic), n)
}
