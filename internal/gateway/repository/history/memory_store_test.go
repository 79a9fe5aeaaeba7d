package history

import (
	"context"
	"testing"

	llmclient "geomentor/internal/llm/client"
)

func msg(role, content string) llmclient.Message {
	return llmclient.Message{Role: role, Content: content}
}

func TestMemoryStoreAppendLoadClear(t *testing.T) {
	s, err := NewMemoryStore(8)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	ctx := context.Background()

	if err := s.Append(ctx, "s1", msg(llmclient.RoleUser, "Что такое луч?")); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := s.Append(ctx, "s1", msg(llmclient.RoleAssistant, "Часть прямой.")); err != nil {
		t.Fatalf("append: %v", err)
	}
	got, err := s.Load(ctx, "s1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 2 || got[0].Role != llmclient.RoleUser || got[1].Content != "Часть прямой." {
		t.Fatalf("unexpected history: %+v", got)
	}

	if err := s.Clear(ctx, "s1"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	got, _ = s.Load(ctx, "s1")
	if len(got) != 0 {
		t.Fatalf("expected empty history after clear, got %d", len(got))
	}
}

func TestMemoryStoreSessionsAreIsolated(t *testing.T) {
	s, _ := NewMemoryStore(8)
	ctx := context.Background()
	_ = s.Append(ctx, "a", msg(llmclient.RoleUser, "one"))
	_ = s.Append(ctx, "", msg(llmclient.RoleUser, "default"))

	a, _ := s.Load(ctx, "a")
	d, _ := s.Load(ctx, DefaultSession)
	if len(a) != 1 || a[0].Content != "one" {
		t.Fatalf("session a: %+v", a)
	}
	if len(d) != 1 || d[0].Content != "default" {
		t.Fatalf("default session: %+v", d)
	}
}

func TestMemoryStoreReplace(t *testing.T) {
	s, _ := NewMemoryStore(8)
	ctx := context.Background()
	for _, c := range []string{"1", "2", "3", "4"} {
		_ = s.Append(ctx, "s", msg(llmclient.RoleUser, c))
	}
	cur, _ := s.Load(ctx, "s")
	if err := s.Replace(ctx, "s", cur[len(cur)/2:]); err != nil {
		t.Fatalf("replace: %v", err)
	}
	got, _ := s.Load(ctx, "s")
	if len(got) != 2 || got[0].Content != "3" {
		t.Fatalf("unexpected history after replace: %+v", got)
	}
}

func TestMemoryStoreEvictsLeastRecentlyUsed(t *testing.T) {
	s, _ := NewMemoryStore(2)
	ctx := context.Background()
	_ = s.Append(ctx, "a", msg(llmclient.RoleUser, "a"))
	_ = s.Append(ctx, "b", msg(llmclient.RoleUser, "b"))
	_, _ = s.Load(ctx, "a")
	_ = s.Append(ctx, "c", msg(llmclient.RoleUser, "c"))

	if s.Len() != 2 {
		t.Fatalf("len = %d", s.Len())
	}
	if got, _ := s.Load(ctx, "b"); len(got) != 0 {
		t.Fatalf("expected b to be evicted")
	}
	if got, _ := s.Load(ctx, "a"); len(got) != 1 {
		t.Fatalf("expected a to remain")
	}
}

func TestMemoryStoreLoadReturnsCopy(t *testing.T) {
	s, _ := NewMemoryStore(2)
	ctx := context.Background()
	_ = s.Append(ctx, "a", msg(llmclient.RoleUser, "orig"))
	got, _ := s.Load(ctx, "a")
	got[0].Content = "changed"
	again, _ := s.Load(ctx, "a")
	if again[0].Content != "orig" {
		t.Fatalf("store shares slice with caller")
	}
}
