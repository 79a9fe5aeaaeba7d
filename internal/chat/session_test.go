package chat

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type senderFunc func(ctx context.Context, text string) (string, error)

func (f senderFunc) Send(ctx context.Context, text string) (string, error) { return f(ctx, text) }

type countingSender struct {
	mu    sync.Mutex
	calls []string
	reply func(text string) (string, error)
}

func (c *countingSender) Send(_ context.Context, text string) (string, error) {
	c.mu.Lock()
	c.calls = append(c.calls, text)
	c.mu.Unlock()
	return c.reply(text)
}

func quietLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestSubmitAppendsUserThenAssistant(t *testing.T) {
	s := New(senderFunc(func(_ context.Context, text string) (string, error) {
		assert.Equal(t, "What is a ray?", text)
		return "A ray is part of a line with one endpoint.", nil
	}), WithLogger(quietLogger()))

	msg, err := s.Submit(context.Background(), "  What is a ray?  ")
	require.NoError(t, err)
	assert.Equal(t, RoleAssistant, msg.Role)

	got := s.Transcript()
	require.Len(t, got, 2)
	assert.Equal(t, RoleUser, got[0].Role)
	assert.Equal(t, "What is a ray?", got[0].Content)
	assert.Equal(t, RoleAssistant, got[1].Role)
	assert.Equal(t, "A ray is part of a line with one endpoint.", got[1].Content)
	assert.Equal(t, StateIdle, s.State())
	assert.NoError(t, s.Err())
}

func TestEmptyInputSendsNothing(t *testing.T) {
	sender := &countingSender{reply: func(string) (string, error) { return "x", nil }}
	s := New(sender, WithLogger(quietLogger()))

	for _, in := range []string{"", "   ", "\n\t "} {
		_, err := s.Submit(context.Background(), in)
		assert.ErrorIs(t, err, ErrEmptyInput)
	}
	assert.Empty(t, s.Transcript())
	assert.Empty(t, sender.calls)
	assert.Equal(t, StateIdle, s.State())
}

func TestSecondSubmissionRejectedWhilePending(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	s := New(senderFunc(func(context.Context, string) (string, error) {
		close(started)
		<-release
		return "first reply", nil
	}), WithLogger(quietLogger()))

	done := make(chan error, 1)
	go func() {
		_, err := s.Submit(context.Background(), "first")
		done <- err
	}()
	<-started

	assert.Equal(t, StateSending, s.State())
	_, err := s.Submit(context.Background(), "second")
	assert.ErrorIs(t, err, ErrBusy)
	_, err = s.Begin("third")
	assert.ErrorIs(t, err, ErrBusy)

	close(release)
	require.NoError(t, <-done)

	got := s.Transcript()
	require.Len(t, got, 2)
	assert.Equal(t, "first", got[0].Content)
	assert.Equal(t, "first reply", got[1].Content)
}

func TestFailureAppendsFallback(t *testing.T) {
	cause := errors.New("request failed: 503 Service Unavailable: all keys blocked")
	s := New(senderFunc(func(context.Context, string) (string, error) {
		return "server payload that must not show", cause
	}), WithLogger(quietLogger()))

	msg, err := s.Submit(context.Background(), "Докажите, что вертикальные углы равны")
	require.NoError(t, err)
	assert.Equal(t, FallbackReply, msg.Content)

	got := s.Transcript()
	require.Len(t, got, 2)
	assert.Equal(t, Message{Role: RoleAssistant, Content: "Произошла ошибка при отправке сообщения. Попробуйте позже.", At: got[1].At}, got[1])
	assert.ErrorIs(t, s.Err(), cause)
	assert.Equal(t, StateIdle, s.State())
}

func TestFailureIsLogged(t *testing.T) {
	var buf bytes.Buffer
	s := New(senderFunc(func(context.Context, string) (string, error) {
		return "", errors.New("connection refused")
	}), WithLogger(slog.New(slog.NewTextHandler(&buf, nil))))

	_, err := s.Submit(context.Background(), "hi")
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "connection refused")
}

func TestErrClearedAfterSuccess(t *testing.T) {
	fail := true
	s := New(senderFunc(func(context.Context, string) (string, error) {
		if fail {
			return "", errors.New("boom")
		}
		return "ok", nil
	}), WithLogger(quietLogger()))

	_, _ = s.Submit(context.Background(), "one")
	require.Error(t, s.Err())
	fail = false
	_, _ = s.Submit(context.Background(), "two")
	assert.NoError(t, s.Err())
}

func TestTranscriptOrderFollowsSubmissions(t *testing.T) {
	s := New(senderFunc(func(_ context.Context, text string) (string, error) {
		if text == "q2" {
			return "", errors.New("down")
		}
		return "re:" + text, nil
	}), WithLogger(quietLogger()))

	for i := 1; i <= 4; i++ {
		_, err := s.Submit(context.Background(), fmt.Sprintf("q%d", i))
		require.NoError(t, err)
	}
	want := []string{"q1", "re:q1", "q2", FallbackReply, "q3", "re:q3", "q4", "re:q4"}
	got := s.Transcript()
	require.Len(t, got, len(want))
	for i, m := range got {
		assert.Equal(t, want[i], m.Content, "entry %d", i)
		if i%2 == 0 {
			assert.Equal(t, RoleUser, m.Role)
		} else {
			assert.Equal(t, RoleAssistant, m.Role)
		}
	}
}

func TestTranscriptIsACopy(t *testing.T) {
	s := New(senderFunc(func(context.Context, string) (string, error) { return "ok", nil }), WithLogger(quietLogger()))
	_, _ = s.Submit(context.Background(), "hello")

	snap := s.Transcript()
	snap[0].Content = "mutated"
	assert.Equal(t, "hello", s.Transcript()[0].Content)
}

func TestBeginAppendsUserImmediately(t *testing.T) {
	s := New(nil, WithLogger(quietLogger()))
	p, err := s.Begin("What is a ray?")
	require.NoError(t, err)

	got := s.Transcript()
	require.Len(t, got, 1)
	assert.Equal(t, RoleUser, got[0].Role)
	assert.Equal(t, StateSending, s.State())

	_, err = s.Resolve(p, "reply", nil)
	require.NoError(t, err)
	_, err = s.Resolve(p, "again", nil)
	assert.ErrorIs(t, err, ErrNotPending)
	assert.Len(t, s.Transcript(), 2)
}

func TestResolveRejectsStalePending(t *testing.T) {
	s := New(nil, WithLogger(quietLogger()))
	first, err := s.Begin("one")
	require.NoError(t, err)
	_, err = s.Resolve(first, "r1", nil)
	require.NoError(t, err)

	_, err = s.Begin("two")
	require.NoError(t, err)
	_, err = s.Resolve(first, "late", nil)
	assert.ErrorIs(t, err, ErrNotPending)
	assert.Equal(t, StateSending, s.State())
}

func TestSubscribersSeeEveryTransition(t *testing.T) {
	s := New(senderFunc(func(context.Context, string) (string, error) {
		return "", errors.New("HTTP 500")
	}), WithLogger(quietLogger()))

	var events []Event
	s.Subscribe(func(ev Event) { events = append(events, ev) })

	_, err := s.Submit(context.Background(), "hi")
	require.NoError(t, err)

	require.Len(t, events, 3)
	assert.Equal(t, StateIdle, events[0].From)
	assert.Equal(t, StateSending, events[0].To)
	assert.Len(t, events[0].Transcript, 1)
	assert.Equal(t, StateFailed, events[1].To)
	assert.Len(t, events[1].Transcript, 2)
	assert.Equal(t, StateFailed, events[2].From)
	assert.Equal(t, StateIdle, events[2].To)
}

func TestSubscriberMayReadSession(t *testing.T) {
	s := New(senderFunc(func(context.Context, string) (string, error) { return "ok", nil }), WithLogger(quietLogger()))
	var states []State
	s.Subscribe(func(Event) { states = append(states, s.State()) })

	_, err := s.Submit(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, []State{StateSending, StateIdle, StateIdle}, states)
}
