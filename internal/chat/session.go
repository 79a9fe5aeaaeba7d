// Package chat holds the state of one chat view: the transcript and the
// single pending request. It is mutated only through Begin and Resolve and
// observed by subscribers that render it.
package chat

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// FallbackReply replaces the assistant reply when a request fails.
const FallbackReply = "Произошла ошибка при отправке сообщения. Попробуйте позже."

var (
	ErrEmptyInput = errors.New("chat: empty message")
	ErrBusy       = errors.New("chat: a request is already pending")
	ErrNotPending = errors.New("chat: no matching pending request")
)

type Message struct {
	Role    Role
	Content string
	At      time.Time
}

type State int

const (
	StateIdle State = iota
	StateSending
	StateSuccess
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSending:
		return "sending"
	case StateSuccess:
		return "success"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Sender delivers one user message to the assistant service.
type Sender interface {
	Send(ctx context.Context, text string) (string, error)
}

// Event describes one state transition.
type Event struct {
	From       State
	To         State
	Transcript []Message
}

// Pending identifies the request started by Begin.
type Pending struct {
	seq  uint64
	Text string
}

type Option func(*Session)

func WithLogger(l *slog.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.log = l
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		if now != nil {
			s.now = now
		}
	}
}

// Session is safe for concurrent use, but admits one request at a time.
type Session struct {
	sender Sender
	log    *slog.Logger
	now    func() time.Time

	mu         sync.Mutex
	transcript []Message
	state      State
	seq        uint64
	lastErr    error
	observers  []func(Event)
}

func New(sender Sender, opts ...Option) *Session {
	s := &Session{
		sender: sender,
		log:    slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Subscribe registers fn to be called after every transition. Callbacks run
// synchronously on the goroutine performing the transition.
func (s *Session) Subscribe(fn func(Event)) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	s.observers = append(s.observers, fn)
	s.mu.Unlock()
}

// Begin accepts text for sending and appends the user entry.
func (s *Session) Begin(text string) (Pending, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Pending{}, ErrEmptyInput
	}
	s.mu.Lock()
	if s.state == StateSending {
		s.mu.Unlock()
		return Pending{}, ErrBusy
	}
	s.transcript = append(s.transcript, Message{Role: RoleUser, Content: text, At: s.now()})
	s.seq++
	p := Pending{seq: s.seq, Text: text}
	events := []Event{s.transitionLocked(StateSending)}
	obs := s.observersLocked()
	s.mu.Unlock()

	notify(obs, events)
	return p, nil
}

// Resolve completes the pending request. A nil err appends reply, anything
// else appends FallbackReply. The session returns to idle either way.
func (s *Session) Resolve(p Pending, reply string, err error) (Message, error) {
	s.mu.Lock()
	if s.state != StateSending || p.seq != s.seq {
		s.mu.Unlock()
		return Message{}, ErrNotPending
	}
	outcome := StateSuccess
	content := reply
	if err != nil {
		outcome = StateFailed
		content = FallbackReply
		s.lastErr = err
		s.log.Warn("chat request failed", slog.Any("err", err))
	} else {
		s.lastErr = nil
	}
	msg := Message{Role: RoleAssistant, Content: content, At: s.now()}
	s.transcript = append(s.transcript, msg)
	events := []Event{s.transitionLocked(outcome), s.transitionLocked(StateIdle)}
	obs := s.observersLocked()
	s.mu.Unlock()

	notify(obs, events)
	return msg, nil
}

// Submit runs one full exchange and blocks until the assistant entry is
// appended. The returned error is only ErrEmptyInput or ErrBusy; request
// failures are reported through the fallback entry and Err.
func (s *Session) Submit(ctx context.Context, text string) (Message, error) {
	p, err := s.Begin(text)
	if err != nil {
		return Message{}, err
	}
	return s.Deliver(ctx, p)
}

// Deliver sends the text accepted by Begin and resolves p with the outcome.
// Callers that must not block, like a UI event loop, run it on their own
// goroutine.
func (s *Session) Deliver(ctx context.Context, p Pending) (Message, error) {
	reply, err := s.sender.Send(ctx, p.Text)
	return s.Resolve(p, reply, err)
}

func (s *Session) Transcript() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Message(nil), s.transcript...)
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err returns the error behind the most recent fallback entry, or nil when
// the last request succeeded.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

func (s *Session) transitionLocked(to State) Event {
	ev := Event{From: s.state, To: to, Transcript: append([]Message(nil), s.transcript...)}
	s.state = to
	return ev
}

func (s *Session) observersLocked() []func(Event) {
	return slices.Clone(s.observers)
}

func notify(obs []func(Event), events []Event) {
	for _, ev := range events {
		for _, fn := range obs {
			fn(ev)
		}
	}
}
