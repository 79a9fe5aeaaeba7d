// Package tui renders the chat and quiz views in the terminal.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"geomentor/internal/chat"
)

const (
	headerHeight = 2
	footerHeight = 3
)

// deliveredMsg reports that the pending request was resolved.
type deliveredMsg struct {
	msg chat.Message
	err error
}

// ChatModel renders a chat.Session. It observes the session through
// Subscribe; every chat.Event replaces the rendered transcript.
type ChatModel struct {
	ctx     context.Context
	session *chat.Session
	events  chan chat.Event

	transcript []chat.Message

	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model
	renderer *glamour.TermRenderer

	sending bool
	notice  string
	width   int
}

func NewChatModel(ctx context.Context, session *chat.Session) ChatModel {
	ti := textinput.New()
	ti.Placeholder = "Опишите задачу по геометрии…"
	ti.CharLimit = 4000
	ti.Width = 72
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	if ctx == nil {
		ctx = context.Background()
	}
	events := make(chan chat.Event, 16)
	session.Subscribe(func(ev chat.Event) { pushEvent(events, ev) })

	m := ChatModel{
		ctx:        ctx,
		session:    session,
		events:     events,
		transcript: session.Transcript(),
		input:      ti,
		viewport:   viewport.New(80, 20),
		spinner:    sp,
		width:      80,
	}
	m.refresh()
	return m
}

func (m ChatModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.listen())
}

// listen waits for the next session event.
func (m ChatModel) listen() tea.Cmd {
	events, done := m.events, m.ctx.Done()
	return func() tea.Msg {
		select {
		case ev := <-events:
			return ev
		case <-done:
			return nil
		}
	}
}

// pushEvent never blocks the transition that produced ev; when the UI falls
// behind the oldest queued event is dropped.
func pushEvent(ch chan chat.Event, ev chat.Event) {
	select {
	case ch <- ev:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- ev:
	default:
	}
}

func (m ChatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			return m.submit()
		}
		if !m.sending {
			m.input, tiCmd = m.input.Update(msg)
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.viewport.Width = msg.Width
		m.viewport.Height = max(msg.Height-headerHeight-footerHeight, 3)
		m.input.Width = max(msg.Width-4, 10)
		m.renderer, _ = glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(max(msg.Width-4, 20)),
		)
		m.refresh()

	case spinner.TickMsg:
		if m.sending {
			var spCmd tea.Cmd
			m.spinner, spCmd = m.spinner.Update(msg)
			return m, spCmd
		}
		return m, nil

	case chat.Event:
		m.transcript = msg.Transcript
		m.sending = msg.To == chat.StateSending
		var focus tea.Cmd
		if msg.To == chat.StateIdle {
			m.notice = ""
			if err := m.session.Err(); err != nil {
				m.notice = err.Error()
			}
			focus = m.input.Focus()
		}
		m.refresh()
		return m, tea.Batch(m.listen(), focus)

	case deliveredMsg:
		if msg.err != nil {
			m.notice = msg.err.Error()
		}
		return m, nil
	}

	m.viewport, vpCmd = m.viewport.Update(msg)
	return m, tea.Batch(tiCmd, vpCmd)
}

// submit starts a request unless one is already pending.
func (m ChatModel) submit() (tea.Model, tea.Cmd) {
	if m.sending {
		return m, nil
	}
	p, err := m.session.Begin(m.input.Value())
	switch {
	case errors.Is(err, chat.ErrEmptyInput):
		m.input.Reset()
		return m, nil
	case err != nil:
		m.notice = err.Error()
		return m, nil
	}
	m.input.Reset()
	m.input.Blur()
	m.sending = true
	m.notice = ""
	m.refresh()
	return m, tea.Batch(m.spinner.Tick, deliver(m.ctx, m.session, p))
}

func deliver(ctx context.Context, s *chat.Session, p chat.Pending) tea.Cmd {
	return func() tea.Msg {
		msg, err := s.Deliver(ctx, p)
		return deliveredMsg{msg: msg, err: err}
	}
}

func (m *ChatModel) refresh() {
	m.viewport.SetContent(m.renderTranscript())
	m.viewport.GotoBottom()
}

func (m ChatModel) renderTranscript() string {
	transcript := m.transcript
	if len(transcript) == 0 {
		return "Задайте вопрос по геометрии. /reset очищает историю."
	}
	var b strings.Builder
	for _, msg := range transcript {
		switch msg.Role {
		case chat.RoleUser:
			fmt.Fprintf(&b, "Вы: %s\n\n", msg.Content)
		default:
			b.WriteString("Ассистент:\n")
			b.WriteString(m.renderMarkdown(msg.Content))
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (m ChatModel) renderMarkdown(s string) string {
	if m.renderer == nil {
		return s + "\n"
	}
	out, err := m.renderer.Render(s)
	if err != nil {
		return s + "\n"
	}
	return out
}

// Sending reports whether input is currently blocked.
func (m ChatModel) Sending() bool { return m.sending }

func (m ChatModel) View() string {
	var b strings.Builder
	b.WriteString("GeoMentor · помощник по геометрии\n")
	b.WriteString(strings.Repeat("─", max(m.width, 10)))
	b.WriteString("\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	if m.sending {
		fmt.Fprintf(&b, "%s Отправка…\n", m.spinner.View())
	} else {
		b.WriteString(m.input.View())
		b.WriteString("\n")
	}
	if m.notice != "" {
		fmt.Fprintf(&b, "(%s)\n", m.notice)
	}
	b.WriteString("enter — отправить · esc — выход")
	return b.String()
}
