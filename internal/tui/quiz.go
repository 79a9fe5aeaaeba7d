package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"geomentor/internal/quiz"
)

// Fetcher loads a generated test.
type Fetcher interface {
	GenerateTest(ctx context.Context, topic string, n int) (quiz.Test, error)
}

type quizPhase int

const (
	phaseLoading quizPhase = iota
	phaseAnswering
	phaseFinished
	phaseFailed
)

type testLoadedMsg struct {
	test quiz.Test
	err  error
}

type QuizModel struct {
	ctx     context.Context
	fetcher Fetcher
	topic   string
	n       int

	phase   quizPhase
	test    quiz.Test
	current int
	cursor  int
	answers quiz.Answers
	result  quiz.Result
	err     error
	spinner spinner.Model
}

func NewQuizModel(ctx context.Context, f Fetcher, topic string, n int) QuizModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	return QuizModel{
		ctx:     ctx,
		fetcher: f,
		topic:   topic,
		n:       n,
		phase:   phaseLoading,
		spinner: sp,
	}
}

func (m QuizModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.fetch())
}

func (m QuizModel) fetch() tea.Cmd {
	return func() tea.Msg {
		t, err := m.fetcher.GenerateTest(m.ctx, m.topic, m.n)
		return testLoadedMsg{test: t, err: err}
	}
}

func (m QuizModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case testLoadedMsg:
		if msg.err != nil {
			m.phase = phaseFailed
			m.err = msg.err
			return m, nil
		}
		m.phase = phaseAnswering
		m.test = msg.test
		m.current, m.cursor = 0, 0
		m.answers = quiz.Answers{}
		return m, nil

	case spinner.TickMsg:
		if m.phase == phaseLoading {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m QuizModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc", "q":
		return m, tea.Quit
	}

	switch m.phase {
	case phaseFailed:
		if msg.String() == "r" {
			m.phase = phaseLoading
			m.err = nil
			return m, tea.Batch(m.spinner.Tick, m.fetch())
		}
	case phaseAnswering:
		q := m.test.Questions[m.current]
		switch msg.String() {
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(q.Options)-1 {
				m.cursor++
			}
		case "enter":
			m.answers[m.current] = m.cursor
			m.current++
			m.cursor = 0
			if m.current >= len(m.test.Questions) {
				m.phase = phaseFinished
				m.result = quiz.Grade(m.test, m.answers)
			}
		}
	}
	return m, nil
}

// Result is meaningful once every question has been answered.
func (m QuizModel) Result() (quiz.Result, bool) {
	return m.result, m.phase == phaseFinished
}

func (m QuizModel) View() string {
	var b strings.Builder
	switch m.phase {
	case phaseLoading:
		fmt.Fprintf(&b, "%s Генерируем тест по теме «%s»…\n", m.spinner.View(), m.topic)
	case phaseFailed:
		fmt.Fprintf(&b, "Не удалось загрузить тест: %v\n\nr — повторить · q — выход\n", m.err)
	case phaseAnswering:
		q := m.test.Questions[m.current]
		fmt.Fprintf(&b, "%s\n\nВопрос %d из %d\n%s\n\n", m.test.Title, m.current+1, len(m.test.Questions), q.Text)
		for i, opt := range q.Options {
			marker := "  "
			if i == m.cursor {
				marker = "> "
			}
			fmt.Fprintf(&b, "%s%d. %s\n", marker, i+1, opt)
		}
		b.WriteString("\n↑/↓ — выбор · enter — ответить · q — выход\n")
	case phaseFinished:
		fmt.Fprintf(&b, "%s\n\nПравильных ответов: %d из %d\n\n", m.test.Title, m.result.Correct, m.result.Total)
		for i, q := range m.test.Questions {
			mark := "✗"
			if m.answers[i] == q.CorrectIndex {
				mark = "✓"
			}
			fmt.Fprintf(&b, "%s %d. %s — %s\n", mark, i+1, q.Text, q.Options[q.CorrectIndex])
		}
		b.WriteString("\nq — выход\n")
	}
	return b.String()
}
