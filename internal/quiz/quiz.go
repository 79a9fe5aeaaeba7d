// Package quiz models multiple-choice tests generated per topic and grades
// a learner's answers.
package quiz

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidTest = errors.New("invalid test")

// Question is one multiple-choice item. CorrectIndex is zero-based.
type Question struct {
	Text         string   `json:"question_text"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correct_index"`
}

// Test is the document exchanged with the /generate-test endpoint.
type Test struct {
	Title     string     `json:"test_title"`
	Topic     string     `json:"topic,omitempty"`
	Questions []Question `json:"questions"`
}

// Validate checks the structural invariants a generated test must satisfy
// before it is shown to a learner.
func (t Test) Validate() error {
	if strings.TrimSpace(t.Title) == "" {
		return fmt.Errorf("%w: empty title", ErrInvalidTest)
	}
	if len(t.Questions) == 0 {
		return fmt.Errorf("%w: no questions", ErrInvalidTest)
	}
	for i, q := range t.Questions {
		if strings.TrimSpace(q.Text) == "" {
			return fmt.Errorf("%w: question %d has no text", ErrInvalidTest, i+1)
		}
		if len(q.Options) < 2 {
			return fmt.Errorf("%w: question %d has %d options", ErrInvalidTest, i+1, len(q.Options))
		}
		if q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Options) {
			return fmt.Errorf("%w: question %d correct_index %d out of range", ErrInvalidTest, i+1, q.CorrectIndex)
		}
	}
	return nil
}

// Truncate returns a copy holding at most n questions.
func (t Test) Truncate(n int) Test {
	if n <= 0 || len(t.Questions) <= n {
		return t
	}
	out := t
	out.Questions = append([]Question(nil), t.Questions[:n]...)
	return out
}
