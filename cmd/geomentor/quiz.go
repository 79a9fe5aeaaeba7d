package main

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"geomentor/internal/tui"
)

func newQuizCmd(opts *rootOptions) *cobra.Command {
	var (
		topic string
		n     int
	)
	cmd := &cobra.Command{
		Use:   "quiz",
		Short: "Generate a multiple-choice test on a topic and take it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			topic = strings.TrimSpace(topic)
			if topic == "" {
				return fmt.Errorf("--topic is required")
			}
			if n < 1 || n > 30 {
				return fmt.Errorf("-n must be between 1 and 30")
			}
			m := tui.NewQuizModel(cmd.Context(), opts.client(), topic, n)
			final, err := tea.NewProgram(m).Run()
			if err != nil {
				return err
			}
			if qm, ok := final.(tui.QuizModel); ok {
				if res, done := qm.Result(); done {
					fmt.Fprintf(cmd.OutOrStdout(), "Правильных ответов: %d из %d\n", res.Correct, res.Total)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&topic, "topic", "", "test topic, for example \"Прямая, луч, отрезок. Ломаная\"")
	cmd.Flags().IntVarP(&n, "num-questions", "n", 10, "number of questions (1-30)")
	return cmd
}
