package main

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"geomentor/internal/chat"
	"geomentor/internal/tui"
)

func newChatCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Ask the assistant about a geometry problem",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger, closeLog, err := opts.logger()
			if err != nil {
				return err
			}
			defer closeLog()

			session := chat.New(opts.client(), chat.WithLogger(logger))
			p := tea.NewProgram(tui.NewChatModel(cmd.Context(), session), tea.WithAltScreen())
			_, err = p.Run()
			return err
		},
	}
}
