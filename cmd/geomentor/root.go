package main

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"geomentor/internal/apiclient"
	"geomentor/internal/logging"
)

const defaultServer = "http://localhost:8000"

type rootOptions struct {
	server   string
	timeout  time.Duration
	logFile  string
	logLevel string
}

func newRootCmd() *cobra.Command {
	_ = godotenv.Load()

	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:          "geomentor",
		Short:        "Terminal client for the geometry tutor",
		SilenceUsage: true,
	}
	server := os.Getenv("GEOMENTOR_SERVER")
	if server == "" {
		server = defaultServer
	}
	cmd.PersistentFlags().StringVar(&opts.server, "server", server, "assistant service base URL (env GEOMENTOR_SERVER)")
	cmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 0, "per request timeout, 0 waits indefinitely")
	cmd.PersistentFlags().StringVar(&opts.logFile, "log-file", "", "write logs to this file instead of discarding them")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "debug, info, warn or error")

	cmd.AddCommand(newChatCmd(opts), newQuizCmd(opts))
	return cmd
}

// client builds the HTTP client shared by the subcommands. Every run gets a
// fresh session so the service keeps a separate history.
func (o *rootOptions) client() *apiclient.Client {
	return apiclient.New(o.server,
		apiclient.WithTimeout(o.timeout),
		apiclient.WithSessionID(uuid.NewString()),
	)
}

// logger writes to the log file, if any. The terminal belongs to the UI.
func (o *rootOptions) logger() (*slog.Logger, func(), error) {
	if o.logFile == "" {
		return logging.New(io.Discard, "production", o.logLevel), func() {}, nil
	}
	f, err := os.OpenFile(o.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, err
	}
	return logging.New(f, "production", o.logLevel), func() { _ = f.Close() }, nil
}
