// students-cli talks to a running students-api.
//
//	students-cli list
//	students-cli get 1
//	students-cli create --first-name Ada --last-name Lovelace --email ada@example.com
//	students-cli update 1 --first-name Augusta
//	students-cli delete 1
//	students-cli tui
//
// The API URL comes from --api-url, then STUDENTS_API_URL (a .env file is
// honoured), then http://localhost:8082/api.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/aanand-mishra/student-records/internal/client"
	"github.com/aanand-mishra/student-records/internal/config"
	"github.com/aanand-mishra/student-records/internal/logger"
)

// app carries what every subcommand needs once flags are parsed.
type app struct {
	apiURL  string
	timeout time.Duration
	verbose bool

	client *client.Client
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "students-cli",
		Short: "Manage student records through the students API",
		Long: `students-cli lists, shows, creates, updates and deletes student records
through the students HTTP API.

Run "students-cli tui" for the interactive terminal interface.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	root.PersistentFlags().StringVar(&a.apiURL, "api-url", "", "API base URL (or set STUDENTS_API_URL)")
	root.PersistentFlags().DurationVar(&a.timeout, "timeout", 0, "Per-request timeout (or set STUDENTS_API_TIMEOUT)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Log requests to stderr")

	root.AddCommand(
		a.listCmd(),
		a.getCmd(),
		a.createCmd(),
		a.updateCmd(),
		a.deleteCmd(),
		a.tuiCmd(),
	)

	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.LoadClient()
	if err != nil {
		return fmt.Errorf("load client config: %w", err)
	}
	if a.apiURL == "" {
		a.apiURL = cfg.APIURL
	}
	if a.timeout == 0 {
		a.timeout = cfg.Timeout
	}

	// The TUI owns the terminal, so it never logs to it.
	var w io.Writer = io.Discard
	if a.verbose && cmd.Name() != "tui" {
		w = cmd.ErrOrStderr()
	}
	slog.SetDefault(logger.New(cfg.Env, w))

	a.client = client.New(a.apiURL, client.WithTimeout(a.timeout))
	slog.Debug("client ready", slog.String("api_url", a.apiURL), slog.Duration("timeout", a.timeout))
	return nil
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
