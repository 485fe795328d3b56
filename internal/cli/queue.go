package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/marcelsud/lead-relay/formqueue"
	"github.com/marcelsud/lead-relay/internal/clock"
	"github.com/spf13/cobra"
)

func newQueueCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "queue",
		Short: "Manage form submissions queued while offline",
	}
	cmd.PersistentFlags().StringVar(&file, "file", "formqueue.json", "queue file")

	cmd.AddCommand(
		newQueueAddCmd(&file),
		newQueueListCmd(&file),
		newQueueRunCmd(&file),
	)
	return cmd
}

func openQueue(file, server string) *formqueue.Queue {
	var submitter formqueue.Submitter
	if server != "" {
		submitter = formqueue.NewHTTPSubmitter(server)
	}
	return formqueue.New(formqueue.NewFileStore(file), submitter, newLogger(), clock.NewReal())
}

func newQueueAddCmd(file *string) *cobra.Command {
	var data string

	cmd := &cobra.Command{
		Use:     "add",
		Short:   "Queue a contact form submission",
		Example: `  lead-relay queue add --data '{"name":"Ana","email":"ana@example.com","phone":"555","message":"hi"}'`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if data == "" {
				return fmt.Errorf("--data is required")
			}
			var formData map[string]any
			if err := json.Unmarshal([]byte(data), &formData); err != nil {
				return fmt.Errorf("parsing --data: %w", err)
			}

			e, err := openQueue(*file, "").Add(formData)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "queued %s\n", e.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&data, "data", "", "form fields as a JSON object")
	return cmd
}

func newQueueListCmd(file *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List queued submissions",
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := openQueue(*file, "").Entries()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "queue is empty")
				return nil
			}
			for _, e := range entries {
				fmt.Fprintf(out, "%s  %-9s attempts=%d queued=%s", e.ID, e.Status, e.Attempts, e.Timestamp.Format(time.RFC3339))
				if !e.NextRetryAt.IsZero() {
					fmt.Fprintf(out, " next=%s", e.NextRetryAt.Format(time.RFC3339))
				}
				if e.LastError != "" {
					fmt.Fprintf(out, " error=%q", e.LastError)
				}
				fmt.Fprintln(out)
			}
			return nil
		},
	}
}

func newQueueRunCmd(file *string) *cobra.Command {
	var (
		server   string
		once     bool
		interval time.Duration
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Submit queued entries to the relay",
		Example: `  lead-relay queue run --server http://localhost:8080 --once
  lead-relay queue run --server https://leads.example.com --interval 1m`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if server == "" {
				return fmt.Errorf("--server is required")
			}
			q := openQueue(*file, server)
			q.Interval = interval

			if once {
				report, err := q.Process(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "submitted=%d retrying=%d failed=%d pruned=%d\n",
					report.Submitted, report.Retrying, report.Failed, report.Pruned)
				return nil
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if err := q.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&server, "server", "", "base URL of the relay API")
	cmd.Flags().BoolVar(&once, "once", false, "process due entries once and exit")
	cmd.Flags().DurationVar(&interval, "interval", formqueue.DefaultInterval, "time between passes")
	return cmd
}
