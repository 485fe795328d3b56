package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

func newSummaryCmd(envFile *string) *cobra.Command {
	var (
		days       int
		outputJSON bool
	)

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Show delivery counters of the backup store",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(*envFile)
			if err != nil {
				return err
			}
			defer a.Close()

			s, err := a.backup.GetBackupSummary(cmd.Context(), days)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if outputJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(s)
			}

			fmt.Fprintf(out, "Last %d day(s)\n", s.Days)
			fmt.Fprintf(out, "  Total:           %d\n", s.Total)
			fmt.Fprintf(out, "  Delivered:       %d\n", s.Delivered)
			fmt.Fprintf(out, "  Pending:         %d\n", s.Pending)
			fmt.Fprintf(out, "  Failed:          %d\n", s.Failed)
			fmt.Fprintf(out, "  Success rate:    %.1f%%\n", s.SuccessRate)
			fmt.Fprintf(out, "  Failures (24h):  %d\n", s.RecentFailures)
			if len(s.ByDay) > 0 {
				fmt.Fprintln(out)
				for _, d := range s.ByDay {
					fmt.Fprintf(out, "  %s  total=%d delivered=%d pending=%d failed=%d\n", d.Day, d.Total, d.Delivered, d.Pending, d.Failed)
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&days, "days", 7, "number of days to summarize")
	cmd.Flags().BoolVar(&outputJSON, "json", false, "output the summary as JSON")
	return cmd
}

func newExportCmd(envFile *string) *cobra.Command {
	var (
		days   int
		format string
		output string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export backed up submissions as CSV or JSON",
		Example: `  lead-relay export --days 30 --out submissions.csv
  lead-relay export --format json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "csv" && format != "json" {
				return fmt.Errorf("--format must be csv or json")
			}

			a, err := openApp(*envFile)
			if err != nil {
				return err
			}
			defer a.Close()

			var w io.Writer = cmd.OutOrStdout()
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("creating %s: %w", output, err)
				}
				defer f.Close()
				w = f
			}

			if format == "csv" {
				return a.backup.ExportCSV(cmd.Context(), days, w)
			}
			subs, err := a.backup.GetAllSubmissions(cmd.Context(), days)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			return enc.Encode(subs)
		},
	}

	cmd.Flags().IntVar(&days, "days", 7, "number of days to export")
	cmd.Flags().StringVar(&format, "format", "csv", "csv or json")
	cmd.Flags().StringVar(&output, "out", "", "write to this file instead of stdout")
	return cmd
}

func newRetryCmd(envFile *string) *cobra.Command {
	var (
		maxAge time.Duration
		minAge time.Duration
	)

	cmd := &cobra.Command{
		Use:   "retry",
		Short: "Redeliver pending submissions once, like the scheduled sweep",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(*envFile)
			if err != nil {
				return err
			}
			defer a.Close()

			p, err := a.pipeline()
			if err != nil {
				return err
			}
			p.MinAge = minAge

			report, err := p.RetryPending(cmd.Context(), maxAge)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "checked=%d delivered=%d failed=%d skipped=%d\n",
				report.Checked, report.Delivered, report.Failed, report.Skipped)
			return nil
		},
	}

	cmd.Flags().DurationVar(&maxAge, "max-age", 24*time.Hour, "ignore submissions older than this")
	cmd.Flags().DurationVar(&minAge, "min-age", 5*time.Minute, "leave submissions younger than this to their request")
	return cmd
}

func newMarkDeliveredCmd(envFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "mark-delivered ID [ID...]",
		Short: "Mark submissions delivered after they were entered by hand",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(*envFile)
			if err != nil {
				return err
			}
			defer a.Close()
			return markDelivered(cmd.Context(), a.backup, cmd.OutOrStdout(), args)
		},
	}
}

type deliveredMarker interface {
	MarkDelivered(ctx context.Context, id string) error
}

func markDelivered(ctx context.Context, backup deliveredMarker, out io.Writer, ids []string) error {
	var failed []string
	for _, id := range ids {
		if err := backup.MarkDelivered(ctx, id); err != nil {
			fmt.Fprintf(out, "%s: %v\n", id, err)
			failed = append(failed, id)
			continue
		}
		fmt.Fprintf(out, "%s: delivered\n", id)
	}
	if len(failed) > 0 {
		return fmt.Errorf("could not mark %s", strings.Join(failed, ", "))
	}
	return nil
}
