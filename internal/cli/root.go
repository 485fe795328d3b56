package cli

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// NewRootCmd creates the lead-relay operator command.
func NewRootCmd() *cobra.Command {
	var envFile string

	root := &cobra.Command{
		Use:   "lead-relay",
		Short: "Operate the lead relay backup store and the offline form queue",
		Long: `lead-relay inspects and repairs the submission backup kept in Redis
and drives the client side queue of form submissions made while offline.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&envFile, "env", "", "dotenv file to read instead of ./.env")

	root.AddCommand(
		newSummaryCmd(&envFile),
		newExportCmd(&envFile),
		newRetryCmd(&envFile),
		newMarkDeliveredCmd(&envFile),
		newQueueCmd(),
	)

	return root
}

func newLogger() zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
}
