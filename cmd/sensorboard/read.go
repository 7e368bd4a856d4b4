package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/sensorboard"
)

// readCmd performs a single tick and prints the body.
var readCmd = &cobra.Command{
	Use:   "read",
	Short: "Read the sensor once",
	Long: `Perform exactly one read against the configured sensor and print the raw
body to stdout.

The read is judged exactly as on the dashboard: only a response that
completes with status 200 counts. Anything else exits non-zero and nothing
is printed to stdout.

Example:
  sensorboard read -c config.yaml`,
	RunE: runRead,
}

func init() {
	rootCmd.AddCommand(readCmd)

	readCmd.Flags().StringP("config", "c", "", "path to config file (required)")
	_ = readCmd.MarkFlagRequired("config")
}

func runRead(cmd *cobra.Command, args []string) error {
	// flags parsed; a failed read is not a usage error
	cmd.SilenceUsage = true

	sb, _, _, err := loadBoard(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	r, err := sb.ReadOnce(ctx)
	if err != nil {
		return err
	}

	switch r.Outcome {
	case sensorboard.OutcomeApplied:
		_, err := cmd.OutOrStdout().Write(r.Body)
		return err
	case sensorboard.OutcomeDroppedStatus:
		return fmt.Errorf("read %s: unexpected status %d", r.URL, r.StatusCode)
	default:
		return fmt.Errorf("read %s: %w", r.URL, r.Error)
	}
}
