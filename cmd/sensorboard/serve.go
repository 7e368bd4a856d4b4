package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/sensorboard"
	"github.com/jpalmerr/sensorboard/config"
)

const (
	shutdownTimeout = 10 * time.Second
)

// newLogger creates a JSON logger for CLI use.
func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
}

// loadBoard reads the config file named by the --config flag and builds a
// board logging at the configured level.
func loadBoard(cmd *cobra.Command) (*sensorboard.SensorBoard, *config.Config, *slog.Logger, error) {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger := newLogger(cmd.ErrOrStderr(), cfg.Level())

	opts, err := config.BuildOptions(cfg)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to build options: %w", err)
	}
	opts = append(opts, sensorboard.WithLogger(logger))

	sb, err := sensorboard.New(opts...)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to create SensorBoard: %w", err)
	}
	return sb, cfg, logger, nil
}

// serveCmd starts the SensorBoard dashboard server.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the dashboard server",
	Long: `Start the SensorBoard dashboard server.

The server will:
  - Load configuration from the specified YAML file
  - Read the sensor once per interval
  - Serve the dashboard UI on the configured port

The server runs until interrupted (Ctrl+C) or receives SIGTERM.

Example:
  sensorboard serve -c config.yaml
  sensorboard serve --config /etc/sensorboard/config.yaml`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("config", "c", "", "path to config file (required)")
	_ = serveCmd.MarkFlagRequired("config")
}

func runServe(cmd *cobra.Command, args []string) error {
	sb, cfg, logger, err := loadBoard(cmd)
	if err != nil {
		return err
	}

	logger.Info("config loaded",
		"url", sb.Source().URL(),
		"surface_id", cfg.SurfaceID,
		"log_level", cfg.Level().String(),
	)

	// cancel on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errChan := make(chan error, 1)
	go func() {
		errChan <- sb.Start(ctx)
	}()

	select {
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		logger.Info("shutdown complete")
		return nil

	case <-ctx.Done():
		// signal received, wait for graceful shutdown with timeout
		select {
		case err := <-errChan:
			if err != nil {
				return fmt.Errorf("server error: %w", err)
			}
			logger.Info("shutdown complete")
			return nil
		case <-time.After(shutdownTimeout):
			logger.Warn("shutdown timed out",
				"timeout", shutdownTimeout.String(),
				"action", "forcing exit",
			)
			return nil
		}
	}
}
