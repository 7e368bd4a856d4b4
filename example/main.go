package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jpalmerr/sensorboard"
)

func main() {
	// start mock sensor (see mock_sensor.go)
	go StartMockSensor(":9999")
	time.Sleep(100 * time.Millisecond)

	// the board reads "read" relative to this page, so put the sensor's
	// own page here and the read URL is derived from it
	src, err := sensorboard.NewSource("http://localhost:9999/index.html")
	if err != nil {
		slog.Error("failed to create source", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))

	sb, err := sensorboard.New(
		sensorboard.WithSource(src),
		sensorboard.WithTitle("SensorBoard Demo"),
		sensorboard.WithPort(8080),
		sensorboard.WithLogger(logger),
		sensorboard.WithReadingCallback(func(r sensorboard.Reading) {
			if r.Outcome != sensorboard.OutcomeApplied {
				logger.Info("tick dropped", "seq", r.Seq, "outcome", r.Outcome.String())
			}
		}),
	)
	if err != nil {
		slog.Error("failed to create sensorboard", "error", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Println("  SensorBoard Demo")
	fmt.Println()
	fmt.Println("  Open http://localhost:8080 in your browser")
	fmt.Printf("  Reading %s every %s\n", sb.Source().URL(), sb.Interval())
	fmt.Println("  The mock sensor fails or stalls now and then;")
	fmt.Println("  the page keeps the last good reading.")
	fmt.Println()
	fmt.Println("  Press Ctrl+C to stop")
	fmt.Println()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := sb.Start(ctx); err != nil {
		slog.Error("sensorboard error", "error", err)
		os.Exit(1)
	}
}
