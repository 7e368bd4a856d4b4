package sensorboard

import (
	"errors"
	"log/slog"
	"time"

	"github.com/benbjohnson/clock"
)

// sbConfig holds mutable state during SensorBoard construction.
type sbConfig struct {
	title            string
	source           *Source
	interval         time.Duration
	port             int
	surfaceID        string
	logger           *slog.Logger
	clock            clock.Clock
	readingCallbacks []func(Reading)
}

// Option is a function that configures a [SensorBoard] during construction.
//
// Built-in options: [WithSource], [WithInterval], [WithPort],
// [WithSurfaceID], [WithTitle], [WithLogger], [WithReadingCallback],
// [WithClock].
type Option func(*sbConfig) error

// WithSource sets the sensor to read from. Required.
//
// Example:
//
//	src, _ := sensorboard.NewSource("http://esp8266.local/")
//	sb, err := sensorboard.New(sensorboard.WithSource(src))
func WithSource(s Source) Option {
	return func(cfg *sbConfig) error {
		if s.url == "" {
			return errors.New("source must be created with NewSource")
		}
		cfg.source = &s
		return nil
	}
}

// WithInterval sets the fixed tick period. Defaults to 2500ms.
//
// The period never changes at runtime: a failing sensor is read exactly as
// often as a healthy one.
//
// Returns an error if the duration is zero or negative.
func WithInterval(d time.Duration) Option {
	return func(cfg *sbConfig) error {
		if d <= 0 {
			return errors.New("interval must be positive")
		}
		cfg.interval = d
		return nil
	}
}

// WithPort sets the HTTP port for the dashboard server. Defaults to 8080.
//
// Returns an error if the port is outside the valid range (1-65535).
func WithPort(port int) Option {
	return func(cfg *sbConfig) error {
		if port < 1 || port > 65535 {
			return errors.New("port must be between 1 and 65535")
		}
		cfg.port = port
		return nil
	}
}

// WithSurfaceID sets the id of the page element that shows the reading.
// Defaults to "readings".
//
// Returns an error if id is empty.
func WithSurfaceID(id string) Option {
	return func(cfg *sbConfig) error {
		if id == "" {
			return errors.New("surface id cannot be empty")
		}
		cfg.surfaceID = id
		return nil
	}
}

// WithTitle sets the dashboard title. Defaults to "SensorBoard".
func WithTitle(title string) Option {
	return func(cfg *sbConfig) error {
		cfg.title = title
		return nil
	}
}

// WithLogger sets a custom [slog.Logger]. If not specified, [slog.Default]
// is used.
//
// Returns an error if the logger is nil.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *sbConfig) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		cfg.logger = logger
		return nil
	}
}

// WithReadingCallback registers a function called after every tick
// completes, whatever its outcome.
//
// Callbacks run on the goroutine that completed the read. Overlapping ticks
// complete on different goroutines, so a callback may be invoked
// concurrently with itself and must be safe for concurrent use. Slow
// callbacks delay nothing but their own tick.
//
// Panics within callbacks are recovered and logged.
//
// Example:
//
//	sb, err := sensorboard.New(
//	    sensorboard.WithSource(src),
//	    sensorboard.WithReadingCallback(func(r sensorboard.Reading) {
//	        if r.Outcome != sensorboard.OutcomeApplied {
//	            failures.Add(1)
//	        }
//	    }),
//	)
//
// Nil callbacks are silently ignored.
func WithReadingCallback(cb func(Reading)) Option {
	return func(cfg *sbConfig) error {
		if cb == nil {
			return nil
		}
		cfg.readingCallbacks = append(cfg.readingCallbacks, cb)
		return nil
	}
}

// WithClock replaces the wall clock that drives ticks. Intended for tests.
//
// Returns an error if the clock is nil.
func WithClock(c clock.Clock) Option {
	return func(cfg *sbConfig) error {
		if c == nil {
			return errors.New("clock cannot be nil")
		}
		cfg.clock = c
		return nil
	}
}
