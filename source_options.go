package sensorboard

import (
	"errors"
	"time"
)

// sourceConfig holds mutable state during source construction.
type sourceConfig struct {
	path    string
	headers map[string]string
	timeout time.Duration
}

// SourceOption configures a [Source] during construction.
//
// Built-in options: [WithPath], [WithHeaders], [WithTimeout].
type SourceOption func(*sourceConfig) error

// WithPath overrides the read path. Relative paths are resolved against the
// base URL; a leading slash makes the path host-absolute.
//
// Returns an error if path is empty.
func WithPath(path string) SourceOption {
	return func(cfg *sourceConfig) error {
		if path == "" {
			return errors.New("path cannot be empty")
		}
		cfg.path = path
		return nil
	}
}

// WithHeaders adds HTTP headers to every read.
//
// Accepts variadic key-value pairs. The number of arguments must be even.
//
// Example:
//
//	src, err := sensorboard.NewSource(base,
//	    sensorboard.WithHeaders("X-Token", token),
//	)
func WithHeaders(keyValues ...string) SourceOption {
	return func(cfg *sourceConfig) error {
		if len(keyValues)%2 != 0 {
			return errors.New("WithHeaders requires an even number of arguments (key-value pairs)")
		}
		for i := 0; i < len(keyValues); i += 2 {
			cfg.headers[keyValues[i]] = keyValues[i+1]
		}
		return nil
	}
}

// WithTimeout bounds each read. A read that times out is dropped like any
// other failure. By default reads have no timeout, and a read slower than the
// polling interval overlaps the next tick.
//
// Zero disables the timeout. Returns an error if the duration is negative.
func WithTimeout(d time.Duration) SourceOption {
	return func(cfg *sourceConfig) error {
		if d < 0 {
			return errors.New("timeout cannot be negative")
		}
		cfg.timeout = d
		return nil
	}
}
