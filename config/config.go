// Package config provides YAML configuration parsing for SensorBoard.
//
// This package enables running SensorBoard as a standalone binary with a
// configuration file, as an alternative to the programmatic SDK approach.
//
// Example configuration:
//
//	title: Greenhouse
//	port: 8080
//	interval: 2500ms
//	surface_id: readings
//	log_level: info
//
//	source:
//	  base_url: http://esp8266.local/
//	  path: read
//	  timeout: 2s
//	  headers:
//	    X-Token: ${SENSOR_TOKEN}
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// minInterval keeps a misconfigured board from flooding a small device.
	minInterval = 100 * time.Millisecond
	maxInterval = time.Hour

	defaultPort      = 8080
	defaultInterval  = 2500 * time.Millisecond
	defaultSurfaceID = "readings"
	defaultPath      = "read"
)

// Config is the root configuration structure for SensorBoard.
//
// It maps directly to the YAML configuration file structure.
// Use [Load] or [Parse] to create a Config from YAML.
type Config struct {
	// Title is the dashboard title. Defaults to "SensorBoard" if not set.
	Title string `yaml:"title"`

	// Port is the HTTP server port. Defaults to 8080.
	Port int `yaml:"port"`

	// Interval is the fixed tick period.
	// Accepts duration strings like "2500ms", "5s".
	// Defaults to 2500ms.
	Interval Duration `yaml:"interval"`

	// SurfaceID is the id of the page element that shows the reading.
	// Defaults to "readings".
	SurfaceID string `yaml:"surface_id"`

	// LogLevel is one of debug, info, warn or error. Defaults to info.
	// At debug every dropped tick is logged.
	LogLevel string `yaml:"log_level"`

	// Source describes the sensor being read.
	Source SourceConfig `yaml:"source"`
}

// SourceConfig defines the sensor endpoint.
type SourceConfig struct {
	// BaseURL is the address the read path is resolved against.
	// Supports environment variable substitution: ${VAR} or ${VAR:-default}
	BaseURL string `yaml:"base_url"`

	// Path is the relative path of the read endpoint. Defaults to "read".
	Path string `yaml:"path"`

	// Timeout bounds each read. Zero or unset means no timeout, so a slow
	// read overlaps the next tick instead of being dropped.
	Timeout Duration `yaml:"timeout"`

	// Headers are custom HTTP headers sent with each read.
	// Values support environment variable substitution.
	Headers map[string]string `yaml:"headers"`
}

// Duration wraps time.Duration for YAML unmarshalling.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}

	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// Level returns the parsed log level. An empty LogLevel is info.
func (c *Config) Level() slog.Level {
	var lvl slog.Level
	// validated in Parse
	_ = lvl.UnmarshalText([]byte(c.LogLevel))
	return lvl
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns.
// Group 1: variable name
// Group 2: the ":-default" part (if present, indicates a default was specified)
// Group 3: the default value (may be empty for ${VAR:-})
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} patterns with environment values.
func expandEnvVars(s string) (string, error) {
	var firstErr error

	result := envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if firstErr != nil {
			return match
		}

		submatches := envVarPattern.FindStringSubmatch(match)
		if len(submatches) < 2 {
			return match
		}

		varName := submatches[1]
		hasDefault := len(submatches) > 2 && submatches[2] != ""
		defaultVal := ""
		if hasDefault && len(submatches) > 3 {
			defaultVal = submatches[3]
		}

		value, exists := os.LookupEnv(varName)
		if !exists {
			if hasDefault {
				return defaultVal
			}
			firstErr = fmt.Errorf("environment variable %q is not set", varName)
			return match
		}
		return value
	})

	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}

// Load reads and parses a YAML configuration file.
//
// See [Parse] for which values undergo environment variable expansion.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse parses YAML configuration data.
//
// After unmarshalling, ${VAR} references are expanded in source.base_url and
// source.headers values only; other fields are taken literally.
// Defaults are applied for Port (8080), Interval (2500ms), SurfaceID
// ("readings") and Source.Path ("read").
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if cfg.Port == 0 {
		cfg.Port = defaultPort
	}
	if cfg.Interval == 0 {
		cfg.Interval = Duration(defaultInterval)
	}
	if cfg.SurfaceID == "" {
		cfg.SurfaceID = defaultSurfaceID
	}
	if cfg.Source.Path == "" {
		cfg.Source.Path = defaultPath
	}

	if err := cfg.expandAndValidate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// expandAndValidate expands environment variables and validates the config.
func (c *Config) expandAndValidate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}

	if c.Interval.Duration() < minInterval {
		return fmt.Errorf("interval must be at least %s, got %s", minInterval, c.Interval.Duration())
	}
	if c.Interval.Duration() > maxInterval {
		return fmt.Errorf("interval must not exceed %s, got %s", maxInterval, c.Interval.Duration())
	}

	if strings.ContainsAny(c.SurfaceID, " \t\n") {
		return fmt.Errorf("surface_id must not contain whitespace, got %q", c.SurfaceID)
	}

	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); c.LogLevel != "" && err != nil {
		return fmt.Errorf("log_level: %w", err)
	}

	return c.Source.expandAndValidate()
}

func (s *SourceConfig) expandAndValidate() error {
	if s.BaseURL == "" {
		return errors.New("source: base_url is required")
	}
	expanded, err := expandEnvVars(s.BaseURL)
	if err != nil {
		return fmt.Errorf("source: base_url: %w", err)
	}
	s.BaseURL = expanded

	parsedURL, err := url.Parse(s.BaseURL)
	if err != nil {
		return fmt.Errorf("source: invalid base_url: %w", err)
	}
	if parsedURL.Scheme == "" {
		return errors.New("source: base_url must have a scheme (http:// or https://)")
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("source: base_url scheme must be http or https, got %q", parsedURL.Scheme)
	}
	if parsedURL.Host == "" {
		return errors.New("source: base_url must have a host")
	}

	if _, err := url.Parse(s.Path); err != nil {
		return fmt.Errorf("source: invalid path: %w", err)
	}

	for k, v := range s.Headers {
		expanded, err := expandEnvVars(v)
		if err != nil {
			return fmt.Errorf("source: headers[%s]: %w", k, err)
		}
		s.Headers[k] = expanded
	}

	if s.Timeout.Duration() < 0 {
		return fmt.Errorf("source: timeout cannot be negative, got %s", s.Timeout.Duration())
	}

	return nil
}
