package sensorboard

import (
	"errors"
	"fmt"
	"net/url"
	"time"
)

const (
	// DefaultPath is the read endpoint, relative to the source's base URL.
	DefaultPath = "read"
)

// Source is the sensor server the board reads from.
//
// Source is immutable after creation via [NewSource]. The read URL is the
// path resolved against the base URL the way a browser resolves a relative
// link from a page, so "http://esp.local/" and "http://esp.local/index.html"
// both read from "http://esp.local/read".
type Source struct {
	baseURL string
	path    string
	url     string
	headers map[string]string
	timeout time.Duration
}

// BaseURL returns the base URL the read path is resolved against.
func (s Source) BaseURL() string {
	return s.baseURL
}

// Path returns the read path. Defaults to [DefaultPath].
func (s Source) Path() string {
	return s.path
}

// URL returns the resolved absolute read URL.
func (s Source) URL() string {
	return s.url
}

// Headers returns a copy of the headers sent with every read.
func (s Source) Headers() map[string]string {
	return copyMap(s.headers)
}

// Timeout returns the per-read timeout. Zero, the default, means reads are
// never cut short.
func (s Source) Timeout() time.Duration {
	return s.timeout
}

// NewSource creates a [Source] for the sensor server at baseURL.
//
// baseURL must be an absolute http or https URL.
//
// Example:
//
//	src, err := sensorboard.NewSource("http://esp8266.local/",
//	    sensorboard.WithTimeout(time.Second),
//	)
func NewSource(baseURL string, opts ...SourceOption) (Source, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return Source{}, fmt.Errorf("invalid base URL: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return Source{}, errors.New("base URL must have an http:// or https:// scheme")
	}
	if base.Host == "" {
		return Source{}, errors.New("base URL must have a host")
	}

	cfg := &sourceConfig{
		path:    DefaultPath,
		headers: make(map[string]string),
	}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return Source{}, err
		}
	}

	ref, err := url.Parse(cfg.path)
	if err != nil {
		return Source{}, fmt.Errorf("invalid path %q: %w", cfg.path, err)
	}

	return Source{
		baseURL: baseURL,
		path:    cfg.path,
		url:     base.ResolveReference(ref).String(),
		headers: cfg.headers,
		timeout: cfg.timeout,
	}, nil
}

// copyMap returns a shallow copy of the map.
func copyMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	cp := make(map[string]string, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return cp
}
