package config

import (
	"fmt"
	"sort"

	"github.com/jpalmerr/sensorboard"
)

// BuildSource converts the source section into an SDK [sensorboard.Source].
func BuildSource(sc SourceConfig) (sensorboard.Source, error) {
	var opts []sensorboard.SourceOption

	if sc.Path != "" {
		opts = append(opts, sensorboard.WithPath(sc.Path))
	}

	// zero means no per-read timeout
	opts = append(opts, sensorboard.WithTimeout(sc.Timeout.Duration()))

	if len(sc.Headers) > 0 {
		opts = append(opts, sensorboard.WithHeaders(mapToKeyValuePairs(sc.Headers)...))
	}

	src, err := sensorboard.NewSource(sc.BaseURL, opts...)
	if err != nil {
		return sensorboard.Source{}, fmt.Errorf("source: %w", err)
	}
	return src, nil
}

// BuildOptions converts parsed configuration into SDK options.
//
// The returned options do not include a logger; callers add
// [sensorboard.WithLogger] built for [Config.Level].
func BuildOptions(cfg *Config) ([]sensorboard.Option, error) {
	src, err := BuildSource(cfg.Source)
	if err != nil {
		return nil, err
	}

	opts := []sensorboard.Option{
		sensorboard.WithSource(src),
		sensorboard.WithPort(cfg.Port),
		sensorboard.WithInterval(cfg.Interval.Duration()),
		sensorboard.WithSurfaceID(cfg.SurfaceID),
	}
	if cfg.Title != "" {
		opts = append(opts, sensorboard.WithTitle(cfg.Title))
	}
	return opts, nil
}

// mapToKeyValuePairs converts a map to a sorted slice of key-value pairs.
func mapToKeyValuePairs(m map[string]string) []string {
	// sort keys for deterministic ordering
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(m)*2)
	for _, k := range keys {
		pairs = append(pairs, k, m[k])
	}
	return pairs
}
