package sensorboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/jpalmerr/sensorboard/dashboard"
	"github.com/jpalmerr/sensorboard/internal/metrics"
	"github.com/jpalmerr/sensorboard/internal/poller"
	"github.com/jpalmerr/sensorboard/internal/server"
	"github.com/jpalmerr/sensorboard/internal/surface"
)

const (
	// DefaultInterval is the fixed tick period.
	DefaultInterval = 2500 * time.Millisecond

	// DefaultSurfaceID is the id of the element that shows the reading.
	DefaultSurfaceID = "readings"

	defaultPort = 8080
)

// SensorBoard reads a sensor on a fixed timer and hosts the latest
// successful reading on a web page.
//
// It is created using [New] with functional options and started with
// [SensorBoard.Start]:
//
//	src, _ := sensorboard.NewSource("http://esp8266.local/")
//	sb, err := sensorboard.New(sensorboard.WithSource(src))
//	if err != nil {
//	    slog.Error("failed to create sensorboard", "error", err)
//	    os.Exit(1)
//	}
//
//	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer cancel()
//
//	sb.Start(ctx) // blocks until context cancelled
type SensorBoard struct {
	title            string
	source           Source
	interval         time.Duration
	port             int
	surfaceID        string
	logger           *slog.Logger
	clock            clock.Clock
	readingCallbacks []func(Reading)
}

// New creates a new [SensorBoard] with the given options.
//
// A source must be configured via [WithSource]. Other options default to:
//   - Interval: 2500ms
//   - Port: 8080
//   - Surface id: "readings"
func New(opts ...Option) (*SensorBoard, error) {
	cfg := &sbConfig{
		interval:  DefaultInterval,
		port:      defaultPort,
		surfaceID: DefaultSurfaceID,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if cfg.source == nil {
		return nil, errors.New("a source is required")
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}
	clk := cfg.clock
	if clk == nil {
		clk = clock.New()
	}

	return &SensorBoard{
		title:            cfg.title,
		source:           *cfg.source,
		interval:         cfg.interval,
		port:             cfg.port,
		surfaceID:        cfg.surfaceID,
		logger:           logger,
		clock:            clk,
		readingCallbacks: cfg.readingCallbacks,
	}, nil
}

// Start begins ticking and serving the dashboard.
//
// Start blocks until ctx is cancelled. While running:
//
//   - Every interval one GET is issued against the source's read URL
//   - A response that completes with status 200 replaces the surface content
//   - Every other outcome leaves the surface as it was
//   - The dashboard is available at http://localhost:<port>
//   - Prometheus metrics are exposed at /metrics
//
// Returns nil on graceful shutdown. Returns an error if the HTTP server
// fails to start.
func (sb *SensorBoard) Start(ctx context.Context) error {
	sb.logger.Info("sensorboard starting", "url", sb.source.URL())
	sb.logger.Info("polling configured", "interval", sb.interval.String())
	sb.logger.Info("dashboard available", "url", fmt.Sprintf("http://localhost:%d", sb.port))

	if ctx.Err() != nil {
		return nil
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	surf := surface.NewMemorySurface()
	client := poller.NewClient()
	defer client.Close()

	p, err := sb.newPoller(client, surf, metrics.New(reg))
	if err != nil {
		return err
	}

	// server first: a bind failure must not leave a ticker running
	httpServer := server.NewServer(surf, sb.port, dashboard.Assets,
		server.Page{Title: sb.title, SurfaceID: sb.surfaceID}, reg, sb.logger)
	if err := httpServer.Start(ctx); err != nil {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	p.Start(ctx)

	<-ctx.Done()
	p.Stop()
	sb.logger.Info("sensorboard stopped")
	return nil
}

// ReadOnce performs a single tick synchronously and returns its [Reading].
//
// Nothing is served and no timer is started. Registered callbacks are
// invoked as for any other tick.
func (sb *SensorBoard) ReadOnce(ctx context.Context) (Reading, error) {
	client := poller.NewClient()
	defer client.Close()

	p, err := sb.newPoller(client, surface.NewMemorySurface(), nil)
	if err != nil {
		return Reading{}, err
	}
	defer p.Stop()

	return pollerResultToReading(p.Poll(ctx)), nil
}

func (sb *SensorBoard) newPoller(f poller.Fetcher, s poller.Surface, m *metrics.Metrics) (*poller.Poller, error) {
	opts := []poller.Option{
		poller.WithClock(sb.clock),
		poller.WithLogger(sb.logger),
		poller.WithMetrics(m),
	}
	for _, cb := range sb.readingCallbacks {
		cb := cb
		opts = append(opts, poller.WithResultHook(func(r poller.Result) {
			cb(pollerResultToReading(r))
		}))
	}

	p, err := poller.New(poller.Config{
		URL:       sb.source.URL(),
		Headers:   sb.source.Headers(),
		Timeout:   sb.source.Timeout(),
		Interval:  sb.interval,
		SurfaceID: sb.surfaceID,
	}, f, s, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create poller: %w", err)
	}
	return p, nil
}

// Source returns the configured sensor source.
func (sb *SensorBoard) Source() Source {
	return sb.source
}

// Interval returns the fixed tick period.
func (sb *SensorBoard) Interval() time.Duration {
	return sb.interval
}

// Port returns the configured HTTP port for the dashboard server.
func (sb *SensorBoard) Port() int {
	return sb.port
}

// SurfaceID returns the id of the element that shows the reading.
func (sb *SensorBoard) SurfaceID() string {
	return sb.surfaceID
}

// pollerResultToReading converts an internal result to the public type.
// The body is copied so callbacks cannot race with each other.
func pollerResultToReading(r poller.Result) Reading {
	return Reading{
		Seq:        r.Seq,
		URL:        r.URL,
		StatusCode: r.StatusCode,
		Body:       copyBytes(r.Body),
		Latency:    r.Latency,
		IssuedAt:   r.IssuedAt,
		Error:      r.Error,
		Outcome:    Outcome(r.Outcome()),
	}
}

// copyBytes returns a copy of the byte slice, or nil if input is nil.
func copyBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	return append([]byte(nil), b...)
}
