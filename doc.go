// Package sensorboard reads a sensor over HTTP on a fixed timer and shows the
// latest successful reading on a live web page.
//
// Every tick, SensorBoard issues one GET against the sensor's "read"
// endpoint. If the request completes with status 200, the raw response body
// replaces the contents of the page element "readings". Anything else (a
// network error, a timeout, a non-200 status) is dropped: the element keeps
// showing the previous reading.
//
// # Quick Start
//
//	src, _ := sensorboard.NewSource("http://esp8266.local/")
//	sb, _ := sensorboard.New(sensorboard.WithSource(src))
//
//	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
//	defer stop()
//
//	sb.Start(ctx) // blocks until context is cancelled
//
// # Timing
//
// Ticks fire at a fixed period (2500ms by default) with no backoff or jitter.
// A tick never waits for the previous one: if the sensor is slower than the
// period, reads overlap, and whichever response arrives last is shown, even
// if it belongs to an older tick.
//
// # Architecture
//
// SensorBoard consists of several internal packages (under internal/):
//
//   - internal/poller: Fixed-period ticker and HTTP reads
//   - internal/surface: In-memory display surface with pub/sub
//   - internal/server: Dashboard page, snapshot API and Server-Sent Events
//   - internal/metrics: Prometheus counters for ticks and outcomes
//   - dashboard: Embedded web UI assets
package sensorboard
