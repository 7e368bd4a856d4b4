// Package poller implements the periodic sensor read.
//
// This package is internal to SensorBoard. On every tick of a fixed-period
// ticker, the [Poller] issues one GET request against the sensor's read
// endpoint and, if that request completes with status 200, writes the raw
// body to the display surface. Every other outcome is dropped.
//
// The main components are:
//
//   - [Client]: HTTP [Fetcher] with timeout and size limits
//   - [Poller]: Lifecycle handle owning the ticker and outstanding reads
//   - [Result]: Outcome of a single tick
//
// Ticks never wait for each other. A slow response can overlap later ticks
// and results are applied in the order they arrive, so an older response
// that finishes last overwrites a newer one.
package poller
